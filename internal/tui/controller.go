// Package tui implements the dashboard's UI Controller: a pure state
// machine over a read-only Project, plus a minimal terminal runner in
// runner.go.
package tui

import (
	"github.com/coolbeans/ifcaudit/internal/ifc"
)

// View names one of the three screens the controller can be in.
type View int

const (
	ViewDashboard View = iota
	ViewTypeDetail
	ViewInstanceBrowser
)

// Focus names which dashboard pane the cursor moves within.
type Focus int

const (
	FocusLevels Focus = iota
	FocusCategories
	FocusTypes
)

// Transition reports what HandleKey did, so the runner knows whether to
// redraw, quit, or do nothing. It never carries a mutated Project — the
// project graph is immutable for the controller's whole lifetime.
type Transition struct {
	Quit    bool
	Redrawn bool
}

// Controller holds the cursor state for a single Project. It never mutates
// p. View and Focus are exported for a Renderer to read; the cursors and
// the storey filter are unexported, read through the accessor methods
// below or directly by this package's PlainRenderer.
type Controller struct {
	project *ifc.Project

	View  View
	Focus Focus

	levelCursor    int
	categoryCursor int
	typeCursor     int
	instanceCursor int

	selectedStorey    *uint64
	selectedType      *ifc.ElementType
	visibleCategories []*ifc.Category
}

// New builds a controller positioned on the dashboard with no storey filter
// applied, showing every category in the project's existing order.
func New(p *ifc.Project) *Controller {
	c := &Controller{project: p, View: ViewDashboard}
	c.visibleCategories = p.Categories
	return c
}

// Project exposes the underlying model for a Renderer. Renderers must
// treat it as read-only.
func (c *Controller) Project() *ifc.Project {
	return c.project
}

// VisibleCategories is the category list narrowed by the selected storey
// filter, recomputed whenever the filter changes.
func (c *Controller) VisibleCategories() []*ifc.Category {
	return c.visibleCategories
}

// SelectedStorey returns the currently filtered storey id, if any.
func (c *Controller) SelectedStorey() (uint64, bool) {
	if c.selectedStorey == nil {
		return 0, false
	}
	return *c.selectedStorey, true
}

// SelectedType returns the type under focus in TypeDetail/InstanceBrowser.
func (c *Controller) SelectedType() *ifc.ElementType {
	return c.selectedType
}

// HandleKey applies one input event and returns what happened. It never
// mutates the Project; all state lives in the controller's own cursors.
func (c *Controller) HandleKey(r rune) Transition {
	if r == 'q' {
		if c.View != ViewDashboard {
			c.View = ViewDashboard
			return Transition{Redrawn: true}
		}
		return Transition{Quit: true}
	}

	switch c.View {
	case ViewDashboard:
		return c.handleDashboardKey(r)
	case ViewTypeDetail:
		return c.handleTypeDetailKey(r)
	case ViewInstanceBrowser:
		return c.handleInstanceBrowserKey(r)
	default:
		return Transition{}
	}
}

func (c *Controller) handleDashboardKey(r rune) Transition {
	switch r {
	case '\t':
		c.Focus = (c.Focus + 1) % 3
		return Transition{Redrawn: true}
	case 'j':
		c.moveCursor(1)
		return Transition{Redrawn: true}
	case 'k':
		c.moveCursor(-1)
		return Transition{Redrawn: true}
	case '\r', '\n':
		return c.activateFocused()
	case 'c':
		c.clearStoreyFilter()
		return Transition{Redrawn: true}
	default:
		return Transition{}
	}
}

func (c *Controller) moveCursor(delta int) {
	switch c.Focus {
	case FocusLevels:
		c.levelCursor = clamp(c.levelCursor+delta, len(c.project.Storeys))
	case FocusCategories:
		c.categoryCursor = clamp(c.categoryCursor+delta, len(c.visibleCategories))
	case FocusTypes:
		types := c.typesInFocusedCategory()
		c.typeCursor = clamp(c.typeCursor+delta, len(types))
	}
}

func (c *Controller) typesInFocusedCategory() []*ifc.ElementType {
	if c.categoryCursor < 0 || c.categoryCursor >= len(c.visibleCategories) {
		return nil
	}
	return c.visibleCategories[c.categoryCursor].Types
}

func (c *Controller) activateFocused() Transition {
	switch c.Focus {
	case FocusLevels:
		if c.levelCursor < 0 || c.levelCursor >= len(c.project.Storeys) {
			return Transition{}
		}
		id := c.project.Storeys[c.levelCursor].ID
		c.selectedStorey = &id
		c.applyStoreyFilter()
		return Transition{Redrawn: true}
	case FocusTypes:
		types := c.typesInFocusedCategory()
		if c.typeCursor < 0 || c.typeCursor >= len(types) {
			return Transition{}
		}
		c.selectedType = types[c.typeCursor]
		c.View = ViewTypeDetail
		return Transition{Redrawn: true}
	default:
		return Transition{}
	}
}

func (c *Controller) clearStoreyFilter() {
	c.selectedStorey = nil
	c.visibleCategories = c.project.Categories
	c.categoryCursor = 0
	c.typeCursor = 0
}

// applyStoreyFilter narrows visibleCategories to only the types whose
// instance set intersects the selected storey's element set, rebuilding
// per-category buckets from Project.TypesOnStorey.
func (c *Controller) applyStoreyFilter() {
	storeyID, ok := c.SelectedStorey()
	if !ok {
		c.visibleCategories = c.project.Categories
		return
	}
	allowed := make(map[*ifc.ElementType]bool)
	for _, t := range c.project.TypesOnStorey(storeyID) {
		allowed[t] = true
	}
	var filtered []*ifc.Category
	for _, cat := range c.project.Categories {
		var types []*ifc.ElementType
		for _, t := range cat.Types {
			if allowed[t] {
				types = append(types, t)
			}
		}
		if len(types) == 0 {
			continue
		}
		filtered = append(filtered, &ifc.Category{
			Name:     cat.Name,
			Priority: cat.Priority,
			Types:    types,
		})
	}
	c.visibleCategories = filtered
	c.categoryCursor = 0
	c.typeCursor = 0
}

func (c *Controller) handleTypeDetailKey(r rune) Transition {
	if r == 'i' {
		c.View = ViewInstanceBrowser
		c.instanceCursor = 0
		return Transition{Redrawn: true}
	}
	return Transition{}
}

func (c *Controller) handleInstanceBrowserKey(r rune) Transition {
	if c.selectedType == nil {
		return Transition{}
	}
	count := int(c.selectedType.InstanceIDs.GetCardinality())
	switch r {
	case 'j':
		c.instanceCursor = clamp(c.instanceCursor+1, count)
		return Transition{Redrawn: true}
	case 'k':
		c.instanceCursor = clamp(c.instanceCursor-1, count)
		return Transition{Redrawn: true}
	default:
		return Transition{}
	}
}

func clamp(v, length int) int {
	if length == 0 {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v >= length {
		return length - 1
	}
	return v
}
