package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/coolbeans/ifcaudit/internal/ifc"
)

// Renderer draws a Controller's current state. PlainRenderer is the only
// implementation here; a richer one (colour, layout) can be swapped in
// without the controller or Run loop changing.
type Renderer interface {
	Render(c *Controller)
}

// PlainRenderer is a fmt.Fprintf-based fallback with no colour or layout
// library.
type PlainRenderer struct {
	Out io.Writer
}

func (r PlainRenderer) Render(c *Controller) {
	switch c.View {
	case ViewDashboard:
		r.renderDashboard(c)
	case ViewTypeDetail:
		r.renderTypeDetail(c)
	case ViewInstanceBrowser:
		r.renderInstanceBrowser(c)
	}
}

func (r PlainRenderer) renderDashboard(c *Controller) {
	p := c.Project()
	fmt.Fprintf(r.Out, "%s (%s)\n", p.Name, p.Schema)
	if id, ok := c.SelectedStorey(); ok {
		if s, ok := p.StoreyByID(id); ok {
			fmt.Fprintf(r.Out, "filtered to storey: %s\n", s.Name)
		}
	}
	fmt.Fprintln(r.Out, "-- Levels --")
	for i, s := range p.Storeys {
		fmt.Fprintf(r.Out, "%s %s (%d elements)\n", cursorMark(c.Focus == FocusLevels && c.levelCursor == i), s.Name, s.ElementCount)
	}
	fmt.Fprintln(r.Out, "-- Categories --")
	for i, cat := range c.VisibleCategories() {
		fmt.Fprintf(r.Out, "%s %s (%d)\n", cursorMark(c.Focus == FocusCategories && c.categoryCursor == i), cat.Name, cat.TotalCount)
	}
	fmt.Fprintln(r.Out, "-- Types --")
	for i, t := range c.typesInFocusedCategory() {
		fmt.Fprintf(r.Out, "%s %s x%d\n", cursorMark(c.Focus == FocusTypes && c.typeCursor == i), t.Name, t.InstanceCount)
	}
}

func (r PlainRenderer) renderTypeDetail(c *Controller) {
	t := c.SelectedType()
	if t == nil {
		return
	}
	fmt.Fprintf(r.Out, "Type: %s (%d instances)\n", t.Name, t.InstanceCount)
	for k, v := range t.Properties {
		fmt.Fprintf(r.Out, "  %s: %s\n", k, v)
	}
	fmt.Fprintln(r.Out, "[i] browse instances  [q] back")
}

func (r PlainRenderer) renderInstanceBrowser(c *Controller) {
	t := c.SelectedType()
	if t == nil {
		return
	}
	ids := t.InstanceIDs.ToArray()
	if c.instanceCursor < len(ids) {
		id := ids[c.instanceCursor]
		fmt.Fprintf(r.Out, "Instance #%d of %d: entity id %d\n", c.instanceCursor+1, len(ids), id)
		if el, ok := c.Project().ElementByID(id); ok {
			fmt.Fprintf(r.Out, "  GlobalId: %s\n  Name: %s\n", el.GlobalID, el.Name)
		}
	}
	fmt.Fprintln(r.Out, "[j/k] next/prev  [q] back")
}

func cursorMark(selected bool) string {
	if selected {
		return ">"
	}
	return " "
}

// Run puts the terminal in raw mode, runs the read-key/handle/render loop
// until HandleKey reports Quit, and restores the terminal on every exit
// path including a returned error.
func Run(c *Controller, renderer Renderer) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return runNonInteractive(c, renderer)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	renderer.Render(c)
	reader := bufio.NewReader(os.Stdin)
	for {
		ch, _, err := reader.ReadRune()
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		t := c.HandleKey(ch)
		if t.Quit {
			return nil
		}
		if t.Redrawn {
			renderer.Render(c)
		}
	}
}

// runNonInteractive renders the dashboard once and returns, used when
// stdin is not a terminal (e.g. piped input during tests or CI).
func runNonInteractive(c *Controller, renderer Renderer) error {
	renderer.Render(c)
	return nil
}

// RunWatched is Run plus a reload channel: a --watch session stays on one
// raw-mode terminal and one select loop (a helper goroutine only reads
// keys into a channel), swapping in a fresh Controller (over the freshly re-extracted Project) whenever reload
// fires, never while a key is mid-handling.
func RunWatched(c *Controller, renderer Renderer, reload <-chan *ifc.Project) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return runNonInteractive(c, renderer)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	keys := make(chan rune)
	readErrs := make(chan error, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			ch, _, err := reader.ReadRune()
			if err != nil {
				readErrs <- err
				return
			}
			keys <- ch
		}
	}()

	renderer.Render(c)
	for {
		select {
		case err := <-readErrs:
			return fmt.Errorf("reading input: %w", err)
		case ch := <-keys:
			t := c.HandleKey(ch)
			if t.Quit {
				return nil
			}
			if t.Redrawn {
				renderer.Render(c)
			}
		case p := <-reload:
			c = New(p)
			renderer.Render(c)
		}
	}
}
