// Package ifc implements the IFC extraction pass and the resulting
// project graph: project -> categories -> types -> instances, plus
// storeys, type<->instance relations, spatial containment, and property
// sets.
package ifc

import (
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Storey is a building level. BIM elements are spatially contained in at
// most one storey.
type Storey struct {
	ID           uint64
	Name         string
	Elevation    float64
	ElementCount int
}

// ElementType groups instances that share a declared IFC type, or a
// synthetic grouping for instances with no declared type.
type ElementType struct {
	ID            uint64
	GlobalID      string
	Name          string
	CategoryName  string
	InstanceCount int
	InstanceIDs   *roaring64.Bitmap
	Properties    map[string]string
}

// Category is a human-facing grouping of element types, e.g. "Walls".
type Category struct {
	Name       string
	Priority   bool
	Types      []*ElementType
	TotalCount int
}

// Element is one BIM instance.
type Element struct {
	ID         uint64
	GlobalID   string
	Name       string
	Tag        string
	TypeID     *uint64
	StoreyID   *uint64
	Properties map[string]string
}

// Project is the root of the in-memory domain graph produced by Extract.
// It is built once and is immutable thereafter.
type Project struct {
	Name         string
	Schema       string
	SourcePath   string
	SiteName     string
	BuildingName string
	Categories   []*Category
	Storeys      []*Storey

	elements        map[uint64]*Element
	elementToStorey map[uint64]uint64
	storeyElements  map[uint64]*roaring64.Bitmap
	storeysByID     map[uint64]*Storey
}

func newProject() *Project {
	return &Project{
		elements:        make(map[uint64]*Element),
		elementToStorey: make(map[uint64]uint64),
		storeyElements:  make(map[uint64]*roaring64.Bitmap),
		storeysByID:     make(map[uint64]*Storey),
	}
}

// TotalElements sums instance_count across all categories.
func (p *Project) TotalElements() int {
	total := 0
	for _, c := range p.Categories {
		total += c.TotalCount
	}
	return total
}

// TotalTypes counts element types across all categories.
func (p *Project) TotalTypes() int {
	total := 0
	for _, c := range p.Categories {
		total += len(c.Types)
	}
	return total
}

// StoreyByID looks up a storey by its entity id.
func (p *Project) StoreyByID(id uint64) (*Storey, bool) {
	s, ok := p.storeysByID[id]
	return s, ok
}

// ElementByID looks up an instance by its entity id.
func (p *Project) ElementByID(id uint64) (*Element, bool) {
	e, ok := p.elements[id]
	return e, ok
}

// InstancesOnStorey enumerates, in ascending id order, every element id
// whose storey mapping equals storeyID.
func (p *Project) InstancesOnStorey(storeyID uint64) []uint64 {
	bm, ok := p.storeyElements[storeyID]
	if !ok {
		return nil
	}
	ids := make([]uint64, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, it.Next())
	}
	return ids
}

// TypesOnStorey returns every ElementType whose instance set intersects
// the given storey's element set. It is the
// computation behind the UI Controller's storey filter.
func (p *Project) TypesOnStorey(storeyID uint64) []*ElementType {
	storeyBM, ok := p.storeyElements[storeyID]
	if !ok || storeyBM.IsEmpty() {
		return nil
	}
	var matches []*ElementType
	for _, c := range p.Categories {
		for _, t := range c.Types {
			if t.InstanceIDs.Intersects(storeyBM) {
				matches = append(matches, t)
			}
		}
	}
	return matches
}

// sortCategoriesAndTypes applies the deterministic ordering: types within
// a category sort by descending instance count, ties broken by
// case-insensitive name; categories put priority families first (in
// Families' declared order), then the rest by descending total count.
func sortCategoriesAndTypes(categories []*Category) {
	for _, c := range categories {
		types := c.Types
		sort.SliceStable(types, func(i, j int) bool {
			if types[i].InstanceCount != types[j].InstanceCount {
				return types[i].InstanceCount > types[j].InstanceCount
			}
			return strings.ToLower(types[i].Name) < strings.ToLower(types[j].Name)
		})
	}

	priorityOrder := make(map[string]int)
	for i, f := range Families {
		if f.Priority {
			if _, exists := priorityOrder[f.Category]; !exists {
				priorityOrder[f.Category] = i
			}
		}
	}

	sort.SliceStable(categories, func(i, j int) bool {
		iPri, iIsPri := priorityOrder[categories[i].Name]
		jPri, jIsPri := priorityOrder[categories[j].Name]
		if iIsPri && jIsPri {
			return iPri < jPri
		}
		if iIsPri != jIsPri {
			return iIsPri
		}
		return categories[i].TotalCount > categories[j].TotalCount
	})
}
