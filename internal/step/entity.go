package step

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Entity is one "#id = TYPE(fields);" record from the DATA section.
type Entity struct {
	ID     uint64
	Type   string // upper-case
	Fields []Value
}

// Field returns the value at position i, or Null if the entity has fewer
// fields than requested. Field access is positional, matching the STEP
// text; schema-derived names exist only in comments.
func (e *Entity) Field(i int) Value {
	if e == nil || i < 0 || i >= len(e.Fields) {
		return Null()
	}
	return e.Fields[i]
}

// Table is the flat id -> entity mapping built by the parser, plus the
// auxiliary type index built once after parse.
type Table struct {
	Schema   string
	entities map[uint64]*Entity
	byType   map[string]*roaring64.Bitmap
}

// NewTable creates an empty table ready to receive entities via Add.
func NewTable(schema string) *Table {
	return &Table{
		Schema:   schema,
		entities: make(map[uint64]*Entity),
		byType:   make(map[string]*roaring64.Bitmap),
	}
}

// Add inserts e into the table and its type index. Callers are responsible
// for rejecting duplicate ids before calling Add (the entity parser does
// this to produce a proper InvalidStep error with source position).
func (t *Table) Add(e *Entity) {
	t.entities[e.ID] = e
	bm, ok := t.byType[e.Type]
	if !ok {
		bm = roaring64.New()
		t.byType[e.Type] = bm
	}
	bm.Add(e.ID)
}

// Has reports whether id is present, without allocating.
func (t *Table) Has(id uint64) bool {
	_, ok := t.entities[id]
	return ok
}

// Get dereferences id. A missing id is "absent", never an error — callers
// treat the zero value and false as "skip this reference".
func (t *Table) Get(id uint64) (*Entity, bool) {
	e, ok := t.entities[id]
	return e, ok
}

// Len returns the number of entities in the table.
func (t *Table) Len() int {
	return len(t.entities)
}

// IDsOfType returns the (possibly empty, never nil) set of entity ids whose
// Type equals the given upper-case type name.
func (t *Table) IDsOfType(typeName string) *roaring64.Bitmap {
	if bm, ok := t.byType[typeName]; ok {
		return bm
	}
	return roaring64.New()
}

// IDsOfTypes unions IDsOfType over several type names, used when a family
// spans more than one IFC entity type (e.g. IFCWALL + IFCWALLSTANDARDCASE).
func (t *Table) IDsOfTypes(typeNames ...string) *roaring64.Bitmap {
	union := roaring64.New()
	for _, name := range typeNames {
		union.Or(t.IDsOfType(name))
	}
	return union
}

// SortedIDs returns every entity id in ascending numeric order. Inverse
// walks entities in this order; the domain extractor gets the same
// ascending order from the type index's bitmaps.
func (t *Table) SortedIDs() []uint64 {
	ids := make([]uint64, 0, len(t.entities))
	for id := range t.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Inverse lazily builds and returns the id -> referencing-ids index for
// callers that need many-to-one walks; the extraction pass in internal/ifc
// does not use it. It is recomputed on every call; callers that need it repeatedly should cache
// the result themselves.
func (t *Table) Inverse() map[uint64][]uint64 {
	inv := make(map[uint64][]uint64)
	for _, id := range t.SortedIDs() {
		e := t.entities[id]
		walkReferences(e.Fields, func(ref uint64) {
			inv[ref] = append(inv[ref], id)
		})
	}
	return inv
}

func walkReferences(fields []Value, visit func(uint64)) {
	for _, f := range fields {
		switch f.Kind {
		case KindReference:
			visit(f.Ref)
		case KindList:
			walkReferences(f.List, visit)
		}
	}
}
