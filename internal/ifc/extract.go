package ifc

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/coolbeans/ifcaudit/internal/step"
)

// syntheticBase flags an ElementType.ID as synthetic (not a real STEP
// entity id) rather than colliding with real ids, which are expected to
// stay well under this value for any file that fits in memory.
const syntheticBase uint64 = 1 << 63

// Extract runs the single deterministic extraction pass over table and
// returns the immutable project graph. It never fails on missing
// IFCPROJECT, missing storeys, or dangling references — those are treated
// as legitimately empty results, not errors.
func Extract(table *step.Table, sourcePath string) *Project {
	p := newProject()
	p.Schema = table.Schema
	p.SourcePath = sourcePath

	extractProject(table, p)
	extractStoreys(table, p)

	familyIndexOfInstance := make(map[uint64]int)
	familyIndexOfType := make(map[uint64]int)
	elementTypeByID := make(map[uint64]*ElementType)
	categoriesByName := make(map[string]*Category)
	var categoryOrder []*Category

	for i, fam := range Families {
		cat := &Category{Name: fam.Category, Priority: fam.Priority}
		categoriesByName[fam.Category] = cat
		categoryOrder = append(categoryOrder, cat)

		typeNames := make([]string, 0, len(fam.InstanceTypes)*2)
		for _, it := range fam.InstanceTypes {
			typeNames = append(typeNames, typeEntityNames(it)...)
		}
		typeIDs := table.IDsOfTypes(typeNames...)
		it := typeIDs.Iterator()
		for it.HasNext() {
			id := it.Next()
			entity, ok := table.Get(id)
			if !ok {
				continue
			}
			et := &ElementType{
				ID:           id,
				GlobalID:     stringField(entity, 0),
				Name:         stringField(entity, 2),
				CategoryName: fam.Category,
				InstanceIDs:  roaring64.New(),
				Properties:   make(map[string]string),
			}
			elementTypeByID[id] = et
			familyIndexOfType[id] = i
			cat.Types = append(cat.Types, et)
		}

		instanceIDs := table.IDsOfTypes(fam.InstanceTypes...)
		instIt := instanceIDs.Iterator()
		for instIt.HasNext() {
			id := instIt.Next()
			entity, ok := table.Get(id)
			if !ok {
				continue
			}
			el := &Element{
				ID:         id,
				GlobalID:   stringField(entity, 0),
				Name:       stringField(entity, 2),
				Tag:        stringField(entity, 7),
				Properties: make(map[string]string),
			}
			p.elements[id] = el
			familyIndexOfInstance[id] = i
		}
	}

	typeIDByInstance := extractTypeLinks(table, p, elementTypeByID)
	extractSpatialContainment(table, p)
	assignInstancesToTypes(p, elementTypeByID, familyIndexOfInstance, typeIDByInstance, categoriesByName)
	extractPropertiesAndQuantities(table, p, elementTypeByID)

	for _, cat := range categoryOrder {
		if len(cat.Types) == 0 {
			continue
		}
		for _, t := range cat.Types {
			cat.TotalCount += t.InstanceCount
		}
		p.Categories = append(p.Categories, cat)
	}
	sortCategoriesAndTypes(p.Categories)

	return p
}

// extractPropertiesAndQuantities merges property sets
// (IFCPROPERTYSET / IFCPROPERTYSINGLEVALUE) and quantity sets
// (IFCELEMENTQUANTITY) into one owner property map. Both are reached
// through the same IFCRELDEFINESBYPROPERTIES relation, first occurrence
// per name winning across relations in ascending-id order.
func extractPropertiesAndQuantities(table *step.Table, p *Project, elementTypeByID map[uint64]*ElementType) {
	ids := table.IDsOfType("IFCRELDEFINESBYPROPERTIES")
	it := ids.Iterator()
	for it.HasNext() {
		e, ok := table.Get(it.Next())
		if !ok {
			continue
		}
		relatingDef := e.Field(5)
		if relatingDef.Kind != step.KindReference {
			continue
		}
		defEntity, ok := table.Get(relatingDef.Ref)
		if !ok {
			continue
		}

		var props map[string]string
		switch defEntity.Type {
		case "IFCPROPERTYSET":
			props = extractPropertySet(table, defEntity)
		case "IFCELEMENTQUANTITY":
			props = extractQuantitySet(table, defEntity)
		default:
			continue
		}
		if len(props) == 0 {
			continue
		}

		relatedObjects := e.Field(4)
		if relatedObjects.Kind != step.KindList {
			continue
		}
		for _, item := range relatedObjects.List {
			if item.Kind != step.KindReference {
				continue
			}
			ownerID := item.Ref
			if et, ok := elementTypeByID[ownerID]; ok {
				mergeProperties(et.Properties, props)
				continue
			}
			if el, ok := p.elements[ownerID]; ok {
				mergeProperties(el.Properties, props)
			}
		}
	}
}

func mergeProperties(dst, src map[string]string) {
	for k, v := range src {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
}

// extractPropertySet reads an IFCPROPERTYSET's IFCPROPERTYSINGLEVALUE
// members in list order, keeping only the first occurrence of a given
// property name. Other property types (enumerated, bounded, tabular) are
// skipped, consistent with the extractor's general "treat the
// unrecognised as absent" posture.
func extractPropertySet(table *step.Table, ps *step.Entity) map[string]string {
	hasProps := ps.Field(4)
	if hasProps.Kind != step.KindList {
		return nil
	}
	result := make(map[string]string)
	for _, item := range hasProps.List {
		if item.Kind != step.KindReference {
			continue
		}
		prop, ok := table.Get(item.Ref)
		if !ok || prop.Type != "IFCPROPERTYSINGLEVALUE" {
			continue
		}
		name := prop.Field(0)
		if name.Kind != step.KindString {
			continue
		}
		if _, exists := result[name.Str]; exists {
			continue
		}
		formatted, ok := formatValue(prop.Field(2))
		if !ok {
			continue
		}
		result[name.Str] = formatted
	}
	return result
}

// extractQuantitySet reads an IFCELEMENTQUANTITY's quantity members
// (IFCQUANTITYLENGTH, IFCQUANTITYAREA, IFCQUANTITYVOLUME,
// IFCQUANTITYCOUNT, IFCQUANTITYWEIGHT), formatting each the same way a
// property is formatted.
func extractQuantitySet(table *step.Table, eq *step.Entity) map[string]string {
	quantities := eq.Field(5)
	if quantities.Kind != step.KindList {
		return nil
	}
	result := make(map[string]string)
	for _, item := range quantities.List {
		if item.Kind != step.KindReference {
			continue
		}
		q, ok := table.Get(item.Ref)
		if !ok {
			continue
		}
		name := q.Field(0)
		if name.Kind != step.KindString {
			continue
		}
		if _, exists := result[name.Str]; exists {
			continue
		}
		formatted, ok := formatQuantity(q.Type, q.Field(3))
		if !ok {
			continue
		}
		result[name.Str] = formatted
	}
	return result
}

func stringField(e *step.Entity, index int) string {
	f := e.Field(index)
	if f.Kind == step.KindString {
		return f.Str
	}
	return ""
}

// extractProject reads the project record plus a site/building breadcrumb,
// using a direct type lookup rather than walking IFCRELAGGREGATES, since
// only a single IFCSITE/IFCBUILDING is expected per file and the relation
// walk would add no information beyond their Name fields.
func extractProject(table *step.Table, p *Project) {
	projectIDs := table.IDsOfType("IFCPROJECT")
	if !projectIDs.IsEmpty() {
		id := projectIDs.Minimum()
		if e, ok := table.Get(id); ok {
			p.Name = stringField(e, 2)
		}
	}
	siteIDs := table.IDsOfType("IFCSITE")
	if !siteIDs.IsEmpty() {
		if e, ok := table.Get(siteIDs.Minimum()); ok {
			p.SiteName = stringField(e, 2)
		}
	}
	buildingIDs := table.IDsOfType("IFCBUILDING")
	if !buildingIDs.IsEmpty() {
		if e, ok := table.Get(buildingIDs.Minimum()); ok {
			p.BuildingName = stringField(e, 2)
		}
	}
}

// extractStoreys reads every IFCBUILDINGSTOREY into p.Storeys.
func extractStoreys(table *step.Table, p *Project) {
	ids := table.IDsOfType("IFCBUILDINGSTOREY")
	it := ids.Iterator()
	for it.HasNext() {
		id := it.Next()
		e, ok := table.Get(id)
		if !ok {
			continue
		}
		storey := &Storey{
			ID:        id,
			Name:      stringField(e, 2),
			Elevation: realField(e, 9),
		}
		p.Storeys = append(p.Storeys, storey)
		p.storeysByID[id] = storey
	}
}

func realField(e *step.Entity, index int) float64 {
	f := e.Field(index)
	switch f.Kind {
	case step.KindReal:
		return f.Real
	case step.KindInteger:
		return float64(f.Int)
	default:
		return 0.0
	}
}

// extractTypeLinks maps each related instance to its relating type via
// IFCRELDEFINESBYTYPE. Dangling references in either the related-objects
// list or the relating-type field are skipped silently; later relations
// overwrite earlier ones because entities are visited in ascending id
// order, giving last-writer-wins semantics.
func extractTypeLinks(table *step.Table, p *Project, elementTypeByID map[uint64]*ElementType) map[uint64]uint64 {
	typeIDByInstance := make(map[uint64]uint64)
	ids := table.IDsOfType("IFCRELDEFINESBYTYPE")
	it := ids.Iterator()
	for it.HasNext() {
		e, ok := table.Get(it.Next())
		if !ok {
			continue
		}
		relatingType := e.Field(5)
		if relatingType.Kind != step.KindReference {
			continue
		}
		if _, ok := elementTypeByID[relatingType.Ref]; !ok {
			continue
		}
		relatedObjects := e.Field(4)
		if relatedObjects.Kind != step.KindList {
			continue
		}
		for _, item := range relatedObjects.List {
			if item.Kind != step.KindReference {
				continue
			}
			if _, ok := p.elements[item.Ref]; !ok {
				continue
			}
			typeIDByInstance[item.Ref] = relatingType.Ref
		}
	}
	return typeIDByInstance
}

// extractSpatialContainment walks IFCRELCONTAINEDINSPATIALSTRUCTURE to map
// each element to its storey. Multiple relations naming the same element
// resolve to the last-seen storey, matching the file's ascending id order.
func extractSpatialContainment(table *step.Table, p *Project) {
	ids := table.IDsOfType("IFCRELCONTAINEDINSPATIALSTRUCTURE")
	it := ids.Iterator()
	for it.HasNext() {
		e, ok := table.Get(it.Next())
		if !ok {
			continue
		}
		relatingStructure := e.Field(5)
		if relatingStructure.Kind != step.KindReference {
			continue
		}
		if _, isStorey := p.storeysByID[relatingStructure.Ref]; !isStorey {
			continue
		}
		relatedElements := e.Field(4)
		if relatedElements.Kind != step.KindList {
			continue
		}
		for _, item := range relatedElements.List {
			if item.Kind != step.KindReference {
				continue
			}
			if _, ok := p.elements[item.Ref]; !ok {
				continue
			}
			p.elementToStorey[item.Ref] = relatingStructure.Ref
		}
	}

	for eid, sid := range p.elementToStorey {
		bm, ok := p.storeyElements[sid]
		if !ok {
			bm = roaring64.New()
			p.storeyElements[sid] = bm
		}
		bm.Add(eid)
		sidCopy := sid
		p.elements[eid].StoreyID = &sidCopy
	}
	for sid, bm := range p.storeyElements {
		if s, ok := p.storeysByID[sid]; ok {
			s.ElementCount = int(bm.GetCardinality())
		}
	}
}

// assignInstancesToTypes finishes type assignment: every instance ends up
// counted under either its explicitly linked type or a per-family
// synthetic type. The synthetic type's display name comes from the first
// (ascending id) unassigned instance of that family that has a Name,
// falling back to the family's category name, applied deterministically
// across multiple unassigned instances.
func assignInstancesToTypes(p *Project, elementTypeByID map[uint64]*ElementType, familyIndexOfInstance map[uint64]int, typeIDByInstance map[uint64]uint64, categoriesByName map[string]*Category) {
	instIDs := make([]uint64, 0, len(familyIndexOfInstance))
	for id := range familyIndexOfInstance {
		instIDs = append(instIDs, id)
	}
	sort.Slice(instIDs, func(i, j int) bool { return instIDs[i] < instIDs[j] })

	syntheticByFamily := make(map[int]*ElementType)

	for _, instID := range instIDs {
		famIdx := familyIndexOfInstance[instID]
		var targetTypeID uint64
		if explicit, ok := typeIDByInstance[instID]; ok {
			targetTypeID = explicit
		} else {
			synthetic, ok := syntheticByFamily[famIdx]
			if !ok {
				name := p.elements[instID].Name
				if name == "" {
					name = Families[famIdx].Category
				}
				synthetic = &ElementType{
					ID:           syntheticBase | uint64(famIdx),
					Name:         name,
					CategoryName: Families[famIdx].Category,
					InstanceIDs:  roaring64.New(),
					Properties:   make(map[string]string),
				}
				syntheticByFamily[famIdx] = synthetic
				elementTypeByID[synthetic.ID] = synthetic
				if cat, ok := categoriesByName[Families[famIdx].Category]; ok {
					cat.Types = append(cat.Types, synthetic)
				}
			}
			targetTypeID = synthetic.ID
		}

		et := elementTypeByID[targetTypeID]
		et.InstanceIDs.Add(instID)
		et.InstanceCount++
		tid := targetTypeID
		p.elements[instID].TypeID = &tid
	}
}

