package ifc

import (
	"strings"
	"testing"

	"github.com/coolbeans/ifcaudit/internal/step"
)

func mustParse(t *testing.T, schemaLine, data string) *step.Table {
	t.Helper()
	doc := "ISO-10303-21;\nHEADER;\n" + schemaLine + "\nENDSEC;\nDATA;\n" + data + "\nENDSEC;\nEND-ISO-10303-21;\n"
	table, err := step.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return table
}

// Scenario A — minimal project.
func TestExtract_ScenarioA_MinimalProject(t *testing.T) {
	data := `#1=IFCPROJECT('0abc',$,'TestProj',$,$,$,$,$,$);
#2=IFCBUILDINGSTOREY('0st1',$,'Level 0',$,$,$,$,$,.ELEMENT.,0.);
#3=IFCWALL('0wl1',$,'W-A',$,$,$,$,$,$);
#4=IFCWALL('0wl2',$,'W-B',$,$,$,$,$,$);
#5=IFCRELCONTAINEDINSPATIALSTRUCTURE('0re1',$,$,$,(#3,#4),#2);`
	table := mustParse(t, "FILE_SCHEMA(('IFC4'));", data)

	p := Extract(table, "scenario-a.ifc")

	if p.Name != "TestProj" {
		t.Errorf("project name = %q, want TestProj", p.Name)
	}
	if p.Schema != "IFC4" {
		t.Errorf("schema = %q, want IFC4", p.Schema)
	}
	if len(p.Storeys) != 1 || p.Storeys[0].Name != "Level 0" || p.Storeys[0].Elevation != 0.0 {
		t.Fatalf("storeys = %+v", p.Storeys)
	}
	if len(p.Categories) != 1 || p.Categories[0].Name != "Walls" || !p.Categories[0].Priority {
		t.Fatalf("categories = %+v", p.Categories)
	}
	walls := p.Categories[0]
	if len(walls.Types) != 1 {
		t.Fatalf("expected one synthetic wall type, got %d", len(walls.Types))
	}
	syntheticType := walls.Types[0]
	if syntheticType.InstanceCount != 2 {
		t.Errorf("instance count = %d, want 2", syntheticType.InstanceCount)
	}
	ids := syntheticType.InstanceIDs
	if !ids.Contains(3) || !ids.Contains(4) {
		t.Errorf("instance ids = %v, want {3,4}", ids.ToArray())
	}
	if p.TotalElements() != 2 {
		t.Errorf("TotalElements() = %d, want 2", p.TotalElements())
	}
	for _, id := range []uint64{3, 4} {
		el, ok := p.ElementByID(id)
		if !ok {
			t.Fatalf("element #%d missing", id)
		}
		if el.StoreyID == nil || *el.StoreyID != 2 {
			t.Errorf("element #%d storey = %v, want 2", id, el.StoreyID)
		}
	}
}

// Scenario B — typed wall with property set.
func TestExtract_ScenarioB_TypedWallWithProperties(t *testing.T) {
	data := `#1=IFCPROJECT('0abc',$,'TestProj',$,$,$,$,$,$);
#2=IFCBUILDINGSTOREY('0st1',$,'Level 0',$,$,$,$,$,.ELEMENT.,0.);
#3=IFCWALL('0wl1',$,'W-A',$,$,$,$,$,$);
#4=IFCWALL('0wl2',$,'W-B',$,$,$,$,$,$);
#5=IFCRELCONTAINEDINSPATIALSTRUCTURE('0re1',$,$,$,(#3,#4),#2);
#6=IFCWALLTYPE('0wt1',$,'Basic 200',$,$,$,$,$,$,$,$);
#7=IFCRELDEFINESBYTYPE('0rt1',$,$,$,(#3,#4),#6);
#8=IFCPROPERTYSINGLEVALUE('Width',$,IFCLENGTHMEASURE(200.),$);
#9=IFCPROPERTYSET('0ps1',$,'Pset_WallCommon',$,(#8));
#10=IFCRELDEFINESBYPROPERTIES('0rp1',$,$,$,(#6),#9);`
	table := mustParse(t, "FILE_SCHEMA(('IFC4'));", data)

	p := Extract(table, "scenario-b.ifc")

	if len(p.Categories) != 1 {
		t.Fatalf("categories = %+v", p.Categories)
	}
	walls := p.Categories[0]
	if len(walls.Types) != 1 {
		t.Fatalf("expected one type, got %d", len(walls.Types))
	}
	basic200 := walls.Types[0]
	if basic200.Name != "Basic 200" {
		t.Errorf("type name = %q, want Basic 200", basic200.Name)
	}
	if basic200.InstanceCount != 2 {
		t.Errorf("instance count = %d, want 2", basic200.InstanceCount)
	}
	if !basic200.InstanceIDs.Contains(3) || !basic200.InstanceIDs.Contains(4) {
		t.Errorf("instance ids = %v", basic200.InstanceIDs.ToArray())
	}
	if got, want := basic200.Properties["Width"], "200.00 mm"; got != want {
		t.Errorf("Width property = %q, want %q", got, want)
	}
}

// Scenario C — Unicode in a name.
func TestExtract_ScenarioC_UnicodeName(t *testing.T) {
	data := `#3=IFCWALL('0wl1',$,'Sciana \X2\00D3\X0\','',$,$,$,$,$);`
	table := mustParse(t, "FILE_SCHEMA(('IFC4'));", data)

	p := Extract(table, "scenario-c.ifc")

	el, ok := p.ElementByID(3)
	if !ok {
		t.Fatal("element #3 missing")
	}
	want := "Sciana Ó"
	if el.Name != want {
		t.Errorf("name = %q, want %q", el.Name, want)
	}
}

// Scenario D — dangling reference.
func TestExtract_ScenarioD_DanglingReference(t *testing.T) {
	data := `#2=IFCBUILDINGSTOREY('0st1',$,'Level 0',$,$,$,$,$,.ELEMENT.,0.);
#3=IFCWALL('0wl1',$,'W-A',$,$,$,$,$,$);
#5=IFCRELCONTAINEDINSPATIALSTRUCTURE('0re1',$,$,$,(#3,#999),#2);`
	table := mustParse(t, "FILE_SCHEMA(('IFC4'));", data)

	p := Extract(table, "scenario-d.ifc")

	el, ok := p.ElementByID(3)
	if !ok {
		t.Fatal("element #3 missing")
	}
	if el.StoreyID == nil || *el.StoreyID != 2 {
		t.Errorf("element #3 storey = %v, want 2", el.StoreyID)
	}
	total := 0
	for range p.InstancesOnStorey(2) {
		total++
	}
	if total != 1 {
		t.Errorf("instances on storey 2 = %d, want 1", total)
	}
}

// A dangling entry in an IFCRELDEFINESBYTYPE related-objects list is
// skipped; remaining entries still map correctly.
func TestExtract_DanglingRelDefinesByTypeEntrySkipped(t *testing.T) {
	data := `#3=IFCWALL('0wl1',$,'W-A',$,$,$,$,$,$);
#6=IFCWALLTYPE('0wt1',$,'Basic 200',$,$,$,$,$,$,$,$);
#7=IFCRELDEFINESBYTYPE('0rt1',$,$,$,(#3,#999),#6);`
	table := mustParse(t, "FILE_SCHEMA(('IFC4'));", data)

	p := Extract(table, "dangling-type-link.ifc")

	walls := p.Categories[0]
	basic200 := walls.Types[0]
	if basic200.InstanceCount != 1 {
		t.Errorf("instance count = %d, want 1", basic200.InstanceCount)
	}
	if !basic200.InstanceIDs.Contains(3) {
		t.Errorf("instance 3 missing from type's instance set")
	}
}

// Duplicated property names inside one IFCPROPERTYSET keep only the
// first.
func TestExtract_DuplicatePropertyNameKeepsFirst(t *testing.T) {
	data := `#6=IFCWALLTYPE('0wt1',$,'Basic 200',$,$,$,$,$,$,$,$);
#8=IFCPROPERTYSINGLEVALUE('Width',$,IFCLENGTHMEASURE(200.),$);
#9=IFCPROPERTYSINGLEVALUE('Width',$,IFCLENGTHMEASURE(999.),$);
#11=IFCPROPERTYSET('0ps1',$,'Pset_WallCommon',$,(#8,#9));
#12=IFCRELDEFINESBYPROPERTIES('0rp1',$,$,$,(#6),#11);`
	table := mustParse(t, "FILE_SCHEMA(('IFC4'));", data)

	p := Extract(table, "duplicate-property.ifc")

	walls := p.Categories[0]
	wallType := walls.Types[0]
	if got, want := wallType.Properties["Width"], "200.00 mm"; got != want {
		t.Errorf("Width = %q, want %q (first occurrence)", got, want)
	}
}

// An empty DATA section parses to an empty table and a project with
// zero elements, zero types, no error.
func TestExtract_EmptyDataSection(t *testing.T) {
	table := mustParse(t, "FILE_SCHEMA(('IFC2X3'));", "")

	p := Extract(table, "empty.ifc")

	if p.TotalElements() != 0 {
		t.Errorf("TotalElements() = %d, want 0", p.TotalElements())
	}
	if p.TotalTypes() != 0 {
		t.Errorf("TotalTypes() = %d, want 0", p.TotalTypes())
	}
	if p.Schema != "IFC2X3" {
		t.Errorf("schema = %q, want IFC2X3", p.Schema)
	}
	if len(p.Categories) != 0 {
		t.Errorf("categories = %+v, want none", p.Categories)
	}
}

func TestExtract_MissingIFCProjectIsNotAnError(t *testing.T) {
	table := mustParse(t, "", "")
	p := Extract(table, "no-project.ifc")
	if p.Name != "" {
		t.Errorf("name = %q, want empty", p.Name)
	}
	if p.Schema != "UNKNOWN" {
		t.Errorf("schema = %q, want UNKNOWN", p.Schema)
	}
}

func TestExtract_QuantitySetMergesLikeProperties(t *testing.T) {
	data := `#6=IFCWALLTYPE('0wt1',$,'Basic 200',$,$,$,$,$,$,$,$);
#20=IFCQUANTITYLENGTH('Length',$,$,12.5);
#21=IFCELEMENTQUANTITY('0eq1',$,'BaseQuantities',$,$,(#20));
#22=IFCRELDEFINESBYPROPERTIES('0rp2',$,$,$,(#6),#21);`
	table := mustParse(t, "FILE_SCHEMA(('IFC4'));", data)

	p := Extract(table, "quantities.ifc")

	wallType := p.Categories[0].Types[0]
	if got, want := wallType.Properties["Length"], "12.50 mm"; got != want {
		t.Errorf("Length = %q, want %q", got, want)
	}
}
