package ifc

// FamilyDef groups one or more IFC entity types under a single display
// category. Declaration order is significant: it is both the tie-break
// order for priority categories and the order families are visited during
// extraction.
type FamilyDef struct {
	Category      string
	Priority      bool
	InstanceTypes []string
}

// Families is the priority mapping table consulted during extraction.
var Families = []FamilyDef{
	{Category: "Walls", Priority: true, InstanceTypes: []string{"IFCWALL", "IFCWALLSTANDARDCASE"}},
	{Category: "Doors", Priority: true, InstanceTypes: []string{"IFCDOOR"}},
	{Category: "Windows", Priority: true, InstanceTypes: []string{"IFCWINDOW"}},
	{Category: "Furniture", Priority: true, InstanceTypes: []string{"IFCFURNISHINGELEMENT"}},
	{Category: "Fixtures", Priority: true, InstanceTypes: []string{"IFCSANITARYTERMINAL", "IFCFLOWTERMINAL", "IFCFLOWFIXTURE"}},
	{Category: "Slabs", Priority: false, InstanceTypes: []string{"IFCSLAB"}},
	{Category: "Columns", Priority: false, InstanceTypes: []string{"IFCCOLUMN"}},
	{Category: "Beams", Priority: false, InstanceTypes: []string{"IFCBEAM"}},
	{Category: "Stairs", Priority: false, InstanceTypes: []string{"IFCSTAIR"}},
	{Category: "Railings", Priority: false, InstanceTypes: []string{"IFCRAILING"}},
	{Category: "Roofs", Priority: false, InstanceTypes: []string{"IFCROOF"}},
	{Category: "Coverings", Priority: false, InstanceTypes: []string{"IFCCOVERING"}},
	{Category: "Curtain Walls", Priority: false, InstanceTypes: []string{"IFCCURTAINWALL"}},
}

// typeEntityNames derives the candidate IFC<FAMILY>TYPE / IFC<FAMILY>STYLE
// entity names for one instance type.
func typeEntityNames(instanceType string) []string {
	return []string{instanceType + "TYPE", instanceType + "STYLE"}
}

// unitSuffixes maps a typed-value wrapper name to the display suffix used
// when formatting a Real property or quantity.
var unitSuffixes = map[string]string{
	"IFCLENGTHMEASURE":  " mm",
	"IFCAREAMEASURE":    " m²",
	"IFCVOLUMEMEASURE":  " m³",
	"IFCQUANTITYLENGTH": " mm",
	"IFCQUANTITYAREA":   " m²",
	"IFCQUANTITYVOLUME": " m³",
	"IFCQUANTITYWEIGHT": " kg",
}
