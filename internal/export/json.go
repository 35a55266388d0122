package export

import (
	"encoding/json"
	"io"

	"github.com/coolbeans/ifcaudit/internal/ifc"
)

// document is a single JSON document mirroring the project graph verbatim:
// categories -> types -> instance ids, plus storeys.
type document struct {
	Name          string        `json:"name"`
	Schema        string        `json:"schema"`
	SourcePath    string        `json:"source_path"`
	SiteName      string        `json:"site_name,omitempty"`
	BuildingName  string        `json:"building_name,omitempty"`
	TotalTypes    int           `json:"total_types"`
	TotalElements int           `json:"total_elements"`
	Storeys       []storeyDoc   `json:"storeys"`
	Categories    []categoryDoc `json:"categories"`
}

type storeyDoc struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	Elevation    float64 `json:"elevation"`
	ElementCount int     `json:"element_count"`
}

type categoryDoc struct {
	Name       string    `json:"name"`
	Priority   bool      `json:"priority"`
	TotalCount int       `json:"total_count"`
	Types      []typeDoc `json:"types"`
}

type typeDoc struct {
	ID            uint64            `json:"id"`
	GlobalID      string            `json:"global_id,omitempty"`
	Name          string            `json:"name"`
	InstanceCount int               `json:"instance_count"`
	InstanceIDs   []uint64          `json:"instance_ids"`
	Properties    map[string]string `json:"properties,omitempty"`
}

func toDocument(p *ifc.Project) document {
	doc := document{
		Name:          p.Name,
		Schema:        p.Schema,
		SourcePath:    p.SourcePath,
		SiteName:      p.SiteName,
		BuildingName:  p.BuildingName,
		TotalTypes:    p.TotalTypes(),
		TotalElements: p.TotalElements(),
	}
	for _, s := range p.Storeys {
		doc.Storeys = append(doc.Storeys, storeyDoc{
			ID:           s.ID,
			Name:         s.Name,
			Elevation:    s.Elevation,
			ElementCount: s.ElementCount,
		})
	}
	for _, c := range p.Categories {
		cd := categoryDoc{Name: c.Name, Priority: c.Priority, TotalCount: c.TotalCount}
		for _, t := range c.Types {
			cd.Types = append(cd.Types, typeDoc{
				ID:            t.ID,
				GlobalID:      t.GlobalID,
				Name:          t.Name,
				InstanceCount: t.InstanceCount,
				InstanceIDs:   t.InstanceIDs.ToArray(),
				Properties:    t.Properties,
			})
		}
		doc.Categories = append(doc.Categories, cd)
	}
	return doc
}

// WriteJSON writes the structured document, indented for human
// readability. path is used only for error diagnostics.
func WriteJSON(w io.Writer, p *ifc.Project, path string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDocument(p)); err != nil {
		return newError(StructuredSerialize, path, err)
	}
	return nil
}
