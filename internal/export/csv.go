// Package export writes a Project graph out in two formats: a flat
// per-type CSV and a structured document that mirrors the graph verbatim.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/coolbeans/ifcaudit/internal/ifc"
)

var csvHeader = []string{"Category", "Type Name", "Instance Count", "Global ID"}

// WriteCSV writes one row per element type, grouped by category and
// iterated in the deterministic ordering already applied to p.Categories.
// path is used only for error diagnostics; w is the actual destination,
// so callers can wrap it in a gzip writer first.
func WriteCSV(w io.Writer, p *ifc.Project, path string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return newError(TabularWrite, path, err)
	}
	for _, cat := range p.Categories {
		for _, t := range cat.Types {
			row := []string{
				cat.Name,
				t.Name,
				strconv.Itoa(t.InstanceCount),
				t.GlobalID,
			}
			if err := cw.Write(row); err != nil {
				return newError(TabularWrite, path, err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return newError(TabularWrite, path, err)
	}
	return nil
}
