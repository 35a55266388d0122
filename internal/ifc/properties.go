package ifc

import (
	"strconv"

	"github.com/coolbeans/ifcaudit/internal/step"
)

// formatValue renders a STEP value as the verbatim, locale-independent
// string that property sets and quantity sets expose. ok is false for
// Null, which callers must omit entirely rather than store as an empty
// string.
func formatValue(v step.Value) (string, bool) {
	switch v.Kind {
	case step.KindNull:
		return "", false
	case step.KindReal:
		suffix := unitSuffixes[v.Wrapper]
		return strconv.FormatFloat(v.Real, 'f', 2, 64) + suffix, true
	case step.KindInteger:
		return strconv.FormatInt(v.Int, 10), true
	case step.KindBoolean:
		if v.Bool {
			return "true", true
		}
		return "false", true
	case step.KindString, step.KindEnum:
		return v.Str, true
	default:
		// Reference/List/Derived are not expected as a NominalValue or
		// quantity value in well-formed IFC; omit rather than guess.
		return "", false
	}
}

// formatQuantity renders a quantity entity's measurement field, choosing
// the unit suffix from the quantity entity's own type name rather than a
// value wrapper.
func formatQuantity(entityType string, v step.Value) (string, bool) {
	s, ok := formatValue(v)
	if !ok {
		return "", false
	}
	if v.Kind != step.KindReal {
		return s, true
	}
	suffix := unitSuffixes[entityType]
	return strconv.FormatFloat(v.Real, 'f', 2, 64) + suffix, true
}
