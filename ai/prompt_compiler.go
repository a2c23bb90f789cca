package ai

import (
	"fmt"
	"strings"

	"vizgo/domain/dataset"
)

// maxListedColumns caps how many column names a single fragment enumerates
const maxListedColumns = 12

// CompileFieldNotes converts a dataset profile into short prompt fragments
// that anchor the LLM to the real column names and types.
func CompileFieldNotes(profile *dataset.Profile) []string {
	if profile == nil {
		return nil
	}
	var out []string

	if len(profile.FieldNames) > 0 {
		out = append(out, fmt.Sprintf("FIELDS: Use only these exact column names: %s.", listColumns(profile.FieldNames)))
	}

	if dates := profile.FieldsOfType(dataset.DTypeDate); len(dates) > 0 {
		out = append(out, fmt.Sprintf("TIME: %s hold dates stored as text; convert with pd.to_datetime before plotting on a time axis.", listColumns(dates)))
	}

	if nums := profile.FieldsOfType(dataset.DTypeNumber); len(nums) > 0 {
		out = append(out, fmt.Sprintf("NUMERIC: %s are numeric and suit axes, bins and aggregates.", listColumns(nums)))
	}

	for _, f := range profile.Fields {
		if f.Properties.DType == dataset.DTypeCategory && f.Properties.UniqueCount > 20 {
			out = append(out, fmt.Sprintf("CAUTION: %s has %d categories; show the top values only.", f.Column, f.Properties.UniqueCount))
		}
	}

	if texts := profile.FieldsOfType(dataset.DTypeString); len(texts) > 0 {
		out = append(out, fmt.Sprintf("CAUTION: %s are mostly unique text; avoid using them as a category axis.", listColumns(texts)))
	}

	for _, f := range profile.Fields {
		if f.Properties.MissingCount > 0 && profile.RowCount > 0 &&
			float64(f.Properties.MissingCount)/float64(profile.RowCount) >= 0.2 {
			out = append(out, fmt.Sprintf("MISSING: %s is empty in %d of %d rows; drop missing values first.", f.Column, f.Properties.MissingCount, profile.RowCount))
		}
	}

	// Deduplicate while preserving order
	seen := make(map[string]struct{}, len(out))
	dedup := out[:0]
	for _, s := range out {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		dedup = append(dedup, s)
	}
	return dedup
}

// FieldNotes renders CompileFieldNotes as a prompt block
func FieldNotes(profile *dataset.Profile) string {
	notes := CompileFieldNotes(profile)
	if len(notes) == 0 {
		return ""
	}
	return "FIELD NOTES:\n- " + strings.Join(notes, "\n- ")
}

func listColumns(cols []string) string {
	if len(cols) > maxListedColumns {
		return strings.Join(cols[:maxListedColumns], ", ") + fmt.Sprintf(" (and %d more)", len(cols)-maxListedColumns)
	}
	return strings.Join(cols, ", ")
}
