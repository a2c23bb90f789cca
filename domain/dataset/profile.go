package dataset

// DType is the coarse type class the profiler assigns to a column.
type DType string

const (
	DTypeNumber   DType = "number"
	DTypeDate     DType = "date"
	DTypeCategory DType = "category"
	DTypeString   DType = "string"
	DTypeBoolean  DType = "boolean"
)

// ColumnProperties holds the statistics of one column. Numeric fields are set
// for number columns; Min/Max also carry the date range for date columns.
type ColumnProperties struct {
	DType        DType    `json:"dtype"`
	Mean         *float64 `json:"mean,omitempty"`
	Std          *float64 `json:"std,omitempty"`
	Median       *float64 `json:"median,omitempty"`
	Min          any      `json:"min,omitempty"`
	Max          any      `json:"max,omitempty"`
	Samples      []string `json:"samples"`
	UniqueCount  int      `json:"num_unique_values"`
	MissingCount int      `json:"missing_count"`
	SemanticType string   `json:"semantic_type,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// ColumnProfile names a column and its properties.
type ColumnProfile struct {
	Column     string           `json:"column"`
	Properties ColumnProperties `json:"properties"`
}

// Profile is the structured summary of a dataset handed to goal and code generation.
// It is treated as immutable once produced; enrichment returns a new value.
type Profile struct {
	Name               string          `json:"name"`
	FileName           string          `json:"file_name"`
	DatasetDescription string          `json:"dataset_description,omitempty"`
	RowCount           int             `json:"row_count"`
	Fields             []ColumnProfile `json:"fields"`
	FieldNames         []string        `json:"field_names"`
}

// Field looks up a column profile by name.
func (p *Profile) Field(name string) (ColumnProfile, bool) {
	for _, f := range p.Fields {
		if f.Column == name {
			return f, true
		}
	}
	return ColumnProfile{}, false
}

// FieldsOfType returns the names of columns with the given dtype, in column order.
func (p *Profile) FieldsOfType(t DType) []string {
	var out []string
	for _, f := range p.Fields {
		if f.Properties.DType == t {
			out = append(out, f.Column)
		}
	}
	return out
}

// Clone returns a deep copy so enrichment never mutates a published profile.
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.Fields = make([]ColumnProfile, len(p.Fields))
	for i, f := range p.Fields {
		f.Properties.Samples = append([]string(nil), f.Properties.Samples...)
		cp.Fields[i] = f
	}
	cp.FieldNames = append([]string(nil), p.FieldNames...)
	return &cp
}
