package dataset

import (
	"fmt"

	"vizgo/domain/core"
)

// Frame is an in-memory table of string cells, the dataset every stage works on.
// Cells keep their textual form; typing happens in the profiler and in the runtime.
type Frame struct {
	Name    string     `json:"name"`
	Source  string     `json:"source,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewFrame builds a frame and pads or truncates rows to the header width.
func NewFrame(name string, columns []string, rows [][]string) (*Frame, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: frame %q has no columns", core.ErrValidation, name)
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("%w: duplicate column %q", core.ErrValidation, c)
		}
		seen[c] = true
	}

	normalized := make([][]string, len(rows))
	for i, row := range rows {
		r := make([]string, len(columns))
		copy(r, row)
		normalized[i] = r
	}
	return &Frame{Name: name, Columns: columns, Rows: normalized}, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Rows)
}

// ColumnIndex returns the position of a column or -1.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns every cell of the named column.
func (f *Frame) Column(name string) ([]string, error) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: column %q not found", core.ErrValidation, name)
	}
	out := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Head returns a frame holding the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n > len(f.Rows) {
		n = len(f.Rows)
	}
	return &Frame{Name: f.Name, Source: f.Source, Columns: f.Columns, Rows: f.Rows[:n]}
}
