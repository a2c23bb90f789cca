package excel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vizgo/domain/core"
	"vizgo/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadCSVSanitizesColumns(t *testing.T) {
	path := writeFile(t, "cars.csv", "Miles per Gallon,Horse-power,origin\n18, 130 ,USA\n31,65,Japan\n")

	frame, err := NewDataReader(0, nil).Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "cars", frame.Name)
	assert.Equal(t, path, frame.Source)
	assert.Equal(t, []string{"Miles_per_Gallon", "Horse_power", "origin"}, frame.Columns)
	assert.Equal(t, [][]string{{"18", "130", "USA"}, {"31", "65", "Japan"}}, frame.Rows)
}

func TestReadLogsThroughLeveledLogger(t *testing.T) {
	path := writeFile(t, "cars.csv", "mpg\n18\n")

	var quiet bytes.Buffer
	_, err := NewDataReader(0, internal.NewLoggerTo(internal.LogLevelError, &quiet)).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, quiet.String())

	var verbose bytes.Buffer
	_, err = NewDataReader(0, internal.NewLoggerTo(internal.LogLevelDebug, &verbose)).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, verbose.String(), "[DEBUG] [DataReader] Starting to read csv file")
	assert.Contains(t, verbose.String(), "[INFO] [DataReader] CSV file processed")
}

func TestReadTSV(t *testing.T) {
	path := writeFile(t, "t.tsv", "a\tb\n1\tx y\n")

	frame, err := NewDataReader(0, nil).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, frame.Columns)
	assert.Equal(t, [][]string{{"1", "x y"}}, frame.Rows)
}

func TestReadJSONRecordsKeepsKeyOrder(t *testing.T) {
	path := writeFile(t, "r.json", `[
		{"year": 2001, "name": "a", "score": 1.5},
		{"name": "b", "year": null, "tags": ["x"], "score": 2}
	]`)

	frame, err := NewDataReader(0, nil).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"year", "name", "score", "tags"}, frame.Columns)
	assert.Equal(t, []string{"2001", "a", "1.5", ""}, frame.Rows[0])
	assert.Equal(t, []string{"", "b", "2", `["x"]`}, frame.Rows[1])
}

func TestReadJSONRejectsNonRecords(t *testing.T) {
	for _, doc := range []string{`{"a": 1}`, `[1, 2]`, `not json`} {
		_, err := NewDataReader(0, nil).Read(context.Background(), writeFile(t, "bad.json", doc))
		assert.True(t, core.IsValidationError(err), doc)
	}
}

func TestReadExcelFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"region", "sales $"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"north", 10}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"south", 12.5}))
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	frame, err := NewDataReader(0, nil).Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"region", "sales__"}, frame.Columns)
	assert.Equal(t, [][]string{{"north", "10"}, {"south", "12.5"}}, frame.Rows)
}

func TestReadDownsamplesDeterministically(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&b, "%d\n", i)
	}
	path := writeFile(t, "big.csv", b.String())

	r := NewDataReader(100, nil)
	first, err := r.Read(context.Background(), path)
	require.NoError(t, err)
	second, err := r.Read(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 100, first.Len())
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, "0", first.Rows[0][0])
	assert.Equal(t, "990", first.Rows[99][0])
}

func TestReadErrors(t *testing.T) {
	r := NewDataReader(0, nil)

	_, err := r.Read(context.Background(), writeFile(t, "x.parquet", "PAR1"))
	assert.ErrorIs(t, err, core.ErrUnsupportedInput)

	_, err = r.Read(context.Background(), writeFile(t, "empty.csv", "a,b\n"))
	assert.ErrorIs(t, err, core.ErrEmptyDataset)

	_, err = r.Read(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, core.IsValidationError(err))
}

func TestSanitizeColumnsKeepsNamesUnique(t *testing.T) {
	assert.Equal(t,
		[]string{"a_b", "a_b_2", "column_2", "a_b_3"},
		SanitizeColumns([]string{"a b", "a-b", "", "a.b"}))
}
