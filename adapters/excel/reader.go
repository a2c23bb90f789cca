package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/internal"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

// DefaultMaxRows caps how many rows a loaded dataset keeps.
const DefaultMaxRows = 100000

var invalidColumnChars = regexp.MustCompile(`[^0-9a-zA-Z_]`)

// DataReader loads csv, tsv, json and Excel files into frames.
type DataReader struct {
	maxRows int
	logger  *internal.Logger
}

// NewDataReader creates a reader; maxRows <= 0 uses DefaultMaxRows and a nil
// logger uses internal.DefaultLogger.
func NewDataReader(maxRows int, logger *internal.Logger) *DataReader {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{maxRows: maxRows, logger: logger}
}

// Read loads the file at path. Column names are sanitized to [0-9A-Za-z_] and
// datasets over the row cap are down-sampled evenly, keeping row order.
func (r *DataReader) Read(ctx context.Context, path string) (*dataset.Frame, error) {
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	r.logger.Debug("[DataReader] Starting to read %s file: %s", fileType, path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s file not found: %s", core.ErrValidation, strings.ToUpper(fileType), path)
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch fileType {
	case "csv":
		rows, err = readDelimited(path, ',')
	case "tsv":
		rows, err = readDelimited(path, '\t')
	case "json":
		rows, err = readJSONRecords(path)
	case "xlsx", "xlsm":
		rows, err = readExcel(path)
	default:
		return nil, fmt.Errorf("%w: %q (supported: csv, tsv, json, xlsx)", core.ErrUnsupportedInput, fileType)
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s must have a header row and at least one data row", core.ErrEmptyDataset, filepath.Base(path))
	}

	columns := SanitizeColumns(rows[0])
	data := rows[1:]
	if len(data) > r.maxRows {
		r.logger.Info("[DataReader] Down-sampling %d rows to %d", len(data), r.maxRows)
		sampled := make([][]string, 0, r.maxRows)
		for _, idx := range stratifiedSample(len(data), r.maxRows) {
			sampled = append(sampled, data[idx])
		}
		data = sampled
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	frame, err := dataset.NewFrame(name, columns, data)
	if err != nil {
		return nil, err
	}
	frame.Source = path

	r.logger.Info("[DataReader] %s file processed in %.2fms (%d columns, %d rows)",
		strings.ToUpper(fileType), float64(time.Since(start).Nanoseconds())/1e6, len(columns), frame.Len())
	return frame, nil
}

func readDelimited(path string, delim rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", core.ErrValidation, filepath.Base(path), err)
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// readJSONRecords reads an array of flat objects. Columns follow the key order
// of first appearance; nested values are kept as raw JSON.
func readJSONRecords(path string) ([][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", core.ErrValidation, filepath.Base(path))
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: %s must hold an array of records", core.ErrValidation, filepath.Base(path))
	}

	var header []string
	index := make(map[string]int)
	var records []map[string]string

	doc.ForEach(func(_, rec gjson.Result) bool {
		if !rec.IsObject() {
			err = fmt.Errorf("%w: %s contains a non-object record", core.ErrValidation, filepath.Base(path))
			return false
		}
		row := make(map[string]string)
		rec.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if _, ok := index[k]; !ok {
				index[k] = len(header)
				header = append(header, k)
			}
			row[k] = cellString(value)
			return true
		})
		records = append(records, row)
		return true
	})
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, rec := range records {
		row := make([]string, len(header))
		for k, v := range rec {
			row[index[k]] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellString(v gjson.Result) string {
	switch v.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return v.Str
	case gjson.Number:
		if v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1e15 {
			return strconv.FormatInt(int64(v.Num), 10)
		}
		return v.Raw
	default:
		return v.Raw
	}
}

// readExcel reads the first sheet.
func readExcel(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrEmptyDataset)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}
	return rows, nil
}

// SanitizeColumns replaces characters outside [0-9A-Za-z_] with underscores
// and suffixes duplicates so every name stays unique.
func SanitizeColumns(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]bool, len(headers))
	for i, h := range headers {
		name := invalidColumnChars.ReplaceAllString(strings.TrimSpace(h), "_")
		if name == "" {
			name = fmt.Sprintf("column_%d", i)
		}
		base := name
		for k := 2; seen[name]; k++ {
			name = fmt.Sprintf("%s_%d", base, k)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// stratifiedSample picks sampleSize evenly spaced indices, in ascending order.
func stratifiedSample(totalRows, sampleSize int) []int {
	if sampleSize >= totalRows {
		indices := make([]int, totalRows)
		for i := range indices {
			indices[i] = i
		}
		return indices
	}

	indices := make([]int, 0, sampleSize)
	step := float64(totalRows) / float64(sampleSize)
	for i := 0; i < sampleSize; i++ {
		idx := int(math.Floor(float64(i) * step))
		if idx >= totalRows {
			idx = totalRows - 1
		}
		indices = append(indices, idx)
	}
	return indices
}
