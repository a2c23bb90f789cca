package profiling

import (
	"strconv"
	"strings"
	"time"

	"vizgo/domain/dataset"
)

// stringRatioThreshold: a text column whose unique ratio reaches this is free text, below it a category
const stringRatioThreshold = 0.75

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"02-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01",
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	return v, err == nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// classify assigns a dtype from the non-missing values of a column.
// totalRows includes missing cells, as the unique ratio is taken over the whole column.
func classify(values []string, totalRows int) dataset.DType {
	if len(values) == 0 {
		return dataset.DTypeString
	}

	isNumber, isBool, isDate := true, true, true
	unique := make(map[string]struct{}, len(values))
	for _, v := range values {
		unique[v] = struct{}{}
		if isNumber {
			_, isNumber = parseNumber(v)
		}
		if isBool {
			_, isBool = parseBool(v)
		}
		if isDate {
			_, isDate = parseDate(v)
		}
	}

	switch {
	case isBool:
		return dataset.DTypeBoolean
	case isNumber:
		return dataset.DTypeNumber
	case isDate:
		return dataset.DTypeDate
	}
	if float64(len(unique))/float64(totalRows) >= stringRatioThreshold {
		return dataset.DTypeString
	}
	return dataset.DTypeCategory
}
