// Package scaffold maps a plotting library to the program skeleton the code
// generator fills in and the library-specific rules it must follow.
package scaffold

import (
	"strings"

	"vizgo/domain/chart"
)

// Template is the skeleton and instructions for one library.
type Template struct {
	Library      chart.Library
	Code         string
	Instructions string
}

var templates = map[chart.Library]Template{
	chart.LibraryMatplotlib: {chart.LibraryMatplotlib, matplotlibTemplate, matplotlibInstructions},
	chart.LibrarySeaborn:    {chart.LibrarySeaborn, seabornTemplate, matplotlibInstructions},
	chart.LibraryGGPlot:     {chart.LibraryGGPlot, ggplotTemplate, ggplotInstructions},
	chart.LibraryAltair:     {chart.LibraryAltair, altairTemplate, altairInstructions},
	chart.LibraryPlotly:     {chart.LibraryPlotly, plotlyTemplate, plotlyInstructions},
}

// GetTemplate returns the code template and instructions for a library name.
// Unknown names fail with a configuration error.
func GetTemplate(library string) (string, string, error) {
	t, err := Lookup(library)
	if err != nil {
		return "", "", err
	}
	return t.Code, t.Instructions, nil
}

// Lookup is GetTemplate returning the whole Template.
func Lookup(library string) (Template, error) {
	lib, err := chart.ParseLibrary(library)
	if err != nil {
		return Template{}, err
	}
	return templates[lib], nil
}

// Render fills the template of a library: extra import lines replace the
// imports marker and body replaces the stub marker. Body lines after the first
// are indented to the stub's column.
func Render(library chart.Library, imports []string, body string) (string, error) {
	t, err := Lookup(string(library))
	if err != nil {
		return "", err
	}

	code := strings.Replace(t.Code, ImportsMarker, strings.Join(imports, "\n"), 1)

	// keep the marker's indentation for continuation lines
	indent := ""
	if i := strings.Index(code, StubMarker); i >= 0 {
		lineStart := strings.LastIndex(code[:i], "\n") + 1
		prefix := code[lineStart:i]
		indent = strings.Repeat(" ", len(prefix)-len(strings.TrimLeft(prefix, " ")))
	}
	lines := strings.Split(strings.TrimSpace(body), "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = indent + lines[i]
	}
	code = strings.Replace(code, StubMarker+" # only modify this section", strings.Join(lines, "\n"), 1)
	return code, nil
}
