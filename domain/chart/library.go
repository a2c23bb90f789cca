package chart

import (
	"strings"

	"vizgo/domain/core"
)

// Library identifies the plotting library a candidate program targets.
type Library string

const (
	LibraryAltair     Library = "altair"
	LibraryMatplotlib Library = "matplotlib"
	LibrarySeaborn    Library = "seaborn"
	LibraryGGPlot     Library = "ggplot"
	LibraryPlotly     Library = "plotly"
)

// Family groups libraries that share an extraction rule.
type Family string

const (
	FamilyDeclarative Family = "declarative"
	FamilyMatplotlib  Family = "matplotlib"
	FamilyGGPlot      Family = "ggplot"
	FamilyPlotly      Family = "plotly"
)

var libraryFamilies = map[Library]Family{
	LibraryAltair:     FamilyDeclarative,
	LibraryMatplotlib: FamilyMatplotlib,
	LibrarySeaborn:    FamilyMatplotlib,
	LibraryGGPlot:     FamilyGGPlot,
	LibraryPlotly:     FamilyPlotly,
}

// Libraries returns every supported library in a stable order.
func Libraries() []Library {
	return []Library{LibraryAltair, LibraryMatplotlib, LibrarySeaborn, LibraryGGPlot, LibraryPlotly}
}

// ParseLibrary resolves a library name. Names are matched case-insensitively;
// anything outside the closed set is a configuration error.
func ParseLibrary(name string) (Library, error) {
	lib := Library(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := libraryFamilies[lib]; !ok {
		return "", core.NewUnsupportedLibraryError(name)
	}
	return lib, nil
}

// Family returns the extraction family of the library.
func (l Library) Family() Family {
	return libraryFamilies[l]
}

// IsRaster reports whether charts from this library are rendered to PNG.
func (l Library) IsRaster() bool {
	f, ok := libraryFamilies[l]
	return ok && f != FamilyDeclarative
}

func (l Library) String() string { return string(l) }
