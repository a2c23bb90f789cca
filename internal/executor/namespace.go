package executor

import (
	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/ports"
)

// DataVariable is the name the dataset is bound to inside candidate programs.
const DataVariable = "data"

// Toolkit names every candidate sees regardless of its imports.
var (
	pandasBinding = ports.Binding{Name: "pd", Module: "pandas"}
	pyplotBinding = ports.Binding{Name: "plt", Module: "matplotlib.pyplot"}
)

// BuildNamespace turns the top-level imports of source into bindings, checked
// against the allow-list, and appends the toolkit. Toolkit names win over
// imported ones.
func BuildNamespace(source string, lib chart.Library, allow *AllowList) ([]ports.Binding, error) {
	imports, err := ScanImports(source)
	if err != nil {
		return nil, err
	}

	bindings := make([]ports.Binding, 0, len(imports)+2)
	for _, imp := range imports {
		if !allow.Allowed(imp.Module) {
			return nil, core.NewImportNotAllowedError(imp.Module)
		}
		switch {
		case imp.Name != "":
			if imp.Name != "*" && !allow.Allowed(imp.Module+"."+imp.Name) {
				return nil, core.NewImportNotAllowedError(imp.Module + "." + imp.Name)
			}
			bindings = append(bindings, ports.Binding{Name: imp.BoundName(), Module: imp.Module, Attr: imp.Name})
		case imp.Alias != "":
			bindings = append(bindings, ports.Binding{Name: imp.Alias, Module: imp.Module})
		default:
			bindings = append(bindings, ports.Binding{Name: imp.BoundName(), Module: imp.Module, Root: imp.BoundName() != imp.Module})
		}
	}

	bindings = append(bindings, pandasBinding)
	if lib.IsRaster() {
		bindings = append(bindings, pyplotBinding)
	}
	return bindings, nil
}
