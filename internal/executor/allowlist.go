package executor

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"vizgo/domain/core"

	"gopkg.in/yaml.v3"
)

//go:embed allowlist.yaml
var defaultAllowList []byte

// AllowList decides which modules candidate programs may import.
// It is loaded once and read concurrently afterwards.
type AllowList struct {
	modules map[string]bool
	deny    map[string]bool
}

type allowListFile struct {
	Modules []string `yaml:"modules"`
	Deny    []string `yaml:"deny"`
}

// DefaultAllowList returns the built-in allow-list.
func DefaultAllowList() *AllowList {
	al, err := ParseAllowList(defaultAllowList)
	if err != nil {
		panic(fmt.Sprintf("executor: embedded allow-list: %v", err))
	}
	return al
}

// LoadAllowList reads an allow-list file; an empty path yields the default.
func LoadAllowList(path string) (*AllowList, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultAllowList(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrInvalidAllowList, path, err)
	}
	return ParseAllowList(data)
}

// ParseAllowList parses the YAML form.
func ParseAllowList(data []byte) (*AllowList, error) {
	var doc allowListFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidAllowList, err)
	}
	if len(doc.Modules) == 0 {
		return nil, fmt.Errorf("%w: no modules listed", core.ErrInvalidAllowList)
	}

	al := &AllowList{modules: make(map[string]bool), deny: make(map[string]bool)}
	for _, m := range doc.Modules {
		m = strings.TrimSpace(m)
		if !isDotted(m) {
			return nil, fmt.Errorf("%w: invalid module name %q", core.ErrInvalidAllowList, m)
		}
		al.modules[m] = true
	}
	for _, m := range doc.Deny {
		m = strings.TrimSpace(m)
		if !isDotted(m) {
			return nil, fmt.Errorf("%w: invalid module name %q", core.ErrInvalidAllowList, m)
		}
		al.deny[m] = true
	}
	return al, nil
}

// Allowed reports whether module may be imported.
func (a *AllowList) Allowed(module string) bool {
	allowed := false
	for _, prefix := range prefixes(module) {
		if a.deny[prefix] {
			return false
		}
		if a.modules[prefix] {
			allowed = true
		}
	}
	return allowed
}

// Modules lists the allowed roots, sorted.
func (a *AllowList) Modules() []string {
	out := make([]string, 0, len(a.modules))
	for m := range a.modules {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// prefixes of "a.b.c" are "a", "a.b", "a.b.c".
func prefixes(module string) []string {
	parts := strings.Split(module, ".")
	out := make([]string, len(parts))
	for i := range parts {
		out[i] = strings.Join(parts[:i+1], ".")
	}
	return out
}
