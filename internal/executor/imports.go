package executor

import (
	"fmt"
	"strings"

	"vizgo/domain/core"
)

// Import is one name brought in by a top-level import statement.
//
//	import a.b as c      -> {Module: "a.b", Alias: "c"}
//	from a.b import x    -> {Module: "a.b", Name: "x"}
type Import struct {
	Module string
	Name   string
	Alias  string
	Line   int
}

// BoundName is the identifier the import introduces into the namespace.
func (i Import) BoundName() string {
	switch {
	case i.Alias != "":
		return i.Alias
	case i.Name != "":
		return i.Name
	default:
		return strings.SplitN(i.Module, ".", 2)[0]
	}
}

// ScanImports statically collects the top-level import statements of a
// program. Nothing is executed. Statements inside functions, classes or
// string literals are ignored; relative imports are rejected.
func ScanImports(source string) ([]Import, error) {
	var out []Import
	for _, stmt := range logicalLines(source) {
		text := stmt.text
		if text == "" || text[0] == ' ' || text[0] == '\t' {
			continue
		}
		for _, part := range stmt.statements() {
			part = strings.TrimSpace(part)
			switch {
			case strings.HasPrefix(part, "import "):
				imps, err := parsePlainImport(part[len("import "):], stmt.line)
				if err != nil {
					return nil, err
				}
				out = append(out, imps...)
			case strings.HasPrefix(part, "from "):
				imps, err := parseFromImport(part[len("from "):], stmt.line)
				if err != nil {
					return nil, err
				}
				out = append(out, imps...)
			}
		}
	}
	return out, nil
}

func parsePlainImport(rest string, line int) ([]Import, error) {
	var out []Import
	for _, item := range strings.Split(rest, ",") {
		module, alias, err := splitAlias(item, line)
		if err != nil {
			return nil, err
		}
		if !isDotted(module) {
			return nil, syntaxError(line, "invalid module name %q", module)
		}
		out = append(out, Import{Module: module, Alias: alias, Line: line})
	}
	return out, nil
}

func parseFromImport(rest string, line int) ([]Import, error) {
	idx := strings.Index(rest, " import ")
	if idx < 0 {
		return nil, syntaxError(line, "from statement without import")
	}
	module := strings.TrimSpace(rest[:idx])
	if strings.HasPrefix(module, ".") {
		return nil, fmt.Errorf("%w: relative import %q (line %d)", core.ErrImportNotAllowed, module, line)
	}
	if !isDotted(module) {
		return nil, syntaxError(line, "invalid module name %q", module)
	}

	names := strings.TrimSpace(rest[idx+len(" import "):])
	names = strings.TrimSuffix(strings.TrimPrefix(names, "("), ")")

	var out []Import
	for _, item := range strings.Split(names, ",") {
		if strings.TrimSpace(item) == "" {
			continue // trailing comma
		}
		name, alias, err := splitAlias(item, line)
		if err != nil {
			return nil, err
		}
		if name != "*" && !isIdent(name) {
			return nil, syntaxError(line, "invalid imported name %q", name)
		}
		out = append(out, Import{Module: module, Name: name, Alias: alias, Line: line})
	}
	if len(out) == 0 {
		return nil, syntaxError(line, "from %s import with no names", module)
	}
	return out, nil
}

func splitAlias(item string, line int) (string, string, error) {
	fields := strings.Fields(item)
	switch {
	case len(fields) == 1:
		return fields[0], "", nil
	case len(fields) == 3 && fields[1] == "as" && isIdent(fields[2]):
		return fields[0], fields[2], nil
	default:
		return "", "", syntaxError(line, "cannot parse import clause %q", strings.TrimSpace(item))
	}
}

func syntaxError(line int, format string, args ...any) error {
	return fmt.Errorf("%w: SyntaxError: line %d: %s", core.ErrCandidateFailed, line, fmt.Sprintf(format, args...))
}

func isDotted(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if !isIdent(part) {
			return false
		}
	}
	return true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

type logicalLine struct {
	text string
	line int
	semi []int // offsets of statement separators outside strings and brackets
}

// statements splits the line on its top-level semicolons.
func (l logicalLine) statements() []string {
	parts := make([]string, 0, len(l.semi)+1)
	prev := 0
	for _, at := range l.semi {
		if at > len(l.text) {
			break
		}
		parts = append(parts, l.text[prev:at])
		prev = at + 1
	}
	if prev <= len(l.text) {
		parts = append(parts, l.text[prev:])
	}
	return parts
}

// logicalLines joins continuation lines (backslash, open brackets) and drops
// comments and triple-quoted strings. Leading indentation is preserved so the
// caller can tell top-level statements apart.
func logicalLines(source string) []logicalLine {
	var (
		out      []logicalLine
		cur      strings.Builder
		start    int
		depth    int
		inTriple string
		semi     []int
	)
	flush := func() {
		if s := strings.TrimRight(cur.String(), " \t"); strings.TrimSpace(s) != "" {
			out = append(out, logicalLine{text: s, line: start, semi: semi})
		}
		cur.Reset()
		depth = 0
		semi = nil
	}

	for n, raw := range strings.Split(source, "\n") {
		lineNo := n + 1
		raw = strings.TrimRight(raw, "\r")
		if cur.Len() == 0 && inTriple == "" {
			start = lineNo
		}

		var quote byte
		for i := 0; i < len(raw); i++ {
			c := raw[i]
			if inTriple != "" {
				if strings.HasPrefix(raw[i:], inTriple) {
					i += 2
					inTriple = ""
				}
				continue
			}
			if quote != 0 {
				cur.WriteByte(c)
				if c == '\\' && i+1 < len(raw) {
					i++
					cur.WriteByte(raw[i])
				} else if c == quote {
					quote = 0
				}
				continue
			}
			switch c {
			case '#':
				i = len(raw)
				continue
			case '"', '\'':
				if strings.HasPrefix(raw[i:], `"""`) || strings.HasPrefix(raw[i:], `'''`) {
					inTriple = raw[i : i+3]
					i += 2
					// a docstring line still occupies the statement slot
					cur.WriteString("''")
					continue
				}
				quote = c
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				if depth > 0 {
					depth--
				}
			case ';':
				if depth == 0 {
					semi = append(semi, cur.Len())
				}
			}
			cur.WriteByte(c)
		}

		if inTriple != "" {
			continue
		}
		text := cur.String()
		if strings.HasSuffix(text, "\\") {
			cur.Reset()
			cur.WriteString(strings.TrimSuffix(text, "\\"))
			cur.WriteByte(' ')
			continue
		}
		if depth > 0 {
			cur.WriteByte(' ')
			continue
		}
		flush()
	}
	flush()
	return out
}
