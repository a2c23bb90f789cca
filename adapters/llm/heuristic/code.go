package heuristic

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"vizgo/domain/chart"
	"vizgo/domain/core"
	"vizgo/domain/dataset"
	"vizgo/internal/scaffold"
	"vizgo/ports"
)

// GenerateCode renders one program for the goal. The rules are
// deterministic, so a single candidate is returned whatever req.Count asks.
func (g *Generator) GenerateCode(ctx context.Context, req ports.CodeRequest) ([]string, error) {
	if req.Profile == nil {
		return nil, core.ErrNoDataset
	}
	if _, err := chart.ParseLibrary(string(req.Library)); err != nil {
		return nil, err
	}

	plan, err := g.plan(req.Profile, req.Goal.Visualization+"\n"+req.Goal.Question, req.Goal.Question)
	if err != nil {
		return nil, err
	}

	body := g.body(req.Library, plan)
	code, err := scaffold.Render(req.Library, nil, body)
	if err != nil {
		return nil, err
	}
	return []string{code}, nil
}

// chartPlan is a resolved chart: its kind and the columns on each axis
type chartPlan struct {
	kind  chartKind
	x     string
	y     string
	title string
}

// plan picks the chart kind and columns for a goal text. Columns are the
// profile fields named in the text, in order of appearance.
func (g *Generator) plan(profile *dataset.Profile, text, title string) (chartPlan, error) {
	cols := mentionedColumns(profile, text)
	lower := strings.ToLower(text)
	title = strings.TrimSpace(title)

	dtype := func(col string) dataset.DType {
		f, _ := profile.Field(col)
		return f.Properties.DType
	}
	firstOf := func(t dataset.DType, skip string) string {
		for _, c := range cols {
			if c != skip && dtype(c) == t {
				return c
			}
		}
		return ""
	}
	firstCategory := func() string {
		if c := firstOf(dataset.DTypeCategory, ""); c != "" {
			return c
		}
		if c := firstOf(dataset.DTypeBoolean, ""); c != "" {
			return c
		}
		return firstOf(dataset.DTypeString, "")
	}

	num := firstOf(dataset.DTypeNumber, "")
	date := firstOf(dataset.DTypeDate, "")
	cat := firstCategory()

	if num == "" && date == "" && cat == "" {
		// nothing named; chart the first numeric field
		nums := profile.FieldsOfType(dataset.DTypeNumber)
		if len(nums) == 0 {
			return chartPlan{}, fmt.Errorf("%w: no column to plot for %q", core.ErrValidation, text)
		}
		return chartPlan{kind: kindHistogram, x: nums[0], title: title}, nil
	}

	switch {
	case strings.Contains(lower, "histogram") || strings.Contains(lower, "distribution"):
		if num != "" {
			return chartPlan{kind: kindHistogram, x: num, title: title}, nil
		}
	case strings.Contains(lower, "scatter") || strings.Contains(lower, "relationship") || strings.Contains(lower, "correlat"):
		if other := firstOf(dataset.DTypeNumber, num); num != "" && other != "" {
			// "Scatter plot of y against x" names y first
			return chartPlan{kind: kindScatter, x: other, y: num, title: title}, nil
		}
	case strings.Contains(lower, "count"):
		if cat != "" {
			return chartPlan{kind: kindCount, x: cat, title: title}, nil
		}
	}

	switch {
	case date != "" && num != "":
		return chartPlan{kind: kindLine, x: date, y: num, title: title}, nil
	case cat != "" && num != "":
		return chartPlan{kind: kindBar, x: cat, y: num, title: title}, nil
	case num != "":
		if other := firstOf(dataset.DTypeNumber, num); other != "" {
			return chartPlan{kind: kindScatter, x: other, y: num, title: title}, nil
		}
		return chartPlan{kind: kindHistogram, x: num, title: title}, nil
	case cat != "":
		return chartPlan{kind: kindCount, x: cat, title: title}, nil
	default:
		return chartPlan{kind: kindCount, x: date, title: title}, nil
	}
}

// mentionedColumns returns the profile fields appearing in text as whole
// words, ordered by first appearance
func mentionedColumns(profile *dataset.Profile, text string) []string {
	type hit struct {
		col string
		pos int
	}
	var hits []hit
	for _, col := range profile.FieldNames {
		if pos := wordIndex(text, col); pos >= 0 {
			hits = append(hits, hit{col, pos})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.col
	}
	return out
}

func wordIndex(text, word string) int {
	isWord := func(b byte) bool {
		return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(word)
		if (i == 0 || !isWord(text[i-1])) && (end == len(text) || !isWord(text[end])) {
			return i
		}
		from = i + 1
	}
	return -1
}

// py quotes s as a Python string literal
func py(s string) string {
	return fmt.Sprintf("%q", s)
}

// body renders the stub section for a library
func (g *Generator) body(lib chart.Library, p chartPlan) string {
	switch lib {
	case chart.LibraryAltair:
		return altairBody(p)
	case chart.LibraryGGPlot:
		return ggplotBody(p)
	case chart.LibraryPlotly:
		return plotlyBody(p)
	case chart.LibrarySeaborn:
		return seabornBody(p)
	default:
		return matplotlibBody(p)
	}
}

func asDatetime(col string) string {
	return fmt.Sprintf("data.assign(**{%s: pd.to_datetime(data[%s], errors=\"coerce\")}).dropna(subset=[%s]).sort_values(%s)", py(col), py(col), py(col), py(col))
}

func matplotlibBody(p chartPlan) string {
	lines := []string{"plt.figure(figsize=(9, 5))"}
	switch p.kind {
	case kindHistogram:
		lines = append(lines,
			fmt.Sprintf("plt.hist(data[%s].dropna(), bins=20)", py(p.x)),
			fmt.Sprintf("plt.xlabel(%s)", py(p.x)),
			`plt.ylabel("count")`)
	case kindBar:
		lines = append(lines,
			fmt.Sprintf("agg = data.groupby(%s)[%s].mean().sort_values(ascending=False).head(%d)", py(p.x), py(p.y), maxCategories),
			"plt.bar(agg.index.astype(str), agg.values)",
			`plt.xticks(rotation=45, ha="right")`,
			fmt.Sprintf("plt.ylabel(%s)", py("mean "+p.y)))
	case kindCount:
		lines = append(lines,
			fmt.Sprintf("counts = data[%s].value_counts().head(%d)", py(p.x), maxCategories),
			"plt.bar(counts.index.astype(str), counts.values)",
			`plt.xticks(rotation=45, ha="right")`,
			`plt.ylabel("count")`)
	case kindLine:
		lines = append(lines,
			"frame = "+asDatetime(p.x),
			fmt.Sprintf("plt.plot(frame[%s], frame[%s])", py(p.x), py(p.y)),
			fmt.Sprintf("plt.xlabel(%s)", py(p.x)),
			fmt.Sprintf("plt.ylabel(%s)", py(p.y)))
	case kindScatter:
		lines = append(lines,
			fmt.Sprintf("plt.scatter(data[%s], data[%s], alpha=0.6)", py(p.x), py(p.y)),
			fmt.Sprintf("plt.xlabel(%s)", py(p.x)),
			fmt.Sprintf("plt.ylabel(%s)", py(p.y)))
	}
	lines = append(lines, fmt.Sprintf("plt.title(%s)", py(p.title)), "plt.tight_layout()")
	return strings.Join(lines, "\n")
}

func seabornBody(p chartPlan) string {
	lines := []string{"plt.figure(figsize=(9, 5))"}
	switch p.kind {
	case kindHistogram:
		lines = append(lines, fmt.Sprintf("sns.histplot(data=data, x=%s, bins=20)", py(p.x)))
	case kindBar:
		lines = append(lines,
			fmt.Sprintf("order = data.groupby(%s)[%s].mean().sort_values(ascending=False).head(%d).index", py(p.x), py(p.y), maxCategories),
			fmt.Sprintf("sns.barplot(data=data[data[%s].isin(order)], x=%s, y=%s, order=order, errorbar=None)", py(p.x), py(p.x), py(p.y)),
			`plt.xticks(rotation=45, ha="right")`)
	case kindCount:
		lines = append(lines,
			fmt.Sprintf("sns.countplot(data=data, x=%s, order=data[%s].value_counts().head(%d).index)", py(p.x), py(p.x), maxCategories),
			`plt.xticks(rotation=45, ha="right")`)
	case kindLine:
		lines = append(lines, fmt.Sprintf("sns.lineplot(data=%s, x=%s, y=%s)", asDatetime(p.x), py(p.x), py(p.y)))
	case kindScatter:
		lines = append(lines, fmt.Sprintf("sns.scatterplot(data=data, x=%s, y=%s, alpha=0.6)", py(p.x), py(p.y)))
	}
	lines = append(lines, fmt.Sprintf("plt.title(%s)", py(p.title)), "plt.tight_layout()")
	return strings.Join(lines, "\n")
}

func altairBody(p chartPlan) string {
	var spec string
	switch p.kind {
	case kindHistogram:
		spec = fmt.Sprintf(`alt.Chart(data).mark_bar().encode(x=alt.X(%s, type="quantitative", bin=alt.Bin(maxbins=20)), y="count()")`, py(p.x))
	case kindBar:
		spec = fmt.Sprintf(`alt.Chart(data).mark_bar().encode(x=alt.X(%s, type="nominal", sort="-y"), y=alt.Y(%s, type="quantitative", aggregate="mean"))`, py(p.x), py(p.y))
	case kindCount:
		spec = fmt.Sprintf(`alt.Chart(data).mark_bar().encode(x=alt.X(%s, type="nominal", sort="-y"), y="count()")`, py(p.x))
	case kindLine:
		spec = fmt.Sprintf(`alt.Chart(data).mark_line().encode(x=alt.X(%s, type="temporal"), y=alt.Y(%s, type="quantitative", aggregate="mean"))`, py(p.x), py(p.y))
	case kindScatter:
		spec = fmt.Sprintf(`alt.Chart(data).mark_point().encode(x=alt.X(%s, type="quantitative"), y=alt.Y(%s, type="quantitative"))`, py(p.x), py(p.y))
	}
	return fmt.Sprintf("chart = %s.properties(title=%s)", spec, py(p.title))
}

func ggplotBody(p chartPlan) string {
	var expr string
	switch p.kind {
	case kindHistogram:
		expr = fmt.Sprintf("p9.ggplot(data, p9.aes(x=%s)) + p9.geom_histogram(bins=20)", py(p.x))
	case kindBar:
		expr = fmt.Sprintf("p9.ggplot(data.groupby(%s, as_index=False)[%s].mean(), p9.aes(x=%s, y=%s)) + p9.geom_col()", py(p.x), py(p.y), py(p.x), py(p.y))
	case kindCount:
		expr = fmt.Sprintf("p9.ggplot(data, p9.aes(x=%s)) + p9.geom_bar()", py(p.x))
	case kindLine:
		expr = fmt.Sprintf("p9.ggplot(%s, p9.aes(x=%s, y=%s)) + p9.geom_line()", asDatetime(p.x), py(p.x), py(p.y))
	case kindScatter:
		expr = fmt.Sprintf("p9.ggplot(data, p9.aes(x=%s, y=%s)) + p9.geom_point(alpha=0.6)", py(p.x), py(p.y))
	}
	return fmt.Sprintf("%s + p9.ggtitle(%s)", expr, py(p.title))
}

func plotlyBody(p chartPlan) string {
	switch p.kind {
	case kindHistogram:
		return fmt.Sprintf("px.histogram(data, x=%s, nbins=20, title=%s)", py(p.x), py(p.title))
	case kindBar:
		return fmt.Sprintf("px.bar(data.groupby(%s, as_index=False)[%s].mean(numeric_only=True), x=%s, y=%s, title=%s)", py(p.x), py(p.y), py(p.x), py(p.y), py(p.title))
	case kindCount:
		return fmt.Sprintf("px.histogram(data, x=%s, title=%s)", py(p.x), py(p.title))
	case kindLine:
		return fmt.Sprintf("px.line(%s, x=%s, y=%s, title=%s)", asDatetime(p.x), py(p.x), py(p.y), py(p.title))
	default:
		return fmt.Sprintf("px.scatter(data, x=%s, y=%s, title=%s)", py(p.x), py(p.y), py(p.title))
	}
}
