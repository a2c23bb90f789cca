// Package report renders a visualization run as Markdown and as sanitized HTML.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"vizgo/domain/chart"
	"vizgo/domain/run"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// Markdown describes a run and each chart it produced.
func Markdown(r *run.Run, charts []chart.Chart) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Run %s\n\n", r.ID)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Dataset | %s |\n", cell(r.DatasetName))
	fmt.Fprintf(&b, "| Question | %s |\n", cell(r.Question))
	if r.Visualization != "" && r.Visualization != r.Question {
		fmt.Fprintf(&b, "| Visualization | %s |\n", cell(r.Visualization))
	}
	fmt.Fprintf(&b, "| Library | %s |\n", r.Library)
	fmt.Fprintf(&b, "| Status | %s |\n", r.Status)
	fmt.Fprintf(&b, "| Charts | %d of %d candidate(s) rendered |\n", r.SuccessCount, r.CandidateCount)
	if d := r.Duration(); d > 0 {
		fmt.Fprintf(&b, "| Duration | %s |\n", d.Round(1e6))
	}
	if !r.Fingerprint.IsEmpty() {
		fmt.Fprintf(&b, "| Fingerprint | `%s` |\n", r.Fingerprint)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "\n**Error:** %s\n", r.Error)
	}

	for _, c := range charts {
		fmt.Fprintf(&b, "\n## Candidate %d\n\n", c.CandidateIndex)
		switch {
		case c.HasRaster():
			fmt.Fprintf(&b, "![candidate %d](data:image/png;base64,%s)\n\n", c.CandidateIndex, c.Raster)
		case c.HasSpec():
			spec, err := json.MarshalIndent(c.Spec, "", "  ")
			if err == nil {
				b.WriteString("Vega-Lite specification:\n\n")
				fence(&b, "json", string(spec))
			}
		case c.Error != nil:
			fmt.Fprintf(&b, "**Failed:** %s\n\n", c.Error.Message)
			if c.Error.Traceback != "" {
				fence(&b, "text", c.Error.Traceback)
			}
		default:
			b.WriteString("**Failed.**\n\n")
		}
		b.WriteString("Code:\n\n")
		fence(&b, "python", c.Code)
	}
	return b.String()
}

// HTML converts Markdown to HTML and strips anything unsafe. Inline PNG data
// URIs survive sanitizing.
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	unsafe := markdown.ToHTML([]byte(md), p, renderer)

	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code")
	return policy.SanitizeBytes(unsafe)
}

// Render is HTML(Markdown(r, charts)).
func Render(r *run.Run, charts []chart.Chart) []byte {
	return HTML(Markdown(r, charts))
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

func fence(b *strings.Builder, lang, body string) {
	ticks := "```"
	for strings.Contains(body, ticks) {
		ticks += "`"
	}
	fmt.Fprintf(b, "%s%s\n%s\n%s\n\n", ticks, lang, strings.TrimRight(body, "\n"), ticks)
}
