package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vizgo/domain/chart"
	"vizgo/domain/dataset"
	"vizgo/domain/goal"
	"vizgo/domain/run"
	"vizgo/internal/report"
)

func printProfile(w io.Writer, p *dataset.Profile) {
	fmt.Fprintf(w, "📊 %s (%d rows, %d columns)\n", p.Name, p.RowCount, len(p.Fields))
	if p.DatasetDescription != "" {
		fmt.Fprintf(w, "%s\n", p.DatasetDescription)
	}
	for _, f := range p.Fields {
		props := f.Properties
		fmt.Fprintf(w, "\n• %s [%s] unique=%d missing=%d\n", f.Column, props.DType, props.UniqueCount, props.MissingCount)
		if props.Mean != nil && props.Std != nil {
			fmt.Fprintf(w, "  mean=%.3f std=%.3f min=%v max=%v\n", *props.Mean, *props.Std, props.Min, props.Max)
		} else if props.Min != nil {
			fmt.Fprintf(w, "  range %v .. %v\n", props.Min, props.Max)
		}
		if len(props.Samples) > 0 {
			fmt.Fprintf(w, "  samples: %s\n", strings.Join(props.Samples, ", "))
		}
		if props.Description != "" {
			fmt.Fprintf(w, "  %s\n", props.Description)
		}
	}
}

func printGoals(w io.Writer, goals []goal.Goal) {
	for i, g := range goals {
		fmt.Fprintf(w, "%d. %s\n", i, g.Question)
		fmt.Fprintf(w, "   visualization: %s\n", g.Visualization)
		if g.Reasoning != "" {
			fmt.Fprintf(w, "   reasoning: %s\n", g.Reasoning)
		}
	}
}

func printRuns(w io.Writer, runs []*run.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs stored.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %-10s %-10s %d/%d  %s  %q\n",
			r.StartedAt.Format("2006-01-02 15:04"), r.Library, r.Status,
			r.SuccessCount, r.CandidateCount, r.ID, r.Question)
	}
}

// writeCharts saves every chart of a run under dir and writes report.md.
// Rasters become chart-<index>.png, declarative charts chart-<index>.vl.json.
func writeCharts(w io.Writer, dir string, r *run.Run, charts []chart.Chart) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, c := range charts {
		base := filepath.Join(dir, fmt.Sprintf("chart-%d", c.CandidateIndex))
		switch {
		case c.HasRaster():
			if err := c.Save(base + ".png"); err != nil {
				return err
			}
			fmt.Fprintf(w, "✅ %s.png\n", base)
		case c.HasSpec():
			raw, err := json.MarshalIndent(c.Spec, "", "  ")
			if err != nil {
				return fmt.Errorf("encode spec: %w", err)
			}
			if err := os.WriteFile(base+".vl.json", raw, 0o644); err != nil {
				return fmt.Errorf("write spec: %w", err)
			}
			fmt.Fprintf(w, "✅ %s.vl.json\n", base)
		case c.Error != nil:
			fmt.Fprintf(w, "❌ candidate %d: %s\n", c.CandidateIndex, c.Error.Message)
		}
	}

	reportPath := filepath.Join(dir, "report.md")
	if err := os.WriteFile(reportPath, []byte(report.Markdown(r, charts)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(w, "📝 %s\n", reportPath)
	return nil
}
