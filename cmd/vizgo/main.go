package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"vizgo/domain/goal"
	"vizgo/internal/config"
	"vizgo/internal/container"
	"vizgo/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vizgo",
		Short: "Profile a dataset, explore goals and render charts from generated code",
		Long: `vizgo turns a tabular dataset into charts.

Generator selection is controlled by:
- GENERATOR_MODE=llm|heuristic (default: llm when OPENAI_API_KEY is set)

Charts are rendered by running generated Python in a separate process
(PYTHON_BIN, default python3). Set DATABASE_URL to keep runs.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSummarizeCmd(),
		newGoalsCmd(),
		newVisualizeCmd(),
		newExploreCmd(),
		newRunsCmd(),
		newUsageCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and wires the container
func setup(ctx context.Context) (*container.Container, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(ctx, cfg)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type profileFlags struct {
	samples int
	enrich  bool
}

func (f *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.samples, "samples", 3, "Sample values kept per column")
	cmd.Flags().BoolVar(&f.enrich, "enrich", false, "Ask the LLM for column descriptions (llm mode only)")
}

func (f *profileFlags) options() ports.ProfileOptions {
	return ports.ProfileOptions{SampleCount: f.samples, Enrich: f.enrich}
}

func newSummarizeCmd() *cobra.Command {
	var pf profileFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summarize [file]",
		Short: "Profile a csv, tsv, json or xlsx dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			profile, err := c.Orchestrator.SummarizePath(cmd.Context(), args[0], pf.options())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(profile)
			}
			printProfile(os.Stdout, profile)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the profile as JSON")
	return cmd
}

func newGoalsCmd() *cobra.Command {
	var pf profileFlags
	var n int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "goals [file]",
		Short: "Propose analytical goals for a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			profile, err := c.Orchestrator.SummarizePath(cmd.Context(), args[0], pf.options())
			if err != nil {
				return err
			}
			goals, err := c.Orchestrator.ExploreGoals(cmd.Context(), profile, n)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(goals)
			}
			printGoals(os.Stdout, goals)
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().IntVarP(&n, "n", "n", 5, "Number of goals")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print goals as JSON")
	return cmd
}

func newVisualizeCmd() *cobra.Command {
	var pf profileFlags
	var text, library, outDir string
	var goalIndex int
	var debug bool

	cmd := &cobra.Command{
		Use:   "visualize [file]",
		Short: "Generate and render charts for a goal",
		Long: `Generate plotting code for a goal and render it.

The goal is either free text (--goal) or one of the generated goals
(--goal-index, counting from 0). Rasters are written as PNG, declarative
charts as Vega-Lite JSON, plus a Markdown report.

Example: vizgo visualize cars.csv --goal "mpg by origin" --library seaborn --out charts/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if text == "" && goalIndex < 0 {
				return fmt.Errorf("either --goal or --goal-index is required")
			}
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			ctx := cmd.Context()
			profile, err := c.Orchestrator.SummarizePath(ctx, args[0], pf.options())
			if err != nil {
				return err
			}

			g := goal.FromText(text)
			if text == "" {
				goals, err := c.Orchestrator.ExploreGoals(ctx, profile, goalIndex+1)
				if err != nil {
					return err
				}
				g = goals[goalIndex]
			}

			start := time.Now()
			r, charts, err := c.Orchestrator.VisualizeRun(ctx, profile, g, library, debug)
			if err != nil {
				return err
			}
			fmt.Printf("Rendered %d/%d candidate(s) in %v\n", r.SuccessCount, r.CandidateCount, time.Since(start).Round(time.Millisecond))
			return writeCharts(os.Stdout, outDir, r, charts)
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&text, "goal", "", "Free-text goal")
	cmd.Flags().IntVar(&goalIndex, "goal-index", -1, "Index of a generated goal")
	cmd.Flags().StringVarP(&library, "library", "l", "seaborn", "altair, matplotlib, seaborn, ggplot or plotly")
	cmd.Flags().BoolVar(&debug, "debug", false, "Keep failed candidates as diagnostic charts")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored visualization runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())
			if c.ChartRepo == nil {
				return fmt.Errorf("no chart store configured (set DATABASE_URL)")
			}

			runs, err := c.ChartRepo.ListRuns(cmd.Context(), limit, 0)
			if err != nil {
				return err
			}
			printRuns(os.Stdout, runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func newUsageCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Summarize LLM token usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())
			if c.Usage == nil {
				return fmt.Errorf("no usage store configured (set DATABASE_URL)")
			}

			end := time.Now().UTC()
			summary, err := c.Usage.GetUsageSummary(cmd.Context(), end.AddDate(0, 0, -days), end)
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Days to look back")
	return cmd
}
