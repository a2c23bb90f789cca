package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"vizgo/domain/chart"
	"vizgo/domain/goal"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"
)

const customGoal = "✏️  Write my own goal"

func newExploreCmd() *cobra.Command {
	var pf profileFlags
	var n int
	var outDir string

	cmd := &cobra.Command{
		Use:   "explore [file]",
		Short: "Interactively pick a goal and library, then render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			printProfile(os.Stdout, profile)

			goals, err := c.Orchestrator.ExploreGoals(ctx, profile, n)
			if err != nil {
				return err
			}

			for {
				g, err := askGoal(goals)
				if err != nil {
					return quietInterrupt(err)
				}
				library, debug, err := askLibrary()
				if err != nil {
					return quietInterrupt(err)
				}

				r, charts, err := c.Orchestrator.VisualizeRun(ctx, profile, g, library, debug)
				if err != nil {
					fmt.Fprintf(os.Stderr, "❌ %v\n", err)
				} else if err := writeCharts(os.Stdout, outDir, r, charts); err != nil {
					return err
				}

				again := false
				if err := survey.AskOne(&survey.Confirm{Message: "Render another chart?", Default: true}, &again); err != nil {
					return quietInterrupt(err)
				}
				if !again {
					return nil
				}
			}
		},
	}
	pf.register(cmd)
	cmd.Flags().IntVarP(&n, "n", "n", 5, "Number of goals to propose")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "Output directory")
	return cmd
}

func askGoal(goals []goal.Goal) (goal.Goal, error) {
	options := make([]string, 0, len(goals)+1)
	for _, g := range goals {
		options = append(options, g.Question)
	}
	options = append(options, customGoal)

	var picked int
	if err := survey.AskOne(&survey.Select{
		Message:  "Which goal?",
		Options:  options,
		PageSize: 10,
		Description: func(value string, index int) string {
			if index < len(goals) {
				return goals[index].Visualization
			}
			return ""
		},
	}, &picked); err != nil {
		return goal.Goal{}, err
	}
	if picked < len(goals) {
		return goals[picked], nil
	}

	var text string
	if err := survey.AskOne(&survey.Input{Message: "Describe the chart:"}, &text, survey.WithValidator(survey.Required)); err != nil {
		return goal.Goal{}, err
	}
	return goal.FromText(text), nil
}

func askLibrary() (string, bool, error) {
	libs := chart.Libraries()
	options := make([]string, len(libs))
	for i, l := range libs {
		options[i] = l.String()
	}

	answers := struct {
		Library string
		Debug   bool
	}{}
	questions := []*survey.Question{
		{
			Name:   "library",
			Prompt: &survey.Select{Message: "Library:", Options: options, Default: chart.LibrarySeaborn.String()},
		},
		{
			Name:   "debug",
			Prompt: &survey.Confirm{Message: "Keep failed candidates with their tracebacks?"},
		},
	}
	if err := survey.Ask(questions, &answers); err != nil {
		return "", false, err
	}
	return answers.Library, answers.Debug, nil
}

// quietInterrupt turns Ctrl-C at a prompt into a clean exit
func quietInterrupt(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return nil
	}
	return err
}
