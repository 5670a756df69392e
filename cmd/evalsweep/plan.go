package main

import (
	"github.com/spf13/cobra"

	"evalsweep/pkg/config"
	"evalsweep/pkg/runner"
	"evalsweep/pkg/sweep"
	"evalsweep/pkg/ui"
)

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "List the evaluations a sweep would run",
	Long: `List every checkpoint index in the configured range together with the
evaluator command line that run would use for it. Nothing is written and no
evaluator is started.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
	addSweepFlags(planCmd.Flags())
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, flagOverrides(cmd.Flags()))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return withExitCode(1, err)
	}
	ui.SetNoColor(cfg.Logging.NoColor)

	params := sweep.Params{Start: cfg.Sweep.Start, Step: cfg.Sweep.Step, End: cfg.Sweep.End}
	steps, err := sweep.Plan(params, runner.New(cfg.Evaluator).Argv)
	if err != nil {
		ui.PrintError("Invalid sweep range", err.Error())
		return withExitCode(1, err)
	}

	ui.PrintPlan(cfg.Pointer.Path(), steps)
	return nil
}
