package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"evalsweep/pkg/config"
	errs "evalsweep/pkg/errors"
	"evalsweep/pkg/interrupt"
	"evalsweep/pkg/logger"
	"evalsweep/pkg/pointer"
	"evalsweep/pkg/report"
	"evalsweep/pkg/runner"
	"evalsweep/pkg/sweep"
	"evalsweep/pkg/ui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate every checkpoint in the configured range",
	Long: `Evaluate every checkpoint index from --start to --end in steps of --step.

For each index the checkpoint pointer file at <log-dir>/<run-id>/weights/checkpoint
is rewritten to name episode_<index>, then the evaluator is started as

  <evaluator> <evaluator-arg...> --env <env-id> --save <index>

and the sweep waits for it to exit. By default a failed evaluation is recorded
and the sweep continues; with --strict the first failure ends the sweep.

Exit status is 0 when every index was attempted, 130 when interrupted and 1 when
the sweep was aborted.`,
	Example: `  # Evaluate the default range for the default run
  evalsweep run

  # Evaluate a different run and environment, stopping on the first failure
  evalsweep run --run-id 20210301_101500_PongNoFrameskip-v4 --env PongNoFrameskip-v4 --strict

  # Use a different evaluator entry point and keep a JSON report
  evalsweep run --evaluator python3 --evaluator-arg eval.py --report sweep.json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSweep,
}

func init() {
	rootCmd.AddCommand(runCmd)

	addSweepFlags(runCmd.Flags())
	runCmd.Flags().Bool("strict", false, "stop the sweep at the first failed evaluation")
	runCmd.Flags().String("report", "", "write a JSON report of the sweep to this file")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, flagOverrides(cmd.Flags()))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return withExitCode(1, err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return withExitCode(1, err)
	}
	ui.SetNoColor(cfg.Logging.NoColor)
	log := logger.GetLogger()

	ui.PrintBanner(version)
	ui.PrintInfo("Run", cfg.Pointer.RunID)
	ui.PrintInfo("Pointer file", cfg.Pointer.Path())
	ui.PrintInfo("Evaluator", strings.Join(append([]string{cfg.Evaluator.Command}, cfg.Evaluator.Args...), " "))
	ui.PrintInfo("Range", fmt.Sprintf("%d..%d step %d", cfg.Sweep.Start, cfg.Sweep.End, cfg.Sweep.Step))

	stop := interrupt.NewHandler(log)
	stop.Install()
	defer stop.Close()

	params := sweep.Params{
		Start:  cfg.Sweep.Start,
		Step:   cfg.Sweep.Step,
		End:    cfg.Sweep.End,
		Strict: cfg.Sweep.Strict,
	}
	pw := pointer.NewWriter(cfg.Pointer.Path(), log)
	r := runner.New(cfg.Evaluator, runner.WithLogger(log))

	logger.LogComponentStart("sweep", map[string]interface{}{
		"run_id":  cfg.Pointer.RunID,
		"env_id":  cfg.Evaluator.EnvID,
		"pointer": cfg.Pointer.Path(),
	})

	result, runErr := sweep.NewController(params, pw, r, stop, log).Run(cmd.Context())
	if result == nil {
		ui.PrintError("Sweep could not start", runErr.Error())
		return withExitCode(1, runErr)
	}
	logger.LogComponentStop("sweep", string(result.StopReason))

	rep := report.New(result, report.Meta{
		RunID:       cfg.Pointer.RunID,
		EnvID:       cfg.Evaluator.EnvID,
		PointerPath: cfg.Pointer.Path(),
	}, runErr)

	if cfg.Report.Path != "" {
		if err := report.Save(cfg.Report.Path, rep); err != nil {
			log.WithError(err).WithField("path", cfg.Report.Path).Warn("Failed to save sweep report")
			ui.PrintWarning("Failed to save report", err.Error())
		} else {
			ui.PrintInfo("Report", cfg.Report.Path)
		}
	}

	ui.PrintSummary(rep)
	return withExitCode(exitCode(runErr), runErr)
}

// exitCode maps the error that ended a sweep to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errs.ErrInterrupted):
		return interrupt.ExitCode
	default:
		return 1
	}
}
