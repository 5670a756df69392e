package ui

import (
	"fmt"
	"time"

	"evalsweep/pkg/report"
	"evalsweep/pkg/sweep"
)

// PrintPlan lists the iterations a sweep would perform
func PrintPlan(pointerPath string, steps []sweep.Step) {
	PrintInfo("Pointer file", pointerPath)
	PrintInfo("Iterations", fmt.Sprintf("%d", len(steps)))
	if quiet {
		return
	}
	fmt.Fprintln(out)
	for _, s := range steps {
		fmt.Fprintf(out, "  %s  %s\n",
			render(labelStyle, fmt.Sprintf("%-16s", s.Checkpoint)),
			FormatArgv(s.Argv))
	}
}

// PrintSummary prints the outcome of a sweep. Failures are always shown.
func PrintSummary(r *report.Report) {
	if !quiet {
		fmt.Fprintln(out)
	}
	PrintInfo("Sweep", r.SweepID)
	PrintInfo("Evaluated", fmt.Sprintf("%d/%d", len(r.Evaluations), r.Planned))
	PrintInfo("Elapsed", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String())

	for _, e := range r.Evaluations {
		if e.Error != "" {
			PrintWarning(fmt.Sprintf("  %s failed", e.Checkpoint), e.Error)
		}
	}

	switch r.StopReason {
	case string(sweep.StopCompleted):
		if r.Failed > 0 {
			PrintWarning(fmt.Sprintf("Sweep completed with %d failed evaluation(s)", r.Failed))
		} else {
			PrintSuccess("Sweep completed")
		}
	case string(sweep.StopInterrupted):
		PrintWarning("Sweep interrupted")
	default:
		PrintError("Sweep aborted", r.Error)
	}
}
