package sweep

import (
	"context"
	"time"

	errs "evalsweep/pkg/errors"
	"evalsweep/pkg/logger"
	"evalsweep/pkg/pointer"
	"evalsweep/pkg/runner"
)

// PointerWriter rewrites and verifies the pointer file
type PointerWriter interface {
	Write(index int) error
	Verify(index int) error
}

// StopChecker reports whether a stop has been requested
type StopChecker interface {
	Requested() bool
}

// StopReason explains why a sweep ended
type StopReason string

const (
	StopCompleted      StopReason = "completed"
	StopInterrupted    StopReason = "interrupted"
	StopStrictAbort    StopReason = "strict_abort"
	StopPointerFailure StopReason = "pointer_failure"
)

// Evaluation records the outcome of one checkpoint index
type Evaluation struct {
	Index     int
	Argv      []string
	ExitCode  int
	Duration  time.Duration
	ErrorType errs.ErrorType
	Err       error
}

// Failed reports whether the evaluation did not exit cleanly
func (e Evaluation) Failed() bool {
	return e.Err != nil
}

// Result summarises a sweep
type Result struct {
	Params      Params
	Planned     []int
	Evaluations []Evaluation
	StopReason  StopReason
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Failures returns the evaluations that failed to launch or exited non-zero
func (r *Result) Failures() []Evaluation {
	var failed []Evaluation
	for _, e := range r.Evaluations {
		if e.Failed() {
			failed = append(failed, e)
		}
	}
	return failed
}

// Launched returns the number of evaluator processes that were started
func (r *Result) Launched() int {
	n := 0
	for _, e := range r.Evaluations {
		if e.ErrorType != errs.ErrorTypeLaunch {
			n++
		}
	}
	return n
}

// Controller drives the sweep: for each index it rewrites the pointer file
// and then runs the evaluator to completion before moving on.
type Controller struct {
	params  Params
	pointer PointerWriter
	runner  runner.Runner
	stop    StopChecker
	logger  logger.Logger
}

// NewController creates a sweep controller. stop may be nil.
func NewController(params Params, pw PointerWriter, r runner.Runner, stop StopChecker, log logger.Logger) *Controller {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Controller{
		params:  params,
		pointer: pw,
		runner:  r,
		stop:    stop,
		logger:  log.WithField("component", "sweep"),
	}
}

func (c *Controller) stopRequested(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return c.stop != nil && c.stop.Requested()
}

// Run executes the sweep. It returns the result together with the error that
// ended the sweep early, if any. In the default policy launch failures and
// non-zero exits are recorded and the sweep continues; strict mode aborts on
// the first one. Pointer failures and stop requests always end the sweep.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	indices, err := c.params.Indices()
	if err != nil {
		return nil, errs.New(errs.ErrorTypeConfig, c.params.Start, "invalid sweep range", err)
	}

	result := &Result{
		Params:    c.params,
		Planned:   indices,
		StartedAt: time.Now(),
	}
	finish := func(reason StopReason, err error) (*Result, error) {
		result.StopReason = reason
		result.FinishedAt = time.Now()
		return result, err
	}

	c.logger.InfoWithFields("Sweep started", map[string]interface{}{
		"start":  c.params.Start,
		"step":   c.params.Step,
		"end":    c.params.End,
		"count":  len(indices),
		"strict": c.params.Strict,
	})

	for _, index := range indices {
		if c.stopRequested(ctx) {
			c.logger.WithField("index", index).Warn("Sweep interrupted before launch")
			return finish(StopInterrupted, errs.New(errs.ErrorTypeInterrupt, index, "stop requested", nil))
		}

		if err := c.writePointer(index); err != nil {
			c.logger.WithError(err).WithField("index", index).Error("Pointer file update failed")
			return finish(StopPointerFailure, err)
		}

		outcome, runErr := c.runner.Run(ctx, index)
		eval := Evaluation{
			Index:    index,
			Argv:     outcome.Argv,
			ExitCode: outcome.ExitCode,
			Duration: outcome.Duration,
			Err:      runErr,
		}
		if runErr != nil {
			eval.ErrorType = errs.TypeOf(runErr)
		}
		result.Evaluations = append(result.Evaluations, eval)
		logger.LogEvaluation(c.logger, index, outcome.ExitCode, outcome.Duration, runErr)

		if c.stopRequested(ctx) {
			c.logger.WithField("index", index).Warn("Sweep interrupted")
			return finish(StopInterrupted, errs.New(errs.ErrorTypeInterrupt, index, "stop requested", nil))
		}

		if runErr != nil && errs.IsFatal(eval.ErrorType, c.params.Strict) {
			c.logger.WithError(runErr).WithField("index", index).Error("Strict mode: aborting sweep")
			return finish(StopStrictAbort, runErr)
		}
	}

	c.logger.InfoWithFields("Sweep completed", map[string]interface{}{
		"evaluated": len(result.Evaluations),
		"failed":    len(result.Failures()),
	})
	return finish(StopCompleted, nil)
}

// writePointer writes the pointer for index and reads it back so that no
// evaluator is launched against a pointer naming a different checkpoint.
func (c *Controller) writePointer(index int) error {
	if err := c.pointer.Write(index); err != nil {
		return errs.New(errs.ErrorTypePointerWrite, index, "failed to write pointer file", err)
	}
	if err := c.pointer.Verify(index); err != nil {
		return errs.New(errs.ErrorTypePointerWrite, index, "pointer file verification failed", err)
	}
	return nil
}

// Step is one planned iteration of a sweep
type Step struct {
	Index      int
	Checkpoint string
	Argv       []string
}

// Plan lists the iterations a sweep would perform without touching the
// pointer file or launching anything.
func Plan(params Params, argv func(index int) []string) ([]Step, error) {
	indices, err := params.Indices()
	if err != nil {
		return nil, err
	}

	steps := make([]Step, 0, len(indices))
	for _, index := range indices {
		steps = append(steps, Step{
			Index:      index,
			Checkpoint: pointer.CheckpointName(index),
			Argv:       argv(index),
		})
	}
	return steps, nil
}
