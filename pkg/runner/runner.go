package runner

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	"evalsweep/pkg/config"
	errs "evalsweep/pkg/errors"
	"evalsweep/pkg/logger"
	"evalsweep/pkg/retry"
)

// Runner launches the evaluator for one checkpoint index and waits for it
type Runner interface {
	Run(ctx context.Context, index int) (Outcome, error)
}

// Outcome describes one finished evaluator run
type Outcome struct {
	Index    int
	Argv     []string
	ExitCode int
	Duration time.Duration
}

// Option configures an ExecRunner
type Option func(*ExecRunner)

// WithOutput replaces the inherited stdout and stderr
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *ExecRunner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithLogger sets the logger used for launch and exit events
func WithLogger(log logger.Logger) Option {
	return func(r *ExecRunner) {
		r.logger = log
	}
}

// ExecRunner runs the evaluator as a child process without a shell.
// The child inherits the driver's working directory, environment, stdout
// and stderr.
type ExecRunner struct {
	command        string
	prefixArgs     []string
	envID          string
	launchAttempts int
	launchBackoff  time.Duration
	stdout         io.Writer
	stderr         io.Writer
	logger         logger.Logger
}

// New creates an ExecRunner from the evaluator configuration
func New(cfg config.EvaluatorConfig, opts ...Option) *ExecRunner {
	r := &ExecRunner{
		command:        cfg.Command,
		prefixArgs:     append([]string(nil), cfg.Args...),
		envID:          cfg.EnvID,
		launchAttempts: cfg.LaunchAttempts,
		launchBackoff:  cfg.LaunchBackoff,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.GetLogger()
	}
	if r.launchAttempts < 1 {
		r.launchAttempts = 1
	}
	return r
}

// Argv returns the full argument vector for index, command first
func (r *ExecRunner) Argv(index int) []string {
	argv := make([]string, 0, len(r.prefixArgs)+5)
	argv = append(argv, r.command)
	argv = append(argv, r.prefixArgs...)
	return append(argv, "--env", r.envID, "--save", strconv.Itoa(index))
}

// Run starts the evaluator for index and blocks until it exits.
// ctx only bounds launch retries; a started child is always waited for.
func (r *ExecRunner) Run(ctx context.Context, index int) (Outcome, error) {
	argv := r.Argv(index)
	outcome := Outcome{Index: index, Argv: argv, ExitCode: -1}
	log := r.logger.WithField("index", index)

	var cmd *exec.Cmd
	launch := func() error {
		cmd = exec.Command(argv[0], argv[1:]...)
		cmd.Stdin = os.Stdin
		cmd.Stdout = r.stdout
		cmd.Stderr = r.stderr
		if err := cmd.Start(); err != nil {
			return errs.New(errs.ErrorTypeLaunch, index, "failed to start evaluator", err)
		}
		return nil
	}

	err := retry.Do(launch, &retry.Config{
		MaxAttempts: r.launchAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: r.launchBackoff},
		RetryIf:     retry.DefaultRetryIf,
		Context:     ctx,
		Logger:      log,
	})
	if err != nil {
		if errs.TypeOf(err) != errs.ErrorTypeLaunch {
			err = errs.New(errs.ErrorTypeLaunch, index, "evaluator launch abandoned", err)
		}
		return outcome, err
	}

	log.DebugWithFields("Evaluator started", map[string]interface{}{
		"pid":  cmd.Process.Pid,
		"argv": argv,
	})

	started := time.Now()
	waitErr := cmd.Wait()
	outcome.Duration = time.Since(started)

	if waitErr == nil {
		outcome.ExitCode = 0
		return outcome, nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(waitErr, &exitErr) {
		outcome.ExitCode = exitErr.ExitCode()
		return outcome, &errs.Error{
			Type:     errs.ErrorTypeExit,
			Index:    index,
			Message:  "evaluator exited unsuccessfully",
			ExitCode: outcome.ExitCode,
			Cause:    waitErr,
		}
	}

	return outcome, errs.New(errs.ErrorTypeExit, index, "failed to wait for evaluator", waitErr)
}
