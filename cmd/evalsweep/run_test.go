//go:build unix

package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalsweep/pkg/pointer"
	"evalsweep/pkg/report"
)

const stubEvaluator = `printf '%s\n' "$4" >> "$SWEEP_TRACE"; [ "$4" != 2000 ]`

func TestRunCommand(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	tracePath := filepath.Join(dir, "trace")
	t.Setenv("SWEEP_TRACE", tracePath)
	reportPath := filepath.Join(dir, "report.json")

	args := []string{
		"run", "--quiet", "--no-color", "--log-level", "error",
		"--log-dir", filepath.Join(dir, "log"),
		"--run-id", "test-run",
		"--env", "BreakoutNoFrameskip-v4",
		"--start", "1000", "--step", "1000", "--end", "3000",
		"--evaluator", "sh",
		"--evaluator-arg=-c",
		"--evaluator-arg", stubEvaluator,
		"--evaluator-arg", "stub-evaluator",
		"--report", reportPath,
	}

	// Default policy records the failure at 2000 and still exits 0
	rootCmd.SetArgs(args)
	assert.Equal(t, 0, Execute())

	trace, err := os.ReadFile(tracePath)
	require.NoError(t, err)
	assert.Equal(t, "1000\n2000\n3000\n", string(trace))

	data, err := os.ReadFile(filepath.Join(dir, "log", "test-run", "weights", "checkpoint"))
	require.NoError(t, err)
	assert.Equal(t, pointer.Format(3000), data)

	rep, err := report.Load(reportPath)
	require.NoError(t, err)
	assert.Equal(t, "completed", rep.StopReason)
	assert.Equal(t, 1, rep.Failed)

	// Strict mode stops after the failure. Array flags append on reparse.
	require.NoError(t, os.Remove(tracePath))
	require.NoError(t, runCmd.Flags().Lookup("evaluator-arg").Value.(pflag.SliceValue).Replace(nil))
	rootCmd.SetArgs(append(args, "--strict"))
	assert.Equal(t, 1, Execute())

	trace, err = os.ReadFile(tracePath)
	require.NoError(t, err)
	assert.Equal(t, "1000\n2000\n", string(trace))
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	rootCmd.SetArgs([]string{"plan", "--quiet", "--start", "1000", "--end", "3000", "--log-dir", filepath.Join(dir, "log")})
	assert.Equal(t, 0, Execute())

	_, err := os.Stat(filepath.Join(dir, "log"))
	assert.True(t, os.IsNotExist(err), "plan must not create the pointer file")
}

func TestPlanCommandInvalidRange(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	rootCmd.SetArgs([]string{"plan", "--quiet", "--step", "0"})
	assert.Equal(t, 1, Execute())
}
