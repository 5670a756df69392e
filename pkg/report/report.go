package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"evalsweep/pkg/logger"
	"evalsweep/pkg/pointer"
	"evalsweep/pkg/sweep"
)

// Report is the JSON summary of one sweep
type Report struct {
	SweepID     string       `json:"sweep_id"`
	RunID       string       `json:"run_id"`
	EnvID       string       `json:"env_id"`
	PointerPath string       `json:"pointer_path"`
	Start       int          `json:"start"`
	Step        int          `json:"step"`
	End         int          `json:"end"`
	Strict      bool         `json:"strict"`
	Planned     int          `json:"planned"`
	Launched    int          `json:"launched"`
	Succeeded   int          `json:"succeeded"`
	Failed      int          `json:"failed"`
	StopReason  string       `json:"stop_reason"`
	Error       string       `json:"error,omitempty"`
	Evaluations []Evaluation `json:"evaluations"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Version     int          `json:"version"`
}

// Evaluation is the report entry for one checkpoint index
type Evaluation struct {
	Index      int      `json:"index"`
	Checkpoint string   `json:"checkpoint"`
	Argv       []string `json:"argv,omitempty"`
	ExitCode   int      `json:"exit_code"`
	DurationMS int64    `json:"duration_ms"`
	ErrorType  string   `json:"error_type,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Meta carries the sweep settings that are not part of sweep.Result
type Meta struct {
	RunID       string
	EnvID       string
	PointerPath string
}

// New builds a report from a sweep result. runErr is the error that ended
// the sweep early, if any.
func New(result *sweep.Result, meta Meta, runErr error) *Report {
	r := &Report{
		SweepID:     uuid.NewString(),
		RunID:       meta.RunID,
		EnvID:       meta.EnvID,
		PointerPath: meta.PointerPath,
		Start:       result.Params.Start,
		Step:        result.Params.Step,
		End:         result.Params.End,
		Strict:      result.Params.Strict,
		Planned:     len(result.Planned),
		Launched:    result.Launched(),
		StopReason:  string(result.StopReason),
		Evaluations: make([]Evaluation, 0, len(result.Evaluations)),
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Version:     1,
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}

	for _, e := range result.Evaluations {
		entry := Evaluation{
			Index:      e.Index,
			Checkpoint: pointer.CheckpointName(e.Index),
			Argv:       e.Argv,
			ExitCode:   e.ExitCode,
			DurationMS: e.Duration.Milliseconds(),
		}
		if e.Failed() {
			entry.ErrorType = string(e.ErrorType)
			entry.Error = e.Err.Error()
			r.Failed++
		} else {
			r.Succeeded++
		}
		r.Evaluations = append(r.Evaluations, entry)
	}

	return r
}

// Save writes the report to path atomically: a temporary file is written,
// synced and renamed over the destination.
func Save(path string, r *Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary report file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode report: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync report file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close report file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace report file: %w", err)
	}

	logger.GetLogger().InfoWithFields("Sweep report saved", map[string]interface{}{
		"path":     path,
		"sweep_id": r.SweepID,
	})

	return nil
}

// Load reads a report written by Save
func Load(path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	var r Report
	if err := json.NewDecoder(file).Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &r, nil
}
