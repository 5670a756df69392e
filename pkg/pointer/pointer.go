package pointer

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"evalsweep/pkg/logger"
)

// CheckpointName returns the checkpoint name for an index, e.g. "episode_1000"
func CheckpointName(index int) string {
	return "episode_" + strconv.Itoa(index)
}

// Format renders the pointer file contents for an index.
// Only the first line is newline-terminated.
func Format(index int) []byte {
	name := CheckpointName(index)
	return []byte(fmt.Sprintf("model_checkpoint_path: %q\nall_model_checkpoint_paths: %q", name, name))
}

var pointerPattern = regexp.MustCompile(`^model_checkpoint_path: "episode_(\d+)"\nall_model_checkpoint_paths: "episode_(\d+)"$`)

// Parse extracts the checkpoint index named by pointer file contents
func Parse(data []byte) (int, error) {
	m := pointerPattern.FindSubmatch(data)
	if m == nil {
		return 0, fmt.Errorf("malformed pointer file contents %q", data)
	}
	if !bytes.Equal(m[1], m[2]) {
		return 0, fmt.Errorf("pointer file names two checkpoints: %s and %s", m[1], m[2])
	}
	index, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, fmt.Errorf("invalid checkpoint index %q: %w", m[1], err)
	}
	return index, nil
}

// Writer rewrites the pointer file that tells the evaluator which checkpoint to load
type Writer struct {
	path   string
	logger logger.Logger
}

// NewWriter creates a pointer writer for the given path
func NewWriter(path string, log logger.Logger) *Writer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{
		path:   path,
		logger: log.WithField("pointer", path),
	}
}

// Path returns the pointer file path
func (w *Writer) Path() string {
	return w.path
}

// Write truncates the pointer file and writes the entry for index.
// The data is synced and the file closed before Write returns.
func (w *Writer) Write(index int) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create pointer directory: %w", err)
	}

	file, err := os.OpenFile(w.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open pointer file: %w", err)
	}

	if _, err := file.Write(Format(index)); err != nil {
		file.Close()
		return fmt.Errorf("failed to write pointer file: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("failed to sync pointer file: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close pointer file: %w", err)
	}

	w.logger.DebugWithFields("Pointer file written", map[string]interface{}{
		"index":      index,
		"checkpoint": CheckpointName(index),
	})

	return nil
}

// Read returns the index currently named by the pointer file
func (w *Writer) Read() (int, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pointer file: %w", err)
	}
	return Parse(data)
}

// Verify checks that the pointer file on disk is exactly the entry for index
func (w *Writer) Verify(index int) error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read pointer file: %w", err)
	}
	if !bytes.Equal(data, Format(index)) {
		return fmt.Errorf("pointer file does not name %s", CheckpointName(index))
	}
	return nil
}
