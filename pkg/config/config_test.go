package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Sweep.Start != 1000 || config.Sweep.Step != 1000 || config.Sweep.End != 47000 {
		t.Errorf("Expected default sweep 1000..47000 step 1000, got %d..%d step %d",
			config.Sweep.Start, config.Sweep.End, config.Sweep.Step)
	}

	if config.Sweep.Strict {
		t.Error("Expected strict mode to be off by default")
	}

	want := filepath.Join("log", "20210110_190115_BreakoutNoFrameskip-v4", "weights", "checkpoint")
	if got := config.Pointer.Path(); got != want {
		t.Errorf("Expected default pointer path %s, got %s", want, got)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EVALSWEEP_START", "2000")
	t.Setenv("EVALSWEEP_STEP", "500")
	t.Setenv("EVALSWEEP_END", "4000")
	t.Setenv("EVALSWEEP_STRICT", "true")
	t.Setenv("EVALSWEEP_ENV_ID", "PongNoFrameskip-v4")
	t.Setenv("EVALSWEEP_RUN_ID", "run with spaces")
	t.Setenv("EVALSWEEP_EVALUATOR", "/usr/bin/python3")
	t.Setenv("EVALSWEEP_LOG_LEVEL", "debug")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Sweep.Start != 2000 {
		t.Errorf("Expected start 2000, got %d", config.Sweep.Start)
	}
	if config.Sweep.Step != 500 {
		t.Errorf("Expected step 500, got %d", config.Sweep.Step)
	}
	if config.Sweep.End != 4000 {
		t.Errorf("Expected end 4000, got %d", config.Sweep.End)
	}
	if !config.Sweep.Strict {
		t.Error("Expected strict mode from environment")
	}
	if config.Evaluator.EnvID != "PongNoFrameskip-v4" {
		t.Errorf("Expected env id PongNoFrameskip-v4, got %s", config.Evaluator.EnvID)
	}
	if config.Pointer.RunID != "run with spaces" {
		t.Errorf("Expected run id from environment, got %s", config.Pointer.RunID)
	}
	if config.Evaluator.Command != "/usr/bin/python3" {
		t.Errorf("Expected evaluator /usr/bin/python3, got %s", config.Evaluator.Command)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("EVALSWEEP_STEP", "a thousand")

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err == nil {
		t.Error("Expected error for non-numeric EVALSWEEP_STEP")
	}
}

func TestSaveAndLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "evalsweep.yaml")

	original := DefaultConfig()
	original.Sweep.End = 3000
	original.Evaluator.Args = []string{"main.py", "--network", "dueling"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected saved config file: %v", err)
	}

	loaded := DefaultConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Sweep.End != 3000 {
		t.Errorf("Expected end 3000, got %d", loaded.Sweep.End)
	}
	if len(loaded.Evaluator.Args) != 3 || loaded.Evaluator.Args[2] != "dueling" {
		t.Errorf("Expected evaluator args to round trip, got %v", loaded.Evaluator.Args)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantError bool
	}{
		{
			name:      "valid config",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "end before start is a valid empty sweep",
			mutate:    func(c *Config) { c.Sweep.End = 500 },
			wantError: false,
		},
		{
			name:      "zero step",
			mutate:    func(c *Config) { c.Sweep.Step = 0 },
			wantError: true,
		},
		{
			name:      "negative start",
			mutate:    func(c *Config) { c.Sweep.Start = -1000 },
			wantError: true,
		},
		{
			name:      "missing evaluator",
			mutate:    func(c *Config) { c.Evaluator.Command = " " },
			wantError: true,
		},
		{
			name:      "missing run id",
			mutate:    func(c *Config) { c.Pointer.RunID = "" },
			wantError: true,
		},
		{
			name:      "zero launch attempts",
			mutate:    func(c *Config) { c.Evaluator.LaunchAttempts = 0 },
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
