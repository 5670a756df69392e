package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for a checkpoint sweep
type Config struct {
	// Index range and failure policy
	Sweep SweepConfig `yaml:"sweep" toml:"sweep" json:"sweep"`

	// Downstream evaluator invocation
	Evaluator EvaluatorConfig `yaml:"evaluator" toml:"evaluator" json:"evaluator"`

	// Pointer file location
	Pointer PointerConfig `yaml:"pointer" toml:"pointer" json:"pointer"`

	// Sweep report output
	Report ReportConfig `yaml:"report" toml:"report" json:"report"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" toml:"logging" json:"logging"`
}

// SweepConfig holds the checkpoint index progression
type SweepConfig struct {
	Start  int  `yaml:"start" toml:"start" json:"start"`
	Step   int  `yaml:"step" toml:"step" json:"step"`
	End    int  `yaml:"end" toml:"end" json:"end"`
	Strict bool `yaml:"strict" toml:"strict" json:"strict"`
}

// EvaluatorConfig describes how the evaluator child process is launched
type EvaluatorConfig struct {
	// Command is the evaluator binary, resolved through PATH
	Command string `yaml:"command" toml:"command" json:"command"`
	// Args are placed between Command and the --env/--save arguments
	Args           []string      `yaml:"args" toml:"args" json:"args"`
	EnvID          string        `yaml:"env_id" toml:"env_id" json:"env_id"`
	LaunchAttempts int           `yaml:"launch_attempts" toml:"launch_attempts" json:"launch_attempts"`
	LaunchBackoff  time.Duration `yaml:"launch_backoff" toml:"launch_backoff" json:"launch_backoff"`
}

// PointerConfig holds the pointer file location.
// The path is <log_dir>/<run_id>/weights/<file>.
type PointerConfig struct {
	LogDir string `yaml:"log_dir" toml:"log_dir" json:"log_dir"`
	RunID  string `yaml:"run_id" toml:"run_id" json:"run_id"`
	File   string `yaml:"file" toml:"file" json:"file"`
}

// ReportConfig holds report output configuration
type ReportConfig struct {
	// Path of the JSON report; empty disables the report
	Path string `yaml:"path" toml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level" json:"level"`
	File    string `yaml:"file" toml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" toml:"no_color" json:"no_color"`
}

// Path returns the pointer file path
func (p PointerConfig) Path() string {
	return filepath.Join(p.LogDir, p.RunID, "weights", p.File)
}

// DefaultConfig returns a Config instance matching the original sweep
func DefaultConfig() *Config {
	return &Config{
		Sweep: SweepConfig{
			Start:  1000,
			Step:   1000,
			End:    47000,
			Strict: false,
		},
		Evaluator: EvaluatorConfig{
			Command:        "python",
			Args:           []string{"main.py"},
			EnvID:          "BreakoutNoFrameskip-v4",
			LaunchAttempts: 1,
			LaunchBackoff:  time.Second,
		},
		Pointer: PointerConfig{
			LogDir: "./log",
			RunID:  "20210110_190115_BreakoutNoFrameskip-v4",
			File:   "checkpoint",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from EVALSWEEP_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	intVar := func(name string, dst *int) {
		if raw := os.Getenv(name); raw != "" {
			val, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = val
		}
	}

	intVar("EVALSWEEP_START", &c.Sweep.Start)
	intVar("EVALSWEEP_STEP", &c.Sweep.Step)
	intVar("EVALSWEEP_END", &c.Sweep.End)
	intVar("EVALSWEEP_LAUNCH_ATTEMPTS", &c.Evaluator.LaunchAttempts)

	if strict := os.Getenv("EVALSWEEP_STRICT"); strict != "" {
		val, err := strconv.ParseBool(strict)
		if err != nil {
			errs = append(errs, fmt.Errorf("EVALSWEEP_STRICT: %w", err))
		} else {
			c.Sweep.Strict = val
		}
	}

	if evaluator := os.Getenv("EVALSWEEP_EVALUATOR"); evaluator != "" {
		c.Evaluator.Command = evaluator
	}
	if envID := os.Getenv("EVALSWEEP_ENV_ID"); envID != "" {
		c.Evaluator.EnvID = envID
	}
	if runID := os.Getenv("EVALSWEEP_RUN_ID"); runID != "" {
		c.Pointer.RunID = runID
	}
	if logDir := os.Getenv("EVALSWEEP_LOG_DIR"); logDir != "" {
		c.Pointer.LogDir = logDir
	}
	if report := os.Getenv("EVALSWEEP_REPORT"); report != "" {
		c.Report.Path = report
	}
	if logLevel := os.Getenv("EVALSWEEP_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML or TOML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".evalsweep.yaml",
		".evalsweep.yml",
		".evalsweep.toml",
		filepath.Join(home, ".config", "evalsweep", "config.yaml"),
		filepath.Join(home, ".config", "evalsweep", "config.toml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Sweep.Start <= 0 {
		errs = append(errs, errors.New("sweep start must be positive"))
	}
	if c.Sweep.Step <= 0 {
		errs = append(errs, errors.New("sweep step must be positive"))
	}

	if strings.TrimSpace(c.Evaluator.Command) == "" {
		errs = append(errs, errors.New("evaluator command is required"))
	}
	if c.Evaluator.EnvID == "" {
		errs = append(errs, errors.New("evaluator env id is required"))
	}
	if c.Evaluator.LaunchAttempts < 1 {
		errs = append(errs, errors.New("launch attempts must be at least 1"))
	}
	if c.Evaluator.LaunchBackoff < 0 {
		errs = append(errs, errors.New("launch backoff cannot be negative"))
	}

	if c.Pointer.RunID == "" {
		errs = append(errs, errors.New("run id is required"))
	}
	if c.Pointer.File == "" {
		errs = append(errs, errors.New("pointer file name is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges explicitly set command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["start"].(int); ok {
		c.Sweep.Start = v
	}
	if v, ok := flags["step"].(int); ok {
		c.Sweep.Step = v
	}
	if v, ok := flags["end"].(int); ok {
		c.Sweep.End = v
	}
	if v, ok := flags["strict"].(bool); ok {
		c.Sweep.Strict = v
	}
	if v, ok := flags["evaluator"].(string); ok && v != "" {
		c.Evaluator.Command = v
	}
	if v, ok := flags["evaluator-args"].([]string); ok {
		c.Evaluator.Args = v
	}
	if v, ok := flags["env"].(string); ok && v != "" {
		c.Evaluator.EnvID = v
	}
	if v, ok := flags["launch-attempts"].(int); ok {
		c.Evaluator.LaunchAttempts = v
	}
	if v, ok := flags["run-id"].(string); ok && v != "" {
		c.Pointer.RunID = v
	}
	if v, ok := flags["log-dir"].(string); ok && v != "" {
		c.Pointer.LogDir = v
	}
	if v, ok := flags["report"].(string); ok {
		c.Report.Path = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok {
		c.Logging.File = v
	}
	if v, ok := flags["no-color"].(bool); ok {
		c.Logging.NoColor = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".evalsweep.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
