package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"evalsweep/pkg/config"
	"evalsweep/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage evalsweep configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (EVALSWEEP_*)
  - .env files
  - Configuration file (YAML, or TOML with a .toml extension)
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.evalsweep.yaml'
unless a different path is specified with the --config flag.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:          "show",
	Short:        "Show current configuration",
	Long:         `Show the effective configuration after merging every source.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Validate the effective configuration for syntax errors and invalid values.

This command checks:
  - File syntax
  - Sweep range
  - Evaluator command and environment id
  - Log file directory accessibility`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# evalsweep configuration file
#
# Environment variables prefixed with EVALSWEEP_ override these values,
# for example EVALSWEEP_RUN_ID or EVALSWEEP_STRICT.

# Checkpoint range, inclusive
sweep:
  start: 1000
  step: 1000
  end: 47000

  # Stop at the first failed evaluation instead of recording it and continuing
  strict: false

# Evaluator invocation: <command> <args...> --env <env_id> --save <index>
evaluator:
  command: "python"
  args:
    - "main.py"
  env_id: "BreakoutNoFrameskip-v4"

  # Attempts to start the evaluator before recording a launch failure
  launch_attempts: 1
  launch_backoff: "1s"

# Pointer file location: <log_dir>/<run_id>/weights/<file>
pointer:
  log_dir: "./log"
  run_id: "20210110_190115_BreakoutNoFrameskip-v4"
  file: "checkpoint"

# Optional JSON report of the sweep
report:
  path: ""

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional). Logs always go to stderr as well.
  file: ""

  no_color: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".evalsweep.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return withExitCode(1, fmt.Errorf("configuration file already exists: %s", configPath))
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			ui.PrintError("Failed to create configuration directory", err.Error())
			return withExitCode(1, err)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		return withExitCode(1, err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	if !ui.IsQuiet() {
		fmt.Println("\nNext steps:")
		fmt.Println("1. Set pointer.run_id and evaluator.env_id for your training run")
		fmt.Println("2. Run 'evalsweep config validate' to check the configuration")
		fmt.Println("3. Preview with 'evalsweep plan', then start with 'evalsweep run'")
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, flagOverrides(cmd.Flags()))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return withExitCode(1, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		return withExitCode(1, err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	if !ui.IsQuiet() {
		fmt.Println("\nConfiguration sources (in order of priority):")
		fmt.Println("1. Command line flags")
		fmt.Println("2. Environment variables (EVALSWEEP_*)")
		fmt.Println("3. .env files")
		if configFile != "" {
			fmt.Printf("4. Configuration file: %s\n", configFile)
		} else {
			fmt.Println("4. Configuration file: (searched in ./ and ~/.config/evalsweep)")
		}
		fmt.Println("5. Default values")
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	}

	cfg, err := config.Load(configFile, flagOverrides(cmd.Flags()))
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		return withExitCode(1, err)
	}

	var problems []string
	var warnings []string

	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}
	if cfg.Sweep.End < cfg.Sweep.Start {
		warnings = append(warnings, "sweep.end is before sweep.start, no checkpoint will be evaluated")
	}
	if _, err := os.Stat(filepath.Join(cfg.Pointer.LogDir, cfg.Pointer.RunID)); err != nil {
		warnings = append(warnings, fmt.Sprintf("Run directory not found: %s", filepath.Join(cfg.Pointer.LogDir, cfg.Pointer.RunID)))
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return withExitCode(1, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; ")))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	ui.PrintSuccess("Configuration is valid")
	if !ui.IsQuiet() {
		fmt.Println("\nConfiguration summary:")
		fmt.Printf("  Range: %d..%d step %d\n", cfg.Sweep.Start, cfg.Sweep.End, cfg.Sweep.Step)
		fmt.Printf("  Strict: %t\n", cfg.Sweep.Strict)
		fmt.Printf("  Evaluator: %s\n", strings.Join(append([]string{cfg.Evaluator.Command}, cfg.Evaluator.Args...), " "))
		fmt.Printf("  Environment: %s\n", cfg.Evaluator.EnvID)
		fmt.Printf("  Pointer file: %s\n", cfg.Pointer.Path())
		fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	}
	return nil
}
