package main

import (
	"github.com/spf13/pflag"
)

// addSweepFlags registers the flags shared by run and plan
func addSweepFlags(fs *pflag.FlagSet) {
	fs.Int("start", 1000, "first checkpoint index")
	fs.Int("step", 1000, "distance between checkpoint indices")
	fs.Int("end", 47000, "last checkpoint index (inclusive)")
	fs.String("env", "", "environment id passed to the evaluator as --env")
	fs.String("run-id", "", "training run directory under the log dir")
	fs.String("log-dir", "", "directory holding training runs (default ./log)")
	fs.String("evaluator", "", "evaluator executable (default python)")
	fs.StringArray("evaluator-arg", nil, "argument placed before --env; repeat for several (default main.py)")
	fs.Int("launch-attempts", 1, "attempts to start the evaluator before recording a launch failure")
}

// flagOverrides collects the flags set on the command line into the map
// consumed by config.MergeCommandLineFlags. Unset flags are left out so that
// environment and file values keep their precedence.
func flagOverrides(fs *pflag.FlagSet) map[string]interface{} {
	flags := make(map[string]interface{})

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "start", "step", "end", "launch-attempts":
			if v, err := fs.GetInt(f.Name); err == nil {
				flags[f.Name] = v
			}
		case "strict", "no-color":
			if v, err := fs.GetBool(f.Name); err == nil {
				flags[f.Name] = v
			}
		case "evaluator-arg":
			if v, err := fs.GetStringArray(f.Name); err == nil {
				flags["evaluator-args"] = v
			}
		case "env", "run-id", "log-dir", "evaluator", "report", "log-level", "log-file":
			if v, err := fs.GetString(f.Name); err == nil {
				flags[f.Name] = v
			}
		}
	})

	return flags
}
