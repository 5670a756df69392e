// Package report writes a JSON summary of a checkpoint sweep.
//
// A report lists every evaluated index with its exit code, duration and
// failure classification, plus the reason the sweep stopped. Reports are
// written atomically so an interrupted save never leaves a truncated file
// behind.
package report
