package domain

import (
	"fmt"
	"time"
)

// ErrorLocation is a file position reported in runner output
type ErrorLocation struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Text     string `json:"text"`               // Output line the location was parsed from
	Resolved bool   `json:"resolved,omitempty"` // Marked as handled in the viewer
}

// String formats the location the way compilers do (file:line:col)
func (l ErrorLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// RunResult is the outcome of executing a command
type RunResult struct {
	Command  Command
	ExitCode int
	Output   string // Combined stdout and stderr
	Duration time.Duration
}

// Success reports whether the runner exited cleanly
func (r RunResult) Success() bool {
	return r.ExitCode == 0
}

// LastRun is the persisted record of the most recent invocation
type LastRun struct {
	Command         Command         `json:"command"`
	Target          string          `json:"target,omitempty"`
	Unit            string          `json:"unit,omitempty"`
	Debug           bool            `json:"debug,omitempty"`
	Finished        bool            `json:"finished"`
	ExitCode        int             `json:"exit_code"`
	PassedTests     int             `json:"passed_tests"`
	FailedTests     int             `json:"failed_tests"`
	Duration        string          `json:"duration"`
	DurationSeconds float64         `json:"duration_seconds"`
	Timestamp       string          `json:"timestamp"`
	Locations       []ErrorLocation `json:"locations"`
}

// Unresolved counts locations not yet marked as resolved
func (r *LastRun) Unresolved() int {
	count := 0
	for _, loc := range r.Locations {
		if !loc.Resolved {
			count++
		}
	}
	return count
}
