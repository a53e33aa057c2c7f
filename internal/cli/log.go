// Package cli implements the visiongraph command-line interface.
//
// The commands drive the persistence engine from a shell: serve runs the
// pipeline with its HTTP API, export and import move nodetree documents in
// and out of the active profile, profile switches between the stored
// profiles, funcs prints the function catalog and render draws a nodetree.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. A log_level
// in the configuration file can lower the threshold further but never
// raise it.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Imported 4 nodes (12ms)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
