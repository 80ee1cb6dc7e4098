package orchestrator

import "log/slog"

// ProgressSink receives progress updates on every meaningful change of the
// run. Update carries the dialog-style detail; Publish carries the
// aggregate percentage for external status consumers.
type ProgressSink interface {
	// Update reports shownFileCount (cumulative count of files ever
	// announced as in progress), the indexed and total source file counts,
	// and the files currently being processed.
	Update(shownFileCount, indexed, total int, current []string)

	// Publish reports the aggregate completion percentage, 0..100.
	Publish(percent int)
}

// NopProgress discards all updates.
type NopProgress struct{}

func (NopProgress) Update(int, int, int, []string) {}
func (NopProgress) Publish(int)                    {}

// LogProgress writes progress to a structured logger. Hosts without a UI
// use it as their sink.
type LogProgress struct {
	Logger *slog.Logger
}

func (p LogProgress) Update(shown, indexed, total int, current []string) {
	p.Logger.Info("indexing progress",
		"indexed", indexed,
		"total", total,
		"in_flight", len(current))
}

func (p LogProgress) Publish(percent int) {
	p.Logger.Info("indexing status", "percent", percent)
}
