package evaluator

import (
	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
)

// Kind classifies one progress Event, matching original_source's
// ExecutionProgressCallbackState variants.
type Kind int

const (
	// EventInitial is emitted once, before any task runs.
	EventInitial Kind = iota

	// EventNew is emitted when a task's value was computed this run.
	EventNew

	// EventReused is emitted when a task's value was already present in
	// the store (typically pre-filled from the cache).
	EventReused

	// EventFinished is emitted once, after every commit group has been
	// processed (regardless of whether an error occurred).
	EventFinished
)

// Event is one evaluator lifecycle notification, for a CLI front-end or any
// other external progress renderer (spec.md's "external collaborator"
// boundary: the evaluator only produces these, it never renders them).
type Event struct {
	Kind Kind

	// Set on EventInitial only.
	MetricCount int
	TaskCount   int

	// Set on EventNew and EventReused only.
	Collector collectorkey.CollectorKey
	Commit    historymodel.CommitHash
}
