// Package sink implements spec.md §6's output-sink collaborator: the thing
// a finished collection run writes its commits, tags, and per-metric values
// into. Grounded on the teacher's pkg/persist Codec/SaveState/LoadState
// abstraction, used here the same way the teacher uses it for its own
// analysis-state checkpoints.
package sink

import (
	"github.com/Sumatoshi-tech/gitmetrics/pkg/collector"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
)

// Sink is the write/read surface a collection run's results land in.
// Restated here from SPEC_FULL.md's external-collaborator contracts.
type Sink interface {
	SetCommits([]historymodel.CommitInfo) error
	SetCommitTags([]historymodel.CommitTagInfo) error
	SetMetric(metricName string, commit historymodel.CommitHash, value collector.Value) error
	GetMetric(metricName string, commit historymodel.CommitHash) (collector.Value, bool, error)
	Load() error
	Flush() error
}
