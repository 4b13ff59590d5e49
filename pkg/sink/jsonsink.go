package sink

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collector"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/persist"
)

const stateBasename = "gitmetrics-state"

// document is the on-disk shape a JSONSink round-trips through
// persist.SaveState/LoadState.
type document struct {
	Commits    []historymodel.CommitInfo                              `json:"commits"`
	CommitTags []historymodel.CommitTagInfo                            `json:"commit_tags"`
	Metrics    map[string]map[historymodel.CommitHash]collector.Value `json:"metrics"`
}

func newDocument() document {
	return document{Metrics: make(map[string]map[historymodel.CommitHash]collector.Value)}
}

// JSONSink is a Sink backed by a single pretty-printed JSON file, written
// through the teacher's persist.JSONCodec so its on-disk shape follows the
// same convention as any other checkpointed state in this codebase.
type JSONSink struct {
	dir   string
	codec persist.Codec

	mu  sync.RWMutex
	doc document
}

// NewJSONSink returns a JSONSink rooted at dir. Load must be called before
// GetMetric/SetMetric see a previous run's data; a fresh sink starts empty.
func NewJSONSink(dir string) *JSONSink {
	return &JSONSink{dir: dir, codec: persist.NewJSONCodec(), doc: newDocument()}
}

// SetCommits implements Sink.
func (s *JSONSink) SetCommits(commits []historymodel.CommitInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Commits = commits

	return nil
}

// SetCommitTags implements Sink.
func (s *JSONSink) SetCommitTags(tags []historymodel.CommitTagInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.CommitTags = tags

	return nil
}

// SetMetric implements Sink.
func (s *JSONSink) SetMetric(metricName string, commit historymodel.CommitHash, value collector.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCommit, ok := s.doc.Metrics[metricName]
	if !ok {
		byCommit = make(map[historymodel.CommitHash]collector.Value)
		s.doc.Metrics[metricName] = byCommit
	}

	byCommit[commit] = append(collector.Value(nil), value...)

	return nil
}

// GetMetric implements Sink.
func (s *JSONSink) GetMetric(metricName string, commit historymodel.CommitHash) (collector.Value, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCommit, ok := s.doc.Metrics[metricName]
	if !ok {
		return nil, false, nil
	}

	value, ok := byCommit[commit]
	if !ok {
		return nil, false, nil
	}

	return value, true, nil
}

// Load reads the sink's state file, if it exists. A missing file is not an
// error — it means this is the first run against this output directory.
func (s *JSONSink) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc document

	err := persist.LoadState(s.dir, stateBasename, s.codec, &doc)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("sink: load state: %w", err)
	}

	if doc.Metrics == nil {
		doc.Metrics = make(map[string]map[historymodel.CommitHash]collector.Value)
	}

	s.doc = doc

	return nil
}

// Flush persists the sink's current state to disk.
func (s *JSONSink) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("sink: create output dir %s: %w", s.dir, err)
	}

	if err := persist.SaveState(s.dir, stateBasename, s.codec, s.doc); err != nil {
		return fmt.Errorf("sink: flush state: %w", err)
	}

	return nil
}

var _ Sink = (*JSONSink)(nil)
