package collector_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collector"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/store"
)

func TestPatternOccurrences_FullScan_NoPredecessor(t *testing.T) {
	wt := newFakeWorktree(t)
	wt.writeFile(t, "a.go", "// TODO: fix this\npackage main\n")
	wt.writeFile(t, "b.go", "package b\n")

	cctx, _, _ := newTestContext(t, collectorkey.NewPattern(collectorkey.KindPatternOccurrences, "TODO", nil), "c1")

	c := collector.NewPatternOccurrences(collectorkey.KindPatternOccurrences, "TODO", nil)

	raw, err := c.Collect(context.Background(), cctx, wt)
	require.NoError(t, err)

	var val collector.PatternOccurrencesValue

	require.NoError(t, json.Unmarshal(raw, &val))
	require.Len(t, val.Matches, 1)
	assert.Equal(t, "a.go", val.Matches[0].Path)
	assert.Equal(t, uint64(1), val.Matches[0].LineNumber)
}

func TestPatternOccurrences_GlobFilter(t *testing.T) {
	wt := newFakeWorktree(t)
	wt.writeFile(t, "a.go", "TODO\n")
	wt.writeFile(t, "a.md", "TODO\n")

	cctx, _, _ := newTestContext(t, collectorkey.NewPattern(collectorkey.KindPatternOccurrences, "TODO", []string{"*.go"}), "c1")

	c := collector.NewPatternOccurrences(collectorkey.KindPatternOccurrences, "TODO", []string{"*.go"})

	raw, err := c.Collect(context.Background(), cctx, wt)
	require.NoError(t, err)

	var val collector.PatternOccurrencesValue

	require.NoError(t, json.Unmarshal(raw, &val))
	require.Len(t, val.Matches, 1)
	assert.Equal(t, "a.go", val.Matches[0].Path)
}

// TestPatternOccurrences_IncrementalReconciliation exercises spec.md §4.2's
// delta strategy end to end: a temporal predecessor exists, only the
// current commit's changed files are rescanned, and stale matches for
// changed-but-no-longer-matching files are dropped while matches in
// untouched files survive unchanged.
func TestPatternOccurrences_IncrementalReconciliation(t *testing.T) {
	wt := newFakeWorktree(t)
	wt.writeFile(t, "a.go", "no match here\n")     // was matching, now isn't: stale match dropped
	wt.writeFile(t, "b.go", "TODO: still here\n")   // untouched: predecessor match survives
	wt.writeFile(t, "c.go", "TODO: new match\n")    // newly changed and matching: fresh match added
	wt.changed = map[string]struct{}{"a.go": {}, "c.go": {}}

	key := collectorkey.NewPattern(collectorkey.KindPatternOccurrences, "TODO", nil)
	commitPrev := historymodel.CommitHash("c1")
	commitCur := historymodel.CommitHash("c2")

	g := graph.NewExecutionGraph()
	prevIdx := g.AddNode(graph.Task{Key: key, Commit: commitPrev})
	curIdx := g.AddNode(graph.Task{Key: key, Commit: commitCur})
	g.AddEdge(prevIdx, curIdx, 1)

	prevValue := collector.NewPatternOccurrencesValue(map[string]collector.MatchRecord{
		"a": {Path: "a.go", LineNumber: 1, AbsoluteOffset: 0, Submatches: []collector.Submatch{{Start: 0, End: 4, Text: "no m"}}},
		"b": {Path: "b.go", LineNumber: 1, AbsoluteOffset: 0, Submatches: []collector.Submatch{{Start: 0, End: 4, Text: "TODO"}}},
	})
	prevRaw, err := json.Marshal(prevValue)
	require.NoError(t, err)

	s := store.New()
	require.NoError(t, s.Set(store.Key{Collector: key, Commit: commitPrev}, prevRaw))

	cctx := collector.Context{Graph: g, Node: curIdx, Store: s, Commit: historymodel.CommitInfo{Hash: commitCur}}

	c := collector.NewPatternOccurrences(collectorkey.KindPatternOccurrences, "TODO", nil)

	raw, err := c.Collect(context.Background(), cctx, wt)
	require.NoError(t, err)

	var val collector.PatternOccurrencesValue

	require.NoError(t, json.Unmarshal(raw, &val))

	paths := make([]string, 0, len(val.Matches))
	for _, m := range val.Matches {
		paths = append(paths, m.Path)
	}

	assert.ElementsMatch(t, []string{"b.go", "c.go"}, paths)
}
