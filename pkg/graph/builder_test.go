package graph_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
)

func dummyCommit(t *testing.T, hash, rfc3339 string) historymodel.CommitInfo {
	t.Helper()

	ts, err := time.Parse(time.RFC3339, rfc3339)
	require.NoError(t, err)

	return historymodel.CommitInfo{Hash: historymodel.CommitHash(hash), Time: ts}
}

// selectedHashes returns which commit hashes got a Loc node in the graph,
// in ascending time order — the Go counterpart of graph.rs's test helper
// assert_node_commit_hashes.
func selectedHashes(g *graph.ExecutionGraph) []string {
	out := make([]string, 0, g.NodeCount())
	for _, idx := range g.Nodes() {
		out = append(out, string(g.Task(idx).Commit))
	}

	return out
}

// Ten scenarios ported from original_source/lib/src/graph.rs's
// #[test] functions: five frequency buckets, each with and without
// forceLatest, asserting exactly which commits get selected.
func TestBuild_FrequencySelection(t *testing.T) {
	cases := []struct {
		name         string
		frequency    collectorkey.Frequency
		forceLatest  bool
		commits      []struct{ hash, rfc3339 string }
		wantSelected []string
	}{
		{
			name:        "per_commit_without_force_latest",
			frequency:   collectorkey.FrequencyPerCommit,
			forceLatest: false,
			commits: []struct{ hash, rfc3339 string }{
				{"1", "2012-12-12T00:00:00Z"},
				{"2", "2012-12-13T00:00:00Z"},
				{"3", "2012-12-14T00:00:00Z"},
				{"4", "2012-12-15T00:00:00Z"},
				{"5", "2012-12-16T00:00:00Z"},
			},
			wantSelected: []string{"1", "2", "3", "4", "5"},
		},
		{
			name:        "daily_without_force_latest",
			frequency:   collectorkey.FrequencyDaily,
			forceLatest: false,
			commits: []struct{ hash, rfc3339 string }{
				{"1.0", "2012-12-12T00:00:00Z"},
				{"1.1", "2012-12-12T01:00:00Z"},
				{"1.2", "2012-12-12T02:00:00Z"},
				{"1.3", "2012-12-12T03:00:00Z"},
				{"2", "2012-12-13T00:00:00Z"},
				{"3.0", "2012-12-14T00:00:00Z"},
				{"3.1", "2012-12-14T01:00:00Z"},
				{"3.2", "2012-12-14T18:00:00Z"},
				{"4", "2012-12-15T00:00:00Z"},
				{"5.0", "2012-12-16T00:00:00Z"},
				{"5.1", "2012-12-16T01:00:00Z"},
			},
			wantSelected: []string{"1.0", "2", "3.0", "4", "5.0"},
		},
		{
			name:        "weekly_without_force_latest",
			frequency:   collectorkey.FrequencyWeekly,
			forceLatest: false,
			commits: []struct{ hash, rfc3339 string }{
				{"1.0", "2024-07-02T00:00:00Z"},
				{"1.1", "2024-07-02T12:00:00Z"},
				{"1.2", "2024-07-05T00:00:00Z"},
				{"2.0", "2024-07-08T00:00:00Z"},
				{"3.0", "2024-07-15T00:00:00Z"},
				{"4.0", "2024-07-24T00:00:00Z"},
			},
			wantSelected: []string{"1.0", "2.0", "3.0", "4.0"},
		},
		{
			name:        "monthly_without_force_latest",
			frequency:   collectorkey.FrequencyMonthly,
			forceLatest: false,
			commits: []struct{ hash, rfc3339 string }{
				{"1.0", "2012-12-12T00:00:00Z"},
				{"1.1", "2012-12-13T01:00:00Z"},
				{"1.2", "2012-12-13T12:10:00Z"},
				{"2.0", "2013-01-18T12:10:00Z"},
				{"3.0", "2013-02-18T12:10:00Z"},
				{"4.0", "2013-05-18T12:10:00Z"},
				{"4.1", "2013-05-19T10:00:00Z"},
			},
			wantSelected: []string{"1.0", "2.0", "3.0", "4.0"},
		},
		{
			name:        "yearly_without_force_latest",
			frequency:   collectorkey.FrequencyYearly,
			forceLatest: false,
			commits: []struct{ hash, rfc3339 string }{
				{"2012#1", "2012-12-12T00:00:00Z"},
				{"2012#2", "2012-12-12T01:00:00Z"},
				{"2012#3", "2012-12-13T00:00:00Z"},
				{"2013#1", "2013-02-06T00:00:00Z"},
				{"2014#1", "2014-02-07T00:00:00Z"},
				{"2014#2", "2014-03-01T14:00:00Z"},
				{"2014#3", "2014-03-01T14:00:00Z"},
			},
			wantSelected: []string{"2012#1", "2013#1", "2014#1"},
		},
		{
			name:        "per_commit_with_force_latest",
			frequency:   collectorkey.FrequencyPerCommit,
			forceLatest: true,
			commits: []struct{ hash, rfc3339 string }{
				{"1", "2012-12-12T00:00:00Z"},
				{"2", "2012-12-13T00:00:00Z"},
				{"3", "2012-12-14T00:00:00Z"},
				{"4", "2012-12-15T00:00:00Z"},
				{"5", "2012-12-16T00:00:00Z"},
			},
			wantSelected: []string{"1", "2", "3", "4", "5"},
		},
		{
			name:        "daily_with_force_latest",
			frequency:   collectorkey.FrequencyDaily,
			forceLatest: true,
			commits: []struct{ hash, rfc3339 string }{
				{"1.0", "2012-12-12T00:00:00Z"},
				{"1.1", "2012-12-12T01:00:00Z"},
				{"1.2", "2012-12-12T02:00:00Z"},
				{"1.3", "2012-12-12T03:00:00Z"},
				{"2", "2012-12-13T00:00:00Z"},
				{"3.0", "2012-12-14T00:00:00Z"},
				{"3.1", "2012-12-14T01:00:00Z"},
				{"3.2", "2012-12-14T18:00:00Z"},
				{"4", "2012-12-15T00:00:00Z"},
				{"5.0", "2012-12-16T00:00:00Z"},
				{"5.1", "2012-12-16T01:00:00Z"},
			},
			wantSelected: []string{"1.0", "2", "3.0", "4", "5.0", "5.1"},
		},
		{
			name:        "weekly_with_force_latest",
			frequency:   collectorkey.FrequencyWeekly,
			forceLatest: true,
			commits: []struct{ hash, rfc3339 string }{
				{"1.0", "2024-07-02T00:00:00Z"},
				{"1.1", "2024-07-02T12:00:00Z"},
				{"1.2", "2024-07-05T00:00:00Z"},
				{"2.0", "2024-07-08T00:00:00Z"},
				{"3.0", "2024-07-15T00:00:00Z"},
				{"4.0", "2024-07-24T00:00:00Z"},
				{"4.1", "2024-07-24T01:00:00Z"},
			},
			wantSelected: []string{"1.0", "2.0", "3.0", "4.0", "4.1"},
		},
		{
			name:        "monthly_with_force_latest",
			frequency:   collectorkey.FrequencyMonthly,
			forceLatest: true,
			commits: []struct{ hash, rfc3339 string }{
				{"1.0", "2012-12-12T00:00:00Z"},
				{"1.1", "2012-12-13T01:00:00Z"},
				{"1.2", "2012-12-13T12:10:00Z"},
				{"2.0", "2013-01-18T12:10:00Z"},
				{"3.0", "2013-02-18T12:10:00Z"},
				{"4.0", "2013-05-18T12:10:00Z"},
				{"4.1", "2013-05-19T10:00:00Z"},
			},
			wantSelected: []string{"1.0", "2.0", "3.0", "4.0", "4.1"},
		},
		{
			name:        "yearly_with_force_latest",
			frequency:   collectorkey.FrequencyYearly,
			forceLatest: true,
			commits: []struct{ hash, rfc3339 string }{
				{"2012#1", "2012-12-12T00:00:00Z"},
				{"2012#2", "2012-12-12T01:00:00Z"},
				{"2012#3", "2012-12-13T00:00:00Z"},
				{"2013#1", "2013-02-06T00:00:00Z"},
				{"2014#1", "2014-02-07T00:00:00Z"},
				{"2014#2", "2014-03-01T14:00:00Z"},
				{"2014#3", "2014-03-01T14:00:00Z"},
			},
			wantSelected: []string{"2012#1", "2013#1", "2014#1", "2014#3"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			commits := make([]historymodel.CommitInfo, 0, len(tc.commits))
			for _, c := range tc.commits {
				commits = append(commits, dummyCommit(t, c.hash, c.rfc3339))
			}

			metrics := []collectorkey.MetricConfig{
				{Name: "test_metric", Collector: collectorkey.New(collectorkey.KindLoc), Frequency: tc.frequency},
			}

			g := graph.Build(commits, metrics, tc.forceLatest)

			assert.ElementsMatch(t, tc.wantSelected, selectedHashes(g))
		})
	}
}

func TestBuild_SameCommitDependencyWired(t *testing.T) {
	commits := []historymodel.CommitInfo{
		dummyCommit(t, "1", "2012-12-12T00:00:00Z"),
	}

	metrics := []collectorkey.MetricConfig{
		{Name: "m", Collector: collectorkey.New(collectorkey.KindTotalLoc), Frequency: collectorkey.FrequencyPerCommit},
	}

	g := graph.Build(commits, metrics, false)

	require.Equal(t, 2, g.NodeCount()) // Loc + TotalLoc

	locIdx, ok := g.Lookup(collectorkey.New(collectorkey.KindLoc), "1")
	require.True(t, ok)

	totalIdx, ok := g.Lookup(collectorkey.New(collectorkey.KindTotalLoc), "1")
	require.True(t, ok)

	edges := g.IncomingEdges(totalIdx)
	require.Len(t, edges, 1)
	assert.Equal(t, locIdx, edges[0].From)
	assert.Equal(t, 0, edges[0].Distance)
}

func TestBuild_TemporalEdgeDistance(t *testing.T) {
	commits := []historymodel.CommitInfo{
		dummyCommit(t, "1", "2012-12-12T00:00:00Z"),
		dummyCommit(t, "2", "2012-12-13T00:00:00Z"),
		dummyCommit(t, "3", "2012-12-14T00:00:00Z"),
	}

	metrics := []collectorkey.MetricConfig{
		{Name: "m", Collector: collectorkey.New(collectorkey.KindLoc), Frequency: collectorkey.FrequencyPerCommit},
	}

	g := graph.Build(commits, metrics, false)

	idx1, _ := g.Lookup(collectorkey.New(collectorkey.KindLoc), "1")
	idx2, _ := g.Lookup(collectorkey.New(collectorkey.KindLoc), "2")
	idx3, _ := g.Lookup(collectorkey.New(collectorkey.KindLoc), "3")

	edges2 := g.IncomingEdges(idx2)
	require.Len(t, edges2, 1)
	assert.Equal(t, idx1, edges2[0].From)
	assert.Equal(t, 1, edges2[0].Distance)

	edges3 := g.IncomingEdges(idx3)
	require.Len(t, edges3, 1)
	assert.Equal(t, idx2, edges3[0].From)
	assert.Equal(t, 1, edges3[0].Distance)
}

// TestBuild_TemporalEdgeWiredForDependencyNode guards against a collector
// reached only as a same-commit dependency (PatternOccurrences, pulled in by
// TotalPatternOccurrences) losing its own temporal edge. Without one, it can
// never see a previous selected value and so can never take the incremental
// rescan path on anything but its very first selected commit.
func TestBuild_TemporalEdgeWiredForDependencyNode(t *testing.T) {
	commits := []historymodel.CommitInfo{
		dummyCommit(t, "1", "2012-12-12T00:00:00Z"),
		dummyCommit(t, "2", "2012-12-13T00:00:00Z"),
	}

	patternKey := collectorkey.NewPattern(collectorkey.KindPatternOccurrences, "TODO", nil)
	totalKey := collectorkey.NewPattern(collectorkey.KindTotalPatternOccurrences, "TODO", nil)

	metrics := []collectorkey.MetricConfig{
		{Name: "m", Collector: totalKey, Frequency: collectorkey.FrequencyPerCommit},
	}

	g := graph.Build(commits, metrics, false)

	pat1, ok := g.Lookup(patternKey, "1")
	require.True(t, ok)

	pat2, ok := g.Lookup(patternKey, "2")
	require.True(t, ok)

	edges := g.IncomingEdges(pat2)

	var gotTemporal bool

	for _, e := range edges {
		if e.From == pat1 && e.Distance == 1 {
			gotTemporal = true
		}
	}

	assert.True(t, gotTemporal, "PatternOccurrences dependency node should get its own temporal edge across selected commits")
}
