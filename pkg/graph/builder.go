package graph

import (
	"sort"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
)

// sameCommitDependency returns, for collector kinds that read another
// collector's value on the same commit, the key of that dependency. A
// pattern kind's dependency carries the same pattern/files filter. Returns
// (zero value, false) for collectors with no same-commit dependency.
//
// Grounded on the factory mapping in original_source/lib/src/collectors/
// mod.rs and each individual collector's use of get_value_of_preceeding_node
// with an edgePred of `distance == 0`.
func sameCommitDependency(key collectorkey.CollectorKey) (collectorkey.CollectorKey, bool) {
	switch key.Kind {
	case collectorkey.KindTotalLoc:
		return collectorkey.New(collectorkey.KindLoc), true
	case collectorkey.KindChangedFilesLoc:
		return collectorkey.New(collectorkey.KindChangedFiles), true
	case collectorkey.KindTotalFileCount:
		return collectorkey.New(collectorkey.KindFileList), true
	case collectorkey.KindTotalCargoDeps:
		return collectorkey.New(collectorkey.KindChangedFiles), true
	case collectorkey.KindTotalPatternOccurrences:
		return collectorkey.NewPattern(collectorkey.KindPatternOccurrences, key.Pattern, key.Files()), true
	default:
		return collectorkey.CollectorKey{}, false
	}
}

// participatesInTemporalEdges reports whether this collector kind benefits
// from a temporal edge to its own previous selected commit. Every Base
// collector that can do an incremental rescan or passthrough-reuse wants
// one (PatternOccurrences, GritQLPatternOccurrences, TotalCargoDeps); plain
// collectors with no incremental story still get one since spec.md §3
// defines temporal edges generically for "a collector across consecutive
// selected commits" and the evaluator's Reused/New bookkeeping assumes every
// task may have a predecessor to compare against.
func participatesInTemporalEdges(collectorkey.CollectorKey) bool {
	return true
}

// addTask memoizes the node for (key, commit), recursively ensures its
// same-commit dependency (if any) exists too (wiring a distance-0 dependency
// edge from the dependency to this task), and wires this task's own temporal
// edge from its predecessor on the metric's previous selected commit, if one
// already exists for the same key. havePrevCommit/prevCommit/distance are
// threaded unchanged into the same-commit dependency's recursive call, so a
// dependency collector (e.g. PatternOccurrences, reached through
// TotalPatternOccurrences) gets its own temporal edge on the same
// previous-selected-commit chain as its parent, exactly as graph.rs's
// add_task passes previous_commit_hash/previous_commit_distance down
// unchanged through its dependency recursion before checking for a prior
// task of the same collector_config.
func addTask(
	g *ExecutionGraph,
	key collectorkey.CollectorKey,
	commit historymodel.CommitHash,
	havePrevCommit bool,
	prevCommit historymodel.CommitHash,
	distance int,
) NodeIndex {
	if idx, ok := g.Lookup(key, commit); ok {
		return idx
	}

	idx := g.AddNode(Task{Key: key, Commit: commit})

	if depKey, ok := sameCommitDependency(key); ok {
		depIdx := addTask(g, depKey, commit, havePrevCommit, prevCommit, distance)
		g.AddEdge(depIdx, idx, 0)
	}

	if havePrevCommit && participatesInTemporalEdges(key) {
		if prevIdx, ok := g.Lookup(key, prevCommit); ok {
			g.AddEdge(prevIdx, idx, distance)
		}
	}

	return idx
}

// commitTimes pairs a commit with its time for the ascending sort pass.
type commitTimes struct {
	commit historymodel.CommitHash
	t      historymodel.CommitInfo
}

// Build constructs the execution graph for the given commits and metrics.
// Commits are sorted ascending by time first (spec.md §9 resolves the
// commit-ordering open question in favor of always-ascending, regardless of
// the order the caller passed them in). forceLatest, when true, guarantees
// the chronologically last commit is selected for every metric regardless
// of its frequency bucket.
//
// Grounded on original_source/lib/src/graph.rs's
// build_collection_execution_graph.
func Build(commits []historymodel.CommitInfo, metrics []collectorkey.MetricConfig, forceLatest bool) *ExecutionGraph {
	sorted := append([]historymodel.CommitInfo(nil), commits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	g := NewExecutionGraph()

	for _, metric := range metrics {
		var (
			havePrev   bool
			prevCommit historymodel.CommitHash
			prevTime   historymodel.CommitInfo
			distance   int
		)

		for i, commit := range sorted {
			distance++

			isLast := i == len(sorted)-1
			selected := shouldSelect(metric.Frequency, havePrev, prevTime.Time, commit.Time, isLast, forceLatest)

			if !selected {
				continue
			}

			addTask(g, metric.Collector, commit.Hash, havePrev, prevCommit, distance)

			prevCommit = commit.Hash
			prevTime = commit
			havePrev = true
			distance = 0
		}
	}

	return g
}
