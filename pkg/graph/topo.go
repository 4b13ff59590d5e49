package graph

import (
	"errors"
	"strconv"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/toposort"
)

// ErrCycle is returned by OrderedCommitGroups if the execution graph
// somehow contains a cycle — a programmer-error condition, since Build only
// ever wires edges forward in time and forward through same-commit
// dependency chains.
var ErrCycle = errors.New("graph: cycle detected in execution graph")

// CommitGroup is one barrier-synchronized unit of evaluator work: every
// task sharing a single commit, in the order a topological walk first
// produced them. The evaluator dispatches one CommitGroup's tasks in
// parallel, waits for all of them, then moves to the next group.
type CommitGroup struct {
	Commit historymodel.CommitHash
	Tasks  []NodeIndex
}

func nodeName(idx NodeIndex) string { return strconv.Itoa(int(idx)) }

// OrderedCommitGroups topologically sorts g's nodes and groups them by
// commit, preserving the order in which each commit was first reached by
// the walk. Because temporal edges only ever point from an earlier selected
// commit to a later one, and same-commit dependency edges never cross a
// commit boundary, a commit's tasks always appear contiguously reachable
// before any commit that depends on them — grouping by first appearance is
// sufficient to produce a valid evaluation order for the groups themselves.
//
// Grounded on original_source/lib/src/lib.rs's collect_metrics, which walks
// the graph in topological order and groups by commit before dispatching to
// the worktree pool; adapted here onto the teacher's pkg/toposort
// (SymbolTable + IntGraph, Kahn's algorithm) instead of reimplementing
// topological sorting from scratch.
func OrderedCommitGroups(g *ExecutionGraph) ([]CommitGroup, error) {
	tg := toposort.NewGraph()

	for _, idx := range g.Nodes() {
		tg.AddNode(nodeName(idx))
	}

	for _, idx := range g.Nodes() {
		for _, e := range g.OutgoingEdges(idx) {
			tg.AddEdge(nodeName(e.From), nodeName(e.To))
		}
	}

	order, ok := tg.Toposort()
	if !ok {
		return nil, ErrCycle
	}

	groups := make([]CommitGroup, 0)
	groupIndex := make(map[historymodel.CommitHash]int, len(order))

	for _, name := range order {
		n, err := strconv.Atoi(name)
		if err != nil {
			continue // not a node we added; toposort.Graph never invents names
		}

		idx := NodeIndex(n)
		task := g.Task(idx)

		gi, ok := groupIndex[task.Commit]
		if !ok {
			gi = len(groups)
			groupIndex[task.Commit] = gi
			groups = append(groups, CommitGroup{Commit: task.Commit})
		}

		groups[gi].Tasks = append(groups[gi].Tasks, idx)
	}

	return groups, nil
}
