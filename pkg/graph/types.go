// Package graph builds and queries the dependency-aware execution graph: one
// node per (collector, commit) task, a dependency edge (distance 0) between
// tasks that share a commit, and a temporal edge (distance >= 1) between a
// collector's task on one selected commit and its task on the next selected
// commit for the same metric.
//
// Grounded on original_source/lib/src/graph.rs's CollectionTask /
// CollectionGraphEdge / CollectionExecutionGraph types and
// build_collection_execution_graph function.
package graph

import (
	"fmt"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
)

// NodeIndex identifies a task node within an ExecutionGraph. Indices start
// at 0 in insertion order; always obtained from AddNode or a lookup.
type NodeIndex int

// invalidNode is returned by lookups that find nothing.
const invalidNode NodeIndex = -1

// Task is one unit of work: "run this collector against this commit".
type Task struct {
	Key    collectorkey.CollectorKey
	Commit historymodel.CommitHash
}

func (t Task) String() string {
	return fmt.Sprintf("%s@%s", t.Key, t.Commit)
}

// EdgeKind distinguishes a same-commit dependency edge from a cross-commit
// temporal edge, per the Distance field: 0 is always a dependency edge,
// anything >= 1 is always temporal.
type EdgeKind int

const (
	EdgeDependency EdgeKind = iota
	EdgeTemporal
)

// Edge records one directed arc: From must be evaluated, and its value
// stored, before To can run. Distance is 0 for a same-commit dependency and
// the number of commits elapsed since the prior selected commit for a
// temporal edge.
type Edge struct {
	From, To NodeIndex
	Distance int
}

// Kind classifies the edge per its Distance, matching spec.md §3's
// dependency/temporal edge split.
func (e Edge) Kind() EdgeKind {
	if e.Distance == 0 {
		return EdgeDependency
	}

	return EdgeTemporal
}

// ExecutionGraph is an adjacency-list DAG over Task nodes. It is built once
// by Build and is read-only afterwards: the evaluator and collectors only
// ever query it (incoming edges, node lookups), never mutate it.
type ExecutionGraph struct {
	tasks    []Task
	incoming map[NodeIndex][]Edge
	outgoing map[NodeIndex][]Edge
	index    map[taskKey]NodeIndex
}

type taskKey struct {
	key    collectorkey.CollectorKey
	commit historymodel.CommitHash
}

// NewExecutionGraph returns an empty graph ready for AddNode/AddEdge calls.
func NewExecutionGraph() *ExecutionGraph {
	return &ExecutionGraph{
		incoming: make(map[NodeIndex][]Edge),
		outgoing: make(map[NodeIndex][]Edge),
		index:    make(map[taskKey]NodeIndex),
	}
}

// Lookup returns the node index for (key, commit) if it has been added.
func (g *ExecutionGraph) Lookup(key collectorkey.CollectorKey, commit historymodel.CommitHash) (NodeIndex, bool) {
	idx, ok := g.index[taskKey{key: key, commit: commit}]

	return idx, ok
}

// AddNode inserts a task node if absent and returns its index either way.
// This is the memoization point spec.md §4.1 calls out: "unique node per
// (key, commit)".
func (g *ExecutionGraph) AddNode(task Task) NodeIndex {
	tk := taskKey{key: task.Key, commit: task.Commit}
	if idx, ok := g.index[tk]; ok {
		return idx
	}

	idx := NodeIndex(len(g.tasks))
	g.tasks = append(g.tasks, task)
	g.index[tk] = idx

	return idx
}

// AddEdge records a directed edge. Duplicate (From, To, Distance) edges are
// collapsed, matching petgraph's update_edge semantics the original relied
// on implicitly by memoizing nodes before wiring edges.
func (g *ExecutionGraph) AddEdge(from, to NodeIndex, distance int) {
	for _, e := range g.outgoing[from] {
		if e.To == to && e.Distance == distance {
			return
		}
	}

	edge := Edge{From: from, To: to, Distance: distance}
	g.outgoing[from] = append(g.outgoing[from], edge)
	g.incoming[to] = append(g.incoming[to], edge)
}

// Task returns the task stored at idx.
func (g *ExecutionGraph) Task(idx NodeIndex) Task {
	return g.tasks[idx]
}

// NodeCount returns the number of task nodes in the graph.
func (g *ExecutionGraph) NodeCount() int {
	return len(g.tasks)
}

// Nodes returns every node index in insertion order.
func (g *ExecutionGraph) Nodes() []NodeIndex {
	out := make([]NodeIndex, len(g.tasks))
	for i := range g.tasks {
		out[i] = NodeIndex(i)
	}

	return out
}

// IncomingEdges returns the edges that point into idx.
func (g *ExecutionGraph) IncomingEdges(idx NodeIndex) []Edge {
	return g.incoming[idx]
}

// OutgoingEdges returns the edges that point out of idx.
func (g *ExecutionGraph) OutgoingEdges(idx NodeIndex) []Edge {
	return g.outgoing[idx]
}

// FindPrecedingNode walks idx's incoming edges, and for each one whose edge
// satisfies edgePred, tests the source task with nodePred; the first match
// wins. This is the Go counterpart of collectors/utils.rs's
// find_preceding_node, used by collectors to locate a same-commit dependency
// (edgePred: distance == 0) or the previous selected commit's value for the
// same collector (edgePred: distance >= 1, or == 1 for "immediately prior").
func (g *ExecutionGraph) FindPrecedingNode(idx NodeIndex, edgePred func(Edge) bool, nodePred func(Task) bool) (NodeIndex, bool) {
	for _, e := range g.incoming[idx] {
		if !edgePred(e) {
			continue
		}

		if nodePred(g.tasks[e.From]) {
			return e.From, true
		}
	}

	return invalidNode, false
}
