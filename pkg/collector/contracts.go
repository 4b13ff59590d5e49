// Package collector implements the collector registry and the concrete
// per-(collector, commit) algorithms spec.md §4.2 and SPEC_FULL.md's DOMAIN
// STACK section name.
//
// Grounded on original_source/lib/src/collectors/{mod,utils}.rs: the
// Base/Derived split, the factory mapping from CollectorKey to an
// implementation, and the preceding-node lookup helpers collectors use to
// read their graph dependencies.
package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/store"
)

// Worktree is the subset of the git collaborator a Base collector needs: a
// checked-out, reset copy of the repository at one commit. Defined here
// (rather than imported from the git package) per Go convention of owning
// interfaces at the point of use; pkg/gitrepo's Worktree type satisfies it.
type Worktree interface {
	Path() string
	CurrentTotalDiffStat() (historymodel.DiffStat, error)
	CurrentChangedFilePaths() (map[string]struct{}, error)
	ListFiles() ([]string, error)
}

// Context bundles everything a collector needs to read its graph
// dependencies: the graph itself, the node the collector is running for,
// and the value store holding every already-computed task's encoded result.
type Context struct {
	Graph  *graph.ExecutionGraph
	Node   graph.NodeIndex
	Store  *store.Store
	Commit historymodel.CommitInfo
}

// BaseCollector reads the filesystem (through a checked-out Worktree) and
// may also read the value store for same-commit dependencies (e.g.
// ChangedFilesLoc depends on ChangedFiles). Grounded on collectors/mod.rs's
// BaseCollector trait.
type BaseCollector interface {
	Key() collectorkey.CollectorKey
	Collect(ctx context.Context, cctx Context, wt Worktree) (json.RawMessage, error)
}

// DerivedCollector only reads the value store and graph — never the
// filesystem — computing its result purely from other tasks' values.
// Grounded on collectors/mod.rs's DerivedCollector trait.
type DerivedCollector interface {
	Key() collectorkey.CollectorKey
	Collect(ctx context.Context, cctx Context) (json.RawMessage, error)
}

// Dispatch is exactly one of Base or Derived, mirroring the original's
// `enum Collector { Base(BaseCollectorObj), Derived(DerivedCollectorObj) }`.
type Dispatch struct {
	Base    BaseCollector
	Derived DerivedCollector
}

// IsBase reports whether this dispatch needs a worktree.
func (d Dispatch) IsBase() bool {
	return d.Base != nil
}

// preceding locates the node matching nodePred among cctx.Node's incoming
// edges that satisfy edgePred, then decodes its stored value into out.
// Returns (false, nil) if no value has been stored yet for a matching node
// (a recoverable "not yet computed" condition — original_source's
// LookupError::ValueNotFound case) and a non-nil error only for genuine
// decode failures. A missing *edge* entirely (no node matches the
// predicates at all) is handled per required: true is the programmer-error
// case original_source panics on via get_value_of_preceeding_node's
// unwrap_or_else (ErrDependencyNotInGraph, fatal), false is the "no
// predecessor exists yet" case original's get_previous_commit_value_of_
// collector models as Option::None — e.g. a collector's first selected
// commit has no temporal edge at all, which is normal, not an error.
func preceding(
	cctx Context,
	edgePred func(graph.Edge) bool,
	nodePred func(graph.Task) bool,
	required bool,
	out any,
) (bool, error) {
	idx, found := cctx.Graph.FindPrecedingNode(cctx.Node, edgePred, nodePred)
	if !found {
		if required {
			return false, fmt.Errorf("%w: node %s has no matching dependency edge", ErrDependencyNotInGraph, cctx.Graph.Task(cctx.Node))
		}

		return false, nil
	}

	task := cctx.Graph.Task(idx)

	raw, ok := cctx.Store.Get(store.Key{Collector: task.Key, Commit: task.Commit})
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode stored value for %s: %w", task, err)
	}

	return true, nil
}

// sameCommitValue reads the value of the dependency edge (distance == 0)
// whose source task matches nodePred. Every Derived collector's same-commit
// dependency is wired by graph.Build whenever the collector itself is in
// the graph, so a missing edge here is a programmer error, not a normal
// runtime condition.
func sameCommitValue(cctx Context, nodePred func(graph.Task) bool, out any) (bool, error) {
	return preceding(cctx, func(e graph.Edge) bool { return e.Distance == 0 }, nodePred, true, out)
}

// previousSelectedValue reads the value of the nearest temporal predecessor
// (distance >= 1) for the same collector key, i.e. "this collector's value
// on the previous selected commit". Grounded on
// collectors/utils.rs's get_previous_commit_value_of_collector, which used
// `distance == 1` specifically (an immediate predecessor edge); this
// implementation accepts any distance >= 1 since the graph only ever wires
// one temporal edge per (collector, consecutive-selected-commit) pair, so
// distance==1 is never ambiguous with a farther one. A collector's first
// selected commit has no incoming temporal edge at all — that is not an
// error, per spec.md §7's "absence of a temporal predecessor is never an
// error", so the edge lookup is not required here.
func previousSelectedValue(cctx Context, key collectorkey.CollectorKey, out any) (bool, error) {
	edgePred := func(e graph.Edge) bool { return e.Distance >= 1 }
	nodePred := func(t graph.Task) bool { return t.Key == key }

	return preceding(cctx, edgePred, nodePred, false, out)
}
