package evaluator

import (
	"fmt"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/cache"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/store"
)

// Prefill copies every task's cached value (if any) from c into st, so Run
// can skip recomputing them. Grounded on original_source's
// IdleWithCommits::prepare_for_collection, which does this fill
// immediately after building the execution graph, before any task runs.
func Prefill(g *graph.ExecutionGraph, st *store.Store, c cache.Cache) error {
	if c == nil {
		return nil
	}

	for _, idx := range g.Nodes() {
		task := g.Task(idx)

		value, ok, err := c.Lookup(task.Key, task.Commit)
		if err != nil {
			return fmt.Errorf("evaluator: cache lookup for %s: %w", task, err)
		}

		if !ok {
			continue
		}

		key := store.Key{Collector: task.Key, Commit: task.Commit}
		if _, already := st.Get(key); already {
			continue
		}

		if err := st.Set(key, value); err != nil {
			return fmt.Errorf("evaluator: prefill store for %s: %w", task, err)
		}
	}

	return nil
}

// Flush persists every task's current store value into c. Grounded on
// original_source's PostCollection::write_to_cache, run once after a full
// collection pass completes.
func Flush(g *graph.ExecutionGraph, st *store.Store, c cache.Cache) error {
	if c == nil {
		return nil
	}

	for _, idx := range g.Nodes() {
		task := g.Task(idx)

		value, ok := st.Get(store.Key{Collector: task.Key, Commit: task.Commit})
		if !ok {
			continue
		}

		if err := c.Store(task.Key, task.Commit, value); err != nil {
			return fmt.Errorf("evaluator: cache store for %s: %w", task, err)
		}
	}

	return nil
}
