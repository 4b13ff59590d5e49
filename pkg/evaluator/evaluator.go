// Package evaluator walks the execution graph in commit-grouped topological
// order, dispatching each (collector, commit) task to the collector
// registry and recording its result in the value store.
//
// Grounded on original_source/lib/src/lib.rs's ReadyForCollection::
// collect_metrics: group tasks by commit in topological order, process
// commit groups in parallel while the tasks within one group run
// sequentially, pull a worktree from the pool for each Base task, and emit
// an ExecutionProgressCallbackState over a channel. The worker-pool shape
// (a channel of work handed to a fixed goroutine count, errors collected
// per worker, remaining work drained on failure to avoid a deadlock) is the
// teacher's pkg/framework/runner.go leafWorker idiom.
package evaluator

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/cache"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/collector"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/store"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/worktreepool"
)

// Pool is the subset of worktreepool.Pool the evaluator needs, restated as
// an interface so tests can substitute a fake.
type Pool interface {
	Acquire(ctx context.Context) (worktreepool.Handle, error)
	Release(wt worktreepool.Handle)
}

// Options configures one evaluation run.
type Options struct {
	Graph   *graph.ExecutionGraph
	Store   *store.Store
	Commits []historymodel.CommitInfo

	// Pool is required only if the graph contains any Base collector task.
	Pool Pool

	// Parallelism bounds how many commit groups are processed concurrently.
	// Defaults to 1 if <= 0.
	Parallelism int

	// MetricCount is reported on the Initial progress event, purely for
	// observability (the graph itself has already expanded every metric
	// into its tasks by the time the evaluator runs).
	MetricCount int

	// Progress receives lifecycle events if non-nil. The evaluator never
	// blocks indefinitely on a full channel beyond normal send semantics;
	// callers should buffer or drain it promptly.
	Progress chan<- Event
}

// Evaluator runs one execution graph to completion.
type Evaluator struct {
	opts       Options
	commitByID map[historymodel.CommitHash]historymodel.CommitInfo
}

// New validates opts and returns an Evaluator ready to Run.
func New(opts Options) (*Evaluator, error) {
	if opts.Graph == nil {
		return nil, fmt.Errorf("evaluator: %w", ErrNoGraph)
	}

	if opts.Store == nil {
		return nil, fmt.Errorf("evaluator: %w", ErrNoStore)
	}

	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}

	byID := make(map[historymodel.CommitHash]historymodel.CommitInfo, len(opts.Commits))
	for _, c := range opts.Commits {
		byID[c.Hash] = c
	}

	return &Evaluator{opts: opts, commitByID: byID}, nil
}

// Run processes every commit group in the graph, skipping tasks whose value
// is already present in the store (pre-filled from the cache), and returns
// the first error encountered by any worker. Processing stops launching new
// groups once an error occurs, but in-flight groups run to completion.
func (e *Evaluator) Run(ctx context.Context) error {
	groups, err := graph.OrderedCommitGroups(e.opts.Graph)
	if err != nil {
		return fmt.Errorf("evaluator: order commit groups: %w", err)
	}

	e.emit(Event{Kind: EventInitial, MetricCount: e.opts.MetricCount, TaskCount: e.opts.Graph.NodeCount()})

	// ctx is cancelled on the first error so idle workers skip the remaining
	// groups; a group already running uses parent and finishes.
	parent := ctx

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	groupChan := make(chan graph.CommitGroup)

	var wg sync.WaitGroup

	workers := e.opts.Parallelism
	if workers > len(groups) {
		workers = len(groups)
	}
	if workers < 1 {
		workers = 1
	}

	errs := make([]error, workers)

	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func(workerIdx int) {
			defer wg.Done()

			for grp := range groupChan {
				if ctxErr := ctx.Err(); ctxErr != nil {
					continue
				}

				if err := e.runGroup(parent, grp); err != nil {
					errs[workerIdx] = err
					cancel()
				}
			}
		}(w)
	}

	for _, grp := range groups {
		groupChan <- grp
	}
	close(groupChan)

	wg.Wait()

	e.emit(Event{Kind: EventFinished})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	return nil
}

func (e *Evaluator) runGroup(ctx context.Context, grp graph.CommitGroup) error {
	for _, idx := range grp.Tasks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("evaluator: %w", err)
		}

		if err := e.runTask(ctx, idx); err != nil {
			return err
		}
	}

	return nil
}

func (e *Evaluator) runTask(ctx context.Context, idx graph.NodeIndex) error {
	task := e.opts.Graph.Task(idx)
	key := store.Key{Collector: task.Key, Commit: task.Commit}

	if _, ok := e.opts.Store.Get(key); ok {
		e.emit(Event{Kind: EventReused, Collector: task.Key, Commit: task.Commit})

		return nil
	}

	dispatch, err := collector.Factory(task.Key)
	if err != nil {
		return fmt.Errorf("evaluator: %w", err)
	}

	cctx := collector.Context{
		Graph:  e.opts.Graph,
		Node:   idx,
		Store:  e.opts.Store,
		Commit: e.commitByID[task.Commit],
	}

	var output []byte

	if dispatch.IsBase() {
		output, err = e.runBase(ctx, dispatch, cctx, task)
	} else {
		output, err = dispatch.Derived.Collect(ctx, cctx)
	}

	if err != nil {
		return fmt.Errorf("evaluator: collect %s: %w", task, err)
	}

	if err := e.opts.Store.Set(key, output); err != nil {
		return fmt.Errorf("evaluator: store %s: %w", task, err)
	}

	e.emit(Event{Kind: EventNew, Collector: task.Key, Commit: task.Commit})

	return nil
}

func (e *Evaluator) runBase(ctx context.Context, dispatch collector.Dispatch, cctx collector.Context, task graph.Task) ([]byte, error) {
	if e.opts.Pool == nil {
		return nil, fmt.Errorf("%w: task %s needs a worktree", ErrNoPool, task)
	}

	wt, err := e.opts.Pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire worktree: %w", err)
	}
	defer e.opts.Pool.Release(wt)

	if err := wt.ResetHard(string(task.Commit)); err != nil {
		return nil, fmt.Errorf("reset worktree to %s: %w", task.Commit, err)
	}

	return dispatch.Base.Collect(ctx, cctx, wt)
}

func (e *Evaluator) emit(ev Event) {
	if e.opts.Progress == nil {
		return
	}

	e.opts.Progress <- ev
}
