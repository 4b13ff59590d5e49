package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricTasksStarted  = "gitmetrics.evaluator.tasks.started"
	metricTasksReused   = "gitmetrics.evaluator.tasks.reused"
	metricTasksFailed   = "gitmetrics.evaluator.tasks.failed"
	metricTaskDuration  = "gitmetrics.evaluator.task.duration.seconds"
	metricGroupDuration = "gitmetrics.evaluator.group.duration.seconds"

	attrCollector = "collector"
)

// durationBucketBoundaries covers 1ms to 300s: individual collector tasks
// are usually sub-second, but a full-worktree PatternOccurrences scan on a
// large repository's first selected commit can run for minutes.
var durationBucketBoundaries = []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}

// CollectionMetrics holds OTel instruments for the evaluator's task and
// commit-group events. pkg/evaluator does not record them; they are recorded
// only by code that calls the Record* methods itself.
//
// Grounded on the teacher's pkg/observability.AnalysisMetrics, retargeted
// from "commits analyzed/chunks processed" to "tasks started/reused/failed"
// — the evaluator's unit of work is a (collector, commit) task rather than a
// streaming chunk, but the counter+histogram shape carries over directly.
type CollectionMetrics struct {
	tasksStarted  metric.Int64Counter
	tasksReused   metric.Int64Counter
	tasksFailed   metric.Int64Counter
	taskDuration  metric.Float64Histogram
	groupDuration metric.Float64Histogram
}

// NewCollectionMetrics creates the collection metric instruments from the
// given meter.
func NewCollectionMetrics(mt metric.Meter) (*CollectionMetrics, error) {
	started, err := mt.Int64Counter(metricTasksStarted,
		metric.WithDescription("Total collector tasks newly computed"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTasksStarted, err)
	}

	reused, err := mt.Int64Counter(metricTasksReused,
		metric.WithDescription("Total collector tasks satisfied from cache"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTasksReused, err)
	}

	failed, err := mt.Int64Counter(metricTasksFailed,
		metric.WithDescription("Total collector tasks that returned an error"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTasksFailed, err)
	}

	taskDur, err := mt.Float64Histogram(metricTaskDuration,
		metric.WithDescription("Per-task collector duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTaskDuration, err)
	}

	groupDur, err := mt.Float64Histogram(metricGroupDuration,
		metric.WithDescription("Per-commit-group wall-clock duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricGroupDuration, err)
	}

	return &CollectionMetrics{
		tasksStarted:  started,
		tasksReused:   reused,
		tasksFailed:   failed,
		taskDuration:  taskDur,
		groupDuration: groupDur,
	}, nil
}

// RecordTaskStarted records a task computed fresh (a "New" progress event).
// Safe to call on a nil receiver (no-op), matching the teacher's pattern for
// optional metrics in code paths that may run without a meter configured.
func (cm *CollectionMetrics) RecordTaskStarted(ctx context.Context, collectorKind string, duration time.Duration) {
	if cm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrCollector, collectorKind))
	cm.tasksStarted.Add(ctx, 1, attrs)
	cm.taskDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordTaskReused records a task whose value came from the cache (a
// "Reused" progress event).
func (cm *CollectionMetrics) RecordTaskReused(ctx context.Context, collectorKind string) {
	if cm == nil {
		return
	}

	cm.tasksReused.Add(ctx, 1, metric.WithAttributes(attribute.String(attrCollector, collectorKind)))
}

// RecordTaskFailed records a task that returned an error.
func (cm *CollectionMetrics) RecordTaskFailed(ctx context.Context, collectorKind string) {
	if cm == nil {
		return
	}

	cm.tasksFailed.Add(ctx, 1, metric.WithAttributes(attribute.String(attrCollector, collectorKind)))
}

// RecordGroupDuration records the wall-clock time spent on one commit-group.
func (cm *CollectionMetrics) RecordGroupDuration(ctx context.Context, duration time.Duration) {
	if cm == nil {
		return
	}

	cm.groupDuration.Record(ctx, duration.Seconds())
}
