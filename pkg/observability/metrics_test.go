package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestCollectionMetrics_RecordsWithoutError(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	cm, err := NewCollectionMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	cm.RecordTaskStarted(ctx, "loc", 10*time.Millisecond)
	cm.RecordTaskReused(ctx, "loc")
	cm.RecordTaskFailed(ctx, "pattern-occurences")
	cm.RecordGroupDuration(ctx, 50*time.Millisecond)
}

func TestCollectionMetrics_NilReceiverIsNoop(t *testing.T) {
	var cm *CollectionMetrics

	ctx := context.Background()
	cm.RecordTaskStarted(ctx, "loc", time.Second)
	cm.RecordTaskReused(ctx, "loc")
	cm.RecordTaskFailed(ctx, "loc")
	cm.RecordGroupDuration(ctx, time.Second)
}
