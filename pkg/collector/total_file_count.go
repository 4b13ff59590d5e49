package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
)

// TotalFileCount is the file count derived from FileList. Grounded on
// original_source/lib/src/collectors/total_file_count.rs.
type TotalFileCount struct{}

// Key implements DerivedCollector.
func (TotalFileCount) Key() collectorkey.CollectorKey {
	return collectorkey.New(collectorkey.KindTotalFileCount)
}

// Collect implements DerivedCollector.
func (TotalFileCount) Collect(_ context.Context, cctx Context) (json.RawMessage, error) {
	var dep FileListValue

	found, err := sameCommitValue(cctx, func(t graph.Task) bool { return t.Key.Kind == collectorkey.KindFileList }, &dep)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	if len(dep.Files) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: file count %d exceeds uint32", ErrValueOverflow, len(dep.Files))
	}

	data, err := json.Marshal(TotalFileCountValue{TotalFileCount: uint32(len(dep.Files))})
	if err != nil {
		return nil, fmt.Errorf("total-file-count: encode value: %w", err)
	}

	return data, nil
}
