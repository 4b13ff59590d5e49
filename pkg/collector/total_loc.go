package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
)

// TotalLoc sums LocValue across languages for one commit. Grounded on
// original_source/lib/src/collectors/total_loc.rs.
type TotalLoc struct{}

// Key implements DerivedCollector.
func (TotalLoc) Key() collectorkey.CollectorKey { return collectorkey.New(collectorkey.KindTotalLoc) }

// Collect implements DerivedCollector.
func (TotalLoc) Collect(_ context.Context, cctx Context) (json.RawMessage, error) {
	var dep LocValue

	found, err := sameCommitValue(cctx, func(t graph.Task) bool { return t.Key.Kind == collectorkey.KindLoc }, &dep)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	total := 0
	for _, n := range dep.LocByLanguage {
		total += n
	}

	if total < 0 || total > math.MaxUint32 {
		return nil, fmt.Errorf("%w: total loc %d exceeds uint32", ErrValueOverflow, total)
	}

	value := TotalLocValue{Loc: uint32(total)}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("total-loc: encode value: %w", err)
	}

	return data, nil
}
