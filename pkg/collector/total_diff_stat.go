package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
)

// TotalDiffStat is the file/insertion/deletion triple for one commit
// against its parent, read directly from the worktree with no graph
// dependencies. Grounded on
// original_source/lib/src/collectors/total_diff_stat.rs.
type TotalDiffStat struct{}

// Key implements BaseCollector.
func (TotalDiffStat) Key() collectorkey.CollectorKey {
	return collectorkey.New(collectorkey.KindTotalDiffStat)
}

// Collect implements BaseCollector.
func (TotalDiffStat) Collect(_ context.Context, _ Context, wt Worktree) (json.RawMessage, error) {
	stat, err := wt.CurrentTotalDiffStat()
	if err != nil {
		return nil, fmt.Errorf("total-diff-stat: %w", err)
	}

	value := TotalDiffStatValue{
		FilesChanged: stat.FilesChanged,
		Insertions:   stat.Insertions,
		Deletions:    stat.Deletions,
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("total-diff-stat: encode value: %w", err)
	}

	return data, nil
}
