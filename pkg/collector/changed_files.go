package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
)

// ChangedFiles is the set of paths that changed at one commit relative to
// its parent. Grounded on
// original_source/lib/src/collectors/changed_files.rs.
type ChangedFiles struct{}

// Key implements BaseCollector.
func (ChangedFiles) Key() collectorkey.CollectorKey {
	return collectorkey.New(collectorkey.KindChangedFiles)
}

// Collect implements BaseCollector.
func (ChangedFiles) Collect(_ context.Context, _ Context, wt Worktree) (json.RawMessage, error) {
	paths, err := wt.CurrentChangedFilePaths()
	if err != nil {
		return nil, fmt.Errorf("changed-files: %w", err)
	}

	data, err := json.Marshal(NewChangedFilesValue(paths))
	if err != nil {
		return nil, fmt.Errorf("changed-files: encode value: %w", err)
	}

	return data, nil
}
