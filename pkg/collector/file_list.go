package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
)

// FileList is the full tree listing at one commit. Grounded on
// original_source/lib/src/collectors/file_list.rs.
type FileList struct{}

// Key implements BaseCollector.
func (FileList) Key() collectorkey.CollectorKey { return collectorkey.New(collectorkey.KindFileList) }

// Collect implements BaseCollector.
func (FileList) Collect(_ context.Context, _ Context, wt Worktree) (json.RawMessage, error) {
	files, err := wt.ListFiles()
	if err != nil {
		return nil, fmt.Errorf("file-list: %w", err)
	}

	data, err := json.Marshal(FileListValue{Files: files})
	if err != nil {
		return nil, fmt.Errorf("file-list: encode value: %w", err)
	}

	return data, nil
}
