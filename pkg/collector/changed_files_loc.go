package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/loc"
)

// ChangedFilesLoc maps each file changed at a commit to its line count (or
// nil if its language can't be determined or it can no longer be read,
// e.g. it was deleted). Grounded on
// original_source/lib/src/collectors/changed_files_loc.rs; depends on
// ChangedFiles via a distance-0 dependency edge.
type ChangedFilesLoc struct{}

// Key implements BaseCollector.
func (ChangedFilesLoc) Key() collectorkey.CollectorKey {
	return collectorkey.New(collectorkey.KindChangedFilesLoc)
}

// Collect implements BaseCollector.
func (ChangedFilesLoc) Collect(_ context.Context, cctx Context, wt Worktree) (json.RawMessage, error) {
	var dep ChangedFilesValue

	found, err := sameCommitValue(cctx, func(t graph.Task) bool { return t.Key.Kind == collectorkey.KindChangedFiles }, &dep)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	files := make(map[string]*int, len(dep.Files))

	for _, relPath := range dep.Files {
		if _, ok := loc.LanguageForPath(relPath); !ok {
			files[relPath] = nil

			continue
		}

		count, err := countFileLines(filepath.Join(wt.Path(), relPath))
		if err != nil {
			files[relPath] = nil

			continue
		}

		files[relPath] = &count
	}

	data, err := json.Marshal(ChangedFilesLocValue{Files: files})
	if err != nil {
		return nil, fmt.Errorf("changed-files-loc: encode value: %w", err)
	}

	return data, nil
}
