package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/loc"
)

// Loc counts lines of code by language across the whole tree at one commit.
// Grounded on original_source/lib/src/collectors/loc.rs; uses pkg/loc in
// place of the original's tokei dependency (see DESIGN.md Open Question 1).
type Loc struct{}

// Key implements BaseCollector.
func (Loc) Key() collectorkey.CollectorKey { return collectorkey.New(collectorkey.KindLoc) }

// Collect implements BaseCollector.
func (Loc) Collect(_ context.Context, _ Context, wt Worktree) (json.RawMessage, error) {
	files, err := wt.ListFiles()
	if err != nil {
		return nil, fmt.Errorf("loc: list files: %w", err)
	}

	byLanguage := make(map[string]int)

	for _, relPath := range files {
		lang, ok := loc.LanguageForPath(relPath)
		if !ok {
			continue
		}

		count, err := countFileLines(filepath.Join(wt.Path(), relPath))
		if err != nil {
			continue // deleted/unreadable entries are skipped, not fatal
		}

		byLanguage[lang] += count
	}

	for lang, count := range byLanguage {
		if count == 0 {
			delete(byLanguage, lang)
		}
	}

	value := LocValue{LocByLanguage: byLanguage}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("loc: encode value: %w", err)
	}

	return data, nil
}

func countFileLines(path string) (int, error) {
	f, err := os.Open(path) //nolint:gosec // path is derived from the repo's own tree listing
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	count, err := loc.CountLines(f)
	if err != nil {
		return count, fmt.Errorf("count lines in %s: %w", path, err)
	}

	return count, nil
}
