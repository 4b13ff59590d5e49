package collector_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collector"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/store"
)

// fakeWorktree is a minimal collector.Worktree backed by a real temp
// directory, used by every BaseCollector test in this package.
type fakeWorktree struct {
	root    string
	changed map[string]struct{}
	stat    historymodel.DiffStat
}

func newFakeWorktree(t *testing.T) *fakeWorktree {
	t.Helper()

	return &fakeWorktree{root: t.TempDir(), changed: map[string]struct{}{}}
}

func (w *fakeWorktree) Path() string { return w.root }

func (w *fakeWorktree) CurrentTotalDiffStat() (historymodel.DiffStat, error) { return w.stat, nil }

func (w *fakeWorktree) CurrentChangedFilePaths() (map[string]struct{}, error) {
	return w.changed, nil
}

func (w *fakeWorktree) ListFiles() ([]string, error) {
	var files []string

	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}

	return files, nil
}

func (w *fakeWorktree) writeFile(t *testing.T, name, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(w.root, name), []byte(content), 0o644))
}

// newTestContext builds a one-node graph context for a collector with no
// dependencies, suitable for BaseCollector tests that don't exercise
// same-commit or temporal edges.
func newTestContext(t *testing.T, key collectorkey.CollectorKey, commit historymodel.CommitHash) (collector.Context, *store.Store, *graph.ExecutionGraph) {
	t.Helper()

	g := graph.NewExecutionGraph()
	idx := g.AddNode(graph.Task{Key: key, Commit: commit})
	s := store.New()

	return collector.Context{
		Graph:  g,
		Node:   idx,
		Store:  s,
		Commit: historymodel.CommitInfo{Hash: commit, Time: time.Unix(0, 0)},
	}, s, g
}

func TestFileList_Collect(t *testing.T) {
	wt := newFakeWorktree(t)
	wt.writeFile(t, "main.go", "package main\n")
	wt.writeFile(t, "README.md", "# hello\n")

	cctx, _, _ := newTestContext(t, collectorkey.New(collectorkey.KindFileList), "abc")

	raw, err := collector.FileList{}.Collect(context.Background(), cctx, wt)
	require.NoError(t, err)

	var val collector.FileListValue

	require.NoError(t, json.Unmarshal(raw, &val))
	assert.ElementsMatch(t, []string{"main.go", "README.md"}, val.Files)
}

func TestLoc_Collect(t *testing.T) {
	wt := newFakeWorktree(t)
	wt.writeFile(t, "main.go", "package main\n\nfunc main() {}\n")

	cctx, _, _ := newTestContext(t, collectorkey.New(collectorkey.KindLoc), "abc")

	raw, err := collector.Loc{}.Collect(context.Background(), cctx, wt)
	require.NoError(t, err)

	var val collector.LocValue

	require.NoError(t, json.Unmarshal(raw, &val))
	assert.Equal(t, 3, val.LocByLanguage["Go"])
}

func TestTotalLoc_DependsOnLoc(t *testing.T) {
	g := graph.NewExecutionGraph()
	commit := historymodel.CommitHash("abc")

	locIdx := g.AddNode(graph.Task{Key: collectorkey.New(collectorkey.KindLoc), Commit: commit})
	totalIdx := g.AddNode(graph.Task{Key: collectorkey.New(collectorkey.KindTotalLoc), Commit: commit})
	g.AddEdge(locIdx, totalIdx, 0)

	s := store.New()
	locValue, err := json.Marshal(collector.LocValue{LocByLanguage: map[string]int{"Go": 10, "Markdown": 5}})
	require.NoError(t, err)
	require.NoError(t, s.Set(store.Key{Collector: collectorkey.New(collectorkey.KindLoc), Commit: commit}, locValue))

	cctx := collector.Context{Graph: g, Node: totalIdx, Store: s, Commit: historymodel.CommitInfo{Hash: commit}}

	raw, err := collector.TotalLoc{}.Collect(context.Background(), cctx)
	require.NoError(t, err)

	var val collector.TotalLocValue

	require.NoError(t, json.Unmarshal(raw, &val))
	assert.Equal(t, uint32(15), val.Loc)
}

func TestTotalLoc_NoDependencyEdge_ReturnsError(t *testing.T) {
	g := graph.NewExecutionGraph()
	commit := historymodel.CommitHash("abc")
	totalIdx := g.AddNode(graph.Task{Key: collectorkey.New(collectorkey.KindTotalLoc), Commit: commit})

	s := store.New()
	cctx := collector.Context{Graph: g, Node: totalIdx, Store: s, Commit: historymodel.CommitInfo{Hash: commit}}

	_, err := collector.TotalLoc{}.Collect(context.Background(), cctx)
	assert.ErrorIs(t, err, collector.ErrDependencyNotInGraph)
}

func TestChangedFiles_Collect(t *testing.T) {
	wt := newFakeWorktree(t)
	wt.changed = map[string]struct{}{"a.go": {}, "b.go": {}}

	cctx, _, _ := newTestContext(t, collectorkey.New(collectorkey.KindChangedFiles), "abc")

	raw, err := collector.ChangedFiles{}.Collect(context.Background(), cctx, wt)
	require.NoError(t, err)

	var val collector.ChangedFilesValue

	require.NoError(t, json.Unmarshal(raw, &val))
	assert.ElementsMatch(t, []string{"a.go", "b.go"}, val.Files)
}

func TestFactory_UnknownKind(t *testing.T) {
	_, err := collector.Factory(collectorkey.CollectorKey{Kind: "not-a-real-kind"})
	assert.ErrorIs(t, err, collector.ErrUnknownCollectorKind)
}

func TestFactory_DispatchesBaseAndDerived(t *testing.T) {
	d, err := collector.Factory(collectorkey.New(collectorkey.KindLoc))
	require.NoError(t, err)
	assert.True(t, d.IsBase())

	d, err = collector.Factory(collectorkey.New(collectorkey.KindTotalLoc))
	require.NoError(t, err)
	assert.False(t, d.IsBase())
}
