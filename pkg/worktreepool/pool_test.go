package worktreepool_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/worktreepool"
)

type fakeHandle struct {
	name    string
	removed bool
	closed  bool
}

func (h *fakeHandle) Path() string                                            { return h.name }
func (h *fakeHandle) CurrentTotalDiffStat() (historymodel.DiffStat, error)    { return historymodel.DiffStat{}, nil }
func (h *fakeHandle) CurrentChangedFilePaths() (map[string]struct{}, error)   { return nil, nil }
func (h *fakeHandle) ListFiles() ([]string, error)                           { return nil, nil }
func (h *fakeHandle) ResetHard(string) error                                 { return nil }
func (h *fakeHandle) Close()                                                 { h.closed = true }
func (h *fakeHandle) Remove() error                                          { h.removed = true; return nil }

type fakeRepository struct {
	created []*fakeHandle
}

func (r *fakeRepository) CreateTempWorktree(name, _ string) (worktreepool.Handle, error) {
	h := &fakeHandle{name: name}
	r.created = append(r.created, h)

	return h, nil
}

func TestNew_CreatesSizeWorktrees(t *testing.T) {
	repo := &fakeRepository{}

	pool, err := worktreepool.New(repo, t.TempDir(), 3)
	require.NoError(t, err)
	assert.Equal(t, 3, pool.Size())
	assert.Len(t, repo.created, 3)
}

func TestAcquireRelease_RoundTrips(t *testing.T) {
	repo := &fakeRepository{}

	pool, err := worktreepool.New(repo, t.TempDir(), 1)
	require.NoError(t, err)

	ctx := context.Background()

	wt, err := pool.Acquire(ctx)
	require.NoError(t, err)

	pool.Release(wt)

	wt2, err := pool.Acquire(ctx)
	require.NoError(t, err)
	assert.Same(t, wt, wt2)
}

func TestAcquire_BlocksUntilContextCancelled(t *testing.T) {
	repo := &fakeRepository{}

	pool, err := worktreepool.New(repo, t.TempDir(), 1)
	require.NoError(t, err)

	_, err = pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = pool.Acquire(ctx)
	require.Error(t, err)
}

func TestClose_RemovesEveryWorktree(t *testing.T) {
	repo := &fakeRepository{}

	pool, err := worktreepool.New(repo, t.TempDir(), 2)
	require.NoError(t, err)

	require.NoError(t, pool.Close())

	for _, h := range repo.created {
		assert.True(t, h.closed, "worktree %s should be closed", h.name)
		assert.True(t, h.removed, "worktree %s should be removed", h.name)
	}
}

func TestNew_CreationFailureClosesAlreadyCreatedWorktrees(t *testing.T) {
	repo := &failingRepository{failAt: 2}

	_, err := worktreepool.New(repo, t.TempDir(), 3)
	require.Error(t, err)

	for _, h := range repo.created {
		assert.True(t, h.removed)
	}
}

type failingRepository struct {
	failAt  int
	created []*fakeHandle
}

func (r *failingRepository) CreateTempWorktree(name, _ string) (worktreepool.Handle, error) {
	if len(r.created) == r.failAt {
		return nil, fmt.Errorf("boom")
	}

	h := &fakeHandle{name: name}
	r.created = append(r.created, h)

	return h, nil
}
