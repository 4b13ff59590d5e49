package statemachine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/store"
)

func oneMetric() map[string]collectorkey.MetricConfig {
	return map[string]collectorkey.MetricConfig{
		"total_loc": {
			Name:      "total_loc",
			Collector: collectorkey.New(collectorkey.KindTotalLoc),
			Frequency: collectorkey.FrequencyPerCommit,
		},
	}
}

func TestInitialize_NoMetricsErrors(t *testing.T) {
	s := Initial{RepositoryPath: t.TempDir()}

	_, err := s.Initialize(false)
	require.ErrorIs(t, err, ErrNoMetrics)
}

func TestInitialize_MissingRepositoryOnlineRoutesToReadyForClone(t *testing.T) {
	s := Initial{
		Metrics:        oneMetric(),
		Reference:      GitReference{URL: "https://example.com/repo.git"},
		RepositoryPath: filepath.Join(t.TempDir(), "repo"),
	}

	next, err := s.Initialize(false)
	require.NoError(t, err)

	ready, ok := next.(ReadyForClone)
	require.True(t, ok, "expected ReadyForClone, got %T", next)
	assert.Equal(t, s.Reference.URL, ready.reference.URL)
}

func TestInitialize_MissingRepositoryOfflineErrors(t *testing.T) {
	s := Initial{
		Metrics:        oneMetric(),
		Reference:      GitReference{URL: "https://example.com/repo.git"},
		RepositoryPath: filepath.Join(t.TempDir(), "repo"),
		Offline:        true,
	}

	_, err := s.Initialize(false)
	require.Error(t, err)
}

func TestLatestCommit_PicksMostRecentTime(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	commits := []historymodel.CommitInfo{
		{Hash: "older", Time: base},
		{Hash: "newest", Time: base.Add(48 * time.Hour)},
		{Hash: "middle", Time: base.Add(24 * time.Hour)},
	}

	assert.Equal(t, historymodel.CommitHash("newest"), latestCommit(commits))
}

func TestPrepareForCollection_BuildsGraphAndReportsLatestCommit(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	commits := []historymodel.CommitInfo{
		{Hash: "1", Time: base},
		{Hash: "2", Time: base.Add(time.Hour)},
	}

	s := IdleWithCommits{
		metrics: oneMetric(),
		Commits: commits,
		Store:   store.New(),
	}

	ready, err := s.PrepareForCollection(false)
	require.NoError(t, err)

	assert.Equal(t, historymodel.CommitHash("2"), ready.LatestCommit)
	assert.NotNil(t, ready.Graph)
	assert.Greater(t, ready.Graph.NodeCount(), 0)
}
