package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/config"
)

const sampleConfig = `
repository:
  url: https://example.com/some/repo.git
  branch: main

metrics:
  total_loc:
    collector: total-loc
    frequency: per-commit
  todo_occurrences:
    collector: pattern-occurences
    pattern: "TODO"
    files: ["*.go"]
    frequency: per-commit

worktree:
  pool_size: 2

cache:
  max_size: 5GB
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "gitmetrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	return path
}

func TestLoadConfig_ParsesAndValidates(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/some/repo.git", cfg.Repository.URL)
	assert.Equal(t, "main", cfg.Repository.Branch)
	assert.Equal(t, 2, cfg.Worktree.PoolSize)
	assert.Len(t, cfg.Metrics, 2)
}

func TestLoadConfig_MissingMetricsErrors(t *testing.T) {
	path := writeConfig(t, "repository:\n  url: https://example.com/repo.git\n")

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrNoMetricsConfigured)
}

func TestLoadConfig_MissingRepositoryURLErrors(t *testing.T) {
	path := writeConfig(t, "metrics:\n  total_loc:\n    collector: total-loc\n")

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrNoRepositoryURL)
}

func TestLoadConfig_InvalidCacheSizeErrors(t *testing.T) {
	path := writeConfig(t, `
repository:
  url: https://example.com/repo.git
metrics:
  total_loc:
    collector: total-loc
worktree:
  pool_size: 1
cache:
  max_size: not-a-size
`)

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrInvalidCacheSize)
}

func TestLoadConfig_UnknownCollectorErrors(t *testing.T) {
	path := writeConfig(t, `
repository:
  url: https://example.com/repo.git
metrics:
  mystery:
    collector: not-a-real-collector
worktree:
  pool_size: 1
`)

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrUnknownCollector)
}

func TestLoadConfig_PatternCollectorWithoutPatternErrors(t *testing.T) {
	path := writeConfig(t, `
repository:
  url: https://example.com/repo.git
metrics:
  todo_occurrences:
    collector: pattern-occurences
worktree:
  pool_size: 1
`)

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrPatternCollectorNoValue)
}

func TestResolveMetrics_BuildsCollectorKeys(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	resolved, err := cfg.ResolveMetrics()
	require.NoError(t, err)

	totalLoc, ok := resolved["total_loc"]
	require.True(t, ok)
	assert.Equal(t, collectorkey.New(collectorkey.KindTotalLoc), totalLoc.Collector)
	assert.Equal(t, collectorkey.FrequencyPerCommit, totalLoc.Frequency)

	todo, ok := resolved["todo_occurrences"]
	require.True(t, ok)
	assert.Equal(t, []string{"*.go"}, todo.Collector.Files())
}

func TestSSHAuth_EmptyWhenNoKeyFileConfigured(t *testing.T) {
	path := writeConfig(t, sampleConfig)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	auth, err := cfg.SSHAuth()
	require.NoError(t, err)
	assert.Empty(t, auth.KeyPath)
	assert.Empty(t, auth.PrivateKeyPEM)
}
