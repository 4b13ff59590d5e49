// Package statemachine chains the seven linear phases a collection run
// passes through, from an unopened repository reference to persisted
// metric values: Initial, ReadyForClone/ReadyForFetch, IdleWithoutCommits,
// IdleWithCommits, ReadyForCollection, PostCollection.
//
// Grounded on original_source/lib/src/lib.rs's CollectionProcess states and
// their transition methods (initialize, fetch, clone, collectCommits,
// collectTags, prepareForCollection, collectMetrics, writeToCache). Each Go
// transition method consumes its receiver by value semantics (the struct is
// not reused afterwards) the same way the Rust original consumes self,
// returning the next state's struct rather than mutating in place.
package statemachine

import (
	"context"
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/cache"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/evaluator"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/gitrepo"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/store"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/worktreepool"
)

// GitReference names the remote repository a collection run targets.
// Grounded on original_source/lib/src/config.rs's GitRepository.
type GitReference struct {
	URL    string
	Branch string // empty means "detect the mainline branch"
}

// Initial is the entry point: a metric set and a repository reference, with
// nothing opened or cloned yet.
type Initial struct {
	Metrics map[string]collectorkey.MetricConfig

	Reference      GitReference
	RepositoryPath string
	SSHAuth        gitrepo.SSHAuth

	Cache cache.Cache

	// Offline disables every network operation (clone, fetch). A missing
	// local repository is then a hard error rather than a clone attempt.
	Offline bool
}

// ReadyForClone means repositoryPath does not hold a repository yet and
// none is reachable offline.
type ReadyForClone struct {
	metrics        map[string]collectorkey.MetricConfig
	reference      GitReference
	repositoryPath string
	sshAuth        gitrepo.SSHAuth
	cache          cache.Cache
}

// ReadyForFetch means repositoryPath already holds the target repository
// and a network refresh is both possible and required.
type ReadyForFetch struct {
	metrics   map[string]collectorkey.MetricConfig
	repo      *gitrepo.Repository
	reference GitReference
	sshAuth   gitrepo.SSHAuth
	cache     cache.Cache
}

// IdleWithoutCommits means the repository is open and current but commit
// history hasn't been walked yet.
type IdleWithoutCommits struct {
	metrics map[string]collectorkey.MetricConfig
	repo    *gitrepo.Repository
	branch  string
	cache   cache.Cache
}

// IdleWithCommits means commit history (and optionally tags) has been
// collected; the execution graph hasn't been built yet.
type IdleWithCommits struct {
	metrics map[string]collectorkey.MetricConfig
	repo    *gitrepo.Repository
	branch  string
	cache   cache.Cache

	Commits []historymodel.CommitInfo
	Tags    []historymodel.CommitTagInfo
	Store   *store.Store
}

// ReadyForCollection means the execution graph has been built and prefilled
// from the cache; evaluation hasn't run yet.
type ReadyForCollection struct {
	metrics map[string]collectorkey.MetricConfig
	repo    *gitrepo.Repository
	cache   cache.Cache

	Graph        *graph.ExecutionGraph
	Commits      []historymodel.CommitInfo
	Tags         []historymodel.CommitTagInfo
	Store        *store.Store
	LatestCommit historymodel.CommitHash
}

// PostCollection means evaluation has finished; results are in Store and
// can be flushed to the cache and read out into a sink.
type PostCollection struct {
	cache cache.Cache

	Graph        *graph.ExecutionGraph
	Commits      []historymodel.CommitInfo
	Tags         []historymodel.CommitTagInfo
	Store        *store.Store
	LatestCommit historymodel.CommitHash
}

// Initialize opens repositoryPath if it already holds a repository,
// validating its origin URL against the reference unless
// ignoreMismatchedRepoURL is set, and routes to ReadyForFetch (online) or
// IdleWithoutCommits (offline). If the path holds no repository, it routes
// to ReadyForClone (online) or fails (offline).
func (s Initial) Initialize(ignoreMismatchedRepoURL bool) (any, error) {
	if len(s.Metrics) == 0 {
		return nil, ErrNoMetrics
	}

	if err := os.MkdirAll(s.RepositoryPath, 0o755); err != nil {
		return nil, fmt.Errorf("statemachine: create repository dir: %w", err)
	}

	repo, err := gitrepo.Open(s.RepositoryPath)
	if err != nil {
		if s.Offline {
			return nil, fmt.Errorf("statemachine: open offline: %w", err)
		}

		return ReadyForClone{
			metrics:        s.Metrics,
			reference:      s.Reference,
			repositoryPath: s.RepositoryPath,
			sshAuth:        s.SSHAuth,
			cache:          s.Cache,
		}, nil
	}

	remoteURL, err := repo.RemoteURL()
	if err != nil {
		return nil, fmt.Errorf("statemachine: read remote url: %w", err)
	}

	if remoteURL != s.Reference.URL && !ignoreMismatchedRepoURL {
		return nil, ErrMismatchedRepositoryURL
	}

	if s.Offline {
		return IdleWithoutCommits{
			metrics: s.Metrics,
			repo:    repo,
			branch:  s.Reference.Branch,
			cache:   s.Cache,
		}, nil
	}

	return ReadyForFetch{
		metrics:   s.Metrics,
		repo:      repo,
		reference: s.Reference,
		sshAuth:   s.SSHAuth,
		cache:     s.Cache,
	}, nil
}

// Fetch refreshes the repository from origin.
func (s ReadyForFetch) Fetch() (IdleWithoutCommits, error) {
	if err := s.repo.Fetch(s.sshAuth); err != nil {
		return IdleWithoutCommits{}, fmt.Errorf("statemachine: fetch: %w", err)
	}

	return IdleWithoutCommits{
		metrics: s.metrics,
		repo:    s.repo,
		branch:  s.reference.Branch,
		cache:   s.cache,
	}, nil
}

// Clone clones the reference repository into repositoryPath, reporting
// progress through onProgress (may be nil).
func (s ReadyForClone) Clone(ctx context.Context, onProgress func(gitrepo.CloneProgress)) (IdleWithoutCommits, error) {
	repo, err := gitrepo.CloneWithProgress(ctx, s.reference.URL, s.repositoryPath, s.sshAuth, onProgress)
	if err != nil {
		return IdleWithoutCommits{}, fmt.Errorf("statemachine: clone: %w", err)
	}

	return IdleWithoutCommits{
		metrics: s.metrics,
		repo:    repo,
		branch:  s.reference.Branch,
		cache:   s.cache,
	}, nil
}

// RepositoryPath returns the opened repository's working directory, for a
// caller that needs it before collection (e.g. to size a worktree pool).
func (s IdleWithoutCommits) RepositoryPath() string { return s.repo.Path() }

// CollectCommits resets the repository to the mainline (or configured)
// branch and walks its full commit history.
func (s IdleWithoutCommits) CollectCommits() (IdleWithCommits, error) {
	branch := s.branch

	if branch == "" {
		found, err := s.repo.FindMainBranch()
		if err != nil {
			return IdleWithCommits{}, fmt.Errorf("statemachine: find main branch: %w", err)
		}

		branch = found
	}

	if err := s.repo.ResetHard("origin/" + branch); err != nil {
		return IdleWithCommits{}, fmt.Errorf("statemachine: reset to origin/%s: %w", branch, err)
	}

	commits, err := s.repo.GetAllCommits()
	if err != nil {
		return IdleWithCommits{}, fmt.Errorf("statemachine: get commits: %w", err)
	}

	if len(commits) == 0 {
		return IdleWithCommits{}, ErrNoCommits
	}

	return IdleWithCommits{
		metrics: s.metrics,
		repo:    s.repo,
		branch:  s.branch,
		cache:   s.cache,
		Commits: commits,
		Store:   store.New(),
	}, nil
}

// CollectTags enumerates every tag, resolving each to the commit it points
// at.
func (s IdleWithCommits) CollectTags() (IdleWithCommits, error) {
	tags, err := s.repo.GetAllCommitTags()
	if err != nil {
		return IdleWithCommits{}, fmt.Errorf("statemachine: get tags: %w", err)
	}

	s.Tags = tags

	return s, nil
}

// PrepareForCollection builds the execution graph from the metric set and
// collected commits, and prefills the value store from the cache.
func (s IdleWithCommits) PrepareForCollection(forceLatestCommit bool) (ReadyForCollection, error) {
	metrics := make([]collectorkey.MetricConfig, 0, len(s.metrics))
	for _, m := range s.metrics {
		metrics = append(metrics, m)
	}

	g := graph.Build(s.Commits, metrics, forceLatestCommit)

	if err := evaluator.Prefill(g, s.Store, s.cache); err != nil {
		return ReadyForCollection{}, fmt.Errorf("statemachine: prefill cache: %w", err)
	}

	latest := latestCommit(s.Commits)
	if latest == "" {
		return ReadyForCollection{}, ErrNoCommits
	}

	return ReadyForCollection{
		metrics:      s.metrics,
		repo:         s.repo,
		cache:        s.cache,
		Graph:        g,
		Commits:      s.Commits,
		Tags:         s.Tags,
		Store:        s.Store,
		LatestCommit: latest,
	}, nil
}

func latestCommit(commits []historymodel.CommitInfo) historymodel.CommitHash {
	var latest historymodel.CommitInfo

	for i, c := range commits {
		if i == 0 || c.Time.After(latest.Time) {
			latest = c
		}
	}

	return latest.Hash
}

// CollectionOptions configures the worktree pool and parallelism the
// ReadyForCollection.CollectMetrics transition runs the evaluator with.
type CollectionOptions struct {
	WorktreePath string
	PoolSize     int
	Parallelism  int
	Progress     chan<- evaluator.Event
}

// CollectMetrics runs the evaluator over the prepared execution graph,
// acquiring worktrees from a pool sized and rooted per opts.
func (s ReadyForCollection) CollectMetrics(ctx context.Context, opts CollectionOptions) (PostCollection, error) {
	poolSize := opts.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := worktreepool.New(worktreepool.AdaptRepository(s.repo), opts.WorktreePath, poolSize)
	if err != nil {
		return PostCollection{}, fmt.Errorf("statemachine: create worktree pool: %w", err)
	}

	defer func() { _ = pool.Close() }()

	ev, err := evaluator.New(evaluator.Options{
		Graph:       s.Graph,
		Store:       s.Store,
		Commits:     s.Commits,
		Pool:        pool,
		Parallelism: opts.Parallelism,
		MetricCount: len(s.metrics),
		Progress:    opts.Progress,
	})
	if err != nil {
		return PostCollection{}, fmt.Errorf("statemachine: create evaluator: %w", err)
	}

	if err := ev.Run(ctx); err != nil {
		return PostCollection{}, fmt.Errorf("statemachine: collect metrics: %w", err)
	}

	return PostCollection{
		cache:        s.cache,
		Graph:        s.Graph,
		Commits:      s.Commits,
		Tags:         s.Tags,
		Store:        s.Store,
		LatestCommit: s.LatestCommit,
	}, nil
}

// WriteToCache flushes every computed value into the durable cache.
func (s PostCollection) WriteToCache() (PostCollection, error) {
	if err := evaluator.Flush(s.Graph, s.Store, s.cache); err != nil {
		return PostCollection{}, fmt.Errorf("statemachine: write to cache: %w", err)
	}

	return s, nil
}
