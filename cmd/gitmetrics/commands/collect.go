package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/cache"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/evaluator"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/gitrepo"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/observability"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/sink"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/statemachine"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/store"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/config"
)

// Sentinel errors surfaced by RunE, matching the teacher's
// cmd/codefang/commands/history.go convention of package-level errors
// rather than ad hoc fmt.Errorf at the call site.
var (
	ErrUnexpectedInitializeState = errors.New("collect: unexpected state returned from Initialize")
)

// CollectCommand holds the collect subcommand's flag-bound fields.
type CollectCommand struct {
	configPath          string
	sshKeyFile          string
	offline             bool
	disableCache        bool
	forceLatestCommit   bool
	ignoreMismatchedURL bool
	poolSize            int
	parallelism         int
}

// NewCollectCommand builds the "collect" subcommand.
func NewCollectCommand() *cobra.Command {
	cc := &CollectCommand{}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Clone/fetch a repository, walk its history, and collect configured metrics",
		Long: `collect drives the full collection pipeline for one configured repository:
open or clone it, refresh it from origin unless --offline is set, walk its
commit history, build the metric execution graph, evaluate it against a
bounded worktree pool, and write results to the configured output sink.`,
		RunE: cc.run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&cc.configPath, "config", "c", "", "path to gitmetrics.yaml (default: search ./, ./config and /etc/gitmetrics)")
	flags.StringVar(&cc.sshKeyFile, "ssh-key-file", "", "SSH private key file for clone/fetch (overrides ssh.key_file)")
	flags.BoolVar(&cc.offline, "offline", false, "disable clone/fetch; fail if the repository isn't already present")
	flags.BoolVar(&cc.disableCache, "disable-cache", false, "ignore and do not write the durable cache")
	flags.BoolVar(&cc.forceLatestCommit, "force-latest-commit", false, "always select the latest commit per metric, even off its frequency bucket")
	flags.BoolVar(&cc.ignoreMismatchedURL, "ignore-mismatched-url", false, "proceed even if the local repository's origin differs from the configured URL")
	flags.IntVar(&cc.poolSize, "worktree-pool-size", 0, "override worktree.pool_size")
	flags.IntVar(&cc.parallelism, "parallelism", 0, "override parallelism")

	return cmd
}

func (cc *CollectCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(cc.configPath)
	if err != nil {
		return fmt.Errorf("collect: load config: %w", err)
	}

	cc.applyOverrides(cfg)

	if cfg.Observability.Mode == "" {
		cfg.Observability.Mode = observability.ModeCLI
	}

	providers, err := observability.Init(cfg.Observability)
	if err != nil {
		return fmt.Errorf("collect: init observability: %w", err)
	}

	ctx := cmd.Context()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = providers.Shutdown(shutdownCtx)
	}()

	sshAuth, err := cfg.SSHAuth()
	if err != nil {
		return fmt.Errorf("collect: resolve ssh auth: %w", err)
	}

	metrics, err := cfg.ResolveMetrics()
	if err != nil {
		return fmt.Errorf("collect: resolve metrics: %w", err)
	}

	var metricCache cache.Cache
	if cfg.Cache.Enabled && !cfg.Flags.DisableCache {
		metricCache = cache.New(cfg.Cache.Directory)
	}

	post, err := runCollectionPipeline(ctx, cc, cfg, metrics, sshAuth, metricCache, providers)
	if err != nil {
		return err
	}

	return writeResults(post, metrics, cfg.OutputPath)
}

func (cc *CollectCommand) applyOverrides(cfg *config.Config) {
	if cc.sshKeyFile != "" {
		cfg.SSH.KeyFile = cc.sshKeyFile
	}

	if cc.offline {
		cfg.Flags.Offline = true
	}

	if cc.disableCache {
		cfg.Flags.DisableCache = true
	}

	if cc.forceLatestCommit {
		cfg.Flags.ForceLatestCommit = true
	}

	if cc.ignoreMismatchedURL {
		cfg.Flags.IgnoreMismatchedURL = true
	}

	if cc.poolSize > 0 {
		cfg.Worktree.PoolSize = cc.poolSize
	}

	if cc.parallelism > 0 {
		cfg.Parallelism = cc.parallelism
	}
}

func runCollectionPipeline(
	ctx context.Context,
	cc *CollectCommand,
	cfg *config.Config,
	metrics map[string]collectorkey.MetricConfig,
	sshAuth gitrepo.SSHAuth,
	metricCache cache.Cache,
	providers observability.Providers,
) (statemachine.PostCollection, error) {
	initial := statemachine.Initial{
		Metrics:        metrics,
		Reference:      cfg.GitReference(),
		RepositoryPath: cfg.RepositoryPath,
		SSHAuth:        sshAuth,
		Cache:          metricCache,
		Offline:        cfg.Flags.Offline,
	}

	idle, err := initializeRepository(ctx, initial, cfg.Flags.IgnoreMismatchedURL, providers.Logger)
	if err != nil {
		return statemachine.PostCollection{}, err
	}

	withCommits, err := idle.CollectCommits()
	if err != nil {
		return statemachine.PostCollection{}, fmt.Errorf("collect: collect commits: %w", err)
	}

	providers.Logger.Info("collected commits", "count", len(withCommits.Commits))

	withCommits, err = withCommits.CollectTags()
	if err != nil {
		return statemachine.PostCollection{}, fmt.Errorf("collect: collect tags: %w", err)
	}

	ready, err := withCommits.PrepareForCollection(cfg.Flags.ForceLatestCommit)
	if err != nil {
		return statemachine.PostCollection{}, fmt.Errorf("collect: prepare for collection: %w", err)
	}

	progress := make(chan evaluator.Event, 32)

	done := make(chan summary, 1)
	go func() { done <- renderProgress(progress) }()

	post, err := ready.CollectMetrics(ctx, statemachine.CollectionOptions{
		WorktreePath: cfg.Worktree.Directory,
		PoolSize:     cfg.Worktree.PoolSize,
		Parallelism:  cfg.Parallelism,
		Progress:     progress,
	})
	close(progress)

	result := <-done

	if err != nil {
		return statemachine.PostCollection{}, fmt.Errorf("collect: collect metrics: %w", err)
	}

	printSummary(result)

	if !cfg.Flags.DisableCache {
		post, err = post.WriteToCache()
		if err != nil {
			return statemachine.PostCollection{}, fmt.Errorf("collect: write to cache: %w", err)
		}
	}

	return post, nil
}

func initializeRepository(
	ctx context.Context,
	initial statemachine.Initial,
	ignoreMismatchedURL bool,
	logger interface{ Info(string, ...any) },
) (statemachine.IdleWithoutCommits, error) {
	next, err := initial.Initialize(ignoreMismatchedURL)
	if err != nil {
		return statemachine.IdleWithoutCommits{}, fmt.Errorf("collect: initialize: %w", err)
	}

	switch state := next.(type) {
	case statemachine.IdleWithoutCommits:
		return state, nil

	case statemachine.ReadyForFetch:
		logger.Info("fetching from origin")

		idle, err := state.Fetch()
		if err != nil {
			return statemachine.IdleWithoutCommits{}, fmt.Errorf("collect: fetch: %w", err)
		}

		return idle, nil

	case statemachine.ReadyForClone:
		logger.Info("cloning repository")

		idle, err := state.Clone(ctx, cloneProgressPrinter())
		if err != nil {
			return statemachine.IdleWithoutCommits{}, fmt.Errorf("collect: clone: %w", err)
		}

		return idle, nil

	default:
		return statemachine.IdleWithoutCommits{}, fmt.Errorf("%w: %T", ErrUnexpectedInitializeState, next)
	}
}

func cloneProgressPrinter() func(gitrepo.CloneProgress) {
	lastPercent := -1

	return func(p gitrepo.CloneProgress) {
		percent := 0
		if p.Total > 0 {
			percent = p.Finished * 100 / p.Total
		}

		if percent == lastPercent {
			return
		}

		lastPercent = percent

		color.New(color.FgCyan).Printf("\r%s: %3d%% (%d/%d)", p.Stage, percent, p.Finished, p.Total)

		if percent >= 100 {
			fmt.Println()
		}
	}
}

type summary struct {
	taskCount   int
	metricCount int
	newCount    int
	reusedCount int
}

func renderProgress(events <-chan evaluator.Event) summary {
	var s summary

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	for event := range events {
		switch event.Kind {
		case evaluator.EventInitial:
			s.taskCount = event.TaskCount
			s.metricCount = event.MetricCount

			color.New(color.FgBlue).Printf("collecting %d metrics across %d tasks\n", s.metricCount, s.taskCount)

		case evaluator.EventNew:
			s.newCount++
			green.Printf("  computed %s @ %s\n", event.Collector, event.Commit)

		case evaluator.EventReused:
			s.reusedCount++
			yellow.Printf("  reused   %s @ %s\n", event.Collector, event.Commit)

		case evaluator.EventFinished:
		}
	}

	return s
}

func printSummary(s summary) {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"tasks", "metrics", "new", "reused"})
	t.AppendRow(table.Row{s.taskCount, s.metricCount, s.newCount, s.reusedCount})
	fmt.Println(t.Render())
}

func writeResults(post statemachine.PostCollection, metrics map[string]collectorkey.MetricConfig, outputPath string) error {
	namesByKey := make(map[string][]string, len(metrics))
	for name, metric := range metrics {
		k := metric.Collector.String()
		namesByKey[k] = append(namesByKey[k], name)
	}

	out := sink.NewJSONSink(outputPath)

	if err := out.Load(); err != nil {
		return fmt.Errorf("collect: load existing sink: %w", err)
	}

	if err := out.SetCommits(post.Commits); err != nil {
		return fmt.Errorf("collect: set commits: %w", err)
	}

	if err := out.SetCommitTags(post.Tags); err != nil {
		return fmt.Errorf("collect: set commit tags: %w", err)
	}

	for _, idx := range post.Graph.Nodes() {
		task := post.Graph.Task(idx)

		value, ok := post.Store.Get(store.Key{Collector: task.Key, Commit: task.Commit})
		if !ok {
			continue
		}

		for _, name := range namesByKey[task.Key.String()] {
			if err := out.SetMetric(name, task.Commit, value); err != nil {
				return fmt.Errorf("collect: set metric %s @ %s: %w", name, task.Commit, err)
			}
		}
	}

	if err := out.Flush(); err != nil {
		return fmt.Errorf("collect: flush sink: %w", err)
	}

	return nil
}
