// Package config provides configuration loading and validation for the
// gitmetrics collection engine.
//
// Grounded on the teacher's pkg/config/config.go: the same viper +
// mapstructure + setDefaults + sentinel-error-validation shape, generalized
// from the teacher's server/cache/analysis/repository sections to this
// domain's git-reference/metric-set/worktree-pool/cache sections.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/gitrepo"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/observability"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/statemachine"
)

// Sentinel validation errors.
var (
	ErrNoMetricsConfigured      = errors.New("config: no metrics configured")
	ErrNoRepositoryURL          = errors.New("config: repository.url is required")
	ErrInvalidWorktreePoolSize  = errors.New("config: worktree.pool_size must be positive")
	ErrInvalidCacheSize         = errors.New("config: cache.max_size is not a valid byte size")
	ErrInvalidWorktreeDiskUsage = errors.New("config: worktree.max_disk_usage is not a valid byte size")
	ErrUnknownCollector         = errors.New("config: unknown collector kind")
	ErrPatternCollectorNoValue  = errors.New("config: pattern-search collector requires a non-empty pattern")
	ErrUnknownFrequency         = errors.New("config: unknown frequency")
)

// Default configuration values.
const (
	defaultWorktreePoolSize = 4
	defaultParallelism      = 4
	defaultCacheDir         = "./.gitmetrics/cache"
	defaultRepositoryDir    = "./.gitmetrics/repo"
	defaultWorktreeDir      = "./.gitmetrics/worktrees"
	defaultOutputDir        = "./.gitmetrics/output"
	defaultCacheMaxSize     = "10GB"
)

// GitRepository names the remote repository a collection run targets.
// Grounded on original_source/lib/src/config.rs's GitRepository.
type GitRepository struct {
	URL    string `mapstructure:"url"`
	Branch string `mapstructure:"branch"`
}

// MetricSpec is the plain, mapstructure-decodable shape a metric takes in
// the config file. Kept separate from collectorkey.MetricConfig (whose
// CollectorKey field has no mapstructure tags and an unexported canonical
// form) and resolved into one via ResolveMetrics after decoding.
type MetricSpec struct {
	Collector string   `mapstructure:"collector"`
	Pattern   string   `mapstructure:"pattern"`
	Files     []string `mapstructure:"files"`
	Frequency string   `mapstructure:"frequency"`
}

// WorktreeConfig controls the bounded worktree pool the evaluator's base
// collectors run against.
type WorktreeConfig struct {
	Directory string `mapstructure:"directory"`
	PoolSize  int    `mapstructure:"pool_size"`

	// MaxDiskUsage is a human-readable byte size ("5GB", "500MB") naming a
	// disk budget for the worktree directory. LoadConfig checks that it
	// parses as a byte size; nothing in this module measures or enforces
	// the budget.
	MaxDiskUsage string `mapstructure:"max_disk_usage"`
}

// CacheConfig controls the durable content-addressed cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	MaxSize string `mapstructure:"max_size"`
}

// SSHConfig names a private key file used for authenticated clone/fetch.
type SSHConfig struct {
	KeyFile string `mapstructure:"key_file"`
}

// Flags mirrors spec.md §6's explicit run-time flags (offline,
// disableCache, forceLatest, ignoreMismatchedUrl), each one a first-class
// config field rather than only a CLI-call parameter, per SPEC_FULL.md's
// supplemented-features note on IgnoreMismatchedURL.
type Flags struct {
	Offline             bool `mapstructure:"offline"`
	DisableCache        bool `mapstructure:"disable_cache"`
	ForceLatestCommit   bool `mapstructure:"force_latest_commit"`
	IgnoreMismatchedURL bool `mapstructure:"ignore_mismatched_url"`
}

// Config holds all configuration for one gitmetrics collection run.
type Config struct {
	Repository GitRepository         `mapstructure:"repository"`
	SSH        SSHConfig             `mapstructure:"ssh"`
	Metrics    map[string]MetricSpec `mapstructure:"metrics"`

	RepositoryPath string `mapstructure:"repository_path"`
	OutputPath     string `mapstructure:"output_path"`

	Worktree WorktreeConfig `mapstructure:"worktree"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Flags    Flags          `mapstructure:"flags"`

	Parallelism int `mapstructure:"parallelism"`

	Observability observability.Config `mapstructure:"observability"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("gitmetrics")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/gitmetrics")
	}

	viperCfg.SetEnvPrefix("GITMETRICS")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("config: read config file: %w", readErr)
		}
	}

	var config Config

	if err := viperCfg.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("repository_path", defaultRepositoryDir)
	viperCfg.SetDefault("output_path", defaultOutputDir)

	viperCfg.SetDefault("worktree.directory", defaultWorktreeDir)
	viperCfg.SetDefault("worktree.pool_size", defaultWorktreePoolSize)

	viperCfg.SetDefault("cache.enabled", true)
	viperCfg.SetDefault("cache.directory", defaultCacheDir)
	viperCfg.SetDefault("cache.max_size", defaultCacheMaxSize)

	viperCfg.SetDefault("parallelism", defaultParallelism)

	viperCfg.SetDefault("flags.offline", false)
	viperCfg.SetDefault("flags.disable_cache", false)
	viperCfg.SetDefault("flags.force_latest_commit", false)
	viperCfg.SetDefault("flags.ignore_mismatched_url", false)

	viperCfg.SetDefault("observability.service_name", "gitmetrics")
	viperCfg.SetDefault("observability.log_json", false)
	viperCfg.SetDefault("observability.tracing_enabled", false)
	viperCfg.SetDefault("observability.sample_ratio", 1.0)
	viperCfg.SetDefault("observability.shutdown_timeout_seconds", 5)
}

func validateConfig(config *Config) error {
	if len(config.Metrics) == 0 {
		return ErrNoMetricsConfigured
	}

	if config.Repository.URL == "" {
		return ErrNoRepositoryURL
	}

	if config.Worktree.PoolSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorktreePoolSize, config.Worktree.PoolSize)
	}

	if config.Cache.MaxSize != "" {
		if _, err := humanize.ParseBytes(config.Cache.MaxSize); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidCacheSize, config.Cache.MaxSize, err)
		}
	}

	if config.Worktree.MaxDiskUsage != "" {
		if _, err := humanize.ParseBytes(config.Worktree.MaxDiskUsage); err != nil {
			return fmt.Errorf("%w: %q: %w", ErrInvalidWorktreeDiskUsage, config.Worktree.MaxDiskUsage, err)
		}
	}

	if _, err := config.ResolveMetrics(); err != nil {
		return err
	}

	return nil
}

// ResolveMetrics translates the config file's plain MetricSpec map into the
// CollectorKey-bearing form the graph builder consumes, validating each
// collector kind and frequency against the canonical tables.
func (c *Config) ResolveMetrics() (map[string]collectorkey.MetricConfig, error) {
	out := make(map[string]collectorkey.MetricConfig, len(c.Metrics))

	for name, spec := range c.Metrics {
		kind := collectorkey.Kind(spec.Collector)
		if !isKnownKind(kind) {
			return nil, fmt.Errorf("%w: metric %q: %q", ErrUnknownCollector, name, spec.Collector)
		}

		key := collectorkey.New(kind)

		if kind == collectorkey.KindPatternOccurrences ||
			kind == collectorkey.KindTotalPatternOccurrences ||
			kind == collectorkey.KindGritQLPatternOccurrences {
			if spec.Pattern == "" {
				return nil, fmt.Errorf("%w: metric %q", ErrPatternCollectorNoValue, name)
			}

			key = collectorkey.NewPattern(kind, spec.Pattern, spec.Files)
		}

		frequency := collectorkey.Frequency(spec.Frequency)
		if frequency == "" {
			frequency = collectorkey.FrequencyPerCommit
		}

		if !isKnownFrequency(frequency) {
			return nil, fmt.Errorf("%w: metric %q: %q", ErrUnknownFrequency, name, spec.Frequency)
		}

		out[name] = collectorkey.MetricConfig{Name: name, Collector: key, Frequency: frequency}
	}

	return out, nil
}

func isKnownKind(kind collectorkey.Kind) bool {
	switch kind {
	case collectorkey.KindLoc, collectorkey.KindTotalLoc, collectorkey.KindChangedFiles,
		collectorkey.KindChangedFilesLoc, collectorkey.KindFileList, collectorkey.KindTotalFileCount,
		collectorkey.KindTotalDiffStat, collectorkey.KindTotalCargoDeps, collectorkey.KindPatternOccurrences,
		collectorkey.KindTotalPatternOccurrences, collectorkey.KindGritQLPatternOccurrences:
		return true
	default:
		return false
	}
}

func isKnownFrequency(f collectorkey.Frequency) bool {
	switch f {
	case collectorkey.FrequencyPerCommit, collectorkey.FrequencyYearly, collectorkey.FrequencyMonthly,
		collectorkey.FrequencyWeekly, collectorkey.FrequencyDaily, collectorkey.FrequencyHourly:
		return true
	default:
		return false
	}
}

// SSHAuth builds a gitrepo.SSHAuth from the configured key file, reading its
// PEM contents into memory so the same gitrepo.SSHAuth shape serves both a
// file-based key (the common case) and an in-memory key supplied some other
// way by an embedder.
func (c *Config) SSHAuth() (gitrepo.SSHAuth, error) {
	if c.SSH.KeyFile == "" {
		return gitrepo.SSHAuth{}, nil
	}

	pem, err := os.ReadFile(c.SSH.KeyFile)
	if err != nil {
		return gitrepo.SSHAuth{}, fmt.Errorf("config: read ssh key file %s: %w", c.SSH.KeyFile, err)
	}

	return gitrepo.SSHAuth{KeyPath: c.SSH.KeyFile, PrivateKeyPEM: pem}, nil
}

// GitReference builds the statemachine.GitReference this config targets.
func (c *Config) GitReference() statemachine.GitReference {
	return statemachine.GitReference{URL: c.Repository.URL, Branch: c.Repository.Branch}
}
