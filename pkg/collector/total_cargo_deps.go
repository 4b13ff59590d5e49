package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
)

// TotalCargoDeps counts Cargo.lock packages that aren't themselves the
// repository's own package — i.e. external dependency count. Grounded on
// original_source/lib/src/collectors/total_cargo_dependencies.rs, with one
// simplification: the original resolves a full Cargo workspace's member
// packages; this port only reads the root Cargo.toml's [package] table,
// since a full workspace-graph resolution is out of proportion to a single
// collector in this module (the temporal passthrough-reuse behavior below,
// which is the behaviorally interesting part of the original, is kept
// faithfully).
//
// Uses github.com/pelletier/go-toml/v2, promoted from viper's transitive
// dependency set to a direct one for this purpose (DESIGN.md Open
// Question 2) — both Cargo.toml and Cargo.lock are TOML documents.
type TotalCargoDeps struct{}

// Key implements BaseCollector.
func (TotalCargoDeps) Key() collectorkey.CollectorKey {
	return collectorkey.New(collectorkey.KindTotalCargoDeps)
}

type cargoTomlFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
}

type cargoLockFile struct {
	Package []struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
	} `toml:"package"`
}

// Collect implements BaseCollector.
func (t TotalCargoDeps) Collect(_ context.Context, cctx Context, wt Worktree) (json.RawMessage, error) {
	var changed ChangedFilesValue

	found, err := sameCommitValue(cctx, func(tk graph.Task) bool { return tk.Key.Kind == collectorkey.KindChangedFiles }, &changed)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	manifestChanged := false

	for _, f := range changed.Files {
		if strings.HasSuffix(f, "Cargo.toml") || strings.HasSuffix(f, "Cargo.lock") {
			manifestChanged = true

			break
		}
	}

	if !manifestChanged {
		var prev TotalCargoDependenciesValue

		reused, err := previousSelectedValue(cctx, t.Key(), &prev)
		if err != nil {
			return nil, err
		}

		if reused {
			data, err := json.Marshal(prev)
			if err != nil {
				return nil, fmt.Errorf("total-cargo-deps: encode reused value: %w", err)
			}

			return data, nil
		}
	}

	manifestPath := filepath.Join(wt.Path(), "Cargo.toml")
	lockPath := filepath.Join(wt.Path(), "Cargo.lock")

	manifestData, err := os.ReadFile(manifestPath) //nolint:gosec
	if err != nil {
		return nil, nil // no Cargo.toml at this commit: not an error, just nothing to report
	}

	var manifest cargoTomlFile
	if err := toml.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("total-cargo-deps: parse Cargo.toml: %w", err)
	}

	lockData, err := os.ReadFile(lockPath) //nolint:gosec
	if err != nil {
		return nil, nil // no lockfile yet: nothing to count
	}

	var lock cargoLockFile
	if err := toml.Unmarshal(lockData, &lock); err != nil {
		return nil, fmt.Errorf("total-cargo-deps: parse Cargo.lock: %w", err)
	}

	count := 0

	for _, pkg := range lock.Package {
		if pkg.Name == manifest.Package.Name && pkg.Version == manifest.Package.Version {
			continue
		}

		count++
	}

	if count > math.MaxUint32 {
		return nil, fmt.Errorf("%w: dependency count %d exceeds uint32", ErrValueOverflow, count)
	}

	data, err := json.Marshal(TotalCargoDependenciesValue{TotalDependencies: uint32(count)})
	if err != nil {
		return nil, fmt.Errorf("total-cargo-deps: encode value: %w", err)
	}

	return data, nil
}
