// Package collectorkey defines the CollectorKey sum type, the commit
// selection Frequency, and the MetricConfig that pairs them — the
// identifiers the execution graph, the value store, and the cache all key
// on.
//
// Grounded on original_source/lib/src/config.rs's CollectorConfig/Frequency/
// MetricConfig enums, generalized to spec.md §3's richer data model: unlike
// the original's config.rs (which has no `files` field), both pattern
// collectors here carry an optional glob filter, matching spec.md's
// canonical CollectorKey table.
package collectorkey

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind names one of the canonical collector variants. Values match the
// kebab-case serde renames the original config.rs used, so cache digests
// and sink JSON stay byte-compatible with a hand-authored config file in
// that style.
type Kind string

const (
	KindLoc                      Kind = "loc"
	KindTotalLoc                 Kind = "total-loc"
	KindChangedFiles             Kind = "changed-files"
	KindChangedFilesLoc          Kind = "changed-files-loc"
	KindFileList                 Kind = "file-list"
	KindTotalFileCount           Kind = "total-file-count"
	KindTotalDiffStat            Kind = "total-diff-stat"
	KindTotalCargoDeps           Kind = "total-cargo-deps"
	KindPatternOccurrences       Kind = "pattern-occurences"
	KindTotalPatternOccurrences  Kind = "total-pattern-occurences"
	KindGritQLPatternOccurrences Kind = "gritql-pattern-occurences"
)

const filesSeparator = "\x00"

// CollectorKey identifies both which collector to run and, for the two
// pattern-search collectors, what to search for. It is a plain comparable
// struct (not an interface) so it can be used directly as a map key in the
// value store and as the input to the cache digest — the Files glob list is
// canonicalized into a single sorted, NUL-joined string for exactly that
// reason, since Go slices cannot be map keys.
type CollectorKey struct {
	Kind    Kind
	Pattern string
	files   string // canonical sorted join of glob patterns; empty means "no filter"
}

// New builds a CollectorKey for a parameterless collector kind.
func New(kind Kind) CollectorKey {
	return CollectorKey{Kind: kind}
}

// NewPattern builds a CollectorKey for one of the pattern-search kinds
// (PatternOccurrences, TotalPatternOccurrences, or the textual
// approximation of GritQLPatternOccurrences).
func NewPattern(kind Kind, pattern string, files []string) CollectorKey {
	return CollectorKey{Kind: kind, Pattern: pattern, files: canonicalizeFiles(files)}
}

func canonicalizeFiles(files []string) string {
	if len(files) == 0 {
		return ""
	}

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	return strings.Join(sorted, filesSeparator)
}

// Files returns the glob filter list, in sorted order, or nil if the
// collector is unfiltered.
func (k CollectorKey) Files() []string {
	if k.files == "" {
		return nil
	}

	return strings.Split(k.files, filesSeparator)
}

// IsPatternKind reports whether k is one of the pattern-search collectors.
func (k CollectorKey) IsPatternKind() bool {
	switch k.Kind {
	case KindPatternOccurrences, KindTotalPatternOccurrences, KindGritQLPatternOccurrences:
		return true
	default:
		return false
	}
}

// String renders a stable, human-readable form used in logs and errors.
func (k CollectorKey) String() string {
	if !k.IsPatternKind() {
		return string(k.Kind)
	}

	if k.files == "" {
		return fmt.Sprintf("%s(%q)", k.Kind, k.Pattern)
	}

	return fmt.Sprintf("%s(%q, files=%s)", k.Kind, k.Pattern, k.files)
}

// jsonForm is the wire shape used for both cache digesting and sink
// serialization, matching the original's #[serde(tag = "collector")] enum.
type jsonForm struct {
	Collector Kind     `json:"collector"`
	Pattern   string   `json:"pattern,omitempty"`
	Files     []string `json:"files,omitempty"`
}

// MarshalJSON renders the tagged-enum wire form the cache digest hashes.
func (k CollectorKey) MarshalJSON() ([]byte, error) {
	form := jsonForm{Collector: k.Kind}
	if k.IsPatternKind() {
		form.Pattern = k.Pattern
		form.Files = k.Files()
	}

	data, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("marshal collector key: %w", err)
	}

	return data, nil
}

// UnmarshalJSON parses the tagged-enum wire form back into a CollectorKey.
func (k *CollectorKey) UnmarshalJSON(data []byte) error {
	var form jsonForm

	if err := json.Unmarshal(data, &form); err != nil {
		return fmt.Errorf("unmarshal collector key: %w", err)
	}

	*k = CollectorKey{Kind: form.Collector, Pattern: form.Pattern, files: canonicalizeFiles(form.Files)}

	return nil
}

// Frequency controls which commits a metric is evaluated on, per spec.md
// §4.1's cascading same-year/month/week/day/hour bucketing rules.
type Frequency string

const (
	FrequencyPerCommit Frequency = "per-commit"
	FrequencyYearly    Frequency = "yearly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyDaily     Frequency = "daily"
	FrequencyHourly    Frequency = "hourly"
)

// MetricConfig names a metric and pins it to a collector and a selection
// frequency. The Name is the key the output sink stores values under,
// matching the original's `HashMap<String, MetricConfig>` metrics map.
type MetricConfig struct {
	Name      string    `json:"name"`
	Collector CollectorKey
	Frequency Frequency `json:"frequency"`
}
