package collector

import (
	"encoding/json"
	"sort"
)

// Value is the wire shape every collector produces and the sink persists: a
// pre-encoded JSON document whose concrete schema is determined by the
// CollectorKey it is stored under. Kept as an alias rather than an
// interface because every collector, the store, and the cache already pass
// raw encoded bytes around — a Value is exactly that, named for the sink
// contract in SPEC_FULL.md's external-collaborator section.
type Value = json.RawMessage

// LocValue is the per-language line count at one commit. Grounded on
// original_source/lib/src/collectors/loc.rs's LocValue; Language is a plain
// string key (see pkg/loc for the language classification table used in
// place of the original's tokei dependency, per DESIGN.md Open Question 1).
type LocValue struct {
	LocByLanguage map[string]int `json:"loc_by_language"`
}

// ChangedFilesValue is the set of paths that changed in one commit relative
// to its parent (or the empty tree, for the first commit). Grounded on
// collectors/changed_files.rs.
type ChangedFilesValue struct {
	Files []string `json:"files"`
}

// NewChangedFilesValue canonicalizes a path set into a sorted slice for
// deterministic JSON encoding (Go maps don't marshal in stable order).
func NewChangedFilesValue(paths map[string]struct{}) ChangedFilesValue {
	files := make([]string, 0, len(paths))
	for p := range paths {
		files = append(files, p)
	}

	sort.Strings(files)

	return ChangedFilesValue{Files: files}
}

// Set returns the changed paths as a set, for membership tests.
func (v ChangedFilesValue) Set() map[string]struct{} {
	out := make(map[string]struct{}, len(v.Files))
	for _, f := range v.Files {
		out[f] = struct{}{}
	}

	return out
}

// ChangedFilesLocValue maps each changed file to its line count, or nil if
// the file's language could not be determined or it failed to parse.
// Grounded on collectors/changed_files_loc.rs.
type ChangedFilesLocValue struct {
	Files map[string]*int `json:"files"`
}

// FileListValue is the full tree listing at one commit. Grounded on
// collectors/file_list.rs.
type FileListValue struct {
	Files []string `json:"files"`
}

// TotalLocValue sums LocValue across languages. Grounded on
// collectors/total_loc.rs.
type TotalLocValue struct {
	Loc uint32 `json:"loc"`
}

// TotalFileCountValue is the file count derived from FileListValue.
// Grounded on collectors/total_file_count.rs.
type TotalFileCountValue struct {
	TotalFileCount uint32 `json:"total_file_count"`
}

// TotalDiffStatValue is the file/insertion/deletion triple for one commit
// against its parent. Grounded on collectors/total_diff_stat.rs.
type TotalDiffStatValue struct {
	FilesChanged uint32 `json:"files_changed"`
	Insertions   uint32 `json:"insertions"`
	Deletions    uint32 `json:"deletions"`
}

// TotalCargoDependenciesValue is the count of Cargo.lock packages, leaving
// out only the root Cargo.toml's own [package] (matched by name and
// version); other workspace members are counted. Grounded on
// collectors/total_cargo_dependencies.rs.
type TotalCargoDependenciesValue struct {
	TotalDependencies uint32 `json:"total_dependencies"`
}

// Submatch is one regex capture group within a pattern match line.
// Grounded on collectors/pattern_occurences.rs's PartialMatchDataSubmatch.
type Submatch struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// MatchRecord is one pattern-search hit. Equality for reconciliation
// purposes is by value (path + line number + absolute offset + submatches),
// matching spec.md §4.2's match-record content-addressable equality
// requirement. Grounded on collectors/pattern_occurences.rs's
// PartialMatchData.
type MatchRecord struct {
	Path           string     `json:"path"`
	LineNumber     uint64     `json:"line_number"`
	AbsoluteOffset uint64     `json:"absolute_offset"`
	Submatches     []Submatch `json:"submatches"`
}

// key returns a string uniquely identifying this record by value, used as
// a set key for reconciliation (Go structs with slice fields aren't
// comparable, so MatchRecord can't be a map key directly).
func (m MatchRecord) key() string {
	out := m.Path + "\x00" + itoa(m.LineNumber) + "\x00" + itoa(m.AbsoluteOffset)
	for _, s := range m.Submatches {
		out += "\x00" + itoa(uint64(s.Start)) + "\x00" + itoa(uint64(s.End)) + "\x00" + s.Text
	}

	return out
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}

	var buf [20]byte

	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}

	return string(buf[i:])
}

// PatternOccurrencesValue is the set of match records found for a pattern at
// one commit. Grounded on collectors/pattern_occurences.rs's
// PatternOccurencesValue.
type PatternOccurrencesValue struct {
	Matches []MatchRecord `json:"matches"`
}

// MatchSet returns the matches keyed for set operations (union, membership
// test by value), used by the incremental reconciliation logic.
func (v PatternOccurrencesValue) MatchSet() map[string]MatchRecord {
	out := make(map[string]MatchRecord, len(v.Matches))
	for _, m := range v.Matches {
		out[m.key()] = m
	}

	return out
}

// NewPatternOccurrencesValue canonicalizes a match set into a deterministically
// ordered slice (by path, then line, then offset) for stable JSON encoding.
func NewPatternOccurrencesValue(matches map[string]MatchRecord) PatternOccurrencesValue {
	out := make([]MatchRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}

		if out[i].LineNumber != out[j].LineNumber {
			return out[i].LineNumber < out[j].LineNumber
		}

		return out[i].AbsoluteOffset < out[j].AbsoluteOffset
	})

	return PatternOccurrencesValue{Matches: out}
}

// TotalPatternOccurrencesValue counts matches from a PatternOccurrencesValue.
// Grounded on collectors/total_pattern_occurences.rs.
type TotalPatternOccurrencesValue struct {
	TotalOccurrences uint32 `json:"total_occurences"`
}
