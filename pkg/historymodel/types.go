// Package historymodel defines the commit- and tag-level data shapes shared
// by the graph builder, collectors, and output sink.
//
// Grounded on original_source/lib/src/git.rs's Commit/CommitTag/DiffStat
// types, restated as plain Go structs (no serde, tagged JSON instead).
package historymodel

import "time"

// CommitHash is the hex-encoded SHA of a git commit. It is the unit every
// execution-graph task and cache entry is keyed against.
type CommitHash string

// String implements fmt.Stringer so CommitHash prints as its raw hex form.
func (h CommitHash) String() string {
	return string(h)
}

// CommitInfo is everything the graph builder and collectors need about a
// single commit, independent of the worktree that happens to have it
// checked out.
type CommitInfo struct {
	Hash      CommitHash `json:"hash"`
	Summary   string     `json:"summary"`
	Author    string     `json:"author"`
	Email     string     `json:"email"`
	Time      time.Time  `json:"time"`
	ParentSHA CommitHash `json:"parent_sha,omitempty"`
}

// CommitTagInfo pairs a tag name with the commit it resolves to, after
// dereferencing annotated tags the way getAllCommitTags does.
type CommitTagInfo struct {
	Name   string     `json:"name"`
	Commit CommitHash `json:"commit"`
}

// DiffStat is the file/insertion/deletion triple produced by
// getCurrentTotalDiffStat, mirroring git2go's diff.Stats().
type DiffStat struct {
	FilesChanged uint32 `json:"files_changed"`
	Insertions   uint32 `json:"insertions"`
	Deletions    uint32 `json:"deletions"`
}
