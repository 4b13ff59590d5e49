package gitrepo

import git2go "github.com/libgit2/git2go/v34"

// Stage names one phase of a clone/fetch's transfer progress, matching the
// stages original_source's line-oriented CloneProgress enum names
// (EnumeratingObjects/CountingObjects/CompressingObjects/ReceivingObjects/
// ResolvingDeltas) — compressing/enumerating/counting aren't distinguishable
// from git2go's TransferProgress callback (libgit2 only reports the
// receiving-objects and resolving-deltas phases through it), so those three
// collapse to StageReceiving until the object count starts moving.
type Stage int

const (
	StageReceiving Stage = iota
	StageResolvingDeltas
)

func (s Stage) String() string {
	switch s {
	case StageReceiving:
		return "receiving objects"
	case StageResolvingDeltas:
		return "resolving deltas"
	default:
		return "unknown"
	}
}

// CloneProgress is one progress snapshot during a clone or fetch, for the
// CLI front-end to render (SPEC_FULL.md's "External collaborator
// contracts": this module only produces the events, an outer progress
// renderer consumes them).
type CloneProgress struct {
	Stage    Stage
	Finished int
	Total    int
}

func progressFromTransfer(stats git2go.TransferProgress) CloneProgress {
	if stats.TotalDeltas > 0 {
		return CloneProgress{Stage: StageResolvingDeltas, Finished: stats.IndexedDeltas, Total: stats.TotalDeltas}
	}

	return CloneProgress{Stage: StageReceiving, Finished: stats.ReceivedObjects, Total: stats.TotalObjects}
}
