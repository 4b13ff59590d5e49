package evaluator

import "errors"

// ErrNoGraph is returned by New when Options.Graph is nil.
var ErrNoGraph = errors.New("no execution graph provided")

// ErrNoStore is returned by New when Options.Store is nil.
var ErrNoStore = errors.New("no value store provided")

// ErrNoPool is returned when a Base collector task runs without a worktree
// pool configured.
var ErrNoPool = errors.New("no worktree pool configured")
