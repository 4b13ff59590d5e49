package statemachine

import "errors"

// ErrNoMetrics is returned by Initial.Initialize when no metrics were
// configured. Grounded on original_source's CollectionProcessError::NoMetrics.
var ErrNoMetrics = errors.New("statemachine: no metrics configured")

// ErrNoCommits is returned when the repository's history walk (or the
// latest-commit lookup derived from it) turns up nothing. Grounded on
// CollectionProcessError::NoCommits.
var ErrNoCommits = errors.New("statemachine: no commits found")

// ErrMismatchedRepositoryURL is returned by Initial.Initialize when the
// already-checked-out repository's origin doesn't match the configured
// reference and the caller hasn't opted to ignore the mismatch. Grounded on
// CollectionProcessError::MismatchedRepositoryUrl.
var ErrMismatchedRepositoryURL = errors.New("statemachine: repository url does not match configured reference")
