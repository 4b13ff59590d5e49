package collector

import "errors"

// ErrDependencyNotInGraph marks the graph-lookup-error class of spec.md §7:
// a required dependency edge is absent entirely. This is a programmer error
// (the graph builder failed to wire a dependency the collector assumes
// exists), distinct from a dependency value simply not having been computed
// yet, which collectors treat as a normal "no predecessor" case rather than
// an error.
var ErrDependencyNotInGraph = errors.New("collector: required dependency edge missing from execution graph")

// ErrUnknownCollectorKind is returned by Factory for a CollectorKey whose
// Kind has no registered implementation.
var ErrUnknownCollectorKind = errors.New("collector: unknown collector kind")

// ErrValueOverflow marks a collector result that could not be represented
// in its target integer width (the original's TryFromIntError cases, e.g.
// summing per-language line counts into a uint32 total).
var ErrValueOverflow = errors.New("collector: integer value overflow")
