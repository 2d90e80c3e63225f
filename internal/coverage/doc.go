// Package coverage implements the historic coverage index: a compiled,
// immutable snapshot of all historic layers that answers point queries
// (which layer covers a key at an LSN) in O(log n) and supports
// reconstruction-difficulty estimation.
//
// # Representation
//
// The key space is kept as a partition into disjoint sub-ranges. A
// sub-range boundary map is a persistent (path-copying) treap from key to
// the topmost layer starting at or below some LSN; a nil entry marks a
// gap. Because the treap is persistent, taking a snapshot is a root
// pointer copy.
//
// Build replays layers in ascending LsnRange.Start order into two such
// maps (one for image layers, one for deltas) and records a snapshot pair
// per distinct start LSN. A point query binary-searches the snapshots by
// LSN and then does two O(log n) floor lookups. Rebuild cost is
// O(n log n); every intermediate snapshot shares structure with its
// predecessor.
//
// The package is pure CPU work over in-memory descriptors: no I/O, no
// locks, no context. An Index is immutable after Build and safe for
// concurrent readers.
package coverage
