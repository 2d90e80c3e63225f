package model

// Partition is one group of an externally supplied key-space partitioning.
// Its ranges are disjoint and ordered.
type Partition struct {
	Ranges []KeyRange
}

// KeyPartitioning is an ordered sequence of disjoint partitions covering a
// tenant's key space. The index treats it as an opaque grouping for
// aggregate queries; ownership and validation stay with the caller.
type KeyPartitioning struct {
	Parts []Partition
}
