// Package model defines the core value types used throughout strata.
//
// # Identity Types
//
//   - Key: fixed-width (18 byte), byte-lexicographically ordered identifier
//     of one versioned unit of data (e.g. one page)
//   - Lsn: 64-bit monotonic log sequence number ("logical time")
//
// # Range Types
//
//   - KeyRange: half-open interval [Start, End) over Key
//   - LsnRange: half-open interval [Start, End) over Lsn
//   - KeyPartitioning: externally supplied grouping of the key space used
//     by aggregate (difficulty) queries
//
// All types are pure values with no mutable state. Keys render as 36-digit
// hex strings; LSNs render in the conventional HI/LO hex form (e.g.
// "D0/80208AE1").
package model
