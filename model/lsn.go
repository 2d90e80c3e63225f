package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Lsn is a monotonic log sequence number, the logical time axis of the
// index. Ordering is plain numeric ordering.
type Lsn uint64

// MaxLsn is the largest representable log position. Open (still written)
// layers use it as their provisional range end.
const MaxLsn = Lsn(math.MaxUint64)

// ParseLsn parses the canonical "HI/LO" hex form, e.g. "D0/80208AE1".
func ParseLsn(s string) (Lsn, error) {
	hi, lo, ok := strings.Cut(s, "/")
	if !ok {
		return 0, fmt.Errorf("invalid lsn %q: expected HI/LO hex form", s)
	}
	h, err := strconv.ParseUint(hi, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid lsn %q: %w", s, err)
	}
	l, err := strconv.ParseUint(lo, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid lsn %q: %w", s, err)
	}
	return Lsn(h<<32 | l), nil
}

// Add advances the position by n.
func (l Lsn) Add(n uint64) Lsn {
	return l + Lsn(n)
}

// Sub measures the distance from o up to l. o must not exceed l.
func (l Lsn) Sub(o Lsn) uint64 {
	if o > l {
		panic(fmt.Sprintf("lsn underflow: %s - %s", l, o))
	}
	return uint64(l - o)
}

// String renders the position in the conventional "HI/LO" hex form.
func (l Lsn) String() string {
	return fmt.Sprintf("%X/%X", uint64(l)>>32, uint64(l)&0xFFFFFFFF)
}

// LsnRange is a half-open interval [Start, End) over log positions.
// A well-formed range always has Start < End.
type LsnRange struct {
	Start Lsn
	End   Lsn
}

// SingleLsnRange returns the singleton range [lsn, lsn+1) occupied by an
// image layer.
func SingleLsnRange(lsn Lsn) LsnRange {
	return LsnRange{Start: lsn, End: lsn + 1}
}

// Empty reports whether the range covers no positions.
func (r LsnRange) Empty() bool {
	return r.End <= r.Start
}

// Contains reports whether lsn falls inside the range.
func (r LsnRange) Contains(lsn Lsn) bool {
	return r.Start <= lsn && lsn < r.End
}

// Singleton reports whether the range covers exactly one position.
func (r LsnRange) Singleton() bool {
	return r.End == r.Start+1
}

// String renders the range as "[start, end)".
func (r LsnRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}
