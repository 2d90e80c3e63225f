package model

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// KeyLen is the width of a Key in bytes.
const KeyLen = 18

// Key is a fixed-width identifier of one versioned unit of data.
// Ordering is byte-lexicographic, which matches the numeric order of the
// key interpreted as a big-endian unsigned integer.
type Key [KeyLen]byte

var (
	// MinKey is the smallest possible key.
	MinKey = Key{}

	// MaxKey is the largest possible key.
	MaxKey = Key{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}
)

// KeyFromHex parses the canonical 36-digit hex form of a key.
func KeyFromHex(s string) (Key, error) {
	var k Key
	if len(s) != 2*KeyLen {
		return k, fmt.Errorf("invalid key %q: expected %d hex digits, got %d", s, 2*KeyLen, len(s))
	}
	if _, err := hex.Decode(k[:], []byte(s)); err != nil {
		return k, fmt.Errorf("invalid key %q: %w", s, err)
	}
	return k, nil
}

// Compare returns -1, 0 or 1 if k is less than, equal to or greater than o.
func (k Key) Compare(o Key) int {
	return bytes.Compare(k[:], o[:])
}

// Less reports whether k orders before o.
func (k Key) Less(o Key) bool {
	return bytes.Compare(k[:], o[:]) < 0
}

// Next returns the successor key. The successor of MaxKey is undefined
// input for this subsystem; callers never materialize it.
func (k Key) Next() Key {
	return k.Add(1)
}

// Add advances the key by n positions, treating the key as a big-endian
// unsigned integer.
func (k Key) Add(n uint32) Key {
	carry := uint64(n)
	for i := KeyLen - 1; i >= 0 && carry > 0; i-- {
		sum := uint64(k[i]) + (carry & 0xFF)
		k[i] = byte(sum)
		carry = (carry >> 8) + (sum >> 8)
	}
	return k
}

// String returns the canonical 36-digit uppercase hex form.
func (k Key) String() string {
	return fmt.Sprintf("%036X", k[:])
}

// KeyRange is a half-open interval [Start, End) over keys. A well-formed
// range is never empty.
type KeyRange struct {
	Start Key
	End   Key
}

// SingleKeyRange returns the range containing exactly k.
func SingleKeyRange(k Key) KeyRange {
	return KeyRange{Start: k, End: k.Next()}
}

// Empty reports whether the range contains no keys.
func (r KeyRange) Empty() bool {
	return r.End.Compare(r.Start) <= 0
}

// Contains reports whether k falls inside the range.
func (r KeyRange) Contains(k Key) bool {
	return r.Start.Compare(k) <= 0 && k.Less(r.End)
}

// Overlaps reports whether the two ranges share at least one key.
func (r KeyRange) Overlaps(o KeyRange) bool {
	return r.Start.Less(o.End) && o.Start.Less(r.End)
}

// String renders the range as "[start, end)".
func (r KeyRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}
