// Package layer defines the immutable descriptors of on-disk storage
// segments that the index reasons about.
//
// A layer is identified by its key range, its LSN range, its kind and a
// short diagnostic ID. Descriptors are shared by reference across index
// structures and never change after construction; the segment behind a
// descriptor is owned by an external collaborator.
package layer

import (
	"fmt"
	"strings"

	"github.com/hupe1980/strata/model"
)

// Layer describes one immutable storage segment.
type Layer interface {
	// KeyRange is the half-open key interval the segment applies to.
	KeyRange() model.KeyRange

	// LsnRange is the half-open LSN interval the segment applies to.
	// Image layers occupy the singleton range [lsn, lsn+1).
	LsnRange() model.LsnRange

	// IsIncremental reports whether the segment is a delta layer. Delta
	// layers hold changes; image layers hold complete values and
	// terminate reconstruction.
	IsIncremental() bool

	// ShortID is an opaque human-readable identifier used only for
	// diagnostics. It also disambiguates distinct layers that happen to
	// share ranges and kind.
	ShortID() string
}

// Desc is the plain-value implementation of Layer.
type Desc struct {
	keyRange    model.KeyRange
	lsnRange    model.LsnRange
	incremental bool
	shortID     string
}

var _ Layer = (*Desc)(nil)

// NewImage constructs an image layer descriptor covering kr as of lsn.
func NewImage(kr model.KeyRange, lsn model.Lsn, shortID string) *Desc {
	return &Desc{
		keyRange: kr,
		lsnRange: model.SingleLsnRange(lsn),
		shortID:  shortID,
	}
}

// NewDelta constructs a delta layer descriptor covering kr over lr.
func NewDelta(kr model.KeyRange, lr model.LsnRange, shortID string) *Desc {
	return &Desc{
		keyRange:    kr,
		lsnRange:    lr,
		incremental: true,
		shortID:     shortID,
	}
}

// KeyRange implements Layer.
func (d *Desc) KeyRange() model.KeyRange { return d.keyRange }

// LsnRange implements Layer.
func (d *Desc) LsnRange() model.LsnRange { return d.lsnRange }

// IsIncremental implements Layer.
func (d *Desc) IsIncremental() bool { return d.incremental }

// ShortID implements Layer.
func (d *Desc) ShortID() string { return d.shortID }

// String renders the descriptor for diagnostics.
func (d *Desc) String() string {
	kind := "image"
	if d.incremental {
		kind = "delta"
	}
	return fmt.Sprintf("%s %s %s×%s", kind, d.shortID, d.keyRange, d.lsnRange)
}

// ErrConstruction indicates a malformed layer descriptor. It is a contract
// violation on the caller's side, surfaced immediately and never retried.
type ErrConstruction struct {
	ShortID string
	Reason  string
}

func (e *ErrConstruction) Error() string {
	if e.ShortID == "" {
		return fmt.Sprintf("malformed layer: %s", e.Reason)
	}
	return fmt.Sprintf("malformed layer %s: %s", e.ShortID, e.Reason)
}

// Validate checks a descriptor against the structural invariants: a
// non-empty key range, a non-empty LSN range, and for image layers a
// singleton LSN range.
func Validate(l Layer) error {
	if l.KeyRange().Empty() {
		return &ErrConstruction{ShortID: l.ShortID(), Reason: "empty key range"}
	}
	if l.LsnRange().Empty() {
		return &ErrConstruction{ShortID: l.ShortID(), Reason: "empty or inverted lsn range"}
	}
	if !l.IsIncremental() && !l.LsnRange().Singleton() {
		return &ErrConstruction{ShortID: l.ShortID(), Reason: "image layer lsn range must be a singleton"}
	}
	return nil
}

// Compare imposes a total, deterministic order on layers: by LSN range
// start, then LSN range end, then key range, then kind (images first),
// then short ID. The index relies on this order for insertion-order
// independence.
func Compare(a, b Layer) int {
	al, bl := a.LsnRange(), b.LsnRange()
	switch {
	case al.Start != bl.Start:
		if al.Start < bl.Start {
			return -1
		}
		return 1
	case al.End != bl.End:
		if al.End < bl.End {
			return -1
		}
		return 1
	}
	ak, bk := a.KeyRange(), b.KeyRange()
	if c := ak.Start.Compare(bk.Start); c != 0 {
		return c
	}
	if c := ak.End.Compare(bk.End); c != 0 {
		return c
	}
	if a.IsIncremental() != b.IsIncremental() {
		if !a.IsIncremental() {
			return -1
		}
		return 1
	}
	return strings.Compare(a.ShortID(), b.ShortID())
}

// SameIdentity reports whether two descriptors denote the same layer.
func SameIdentity(a, b Layer) bool {
	return Compare(a, b) == 0
}
