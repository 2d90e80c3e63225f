package coverage

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/strata/model"
)

// DistinctDeltas estimates reconstruction cost over a set of key ranges at
// lsn: the number of distinct delta layers a backward walk from lsn may
// traverse before reaching an image layer (or the bottom of the history).
//
// A delta counts when its key range overlaps the queried ranges, it
// started at or below lsn, and it extends past the newest image covering
// the overlapped keys. One wide delta fragments across many sub-ranges and
// stack levels, so visited layers are deduplicated by their build sequence
// number in a roaring bitmap.
func (ix *Index) DistinctDeltas(ranges []model.KeyRange, lsn model.Lsn) (int, error) {
	if ix.Empty() {
		return 0, nil
	}
	v, ok := ix.versionAt(lsn)
	if !ok {
		return 0, nil
	}

	acc := roaring.New()
	for _, kr := range ranges {
		if kr.Empty() {
			continue
		}
		var visitErr error
		// Fragment by image coverage first: each fragment has one floor,
		// the LSN of its newest image (zero when uncovered).
		v.image.visitRange(kr, func(fr model.KeyRange, b boundary, ok bool) bool {
			var floor model.Lsn
			if ok {
				floor = b.layer.LsnRange().Start
			}
			if err := ix.collectStacked(fr, lsn, floor, acc, ix.count); err != nil {
				visitErr = err
				return false
			}
			return true
		})
		if visitErr != nil {
			return 0, visitErr
		}
	}
	return int(acc.GetCardinality()), nil
}

// collectStacked walks the delta stack over kr downward from lsn, adding
// every delta that reaches above floor, and recursing below each one. The
// walk descends strictly in LSN, so its depth is bounded by the number of
// compiled layers; exhausting the budget means the index is inconsistent.
func (ix *Index) collectStacked(kr model.KeyRange, lsn, floor model.Lsn, acc *roaring.Bitmap, budget int) error {
	if budget < 0 {
		return &CorruptIndexError{Reason: "delta stack deeper than the layer count"}
	}
	v, ok := ix.versionAt(lsn)
	if !ok {
		return nil
	}
	var walkErr error
	v.delta.visitRange(kr, func(fr model.KeyRange, b boundary, ok bool) bool {
		if !ok {
			return true
		}
		d := b.layer
		if d.LsnRange().End <= floor {
			// Entirely at or below the image; reconstruction never reads it.
			return true
		}
		acc.Add(b.seq)
		if start := d.LsnRange().Start; start > 0 {
			if err := ix.collectStacked(fr, start-1, floor, acc, budget-1); err != nil {
				walkErr = err
				return false
			}
		}
		return true
	})
	return walkErr
}
