package coverage

import (
	"fmt"
	"slices"
	"sort"

	"github.com/hupe1980/strata/layer"
	"github.com/hupe1980/strata/model"
)

// DuplicateImageError reports two distinct image layers occupying the same
// key range and LSN. The inventory is deduplicated upstream, so this is a
// corruption-class condition: the build aborts instead of silently picking
// one of the two.
type DuplicateImageError struct {
	ShortIDA string
	ShortIDB string
	KeyRange model.KeyRange
	Lsn      model.Lsn
}

func (e *DuplicateImageError) Error() string {
	return fmt.Sprintf("duplicate image layers %s and %s over %s at %s",
		e.ShortIDA, e.ShortIDB, e.KeyRange, e.Lsn)
}

// CorruptIndexError reports an internally inconsistent compiled index,
// e.g. a delta stack deeper than the number of compiled layers.
type CorruptIndexError struct {
	Reason string
}

func (e *CorruptIndexError) Error() string {
	return fmt.Sprintf("corrupt coverage index: %s", e.Reason)
}

// version is the coverage of the key space as of one distinct layer start
// LSN: the image and delta maps include every layer whose LsnRange.Start
// is at or below it.
type version struct {
	lsn   model.Lsn
	image coverageMap
	delta coverageMap
}

// Index is the compiled historic coverage index. Immutable after Build
// and safe for concurrent readers.
type Index struct {
	versions []version
	count    int
}

// Build compiles an index from the full set of historic layers. The input
// slice is reordered in place. Layers are replayed in a total,
// deterministic order, so any insertion order of the same set compiles to
// an identical index.
func Build(layers []layer.Layer) (*Index, error) {
	slices.SortFunc(layers, layer.Compare)

	// Identical-range images sort adjacently, which makes the invariant
	// check a single pass.
	for i := 1; i < len(layers); i++ {
		a, b := layers[i-1], layers[i]
		if a.IsIncremental() || b.IsIncremental() {
			continue
		}
		if a.KeyRange() == b.KeyRange() && a.LsnRange() == b.LsnRange() && a.ShortID() != b.ShortID() {
			return nil, &DuplicateImageError{
				ShortIDA: a.ShortID(),
				ShortIDB: b.ShortID(),
				KeyRange: a.KeyRange(),
				Lsn:      a.LsnRange().Start,
			}
		}
	}

	ix := &Index{count: len(layers)}
	var img, del coverageMap
	var seq uint32
	for i := 0; i < len(layers); {
		start := layers[i].LsnRange().Start
		for ; i < len(layers) && layers[i].LsnRange().Start == start; i++ {
			l := layers[i]
			b := boundary{layer: l, seq: seq}
			seq++
			if l.IsIncremental() {
				del = del.insertRange(l.KeyRange(), b)
			} else {
				img = img.insertRange(l.KeyRange(), b)
			}
		}
		ix.versions = append(ix.versions, version{lsn: start, image: img, delta: del})
	}
	return ix, nil
}

// Len returns the number of compiled layers.
func (ix *Index) Len() int {
	return ix.count
}

// Empty reports whether the index contains no layers.
func (ix *Index) Empty() bool {
	return len(ix.versions) == 0
}

// versionAt returns the coverage snapshot for the greatest version LSN at
// or below lsn.
func (ix *Index) versionAt(lsn model.Lsn) (version, bool) {
	i := sort.Search(len(ix.versions), func(i int) bool {
		return ix.versions[i].lsn > lsn
	})
	if i == 0 {
		return version{}, false
	}
	return ix.versions[i-1], true
}

// Query returns the best image and delta candidates for a point query:
// among layers whose key range contains key, the image and the delta with
// the greatest LsnRange.Start <= lsn. Either or both may be nil.
func (ix *Index) Query(key model.Key, lsn model.Lsn) (img, del layer.Layer) {
	v, ok := ix.versionAt(lsn)
	if !ok {
		return nil, nil
	}
	if b, ok := v.image.query(key); ok {
		img = b.layer
	}
	if b, ok := v.delta.query(key); ok {
		del = b.layer
	}
	return img, del
}
