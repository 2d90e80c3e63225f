package coverage

import (
	"github.com/hupe1980/strata/model"
)

// coverageMap is a persistent boundary map over the key space. The value
// at key k is the boundary of the greatest boundary key <= k. Zero value
// is the empty map. All methods are non-destructive; insertRange returns
// a new map sharing structure with the receiver.
type coverageMap struct {
	root *node
}

// query returns the layer covering k, if any.
func (c coverageMap) query(k model.Key) (boundary, bool) {
	n := floorNode(c.root, k)
	if n == nil || n.val.layer == nil {
		return boundary{}, false
	}
	return n.val, true
}

// insertRange lays v over [kr.Start, kr.End), splitting the sub-ranges it
// straddles: interior boundaries disappear under the new layer, and the
// value previously in effect resumes at kr.End. O(log n) amortized - every
// interior boundary removed here was inserted by exactly one earlier call.
func (c coverageMap) insertRange(kr model.KeyRange, v boundary) coverageMap {
	a, rest := splitLT(c.root, kr.Start)
	mid, b := splitLT(rest, kr.End)

	// Value in effect just below kr.End, which resumes after the new layer.
	var prev boundary
	if n := maxNode(mid); n != nil {
		prev = n.val
	} else if n := maxNode(a); n != nil {
		prev = n.val
	}

	// Keep an explicit boundary at kr.End unless one is already there.
	if n := minNode(b); n == nil || n.key != kr.End {
		b = merge(newNode(kr.End, prev), b)
	}

	return coverageMap{root: merge(a, merge(newNode(kr.Start, v), b))}
}

// visitRange calls fn for each maximal sub-range of [kr.Start, kr.End)
// with a constant boundary value, in key order. ok is false for gaps.
// fn returns false to stop early.
func (c coverageMap) visitRange(kr model.KeyRange, fn func(fr model.KeyRange, b boundary, ok bool) bool) {
	if kr.Empty() {
		return
	}

	cur := kr.Start
	var curVal boundary
	if n := floorNode(c.root, kr.Start); n != nil {
		curVal = n.val
	}

	emit := func(end model.Key) bool {
		fr := model.KeyRange{Start: cur, End: end}
		if fr.Empty() {
			return true
		}
		return fn(fr, curVal, curVal.layer != nil)
	}

	done := walkRange(c.root, kr.Start, kr.End, func(n *node) bool {
		if !emit(n.key) {
			return false
		}
		cur = n.key
		curVal = n.val
		return true
	})
	if done {
		emit(kr.End)
	}
}
