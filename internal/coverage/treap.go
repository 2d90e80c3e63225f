package coverage

import (
	"math/rand/v2"

	"github.com/hupe1980/strata/layer"
	"github.com/hupe1980/strata/model"
)

// boundary is the value stored at a key boundary: the layer in effect from
// that key up to the next boundary. A nil layer marks a gap. seq is the
// layer's dense build-time number, used by difficulty counting.
type boundary struct {
	layer layer.Layer
	seq   uint32
}

// node is an immutable treap node. All operations copy on the path from
// the root; existing nodes are never mutated, so any root pointer is a
// consistent snapshot.
type node struct {
	key   model.Key
	val   boundary
	prio  uint64
	left  *node
	right *node
}

func newNode(key model.Key, val boundary) *node {
	return &node{key: key, val: val, prio: rand.Uint64()}
}

// splitLT splits t into (keys < k, keys >= k) by path copying.
func splitLT(t *node, k model.Key) (*node, *node) {
	if t == nil {
		return nil, nil
	}
	if t.key.Less(k) {
		l, r := splitLT(t.right, k)
		n := *t
		n.right = l
		return &n, r
	}
	l, r := splitLT(t.left, k)
	n := *t
	n.left = r
	return l, &n
}

// merge joins two treaps where every key of a is less than every key of b.
func merge(a, b *node) *node {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.prio >= b.prio {
		n := *a
		n.right = merge(a.right, b)
		return &n
	}
	n := *b
	n.left = merge(a, b.left)
	return &n
}

// floorNode returns the node with the greatest key <= k, or nil.
func floorNode(t *node, k model.Key) *node {
	var best *node
	for t != nil {
		if t.key.Compare(k) <= 0 {
			best = t
			t = t.right
		} else {
			t = t.left
		}
	}
	return best
}

func minNode(t *node) *node {
	if t == nil {
		return nil
	}
	for t.left != nil {
		t = t.left
	}
	return t
}

func maxNode(t *node) *node {
	if t == nil {
		return nil
	}
	for t.right != nil {
		t = t.right
	}
	return t
}

// walkRange visits nodes with keys strictly inside (lo, hi) in key order.
// The visitor returns false to stop early; walkRange reports whether the
// walk ran to completion.
func walkRange(t *node, lo, hi model.Key, fn func(*node) bool) bool {
	if t == nil {
		return true
	}
	if lo.Less(t.key) {
		if !walkRange(t.left, lo, hi, fn) {
			return false
		}
		if t.key.Less(hi) && !fn(t) {
			return false
		}
	}
	if t.key.Less(hi) {
		return walkRange(t.right, lo, hi, fn)
	}
	return true
}
