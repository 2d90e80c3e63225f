package strata

import (
	"slices"

	"github.com/hupe1980/strata/layer"
	"github.com/hupe1980/strata/model"
)

// overlay holds the small set of layers not yet committed to the historic
// index: the layer currently being written and frozen layers awaiting
// flush. Expected size is single digits, so it is a plain slice searched
// linearly, newest last.
//
// Mutations replace the slice (copy-on-write); readers that grabbed the
// old slice header under the map's lock keep a consistent view.
type overlay struct {
	layers []layer.Layer
}

func (o *overlay) insert(l layer.Layer) {
	next := make([]layer.Layer, 0, len(o.layers)+1)
	next = append(next, o.layers...)
	o.layers = append(next, l)
}

func (o *overlay) remove(l layer.Layer) bool {
	i := slices.IndexFunc(o.layers, func(e layer.Layer) bool {
		return layer.SameIdentity(e, l)
	})
	if i < 0 {
		return false
	}
	next := make([]layer.Layer, 0, len(o.layers)-1)
	next = append(next, o.layers[:i]...)
	o.layers = append(next, o.layers[i+1:]...)
	return true
}

// search scans most-recent-first. Overlay layers are strictly newer than
// any historic layer over the same keys, so the first covering layer wins
// outright.
func searchOverlay(layers []layer.Layer, key model.Key, lsn model.Lsn) (layer.Layer, bool) {
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if l.KeyRange().Contains(key) && l.LsnRange().Start <= lsn {
			return l, true
		}
	}
	return nil, false
}
