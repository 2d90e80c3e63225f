package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/strata/layer"
	"github.com/hupe1980/strata/model"
)

func key(n uint32) model.Key {
	return model.MinKey.Add(n)
}

func kr(start, end uint32) model.KeyRange {
	return model.KeyRange{Start: key(start), End: key(end)}
}

func image(start, end uint32, lsn model.Lsn, id string) layer.Layer {
	return layer.NewImage(kr(start, end), lsn, id)
}

func delta(start, end uint32, lr model.LsnRange, id string) layer.Layer {
	return layer.NewDelta(kr(start, end), lr, id)
}

func TestCoverageMapInsertAndQuery(t *testing.T) {
	var c coverageMap

	_, ok := c.query(key(5))
	assert.False(t, ok)

	la := delta(10, 20, model.LsnRange{Start: 1, End: 2}, "a")
	c = c.insertRange(la.KeyRange(), boundary{layer: la, seq: 0})

	_, ok = c.query(key(9))
	assert.False(t, ok)
	b, ok := c.query(key(10))
	require.True(t, ok)
	assert.Equal(t, la, b.layer)
	b, ok = c.query(key(19))
	require.True(t, ok)
	assert.Equal(t, la, b.layer)
	_, ok = c.query(key(20))
	assert.False(t, ok)
}

func TestCoverageMapOverlayRestoresSuffix(t *testing.T) {
	var c coverageMap

	wide := delta(0, 100, model.LsnRange{Start: 1, End: 2}, "wide")
	narrow := delta(40, 60, model.LsnRange{Start: 2, End: 3}, "narrow")

	c = c.insertRange(wide.KeyRange(), boundary{layer: wide, seq: 0})
	c = c.insertRange(narrow.KeyRange(), boundary{layer: narrow, seq: 1})

	b, ok := c.query(key(10))
	require.True(t, ok)
	assert.Equal(t, wide, b.layer)

	b, ok = c.query(key(50))
	require.True(t, ok)
	assert.Equal(t, narrow, b.layer)

	// The older layer resumes past the newer one's end.
	b, ok = c.query(key(60))
	require.True(t, ok)
	assert.Equal(t, wide, b.layer)

	_, ok = c.query(key(100))
	assert.False(t, ok)
}

func TestCoverageMapPersistence(t *testing.T) {
	var c0 coverageMap

	la := delta(0, 50, model.LsnRange{Start: 1, End: 2}, "a")
	lb := delta(20, 80, model.LsnRange{Start: 2, End: 3}, "b")

	c1 := c0.insertRange(la.KeyRange(), boundary{layer: la, seq: 0})
	c2 := c1.insertRange(lb.KeyRange(), boundary{layer: lb, seq: 1})

	// Old snapshots are unaffected by later inserts.
	_, ok := c0.query(key(30))
	assert.False(t, ok)

	b, ok := c1.query(key(30))
	require.True(t, ok)
	assert.Equal(t, la, b.layer)

	b, ok = c2.query(key(30))
	require.True(t, ok)
	assert.Equal(t, lb, b.layer)
}

func TestCoverageMapVisitRange(t *testing.T) {
	var c coverageMap

	la := delta(10, 30, model.LsnRange{Start: 1, End: 2}, "a")
	lb := delta(30, 50, model.LsnRange{Start: 1, End: 2}, "b")

	c = c.insertRange(la.KeyRange(), boundary{layer: la, seq: 0})
	c = c.insertRange(lb.KeyRange(), boundary{layer: lb, seq: 1})

	type frag struct {
		fr model.KeyRange
		id string
	}
	var got []frag
	c.visitRange(kr(0, 60), func(fr model.KeyRange, b boundary, ok bool) bool {
		id := ""
		if ok {
			id = b.layer.ShortID()
		}
		got = append(got, frag{fr: fr, id: id})
		return true
	})

	want := []frag{
		{fr: kr(0, 10), id: ""},
		{fr: kr(10, 30), id: "a"},
		{fr: kr(30, 50), id: "b"},
		{fr: kr(50, 60), id: ""},
	}
	assert.Equal(t, want, got)

	// A sub-range query clips fragments to its bounds.
	got = nil
	c.visitRange(kr(20, 40), func(fr model.KeyRange, b boundary, ok bool) bool {
		id := ""
		if ok {
			id = b.layer.ShortID()
		}
		got = append(got, frag{fr: fr, id: id})
		return true
	})
	want = []frag{
		{fr: kr(20, 30), id: "a"},
		{fr: kr(30, 40), id: "b"},
	}
	assert.Equal(t, want, got)

	// Early stop.
	calls := 0
	c.visitRange(kr(0, 60), func(model.KeyRange, boundary, bool) bool {
		calls++
		return false
	})
	assert.Equal(t, 1, calls)
}
