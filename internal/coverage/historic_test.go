package coverage

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/strata/layer"
	"github.com/hupe1980/strata/model"
)

func TestBuildEmpty(t *testing.T) {
	ix, err := Build(nil)
	require.NoError(t, err)
	assert.True(t, ix.Empty())
	assert.Equal(t, 0, ix.Len())

	img, del := ix.Query(key(0), 100)
	assert.Nil(t, img)
	assert.Nil(t, del)
}

func TestQueryPicksLatestStart(t *testing.T) {
	d1 := delta(0, 100, model.LsnRange{Start: 10, End: 20}, "d1")
	d2 := delta(0, 100, model.LsnRange{Start: 20, End: 30}, "d2")
	i1 := image(0, 100, 15, "i1")

	ix, err := Build([]layer.Layer{d1, d2, i1})
	require.NoError(t, err)

	img, del := ix.Query(key(50), 25)
	assert.Equal(t, i1, img)
	assert.Equal(t, d2, del)

	img, del = ix.Query(key(50), 15)
	assert.Equal(t, i1, img)
	assert.Equal(t, d1, del)

	img, del = ix.Query(key(50), 12)
	assert.Nil(t, img)
	assert.Equal(t, d1, del)

	// Before any layer starts there is nothing.
	img, del = ix.Query(key(50), 9)
	assert.Nil(t, img)
	assert.Nil(t, del)

	// Outside every key range there is nothing either.
	img, del = ix.Query(key(100), 25)
	assert.Nil(t, img)
	assert.Nil(t, del)
}

func TestQueryKeyBoundaries(t *testing.T) {
	d := delta(10, 20, model.LsnRange{Start: 10, End: 20}, "d")
	ix, err := Build([]layer.Layer{d})
	require.NoError(t, err)

	img, del := ix.Query(key(10), 15)
	assert.Nil(t, img)
	assert.Equal(t, d, del)

	// Half-open: the end key belongs to the next sub-range.
	_, del = ix.Query(key(20), 15)
	assert.Nil(t, del)
}

func TestBuildOrderIndependence(t *testing.T) {
	layers := []layer.Layer{
		image(0, 100, 100, "i1"),
		delta(50, 150, model.LsnRange{Start: 100, End: 200}, "d1"),
		delta(0, 60, model.LsnRange{Start: 150, End: 250}, "d2"),
		image(0, 200, 300, "i2"),
		delta(120, 180, model.LsnRange{Start: 100, End: 160}, "d3"),
	}

	type probe struct {
		k   model.Key
		lsn model.Lsn
	}
	var probes []probe
	for k := uint32(0); k < 210; k += 7 {
		for _, lsn := range []model.Lsn{50, 100, 150, 200, 250, 300, 400} {
			probes = append(probes, probe{k: key(k), lsn: lsn})
		}
	}

	reference, err := Build(append([]layer.Layer(nil), layers...))
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(42, 0))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]layer.Layer(nil), layers...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		ix, err := Build(shuffled)
		require.NoError(t, err)

		for _, p := range probes {
			wantImg, wantDel := reference.Query(p.k, p.lsn)
			gotImg, gotDel := ix.Query(p.k, p.lsn)
			assert.Equal(t, wantImg, gotImg, "image at %s %s", p.k, p.lsn)
			assert.Equal(t, wantDel, gotDel, "delta at %s %s", p.k, p.lsn)
		}
	}
}

func TestBuildDetectsDuplicateImages(t *testing.T) {
	a := image(0, 100, 100, "a")
	b := image(0, 100, 100, "b")

	_, err := Build([]layer.Layer{a, b})
	require.Error(t, err)
	var dup *DuplicateImageError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.ShortIDA)
	assert.Equal(t, "b", dup.ShortIDB)

	// Re-inserting the same identity twice is not a violation.
	_, err = Build([]layer.Layer{a, image(0, 100, 100, "a")})
	require.NoError(t, err)
}

func TestQuerySameStartPrefersWiderDelta(t *testing.T) {
	// Two deltas with the same start over the same keys: the one with the
	// greater end is on top, deterministically.
	short := delta(0, 100, model.LsnRange{Start: 10, End: 20}, "short")
	long := delta(0, 100, model.LsnRange{Start: 10, End: 50}, "long")

	for _, in := range [][]layer.Layer{{short, long}, {long, short}} {
		ix, err := Build(append([]layer.Layer(nil), in...))
		require.NoError(t, err)
		_, del := ix.Query(key(5), 30)
		assert.Equal(t, "long", del.ShortID())
	}
}
