package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLsnParseAndFormat(t *testing.T) {
	l, err := ParseLsn("D0/80208AE1")
	require.NoError(t, err)
	assert.Equal(t, Lsn(0xD0_80208AE1), l)
	assert.Equal(t, "D0/80208AE1", l.String())

	l, err = ParseLsn("0/16B5A50")
	require.NoError(t, err)
	assert.Equal(t, Lsn(0x16B5A50), l)
	assert.Equal(t, "0/16B5A50", l.String())

	_, err = ParseLsn("16B5A50")
	assert.Error(t, err)

	_, err = ParseLsn("zz/16B5A50")
	assert.Error(t, err)
}

func TestLsnArithmetic(t *testing.T) {
	l := Lsn(100)

	assert.Equal(t, Lsn(150), l.Add(50))
	assert.Equal(t, uint64(60), l.Sub(40))
	assert.Equal(t, uint64(0), l.Sub(100))

	assert.Panics(t, func() {
		_ = l.Sub(101)
	})
}

func TestLsnRange(t *testing.T) {
	r := LsnRange{Start: 100, End: 200}

	assert.False(t, r.Empty())
	assert.False(t, r.Singleton())
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(199))
	assert.False(t, r.Contains(200))
	assert.False(t, r.Contains(99))

	assert.True(t, LsnRange{Start: 5, End: 5}.Empty())
	assert.True(t, LsnRange{Start: 7, End: 3}.Empty())

	single := SingleLsnRange(100)
	assert.Equal(t, LsnRange{Start: 100, End: 101}, single)
	assert.True(t, single.Singleton())
}
