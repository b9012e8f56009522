package index

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdxZeroAndFromUint64(t *testing.T) {
	require.True(t, ZeroHeight().IsZero())
	require.False(t, HeightFromUint64(1).IsZero())
	require.Equal(t, uint64(42), HeightFromUint64(42).Uint64())
}

func TestIdxIncrementAndAdd(t *testing.T) {
	h := ZeroHeight()
	h = h.Increment()
	require.Equal(t, uint64(1), h.Uint64())
	require.Equal(t, uint64(6), h.Add(5).Uint64())
}

func TestIdxDecrement(t *testing.T) {
	h := HeightFromUint64(1)
	prev, ok := h.Decrement()
	require.True(t, ok)
	require.True(t, prev.IsZero())

	_, ok = ZeroHeight().Decrement()
	require.False(t, ok, "decrementing the zero sentinel must report underflow")
}

func TestIdxCheckedSub(t *testing.T) {
	a := HeightFromUint64(10)
	b := HeightFromUint64(4)
	diff, ok := a.CheckedSub(b)
	require.True(t, ok)
	require.Equal(t, uint64(6), diff.Uint64())

	_, ok = b.CheckedSub(a)
	require.False(t, ok)
}

func TestIdxLess(t *testing.T) {
	require.True(t, HeightFromUint64(1).Less(HeightFromUint64(2)))
	require.False(t, HeightFromUint64(2).Less(HeightFromUint64(2)))
}

func TestIdxBytesRoundTrip(t *testing.T) {
	h := HeightFromUint64(0xdeadbeef)
	b := h.Bytes()
	require.Equal(t, h, HeightFromBytes(b[:]))
}

func TestDistinctTagsDoNotAffectEachOther(t *testing.T) {
	// TxIndex and InputIndex are both Idx[...] with a distinct tag; the
	// compiler already rejects mixing them, this just pins the runtime
	// representation stays independent.
	tx := TxIndexFromUint64(5)
	in := InputIndexFromUint64(5)
	require.Equal(t, tx.Uint64(), in.Uint64())
}

func TestOutputIndexMaxIsCoinbaseSentinel(t *testing.T) {
	require.Equal(t, ^uint64(0), OutputIndexMax.Uint64())
}
