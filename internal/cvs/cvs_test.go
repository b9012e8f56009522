package cvs

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brk-indexer/brkidx/internal/index"
	"github.com/brk-indexer/brkidx/internal/schema"
)

var u64Codec = Codec[uint64]{
	Size:   8,
	Encode: func(v uint64, buf []byte) { binary.LittleEndian.PutUint64(buf, v) },
	Decode: func(buf []byte) uint64 { return binary.LittleEndian.Uint64(buf) },
}

func openTestColumn(t *testing.T, dir string, version schema.Version) *Column[index.Height, uint64] {
	t.Helper()
	col, err := ForcedImport(dir, schema.ColumnName("test_column"), version, u64Codec, index.HeightFromUint64)
	require.NoError(t, err)
	return col
}

func TestPushGetAndLen(t *testing.T) {
	dir := t.TempDir()
	col := openTestColumn(t, dir, 1)
	defer col.Close()

	require.Zero(t, col.Len())
	require.NoError(t, col.PushIfNeeded(index.ZeroHeight(), 100))
	require.NoError(t, col.PushIfNeeded(index.HeightFromUint64(1), 200))
	require.Equal(t, uint64(2), col.Len())

	v, ok := col.Get(index.ZeroHeight())
	require.True(t, ok)
	require.Equal(t, uint64(100), v)

	v, ok = col.Get(index.HeightFromUint64(1))
	require.True(t, ok)
	require.Equal(t, uint64(200), v)

	_, ok = col.Get(index.HeightFromUint64(2))
	require.False(t, ok)
}

func TestPushIfNeededIsIdempotentBelowLength(t *testing.T) {
	dir := t.TempDir()
	col := openTestColumn(t, dir, 1)
	defer col.Close()

	require.NoError(t, col.PushIfNeeded(index.ZeroHeight(), 1))
	// Re-pushing the same position, as happens after a crash before a
	// flush observed it, must not change the stored value or length.
	require.NoError(t, col.PushIfNeeded(index.ZeroHeight(), 999))
	require.Equal(t, uint64(1), col.Len())
	v, ok := col.Get(index.ZeroHeight())
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
}

func TestPushIfNeededRejectsGap(t *testing.T) {
	dir := t.TempDir()
	col := openTestColumn(t, dir, 1)
	defer col.Close()

	err := col.PushIfNeeded(index.HeightFromUint64(5), 1)
	require.ErrorIs(t, err, ErrGap)
}

func TestIterAtWalksForward(t *testing.T) {
	dir := t.TempDir()
	col := openTestColumn(t, dir, 1)
	defer col.Close()

	for i := uint64(0); i < 5; i++ {
		require.NoError(t, col.PushIfNeeded(index.HeightFromUint64(i), i*10))
	}

	var got []uint64
	err := col.IterAt(index.HeightFromUint64(2), func(k index.Height, v uint64) error {
		got = append(got, v)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{20, 30, 40}, got)
}

func TestTruncateIfNeededShrinksAndRecordsHeight(t *testing.T) {
	dir := t.TempDir()
	col := openTestColumn(t, dir, 1)
	defer col.Close()

	for i := uint64(0); i < 5; i++ {
		require.NoError(t, col.PushIfNeeded(index.HeightFromUint64(i), i))
	}
	require.NoError(t, col.TruncateIfNeeded(index.HeightFromUint64(2), index.HeightFromUint64(1)))
	require.Equal(t, uint64(2), col.Len())
	_, ok := col.Get(index.HeightFromUint64(2))
	require.False(t, ok)

	h, ok := col.Height()
	require.True(t, ok)
	require.Equal(t, index.HeightFromUint64(1), h)
}

func TestTruncateIfNeededNoOpStillRecordsHeight(t *testing.T) {
	dir := t.TempDir()
	col := openTestColumn(t, dir, 1)
	defer col.Close()

	require.NoError(t, col.PushIfNeeded(index.ZeroHeight(), 7))
	// Column length (1) is already <= truncate point (5): no shrink, but
	// the watermark still needs to move or siblings would disagree.
	require.NoError(t, col.TruncateIfNeeded(index.HeightFromUint64(5), index.HeightFromUint64(3)))
	require.Equal(t, uint64(1), col.Len())
	h, ok := col.Height()
	require.True(t, ok)
	require.Equal(t, index.HeightFromUint64(3), h)
}

func TestFlushRecordsHeight(t *testing.T) {
	dir := t.TempDir()
	col := openTestColumn(t, dir, 1)
	defer col.Close()

	_, ok := col.Height()
	require.False(t, ok, "a never-flushed column reports no height")

	require.NoError(t, col.PushIfNeeded(index.ZeroHeight(), 1))
	require.NoError(t, col.Flush(index.ZeroHeight()))
	h, ok := col.Height()
	require.True(t, ok)
	require.True(t, h.IsZero())
}

func TestReopenPreservesData(t *testing.T) {
	dir := t.TempDir()
	col := openTestColumn(t, dir, 1)
	require.NoError(t, col.PushIfNeeded(index.ZeroHeight(), 42))
	require.NoError(t, col.Flush(index.ZeroHeight()))
	require.NoError(t, col.Close())

	reopened := openTestColumn(t, dir, 1)
	defer reopened.Close()
	require.Equal(t, uint64(1), reopened.Len())
	v, ok := reopened.Get(index.ZeroHeight())
	require.True(t, ok)
	require.Equal(t, uint64(42), v)
	h, ok := reopened.Height()
	require.True(t, ok)
	require.True(t, h.IsZero())
}

func TestVersionMismatchForcesReimport(t *testing.T) {
	dir := t.TempDir()
	col := openTestColumn(t, dir, 1)
	require.NoError(t, col.PushIfNeeded(index.ZeroHeight(), 42))
	require.NoError(t, col.Flush(index.ZeroHeight()))
	require.NoError(t, col.Close())

	// A different schema version must not see the old data: the file is
	// deleted and recreated empty rather than interpreted under a
	// mismatched layout.
	reopened := openTestColumn(t, dir, 2)
	defer reopened.Close()
	require.Zero(t, reopened.Len())
	_, ok := reopened.Height()
	require.False(t, ok)
}
