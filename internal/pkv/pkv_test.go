package pkv

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brk-indexer/brkidx/internal/index"
	"github.com/brk-indexer/brkidx/internal/schema"
)

func u64Enc(v uint64) []byte { b := make([]byte, 8); binary.LittleEndian.PutUint64(b, v); return b }
func u64Dec(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

func openTestKeyspace(t *testing.T) *Keyspace {
	t.Helper()
	ks, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { ks.Close() })
	return ks
}

func openTestPartition(t *testing.T, ks *Keyspace, name schema.PartitionName) *Partition[uint64, uint64] {
	t.Helper()
	def := schema.PartitionDef{Name: name, KeySize: 8, ValueSize: 8, Component: 1}
	return Open[uint64, uint64](ks, def, u64Enc, u64Dec, u64Enc, u64Dec)
}

func TestInsertGetRemove(t *testing.T) {
	ks := openTestKeyspace(t)
	p := openTestPartition(t, ks, "p1")

	require.NoError(t, p.Insert(1, 100))
	v, ok := p.Get(1)
	require.True(t, ok)
	require.Equal(t, uint64(100), v)

	require.NoError(t, p.Remove(1))
	_, ok = p.Get(1)
	require.False(t, ok)
}

func TestGetMissReportsFalse(t *testing.T) {
	ks := openTestKeyspace(t)
	p := openTestPartition(t, ks, "p1")
	_, ok := p.Get(42)
	require.False(t, ok)
}

func TestRemoveAbsentKeyIsNotAnError(t *testing.T) {
	ks := openTestKeyspace(t)
	p := openTestPartition(t, ks, "p1")
	require.NoError(t, p.Remove(7))
}

func TestIsEmpty(t *testing.T) {
	ks := openTestKeyspace(t)
	p := openTestPartition(t, ks, "p1")

	empty, err := p.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, p.Insert(1, 1))
	empty, err = p.IsEmpty()
	require.NoError(t, err)
	require.False(t, empty)
}

func TestIsEmptyIgnoresTheWatermarkKey(t *testing.T) {
	ks := openTestKeyspace(t)
	p := openTestPartition(t, ks, "p1")

	// Committing a partition that has never had an Insert writes only
	// its watermark; IsEmpty must not mistake that watermark for data.
	require.NoError(t, p.Commit(index.HeightFromUint64(3)))
	empty, err := p.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, p.Insert(1, 1))
	empty, err = p.IsEmpty()
	require.NoError(t, err)
	require.False(t, empty)
}

func TestResetPartitionClearsEntriesAndWatermark(t *testing.T) {
	ks := openTestKeyspace(t)
	p := openTestPartition(t, ks, "p1")

	require.NoError(t, p.Insert(1, 1))
	require.NoError(t, p.Insert(2, 2))
	require.NoError(t, p.Commit(index.HeightFromUint64(5)))

	require.NoError(t, p.ResetPartition())

	empty, err := p.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)
	_, ok := p.CommittedHeight()
	require.False(t, ok)
}

func TestCommitAndCommittedHeight(t *testing.T) {
	ks := openTestKeyspace(t)
	p := openTestPartition(t, ks, "p1")

	_, ok := p.CommittedHeight()
	require.False(t, ok)

	require.NoError(t, p.Commit(index.HeightFromUint64(3)))
	h, ok := p.CommittedHeight()
	require.True(t, ok)
	require.Equal(t, index.HeightFromUint64(3), h)
}

func TestPartitionsDoNotLeakAcrossPrefixes(t *testing.T) {
	ks := openTestKeyspace(t)
	a := openTestPartition(t, ks, "partition-a")
	b := openTestPartition(t, ks, "partition-b")

	require.NoError(t, a.Insert(1, 111))
	_, ok := b.Get(1)
	require.False(t, ok, "partition b must not see partition a's keys")

	emptyB, err := b.IsEmpty()
	require.NoError(t, err)
	require.True(t, emptyB)
}

func TestPersistBarrierSucceeds(t *testing.T) {
	ks := openTestKeyspace(t)
	p := openTestPartition(t, ks, "p1")
	require.NoError(t, p.Insert(1, 1))
	require.NoError(t, p.Commit(index.HeightFromUint64(1)))
	require.NoError(t, ks.Persist())
}

func TestRotateMemtable(t *testing.T) {
	ks := openTestKeyspace(t)
	p := openTestPartition(t, ks, "p1")
	require.NoError(t, p.Insert(1, 1))
	require.NoError(t, p.RotateMemtable())
	v, ok := p.Get(1)
	require.True(t, ok)
	require.Equal(t, uint64(1), v)
}
