// Package pkv implements the Partitioned KV Store: a set of named
// partitions sharing one transactional, log-structured keyspace
// (github.com/cockroachdb/pebble). Partitions are key-prefix
// namespaces inside the single underlying pebble.DB, each with its own
// committed-height watermark.
package pkv

import (
	"encoding/binary"
	"os"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"

	"github.com/brk-indexer/brkidx/internal/index"
	"github.com/brk-indexer/brkidx/internal/schema"
)

// Keyspace is the shared, transactional log-structured store backing
// every partition. It owns exactly one pebble.DB.
type Keyspace struct {
	db *pebble.DB
}

// Open opens (or creates) the keyspace directory. On failure to open,
// the directory is wiped and reopened exactly once before escalating,
// per the core's error-handling design for schema/keyspace corruption.
func Open(dir string) (*Keyspace, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err == nil {
		return &Keyspace{db: db}, nil
	}

	if rmErr := os.RemoveAll(dir); rmErr != nil {
		return nil, errors.Wrapf(err, "pkv: open keyspace %s failed and cleanup failed: %v", dir, rmErr)
	}
	db, err = pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "pkv: keyspace %s unopenable even after wipe", dir)
	}
	return &Keyspace{db: db}, nil
}

// Persist is the keyspace-wide persist(SyncAll) barrier: when it
// returns, every prior insert/remove in every partition sharing this
// keyspace is durable. It is a WAL fsync barrier, not a compaction —
// LogData with Sync lets pebble force a durability point without
// mutating any partition's data.
func (ks *Keyspace) Persist() error {
	if err := ks.db.LogData([]byte("sync-barrier"), pebble.Sync); err != nil {
		return errors.Wrap(err, "pkv: persist(SyncAll) barrier")
	}
	return nil
}

// Close closes the underlying pebble.DB.
func (ks *Keyspace) Close() error {
	return ks.db.Close()
}

// dataSeparator joins a partition's name to its data keys. watermarkSeparator
// joins it to the partition's watermark key instead, and is chosen strictly
// less than dataSeparator so that the watermark key always sorts before
// [prefix, prefixUpperBound(prefix)) — the range IsEmpty and ResetPartition's
// DeleteRange scan over — no matter what bytes a data key's encoded K
// contributes after the prefix. Keeping the watermark key inside that range
// (as a suffix of it, for example) would make IsEmpty see it as an entry.
const (
	dataSeparator      = ':'
	watermarkSeparator = 0x00
)

// Partition is one named, prefix-isolated namespace inside a Keyspace.
// K and V are encoded/decoded through fixed-width byte codecs, matching
// the CVS convention: no partition key or value here needs variable
// framing.
type Partition[K any, V any] struct {
	ks      *Keyspace
	name    schema.PartitionName
	prefix  []byte
	keyEnc  func(K) []byte
	keyDec  func([]byte) K
	valEnc  func(V) []byte
	valDec  func([]byte) V
	version schema.Version
}

// Open returns a handle to the named partition within ks. Partitions
// are created lazily: nothing is written until the first Insert.
func Open[K any, V any](ks *Keyspace, def schema.PartitionDef, keyEnc func(K) []byte, keyDec func([]byte) K, valEnc func(V) []byte, valDec func([]byte) V) *Partition[K, V] {
	prefix := append([]byte(def.Name), dataSeparator)
	return &Partition[K, V]{
		ks: ks, name: def.Name, prefix: prefix,
		keyEnc: keyEnc, keyDec: keyDec, valEnc: valEnc, valDec: valDec,
		version: def.Component,
	}
}

func (p *Partition[K, V]) fullKey(k K) []byte {
	enc := p.keyEnc(k)
	out := make([]byte, 0, len(p.prefix)+len(enc))
	out = append(out, p.prefix...)
	out = append(out, enc...)
	return out
}

func (p *Partition[K, V]) watermarkKey() []byte {
	out := make([]byte, 0, len(p.name)+1)
	out = append(out, p.name...)
	out = append(out, watermarkSeparator)
	return out
}

// Insert writes k->v, unsynced: durability is established later by the
// block-boundary Keyspace.Persist() barrier, per the commit protocol.
func (p *Partition[K, V]) Insert(k K, v V) error {
	if err := p.ks.db.Set(p.fullKey(k), p.valEnc(v), pebble.NoSync); err != nil {
		return errors.Wrapf(err, "pkv: insert into partition %s", p.name)
	}
	return nil
}

// Remove deletes k, if present. Removing an absent key is not an error.
func (p *Partition[K, V]) Remove(k K) error {
	if err := p.ks.db.Delete(p.fullKey(k), pebble.NoSync); err != nil {
		return errors.Wrapf(err, "pkv: remove from partition %s", p.name)
	}
	return nil
}

// Get looks up k, returning its value and true, or false on a miss.
func (p *Partition[K, V]) Get(k K) (V, bool) {
	var zero V
	val, closer, err := p.ks.db.Get(p.fullKey(k))
	if err != nil {
		return zero, false
	}
	defer closer.Close()
	out := make([]byte, len(val))
	copy(out, val)
	return p.valDec(out), true
}

// IsEmpty reports whether the partition currently has no entries.
func (p *Partition[K, V]) IsEmpty() (bool, error) {
	iter, err := p.ks.db.NewIter(&pebble.IterOptions{
		LowerBound: p.prefix,
		UpperBound: prefixUpperBound(p.prefix),
	})
	if err != nil {
		return false, errors.Wrapf(err, "pkv: is_empty partition %s", p.name)
	}
	defer iter.Close()
	return !iter.First(), nil
}

// ResetPartition atomically clears every entry in the partition
// (including its watermark), used when starting_indexes resolves to
// the very start of the partition's key space (spec §4.4.1).
func (p *Partition[K, V]) ResetPartition() error {
	if err := p.ks.db.DeleteRange(p.prefix, prefixUpperBound(p.prefix), pebble.NoSync); err != nil {
		return errors.Wrapf(err, "pkv: reset partition %s", p.name)
	}
	if err := p.ks.db.Delete(p.watermarkKey(), pebble.NoSync); err != nil {
		return errors.Wrapf(err, "pkv: reset watermark for partition %s", p.name)
	}
	return nil
}

// Commit writes the partition's pending mutations' manifest: the
// committed-height watermark. The keyspace-wide Persist() barrier that
// follows (alongside every other partition's Commit) is what actually
// seals this durably.
func (p *Partition[K, V]) Commit(height index.Height) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], height.Uint64())
	if err := p.ks.db.Set(p.watermarkKey(), buf[:], pebble.NoSync); err != nil {
		return errors.Wrapf(err, "pkv: commit partition %s", p.name)
	}
	return nil
}

// RotateMemtable forces pebble to flush its in-memory write buffer to
// an on-disk sstable, the engine-level counterpart of spec §4.2's
// rotate_memtable. It applies to the whole keyspace (pebble has no
// per-key-prefix memtable), which is safe to call per-partition since
// it is idempotent and cheap.
func (p *Partition[K, V]) RotateMemtable() error {
	if err := p.ks.db.Flush(); err != nil {
		return errors.Wrapf(err, "pkv: rotate_memtable on partition %s", p.name)
	}
	return nil
}

// CommittedHeight returns the partition's last committed height, or
// false if it has never been committed.
func (p *Partition[K, V]) CommittedHeight() (index.Height, bool) {
	val, closer, err := p.ks.db.Get(p.watermarkKey())
	if err != nil {
		return index.ZeroHeight(), false
	}
	defer closer.Close()
	return index.HeightFromUint64(binary.LittleEndian.Uint64(val)), true
}

func prefixUpperBound(prefix []byte) []byte {
	out := append([]byte(nil), prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] != 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil // prefix is all 0xff: unbounded above, never true for our name-colon prefixes
}
