// Package cvs implements the Columnar Vec Store: an append-only,
// fixed-stride, memory-mappable vector per column, keyed by one dense
// index space. See Column for the operations.
package cvs

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/brk-indexer/brkidx/internal/index"
	"github.com/brk-indexer/brkidx/internal/schema"
)

// ErrGap is returned by PushIfNeeded when asked to write past the
// current length: a programmer error in the caller's ingestion order,
// not a recoverable condition.
var ErrGap = errors.New("cvs: push at position beyond column length")

const headerMagic = "brkcvs01"
const headerSize = len(headerMagic) + 8 + 8 // magic + version + height

// Key is the contract a column's key type must satisfy. Every exported
// alias in package index (index.Height, index.TxIndex, ...) already
// implements this directly — Column is generic over the key type
// itself (K), never over index's private per-space marker, so callers
// outside package index (which cannot name that marker) can still
// instantiate Column[index.Height, V] and friends.
type Key interface {
	Uint64() uint64
	IsZero() bool
	Bytes() [index.Size]byte
}

// Column is one fixed-stride, append-only file keyed by a dense index
// type K. Value is encoded/decoded through Codec so the on-disk bytes
// are a plain fixed-width record with no framing.
type Column[K Key, V any] struct {
	mu         sync.RWMutex
	dir        string
	name       schema.ColumnName
	codec      Codec[V]
	version    schema.Version
	fromUint64 func(uint64) K

	f      *os.File
	mm     mmap.MMap
	length uint64 // number of records currently present
	height index.Height
	hasHt  bool
}

// Codec describes how to turn a value into/out of its fixed-width,
// layout-stable on-disk representation. Size must be constant for every
// value of V: CVS columns have no per-record framing.
type Codec[V any] struct {
	Size   int
	Encode func(v V, buf []byte)
	Decode func(buf []byte) V
}

// ForcedImport opens dir/name, validating the stored header's version
// against want. On mismatch (or on any structural corruption) the file
// is deleted and recreated empty — "forced_import" is the name on
// purpose: reindexing from the upstream block source is assumed cheaper
// than an in-place migration. fromUint64 constructs a K from its raw
// ordinal, needed by IterAt to produce typed keys during a scan.
func ForcedImport[K Key, V any](dir string, name schema.ColumnName, want schema.Version, codec Codec[V], fromUint64 func(uint64) K) (*Column[K, V], error) {
	c := &Column[K, V]{dir: dir, name: name, codec: codec, version: want, fromUint64: fromUint64}
	path := c.path()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "cvs: create column directory %s", dir)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "cvs: open column %s", name)
	}

	ok, err := c.readHeaderLocked(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "cvs: read header for column %s", name)
	}
	if !ok {
		f.Close()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "cvs: remove stale column %s", name)
		}
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
		if err != nil {
			return nil, errors.Wrapf(err, "cvs: recreate column %s", name)
		}
		if err := c.writeHeaderLocked(f, 0, index.ZeroHeight()); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "cvs: write header for column %s", name)
		}
		c.hasHt = false // freshly created: never flushed
	}
	c.f = f

	if err := c.remapLocked(); err != nil {
		return nil, errors.Wrapf(err, "cvs: mmap column %s", name)
	}
	return c, nil
}

func (c *Column[K, V]) path() string { return filepath.Join(c.dir, string(c.name)) }

// readHeaderLocked reports whether the file has a valid header whose
// version matches c.version. It also populates c.length/c.height from
// the stored header when valid.
func (c *Column[K, V]) readHeaderLocked(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() < int64(headerSize) {
		return false, nil
	}
	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return false, err
	}
	if string(buf[:len(headerMagic)]) != headerMagic {
		return false, nil
	}
	off := len(headerMagic)
	storedVersion := schema.Version(binary.LittleEndian.Uint64(buf[off:]))
	off += 8
	storedHeight := binary.LittleEndian.Uint64(buf[off:])
	if storedVersion != c.version {
		return false, nil
	}

	bodyBytes := info.Size() - int64(headerSize)
	if c.codec.Size <= 0 || bodyBytes%int64(c.codec.Size) != 0 {
		return false, nil
	}
	c.length = uint64(bodyBytes) / uint64(c.codec.Size)
	c.height = index.HeightFromUint64(storedHeight)
	c.hasHt = true
	return true, nil
}

func (c *Column[K, V]) writeHeaderLocked(f *os.File, length uint64, height index.Height) error {
	buf := make([]byte, headerSize)
	copy(buf, headerMagic)
	off := len(headerMagic)
	binary.LittleEndian.PutUint64(buf[off:], uint64(c.version))
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], height.Uint64())
	if _, err := f.WriteAt(buf, 0); err != nil {
		return err
	}
	c.length = length
	c.height = height
	c.hasHt = true
	return nil
}

// remapLocked (re)establishes the read-only mmap over the current file
// contents. Called after every structural change (append, truncate).
func (c *Column[K, V]) remapLocked() error {
	if c.mm != nil {
		_ = c.mm.Unmap()
		c.mm = nil
	}
	info, err := c.f.Stat()
	if err != nil {
		return err
	}
	if info.Size() <= int64(headerSize) {
		return nil
	}
	mm, err := mmap.MapRegion(c.f, int(info.Size()), mmap.RDONLY, 0, 0)
	if err != nil {
		return err
	}
	c.mm = mm
	return nil
}

// PushIfNeeded appends v at position k. No-op if k < current length
// (the value is already present — ingestion retried after a crash
// before this column's flush observed the earlier write). Returns
// ErrGap if k > length: a gap, which never happens in correct
// ingestion order.
func (c *Column[K, V]) PushIfNeeded(k K, v V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if k.Uint64() < c.length {
		return nil
	}
	if k.Uint64() > c.length {
		return errors.Wrapf(ErrGap, "column %s: push at %d, length %d", c.name, k.Uint64(), c.length)
	}

	buf := make([]byte, c.codec.Size)
	c.codec.Encode(v, buf)
	off := int64(headerSize) + int64(c.length)*int64(c.codec.Size)
	if _, err := c.f.WriteAt(buf, off); err != nil {
		return errors.Wrapf(err, "cvs: append to column %s", c.name)
	}
	c.length++
	return c.remapLocked()
}

// Get returns the value at k, or false if k is not yet present.
func (c *Column[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	if k.Uint64() >= c.length {
		return zero, false
	}
	buf := c.recordLocked(k.Uint64())
	return c.codec.Decode(buf), true
}

func (c *Column[K, V]) recordLocked(pos uint64) []byte {
	// The mapping covers the whole file, header included.
	start := uint64(headerSize) + pos*uint64(c.codec.Size)
	if uint64(len(c.mm)) >= start+uint64(c.codec.Size) {
		return c.mm[start : start+uint64(c.codec.Size)]
	}
	// Record not covered by the current mapping (e.g. the remap after an
	// append failed); fall back to a direct read from the file.
	buf := make([]byte, c.codec.Size)
	_, _ = c.f.ReadAt(buf, int64(start))
	return buf
}

// Len reports the number of records currently present.
func (c *Column[K, V]) Len() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.length
}

// IterFunc is called once per (index, value) pair during a forward
// iteration. Returning an error stops iteration and IterAt returns it.
type IterFunc[K Key, V any] func(k K, v V) error

// IterAt walks the column forward starting at k, in dense-index order,
// up to the current length. Records appended by PushIfNeeded since the
// last Flush are included; the scan is not limited to flushed data. The
// kernel is advised MADV_SEQUENTIAL for the scan, matching a forward
// columnar read pattern.
func (c *Column[K, V]) IterAt(k K, fn IterFunc[K, V]) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.mm != nil {
		_ = unix.Madvise(c.mm, unix.MADV_SEQUENTIAL)
	}
	for pos := k.Uint64(); pos < c.length; pos++ {
		v := c.codec.Decode(c.recordLocked(pos))
		if err := fn(c.fromUint64(pos), v); err != nil {
			return err
		}
	}
	return nil
}

// TruncateIfNeeded shrinks the column to length k (discarding
// everything from k onward) if it is currently longer, and records
// savedHeight as this column's new durable height. If the column is
// already at or below length k nothing is discarded, but savedHeight is
// still recorded.
func (c *Column[K, V]) TruncateIfNeeded(k K, savedHeight index.Height) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if k.Uint64() >= c.length {
		// Still record savedHeight: a column that never grew past the
		// rollback point still needs its watermark to agree with its
		// siblings, or the next restart would compute a stale
		// starting_height from it.
		return c.writeHeaderLocked(c.f, c.length, savedHeight)
	}
	newSize := int64(headerSize) + int64(k.Uint64())*int64(c.codec.Size)
	if err := c.f.Truncate(newSize); err != nil {
		return errors.Wrapf(err, "cvs: truncate column %s", c.name)
	}
	if err := c.writeHeaderLocked(c.f, k.Uint64(), savedHeight); err != nil {
		return err
	}
	return c.remapLocked()
}

// Flush ensures every write up to and including height is durable and
// atomically records height as the column's watermark.
func (c *Column[K, V]) Flush(height index.Height) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeHeaderLocked(c.f, c.length, height); err != nil {
		return err
	}
	if err := c.f.Sync(); err != nil {
		return errors.Wrapf(err, "cvs: sync column %s", c.name)
	}
	return nil
}

// Height returns the last height at which this column was flushed, or
// false if it has never been flushed.
func (c *Column[K, V]) Height() (index.Height, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height, c.hasHt
}

// Close releases the mmap and underlying file descriptor.
func (c *Column[K, V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mm != nil {
		if err := c.mm.Unmap(); err != nil {
			return err
		}
		c.mm = nil
	}
	if c.f != nil {
		err := c.f.Close()
		c.f = nil
		return err
	}
	return nil
}
