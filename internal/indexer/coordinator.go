// Package indexer ties the Columnar Vec Store and the Partitioned KV
// Store into the Ingestion/Rollback Coordinator: the component that
// opens both stores, reconciles them to a common starting height,
// and drives forward ingestion and the block-boundary commit
// protocol.
package indexer

import (
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/brk-indexer/brkidx/internal/chainmodel"
	"github.com/brk-indexer/brkidx/internal/index"
	"github.com/brk-indexer/brkidx/internal/numeric"
	"github.com/brk-indexer/brkidx/internal/schema"
)

// ErrMissingPredecessor is returned when an input's previous outpoint
// cannot be resolved through txidprefix_to_txindex: an inconsistent
// input stream, fatal per the error-handling design.
var ErrMissingPredecessor = errors.New("indexer: missing predecessor transaction for input")

// Coordinator owns one CVS directory and one PKV keyspace under a
// shared root, guarded by a single advisory directory lock (one
// writer per data directory, like Erigon's chaindata lock).
type Coordinator struct {
	dir    string
	lock   *flock.Flock
	vecs   *Vecs
	stores *Stores
	logger *zap.Logger

	// nextHeight is the first height not yet durably committed: where
	// forward ingestion resumes after Open's reconciliation.
	nextHeight index.Height
}

// Open acquires the directory lock, opens CVS and PKV in parallel
// (spec §4.4 step 1), computes starting_height and starting_indexes,
// and performs the startup rollback (steps 2-6) so the two stores are
// left mutually consistent before any block is ingested.
func Open(dir string, base schema.Version, logger *zap.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	lk := flock.New(filepath.Join(dir, ".brkidx.lock"))
	locked, err := lk.TryLock()
	if err != nil {
		return nil, errors.Wrap(err, "indexer: acquire directory lock")
	}
	if !locked {
		return nil, errors.Errorf("indexer: data directory %s is already locked by another process", dir)
	}

	columnsDir := filepath.Join(dir, "columns")
	keyspaceDir := filepath.Join(dir, "keyspace")

	var vecs *Vecs
	var stores *Stores
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		vecs, err = OpenVecs(columnsDir, base)
		return err
	})
	g.Go(func() (err error) {
		stores, err = OpenStores(keyspaceDir)
		return err
	})
	if err := g.Wait(); err != nil {
		_ = lk.Unlock()
		return nil, errors.Wrap(err, "indexer: open stores")
	}

	c := &Coordinator{dir: dir, lock: lk, vecs: vecs, stores: stores, logger: logger}
	if err := c.reconcile(); err != nil {
		_ = vecs.Close()
		_ = stores.Close()
		_ = lk.Unlock()
		return nil, err
	}
	return c, nil
}

// reconcile implements spec §4.4 steps 2-6: compute the common
// starting height, derive starting_indexes, roll back both stores to
// that point, and commit the result so the watermarks agree.
func (c *Coordinator) reconcile() error {
	vecsHeight := c.vecs.StartingHeight()
	storesHeight := c.stores.StartingHeight()
	startingHeight := vecsHeight
	if storesHeight.Less(startingHeight) {
		startingHeight = storesHeight
	}
	if gap := numeric.AbsoluteDifference(vecsHeight.Uint64(), storesHeight.Uint64()); gap != 0 {
		c.logger.Warn("stores diverged before reconciliation",
			zap.Uint64("vecs_height", vecsHeight.Uint64()),
			zap.Uint64("stores_height", storesHeight.Uint64()),
			zap.Uint64("gap", gap))
	}
	idx := c.vecs.StartingIndexes(startingHeight)

	c.logger.Info("reconciling stores", zap.Uint64("starting_height", startingHeight.Uint64()))

	// Keys-to-remove must be derived from the CVS tail before it is
	// truncated away, so PKV rollback runs first even though spec §4.4
	// numbers the CVS truncation step earlier.
	if err := c.rollbackPKV(idx); err != nil {
		return errors.Wrap(err, "indexer: pkv rollback")
	}
	if err := c.rollbackCVS(idx); err != nil {
		return errors.Wrap(err, "indexer: cvs rollback")
	}

	sh := savedHeight(startingHeight)
	if err := c.vecs.Flush(sh); err != nil {
		return errors.Wrap(err, "indexer: post-rollback cvs flush")
	}
	if err := c.stores.Commit(sh); err != nil {
		return errors.Wrap(err, "indexer: post-rollback pkv commit")
	}
	if err := c.stores.Persist(); err != nil {
		return errors.Wrap(err, "indexer: post-rollback persist")
	}
	c.logger.Info("reconciled stores", zap.Uint64("saved_height", sh.Uint64()))
	c.nextHeight = startingHeight
	return nil
}

// NextHeight is the first height not yet durably committed: the
// height ProcessBlock/IngestNext will use next.
func (c *Coordinator) NextHeight() index.Height { return c.nextHeight }

// IngestNext ingests block at NextHeight and advances it by one on
// success, the convenience entry point for a serve loop driving the
// coordinator from a sequential block source.
func (c *Coordinator) IngestNext(block chainmodel.Block) error {
	if err := c.ProcessBlock(c.nextHeight, block); err != nil {
		return err
	}
	c.nextHeight = c.nextHeight.Increment()
	return nil
}

// Rollback rolls both stores back so that height becomes the next one
// ingested: identical machinery to the startup reconciliation, usable
// interactively (cmd/brkindexd's rollback subcommand) to walk the
// chain backward without restarting the process.
func (c *Coordinator) Rollback(height index.Height) error {
	idx := c.vecs.StartingIndexes(height)
	if err := c.rollbackPKV(idx); err != nil {
		return errors.Wrap(err, "indexer: pkv rollback")
	}
	if err := c.rollbackCVS(idx); err != nil {
		return errors.Wrap(err, "indexer: cvs rollback")
	}
	sh := savedHeight(height)
	if err := c.vecs.Flush(sh); err != nil {
		return errors.Wrap(err, "indexer: post-rollback cvs flush")
	}
	if err := c.stores.Commit(sh); err != nil {
		return errors.Wrap(err, "indexer: post-rollback pkv commit")
	}
	if err := c.stores.Persist(); err != nil {
		return errors.Wrap(err, "indexer: post-rollback persist")
	}
	c.nextHeight = height
	c.logger.Info("rolled back", zap.Uint64("height", height.Uint64()))
	return nil
}

// ProcessBlock ingests one block at height (spec §4.4.2) and then runs
// the full commit protocol for it (§4.4.3): CVS flush, PKV commit in
// parallel, then the keyspace persist(SyncAll) barrier.
func (c *Coordinator) ProcessBlock(height index.Height, block chainmodel.Block) error {
	if err := c.ingest(height, block); err != nil {
		return errors.Wrapf(err, "indexer: ingest block %d", height.Uint64())
	}
	if err := c.vecs.Flush(height); err != nil {
		return errors.Wrapf(err, "indexer: flush block %d", height.Uint64())
	}
	if err := c.stores.Commit(height); err != nil {
		return errors.Wrapf(err, "indexer: commit block %d", height.Uint64())
	}
	if err := c.stores.Persist(); err != nil {
		return errors.Wrapf(err, "indexer: persist block %d", height.Uint64())
	}
	c.logger.Debug("committed block", zap.Uint64("height", height.Uint64()))
	return nil
}

// Status is a read-only snapshot for the inspect CLI subcommand.
type Status struct {
	NextHeight     index.Height
	VecsHeight     index.Height
	StoresHeight   index.Height
	CatalogVersion schema.Version
}

// Status reports the coordinator's current position without mutating
// anything.
func (c *Coordinator) Status() Status {
	return Status{
		NextHeight:     c.nextHeight,
		VecsHeight:     c.vecs.StartingHeight(),
		StoresHeight:   c.stores.StartingHeight(),
		CatalogVersion: schema.CatalogVersion,
	}
}

// Close releases both stores and the directory lock.
func (c *Coordinator) Close() error {
	var firstErr error
	if err := c.vecs.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.stores.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
