package indexer

import (
	"encoding/binary"

	"golang.org/x/sync/errgroup"

	"github.com/brk-indexer/brkidx/internal/chainmodel"
	"github.com/brk-indexer/brkidx/internal/index"
	"github.com/brk-indexer/brkidx/internal/pkv"
	"github.com/brk-indexer/brkidx/internal/schema"
)

// Stores is the three coordinator-owned PKV partitions (spec §3.3).
// The per-address-type analytics partitions named in the original
// source are explicitly out of scope (see SPEC_FULL.md §12).
type Stores struct {
	ks *pkv.Keyspace

	BlockHashPrefixToHeight     *pkv.Partition[chainmodel.BlockHashPrefix, index.Height]
	TxidPrefixToTxIndex         *pkv.Partition[chainmodel.TxidPrefix, index.TxIndex]
	AddressByteshashToTypeIndex *pkv.Partition[chainmodel.AddressBytesHash, index.TypeIndex]
}

func prefix8Enc[T ~[8]byte](v T) []byte { b := make([]byte, 8); copy(b, v[:]); return b }

func blockHashPrefixDec(b []byte) chainmodel.BlockHashPrefix {
	var v chainmodel.BlockHashPrefix
	copy(v[:], b)
	return v
}

func txidPrefixDec(b []byte) chainmodel.TxidPrefix {
	var v chainmodel.TxidPrefix
	copy(v[:], b)
	return v
}

func addressByteshashDec(b []byte) chainmodel.AddressBytesHash {
	var v chainmodel.AddressBytesHash
	copy(v[:], b)
	return v
}

func heightValEnc(v index.Height) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v.Uint64())
	return b
}

func txIndexValEnc(v index.TxIndex) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v.Uint64())
	return b
}

func typeIndexValEnc(v index.TypeIndex) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v.Uint64())
	return b
}

// OpenStores opens the keyspace at dir and every partition within it.
func OpenStores(dir string) (*Stores, error) {
	ks, err := pkv.Open(dir)
	if err != nil {
		return nil, err
	}
	s := &Stores{ks: ks}
	s.BlockHashPrefixToHeight = pkv.Open[chainmodel.BlockHashPrefix, index.Height](
		ks, findPartitionDef(schema.PartBlockHashPrefixToHeight),
		prefix8Enc[chainmodel.BlockHashPrefix], blockHashPrefixDec,
		heightValEnc, func(b []byte) index.Height { return index.HeightFromUint64(binary.LittleEndian.Uint64(b)) },
	)
	s.TxidPrefixToTxIndex = pkv.Open[chainmodel.TxidPrefix, index.TxIndex](
		ks, findPartitionDef(schema.PartTxidPrefixToTxIndex),
		prefix8Enc[chainmodel.TxidPrefix], txidPrefixDec,
		txIndexValEnc, func(b []byte) index.TxIndex { return index.TxIndexFromUint64(binary.LittleEndian.Uint64(b)) },
	)
	s.AddressByteshashToTypeIndex = pkv.Open[chainmodel.AddressBytesHash, index.TypeIndex](
		ks, findPartitionDef(schema.PartAddressByteshashToTypeIndex),
		prefix8Enc[chainmodel.AddressBytesHash], addressByteshashDec,
		typeIndexValEnc, func(b []byte) index.TypeIndex { return index.TypeIndexFromUint64(binary.LittleEndian.Uint64(b)) },
	)
	return s, nil
}

func findPartitionDef(name schema.PartitionName) schema.PartitionDef {
	for _, p := range schema.Partitions {
		if p.Name == name {
			return p
		}
	}
	panic("indexer: unknown partition " + string(name))
}

// Commit commits every partition at height, in parallel (spec §4.4.3(b)).
func (s *Stores) Commit(height index.Height) error {
	g := new(errgroup.Group)
	g.Go(func() error { return s.BlockHashPrefixToHeight.Commit(height) })
	g.Go(func() error { return s.TxidPrefixToTxIndex.Commit(height) })
	g.Go(func() error { return s.AddressByteshashToTypeIndex.Commit(height) })
	return g.Wait()
}

// Persist issues the keyspace-wide persist(SyncAll) barrier (spec §4.4.3(c)).
func (s *Stores) Persist() error { return s.ks.Persist() }

// Close closes the shared keyspace.
func (s *Stores) Close() error { return s.ks.Close() }

// StartingHeight is the minimum over every partition of
// committed_height+1, or 0 if any partition has never been committed.
func (s *Stores) StartingHeight() index.Height {
	min := uint64(0)
	first := true
	consider := func(h index.Height, ok bool) {
		var next uint64
		if ok {
			next = h.Uint64() + 1
		}
		if first || next < min {
			min = next
			first = false
		}
	}
	consider(s.BlockHashPrefixToHeight.CommittedHeight())
	consider(s.TxidPrefixToTxIndex.CommittedHeight())
	consider(s.AddressByteshashToTypeIndex.CommittedHeight())
	return index.HeightFromUint64(min)
}
