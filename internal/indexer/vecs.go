package indexer

import (
	"golang.org/x/sync/errgroup"

	"github.com/brk-indexer/brkidx/internal/chainmodel"
	"github.com/brk-indexer/brkidx/internal/cvs"
	"github.com/brk-indexer/brkidx/internal/index"
	"github.com/brk-indexer/brkidx/internal/schema"
)

// Vecs is the full set of CVS columns the coordinator owns: one field
// per entry in schema.Columns. Grouped here (rather than kept in a
// map) so every column access is compile-time checked, matching the
// original Vecs struct's one-field-per-column shape.
type Vecs struct {
	HeightToBlockHash  *cvs.Column[index.Height, chainmodel.BlockHash]
	HeightToDifficulty *cvs.Column[index.Height, chainmodel.Difficulty]
	HeightToTimestamp  *cvs.Column[index.Height, chainmodel.Timestamp]
	HeightToTotalSize  *cvs.Column[index.Height, uint32]
	HeightToWeight     *cvs.Column[index.Height, chainmodel.Weight]

	HeightToFirstTxIndex            *cvs.Column[index.Height, index.TxIndex]
	HeightToFirstInputIndex         *cvs.Column[index.Height, index.InputIndex]
	HeightToFirstOutputIndex        *cvs.Column[index.Height, index.OutputIndex]
	HeightToFirstEmptyOutputIndex   *cvs.Column[index.Height, index.EmptyOutputIndex]
	HeightToFirstOpReturnIndex      *cvs.Column[index.Height, index.OpReturnIndex]
	HeightToFirstUnknownOutputIndex *cvs.Column[index.Height, index.UnknownOutputIndex]
	HeightToFirstP2MSOutputIndex    *cvs.Column[index.Height, index.P2MSOutputIndex]
	HeightToFirstP2AAddressIndex    *cvs.Column[index.Height, index.P2AAddressIndex]
	HeightToFirstP2PK33AddressIndex *cvs.Column[index.Height, index.P2PK33AddressIndex]
	HeightToFirstP2PK65AddressIndex *cvs.Column[index.Height, index.P2PK65AddressIndex]
	HeightToFirstP2PKHAddressIndex  *cvs.Column[index.Height, index.P2PKHAddressIndex]
	HeightToFirstP2SHAddressIndex   *cvs.Column[index.Height, index.P2SHAddressIndex]
	HeightToFirstP2TRAddressIndex   *cvs.Column[index.Height, index.P2TRAddressIndex]
	HeightToFirstP2WPKHAddressIndex *cvs.Column[index.Height, index.P2WPKHAddressIndex]
	HeightToFirstP2WSHAddressIndex  *cvs.Column[index.Height, index.P2WSHAddressIndex]

	TxIndexToTxid          *cvs.Column[index.TxIndex, chainmodel.Txid]
	TxIndexToVersion       *cvs.Column[index.TxIndex, chainmodel.TxVersion]
	TxIndexToLockTime      *cvs.Column[index.TxIndex, chainmodel.RawLockTime]
	TxIndexToBaseSize      *cvs.Column[index.TxIndex, uint32]
	TxIndexToTotalSize     *cvs.Column[index.TxIndex, uint32]
	TxIndexToIsExplicitRBF *cvs.Column[index.TxIndex, bool]
	TxIndexToFirstInput    *cvs.Column[index.TxIndex, index.InputIndex]
	TxIndexToFirstOutput   *cvs.Column[index.TxIndex, index.OutputIndex]

	InputIndexToOutputIndex *cvs.Column[index.InputIndex, index.OutputIndex]

	OutputIndexToType      *cvs.Column[index.OutputIndex, chainmodel.OutputType]
	OutputIndexToTypeIndex *cvs.Column[index.OutputIndex, index.TypeIndex]
	OutputIndexToValue     *cvs.Column[index.OutputIndex, chainmodel.Sats]

	EmptyOutputIndexToTxIndex   *cvs.Column[index.EmptyOutputIndex, index.TxIndex]
	OpReturnIndexToTxIndex      *cvs.Column[index.OpReturnIndex, index.TxIndex]
	UnknownOutputIndexToTxIndex *cvs.Column[index.UnknownOutputIndex, index.TxIndex]
	P2MSOutputIndexToTxIndex    *cvs.Column[index.P2MSOutputIndex, index.TxIndex]

	P2AAddressIndexToBytes    *cvs.Column[index.P2AAddressIndex, chainmodel.AddressBytes]
	P2PK33AddressIndexToBytes *cvs.Column[index.P2PK33AddressIndex, chainmodel.AddressBytes]
	P2PK65AddressIndexToBytes *cvs.Column[index.P2PK65AddressIndex, chainmodel.AddressBytes]
	P2PKHAddressIndexToBytes  *cvs.Column[index.P2PKHAddressIndex, chainmodel.AddressBytes]
	P2SHAddressIndexToBytes   *cvs.Column[index.P2SHAddressIndex, chainmodel.AddressBytes]
	P2TRAddressIndexToBytes   *cvs.Column[index.P2TRAddressIndex, chainmodel.AddressBytes]
	P2WPKHAddressIndexToBytes *cvs.Column[index.P2WPKHAddressIndex, chainmodel.AddressBytes]
	P2WSHAddressIndexToBytes  *cvs.Column[index.P2WSHAddressIndex, chainmodel.AddressBytes]
}

// OpenVecs forced_imports every CVS column under dir, validating each
// against base combined with the schema's catalog and per-column
// component versions.
func OpenVecs(dir string, base schema.Version) (*Vecs, error) {
	v := func(component schema.Version) schema.Version {
		return base.Combine(schema.CatalogVersion).Combine(component)
	}
	var err error
	must := func(col any, e error) any {
		if e != nil && err == nil {
			err = e
		}
		return col
	}

	vecs := &Vecs{
		HeightToBlockHash:  must(cvs.ForcedImport(dir, schema.ColHeightToBlockHash, v(1), blockHashCodec, index.HeightFromUint64)).(*cvs.Column[index.Height, chainmodel.BlockHash]),
		HeightToDifficulty: must(cvs.ForcedImport(dir, schema.ColHeightToDifficulty, v(1), difficultyCodec, index.HeightFromUint64)).(*cvs.Column[index.Height, chainmodel.Difficulty]),
		HeightToTimestamp:  must(cvs.ForcedImport(dir, schema.ColHeightToTimestamp, v(1), timestampCodec, index.HeightFromUint64)).(*cvs.Column[index.Height, chainmodel.Timestamp]),
		HeightToTotalSize:  must(cvs.ForcedImport(dir, schema.ColHeightToTotalSize, v(1), u32Codec, index.HeightFromUint64)).(*cvs.Column[index.Height, uint32]),
		HeightToWeight:     must(cvs.ForcedImport(dir, schema.ColHeightToWeight, v(1), weightCodec, index.HeightFromUint64)).(*cvs.Column[index.Height, chainmodel.Weight]),

		HeightToFirstTxIndex:            must(cvs.ForcedImport(dir, schema.ColHeightToFirstTxIndex, v(1), idxCodec(index.TxIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.TxIndex]),
		HeightToFirstInputIndex:         must(cvs.ForcedImport(dir, schema.ColHeightToFirstInputIndex, v(1), idxCodec(index.InputIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.InputIndex]),
		HeightToFirstOutputIndex:        must(cvs.ForcedImport(dir, schema.ColHeightToFirstOutputIndex, v(1), idxCodec(index.OutputIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.OutputIndex]),
		HeightToFirstEmptyOutputIndex:   must(cvs.ForcedImport(dir, schema.ColHeightToFirstEmptyOutputIndex, v(1), idxCodec(index.EmptyOutputIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.EmptyOutputIndex]),
		HeightToFirstOpReturnIndex:      must(cvs.ForcedImport(dir, schema.ColHeightToFirstOpReturnIndex, v(1), idxCodec(index.OpReturnIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.OpReturnIndex]),
		HeightToFirstUnknownOutputIndex: must(cvs.ForcedImport(dir, schema.ColHeightToFirstUnknownOutputIndex, v(1), idxCodec(index.UnknownOutputIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.UnknownOutputIndex]),
		HeightToFirstP2MSOutputIndex:    must(cvs.ForcedImport(dir, schema.ColHeightToFirstP2MSOutputIndex, v(1), idxCodec(index.P2MSOutputIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.P2MSOutputIndex]),
		HeightToFirstP2AAddressIndex:    must(cvs.ForcedImport(dir, schema.ColHeightToFirstP2AAddressIndex, v(1), idxCodec(index.P2AAddressIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.P2AAddressIndex]),
		HeightToFirstP2PK33AddressIndex: must(cvs.ForcedImport(dir, schema.ColHeightToFirstP2PK33AddressIndex, v(1), idxCodec(index.P2PK33AddressIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.P2PK33AddressIndex]),
		HeightToFirstP2PK65AddressIndex: must(cvs.ForcedImport(dir, schema.ColHeightToFirstP2PK65AddressIndex, v(1), idxCodec(index.P2PK65AddressIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.P2PK65AddressIndex]),
		HeightToFirstP2PKHAddressIndex:  must(cvs.ForcedImport(dir, schema.ColHeightToFirstP2PKHAddressIndex, v(1), idxCodec(index.P2PKHAddressIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.P2PKHAddressIndex]),
		HeightToFirstP2SHAddressIndex:   must(cvs.ForcedImport(dir, schema.ColHeightToFirstP2SHAddressIndex, v(1), idxCodec(index.P2SHAddressIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.P2SHAddressIndex]),
		HeightToFirstP2TRAddressIndex:   must(cvs.ForcedImport(dir, schema.ColHeightToFirstP2TRAddressIndex, v(1), idxCodec(index.P2TRAddressIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.P2TRAddressIndex]),
		HeightToFirstP2WPKHAddressIndex: must(cvs.ForcedImport(dir, schema.ColHeightToFirstP2WPKHAddressIndex, v(1), idxCodec(index.P2WPKHAddressIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.P2WPKHAddressIndex]),
		HeightToFirstP2WSHAddressIndex:  must(cvs.ForcedImport(dir, schema.ColHeightToFirstP2WSHAddressIndex, v(1), idxCodec(index.P2WSHAddressIndexFromUint64), index.HeightFromUint64)).(*cvs.Column[index.Height, index.P2WSHAddressIndex]),

		TxIndexToTxid:          must(cvs.ForcedImport(dir, schema.ColTxIndexToTxid, v(1), txidCodec, index.TxIndexFromUint64)).(*cvs.Column[index.TxIndex, chainmodel.Txid]),
		TxIndexToVersion:       must(cvs.ForcedImport(dir, schema.ColTxIndexToVersion, v(1), txVersionCodec, index.TxIndexFromUint64)).(*cvs.Column[index.TxIndex, chainmodel.TxVersion]),
		TxIndexToLockTime:      must(cvs.ForcedImport(dir, schema.ColTxIndexToLockTime, v(1), lockTimeCodec, index.TxIndexFromUint64)).(*cvs.Column[index.TxIndex, chainmodel.RawLockTime]),
		TxIndexToBaseSize:      must(cvs.ForcedImport(dir, schema.ColTxIndexToBaseSize, v(1), u32Codec, index.TxIndexFromUint64)).(*cvs.Column[index.TxIndex, uint32]),
		TxIndexToTotalSize:     must(cvs.ForcedImport(dir, schema.ColTxIndexToTotalSize, v(1), u32Codec, index.TxIndexFromUint64)).(*cvs.Column[index.TxIndex, uint32]),
		TxIndexToIsExplicitRBF: must(cvs.ForcedImport(dir, schema.ColTxIndexToIsExplicitRBF, v(1), boolCodec, index.TxIndexFromUint64)).(*cvs.Column[index.TxIndex, bool]),
		TxIndexToFirstInput:    must(cvs.ForcedImport(dir, schema.ColTxIndexToFirstInput, v(1), idxCodec(index.InputIndexFromUint64), index.TxIndexFromUint64)).(*cvs.Column[index.TxIndex, index.InputIndex]),
		TxIndexToFirstOutput:   must(cvs.ForcedImport(dir, schema.ColTxIndexToFirstOutput, v(1), idxCodec(index.OutputIndexFromUint64), index.TxIndexFromUint64)).(*cvs.Column[index.TxIndex, index.OutputIndex]),

		InputIndexToOutputIndex: must(cvs.ForcedImport(dir, schema.ColInputIndexToOutputIndex, v(1), idxCodec(index.OutputIndexFromUint64), index.InputIndexFromUint64)).(*cvs.Column[index.InputIndex, index.OutputIndex]),

		OutputIndexToType:      must(cvs.ForcedImport(dir, schema.ColOutputIndexToType, v(1), outputTypeCodec, index.OutputIndexFromUint64)).(*cvs.Column[index.OutputIndex, chainmodel.OutputType]),
		OutputIndexToTypeIndex: must(cvs.ForcedImport(dir, schema.ColOutputIndexToTypeIndex, v(1), idxCodec(index.TypeIndexFromUint64), index.OutputIndexFromUint64)).(*cvs.Column[index.OutputIndex, index.TypeIndex]),
		OutputIndexToValue:     must(cvs.ForcedImport(dir, schema.ColOutputIndexToValue, v(1), satsCodec, index.OutputIndexFromUint64)).(*cvs.Column[index.OutputIndex, chainmodel.Sats]),

		EmptyOutputIndexToTxIndex:   must(cvs.ForcedImport(dir, schema.ColEmptyOutputIndexToTxIndex, v(1), idxCodec(index.TxIndexFromUint64), index.EmptyOutputIndexFromUint64)).(*cvs.Column[index.EmptyOutputIndex, index.TxIndex]),
		OpReturnIndexToTxIndex:      must(cvs.ForcedImport(dir, schema.ColOpReturnIndexToTxIndex, v(1), idxCodec(index.TxIndexFromUint64), index.OpReturnIndexFromUint64)).(*cvs.Column[index.OpReturnIndex, index.TxIndex]),
		UnknownOutputIndexToTxIndex: must(cvs.ForcedImport(dir, schema.ColUnknownOutputIndexToTxIndex, v(1), idxCodec(index.TxIndexFromUint64), index.UnknownOutputIndexFromUint64)).(*cvs.Column[index.UnknownOutputIndex, index.TxIndex]),
		P2MSOutputIndexToTxIndex:    must(cvs.ForcedImport(dir, schema.ColP2MSOutputIndexToTxIndex, v(1), idxCodec(index.TxIndexFromUint64), index.P2MSOutputIndexFromUint64)).(*cvs.Column[index.P2MSOutputIndex, index.TxIndex]),

		P2AAddressIndexToBytes:    must(cvs.ForcedImport(dir, schema.ColP2AAddressIndexToBytes, v(1), addressBytesCodec(chainmodel.P2A.AddressByteLen()), index.P2AAddressIndexFromUint64)).(*cvs.Column[index.P2AAddressIndex, chainmodel.AddressBytes]),
		P2PK33AddressIndexToBytes: must(cvs.ForcedImport(dir, schema.ColP2PK33AddressIndexToBytes, v(1), addressBytesCodec(chainmodel.P2PK33.AddressByteLen()), index.P2PK33AddressIndexFromUint64)).(*cvs.Column[index.P2PK33AddressIndex, chainmodel.AddressBytes]),
		P2PK65AddressIndexToBytes: must(cvs.ForcedImport(dir, schema.ColP2PK65AddressIndexToBytes, v(1), addressBytesCodec(chainmodel.P2PK65.AddressByteLen()), index.P2PK65AddressIndexFromUint64)).(*cvs.Column[index.P2PK65AddressIndex, chainmodel.AddressBytes]),
		P2PKHAddressIndexToBytes:  must(cvs.ForcedImport(dir, schema.ColP2PKHAddressIndexToBytes, v(1), addressBytesCodec(chainmodel.P2PKH.AddressByteLen()), index.P2PKHAddressIndexFromUint64)).(*cvs.Column[index.P2PKHAddressIndex, chainmodel.AddressBytes]),
		P2SHAddressIndexToBytes:   must(cvs.ForcedImport(dir, schema.ColP2SHAddressIndexToBytes, v(1), addressBytesCodec(chainmodel.P2SH.AddressByteLen()), index.P2SHAddressIndexFromUint64)).(*cvs.Column[index.P2SHAddressIndex, chainmodel.AddressBytes]),
		P2TRAddressIndexToBytes:   must(cvs.ForcedImport(dir, schema.ColP2TRAddressIndexToBytes, v(1), addressBytesCodec(chainmodel.P2TR.AddressByteLen()), index.P2TRAddressIndexFromUint64)).(*cvs.Column[index.P2TRAddressIndex, chainmodel.AddressBytes]),
		P2WPKHAddressIndexToBytes: must(cvs.ForcedImport(dir, schema.ColP2WPKHAddressIndexToBytes, v(1), addressBytesCodec(chainmodel.P2WPKH.AddressByteLen()), index.P2WPKHAddressIndexFromUint64)).(*cvs.Column[index.P2WPKHAddressIndex, chainmodel.AddressBytes]),
		P2WSHAddressIndexToBytes:  must(cvs.ForcedImport(dir, schema.ColP2WSHAddressIndexToBytes, v(1), addressBytesCodec(chainmodel.P2WSH.AddressByteLen()), index.P2WSHAddressIndexFromUint64)).(*cvs.Column[index.P2WSHAddressIndex, chainmodel.AddressBytes]),
	}
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

// all returns every column as a closeable/flushable/truncatable
// interface, for the fan-out operations below.
func (v *Vecs) all() []anyColumn {
	return []anyColumn{
		v.HeightToBlockHash, v.HeightToDifficulty, v.HeightToTimestamp, v.HeightToTotalSize, v.HeightToWeight,
		v.HeightToFirstTxIndex, v.HeightToFirstInputIndex, v.HeightToFirstOutputIndex,
		v.HeightToFirstEmptyOutputIndex, v.HeightToFirstOpReturnIndex, v.HeightToFirstUnknownOutputIndex,
		v.HeightToFirstP2MSOutputIndex, v.HeightToFirstP2AAddressIndex, v.HeightToFirstP2PK33AddressIndex,
		v.HeightToFirstP2PK65AddressIndex, v.HeightToFirstP2PKHAddressIndex, v.HeightToFirstP2SHAddressIndex,
		v.HeightToFirstP2TRAddressIndex, v.HeightToFirstP2WPKHAddressIndex, v.HeightToFirstP2WSHAddressIndex,
		v.TxIndexToTxid, v.TxIndexToVersion, v.TxIndexToLockTime, v.TxIndexToBaseSize, v.TxIndexToTotalSize,
		v.TxIndexToIsExplicitRBF, v.TxIndexToFirstInput, v.TxIndexToFirstOutput,
		v.InputIndexToOutputIndex,
		v.OutputIndexToType, v.OutputIndexToTypeIndex, v.OutputIndexToValue,
		v.EmptyOutputIndexToTxIndex, v.OpReturnIndexToTxIndex, v.UnknownOutputIndexToTxIndex, v.P2MSOutputIndexToTxIndex,
		v.P2AAddressIndexToBytes, v.P2PK33AddressIndexToBytes, v.P2PK65AddressIndexToBytes, v.P2PKHAddressIndexToBytes,
		v.P2SHAddressIndexToBytes, v.P2TRAddressIndexToBytes, v.P2WPKHAddressIndexToBytes, v.P2WSHAddressIndexToBytes,
	}
}

// anyColumn is the subset of *cvs.Column[K,V] operations that do not
// depend on K/V, used for fan-out across the heterogeneous column set.
type anyColumn interface {
	Flush(height index.Height) error
	Height() (index.Height, bool)
	Close() error
}

// Flush flushes every column at height, in parallel, joining at this
// call's return (spec §4.4.3(a): every CVS flush completes before any
// PKV commit is issued).
func (v *Vecs) Flush(height index.Height) error {
	g := new(errgroup.Group)
	for _, c := range v.all() {
		c := c
		g.Go(func() error { return c.Flush(height) })
	}
	return g.Wait()
}

// StartingHeight is the minimum over every column of recorded_height+1,
// or 0 if any column has never been flushed.
func (v *Vecs) StartingHeight() index.Height {
	min := uint64(0)
	first := true
	for _, c := range v.all() {
		h, ok := c.Height()
		var next uint64
		if ok {
			next = h.Uint64() + 1
		}
		if first || next < min {
			min = next
			first = false
		}
	}
	return index.HeightFromUint64(min)
}

// Close closes every column.
func (v *Vecs) Close() error {
	var firstErr error
	for _, c := range v.all() {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
