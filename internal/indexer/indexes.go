package indexer

import "github.com/brk-indexer/brkidx/internal/index"

// Indexes is starting_indexes: the cursor for every entity space at a
// given height, used both to compute where CVS rollback must truncate
// to and where PKV rollback must start removing from.
type Indexes struct {
	Height             index.Height
	TxIndex            index.TxIndex
	InputIndex         index.InputIndex
	OutputIndex        index.OutputIndex
	EmptyOutputIndex   index.EmptyOutputIndex
	OpReturnIndex      index.OpReturnIndex
	UnknownOutputIndex index.UnknownOutputIndex
	P2MSOutputIndex    index.P2MSOutputIndex
	P2AAddressIndex    index.P2AAddressIndex
	P2PK33AddressIndex index.P2PK33AddressIndex
	P2PK65AddressIndex index.P2PK65AddressIndex
	P2PKHAddressIndex  index.P2PKHAddressIndex
	P2SHAddressIndex   index.P2SHAddressIndex
	P2TRAddressIndex   index.P2TRAddressIndex
	P2WPKHAddressIndex index.P2WPKHAddressIndex
	P2WSHAddressIndex  index.P2WSHAddressIndex
}

// StartingIndexes reads every "first_*" column at height, or returns
// the all-zero Indexes if height is the space's zero sentinel — the
// direct O(1) read described in SPEC_FULL.md §12 (never a scan).
func (v *Vecs) StartingIndexes(height index.Height) Indexes {
	if height.IsZero() {
		return Indexes{}
	}
	idx := Indexes{Height: height}
	if h, ok := v.HeightToFirstTxIndex.Get(height); ok {
		idx.TxIndex = h
	}
	if h, ok := v.HeightToFirstInputIndex.Get(height); ok {
		idx.InputIndex = h
	}
	if h, ok := v.HeightToFirstOutputIndex.Get(height); ok {
		idx.OutputIndex = h
	}
	if h, ok := v.HeightToFirstEmptyOutputIndex.Get(height); ok {
		idx.EmptyOutputIndex = h
	}
	if h, ok := v.HeightToFirstOpReturnIndex.Get(height); ok {
		idx.OpReturnIndex = h
	}
	if h, ok := v.HeightToFirstUnknownOutputIndex.Get(height); ok {
		idx.UnknownOutputIndex = h
	}
	if h, ok := v.HeightToFirstP2MSOutputIndex.Get(height); ok {
		idx.P2MSOutputIndex = h
	}
	if h, ok := v.HeightToFirstP2AAddressIndex.Get(height); ok {
		idx.P2AAddressIndex = h
	}
	if h, ok := v.HeightToFirstP2PK33AddressIndex.Get(height); ok {
		idx.P2PK33AddressIndex = h
	}
	if h, ok := v.HeightToFirstP2PK65AddressIndex.Get(height); ok {
		idx.P2PK65AddressIndex = h
	}
	if h, ok := v.HeightToFirstP2PKHAddressIndex.Get(height); ok {
		idx.P2PKHAddressIndex = h
	}
	if h, ok := v.HeightToFirstP2SHAddressIndex.Get(height); ok {
		idx.P2SHAddressIndex = h
	}
	if h, ok := v.HeightToFirstP2TRAddressIndex.Get(height); ok {
		idx.P2TRAddressIndex = h
	}
	if h, ok := v.HeightToFirstP2WPKHAddressIndex.Get(height); ok {
		idx.P2WPKHAddressIndex = h
	}
	if h, ok := v.HeightToFirstP2WSHAddressIndex.Get(height); ok {
		idx.P2WSHAddressIndex = h
	}
	return idx
}
