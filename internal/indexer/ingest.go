package indexer

import (
	"github.com/pkg/errors"

	"github.com/brk-indexer/brkidx/internal/chainmodel"
	"github.com/brk-indexer/brkidx/internal/cvs"
	"github.com/brk-indexer/brkidx/internal/index"
	"github.com/brk-indexer/brkidx/internal/numeric"
)

// ingest appends every column for one block, in order: block header
// fields, the "first_*" cursors captured before any transaction of
// this block is processed, then each transaction's own columns,
// dictionary inserts, inputs and outputs. The height-keyed appends go
// through PushIfNeeded at height, so repeating them is a no-op; but
// transaction, input, output and address positions are taken from the
// current column lengths, so ingesting the same block twice appends
// those a second time. After a crash, Open's reconciliation truncates
// the uncommitted tail before ingestion resumes.
func (c *Coordinator) ingest(height index.Height, block chainmodel.Block) error {
	v := c.vecs
	s := c.stores

	if err := v.HeightToBlockHash.PushIfNeeded(height, block.Hash); err != nil {
		return err
	}
	if err := v.HeightToDifficulty.PushIfNeeded(height, block.Difficulty); err != nil {
		return err
	}
	if err := v.HeightToTimestamp.PushIfNeeded(height, block.Timestamp); err != nil {
		return err
	}
	if err := v.HeightToTotalSize.PushIfNeeded(height, block.TotalSize); err != nil {
		return err
	}
	if err := v.HeightToWeight.PushIfNeeded(height, block.Weight); err != nil {
		return err
	}
	if err := s.BlockHashPrefixToHeight.Insert(chainmodel.NewBlockHashPrefix(block.Hash), height); err != nil {
		return err
	}

	if err := v.HeightToFirstTxIndex.PushIfNeeded(height, index.TxIndexFromUint64(v.TxIndexToTxid.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstInputIndex.PushIfNeeded(height, index.InputIndexFromUint64(v.InputIndexToOutputIndex.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstOutputIndex.PushIfNeeded(height, index.OutputIndexFromUint64(v.OutputIndexToValue.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstEmptyOutputIndex.PushIfNeeded(height, index.EmptyOutputIndexFromUint64(v.EmptyOutputIndexToTxIndex.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstOpReturnIndex.PushIfNeeded(height, index.OpReturnIndexFromUint64(v.OpReturnIndexToTxIndex.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstUnknownOutputIndex.PushIfNeeded(height, index.UnknownOutputIndexFromUint64(v.UnknownOutputIndexToTxIndex.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstP2MSOutputIndex.PushIfNeeded(height, index.P2MSOutputIndexFromUint64(v.P2MSOutputIndexToTxIndex.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstP2AAddressIndex.PushIfNeeded(height, index.P2AAddressIndexFromUint64(v.P2AAddressIndexToBytes.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstP2PK33AddressIndex.PushIfNeeded(height, index.P2PK33AddressIndexFromUint64(v.P2PK33AddressIndexToBytes.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstP2PK65AddressIndex.PushIfNeeded(height, index.P2PK65AddressIndexFromUint64(v.P2PK65AddressIndexToBytes.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstP2PKHAddressIndex.PushIfNeeded(height, index.P2PKHAddressIndexFromUint64(v.P2PKHAddressIndexToBytes.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstP2SHAddressIndex.PushIfNeeded(height, index.P2SHAddressIndexFromUint64(v.P2SHAddressIndexToBytes.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstP2TRAddressIndex.PushIfNeeded(height, index.P2TRAddressIndexFromUint64(v.P2TRAddressIndexToBytes.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstP2WPKHAddressIndex.PushIfNeeded(height, index.P2WPKHAddressIndexFromUint64(v.P2WPKHAddressIndexToBytes.Len())); err != nil {
		return err
	}
	if err := v.HeightToFirstP2WSHAddressIndex.PushIfNeeded(height, index.P2WSHAddressIndexFromUint64(v.P2WSHAddressIndexToBytes.Len())); err != nil {
		return err
	}

	for _, tx := range block.Transactions {
		if err := c.ingestTransaction(tx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) ingestTransaction(tx chainmodel.Transaction) error {
	v := c.vecs
	s := c.stores

	txIndex := index.TxIndexFromUint64(v.TxIndexToTxid.Len())
	if err := v.TxIndexToTxid.PushIfNeeded(txIndex, tx.Txid); err != nil {
		return err
	}
	if err := v.TxIndexToVersion.PushIfNeeded(txIndex, tx.Version); err != nil {
		return err
	}
	if err := v.TxIndexToLockTime.PushIfNeeded(txIndex, tx.LockTime); err != nil {
		return err
	}
	if err := v.TxIndexToBaseSize.PushIfNeeded(txIndex, tx.BaseSize); err != nil {
		return err
	}
	if err := v.TxIndexToTotalSize.PushIfNeeded(txIndex, tx.TotalSize); err != nil {
		return err
	}
	if err := v.TxIndexToIsExplicitRBF.PushIfNeeded(txIndex, tx.IsExplicitlyRBF); err != nil {
		return err
	}
	if err := v.TxIndexToFirstInput.PushIfNeeded(txIndex, index.InputIndexFromUint64(v.InputIndexToOutputIndex.Len())); err != nil {
		return err
	}
	if err := v.TxIndexToFirstOutput.PushIfNeeded(txIndex, index.OutputIndexFromUint64(v.OutputIndexToValue.Len())); err != nil {
		return err
	}

	// The two hardcoded pre-BIP34 duplicate txids are skipped here so the
	// dictionary keeps pointing at the first occurrence: otherwise the
	// second Insert would silently redirect every future input spending
	// from the first transaction's outputs to the second one's.
	prefix := chainmodel.NewTxidPrefix(tx.Txid)
	if !isKnownDuplicate(txIndex, prefix) {
		if err := s.TxidPrefixToTxIndex.Insert(prefix, txIndex); err != nil {
			return err
		}
	}

	for _, in := range tx.Inputs {
		if err := c.ingestInput(in); err != nil {
			return err
		}
	}
	for _, out := range tx.Outputs {
		if err := c.ingestOutput(txIndex, out); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) ingestInput(in chainmodel.Input) error {
	v := c.vecs
	s := c.stores

	inputIndex := index.InputIndexFromUint64(v.InputIndexToOutputIndex.Len())

	outputIndex := index.OutputIndexMax
	if !in.Coinbase {
		prevTxIndex, ok := s.TxidPrefixToTxIndex.Get(chainmodel.NewTxidPrefix(in.PrevTxid))
		if !ok {
			return ErrMissingPredecessor
		}
		firstOutput, ok := v.TxIndexToFirstOutput.Get(prevTxIndex)
		if !ok {
			return ErrMissingPredecessor
		}
		sum, overflow := numeric.SafeAdd(firstOutput.Uint64(), uint64(in.PrevVout))
		if overflow {
			return errors.Wrapf(ErrMissingPredecessor, "vout %d overflows first_output %d", in.PrevVout, firstOutput.Uint64())
		}
		outputIndex = index.OutputIndexFromUint64(sum)
	}
	return v.InputIndexToOutputIndex.PushIfNeeded(inputIndex, outputIndex)
}

func (c *Coordinator) ingestOutput(txIndex index.TxIndex, out chainmodel.Output) error {
	v := c.vecs

	outputIndex := index.OutputIndexFromUint64(v.OutputIndexToValue.Len())
	if err := v.OutputIndexToType.PushIfNeeded(outputIndex, out.Type); err != nil {
		return err
	}
	if err := v.OutputIndexToValue.PushIfNeeded(outputIndex, out.Value); err != nil {
		return err
	}

	var typeIndex index.TypeIndex
	var err error
	switch out.Type {
	case chainmodel.P2A:
		typeIndex, err = internAddress(c, v.P2AAddressIndexToBytes, index.P2AAddressIndexFromUint64, out.Type, out.Address)
	case chainmodel.P2PK33:
		typeIndex, err = internAddress(c, v.P2PK33AddressIndexToBytes, index.P2PK33AddressIndexFromUint64, out.Type, out.Address)
	case chainmodel.P2PK65:
		typeIndex, err = internAddress(c, v.P2PK65AddressIndexToBytes, index.P2PK65AddressIndexFromUint64, out.Type, out.Address)
	case chainmodel.P2PKH:
		typeIndex, err = internAddress(c, v.P2PKHAddressIndexToBytes, index.P2PKHAddressIndexFromUint64, out.Type, out.Address)
	case chainmodel.P2SH:
		typeIndex, err = internAddress(c, v.P2SHAddressIndexToBytes, index.P2SHAddressIndexFromUint64, out.Type, out.Address)
	case chainmodel.P2TR:
		typeIndex, err = internAddress(c, v.P2TRAddressIndexToBytes, index.P2TRAddressIndexFromUint64, out.Type, out.Address)
	case chainmodel.P2WPKH:
		typeIndex, err = internAddress(c, v.P2WPKHAddressIndexToBytes, index.P2WPKHAddressIndexFromUint64, out.Type, out.Address)
	case chainmodel.P2WSH:
		typeIndex, err = internAddress(c, v.P2WSHAddressIndexToBytes, index.P2WSHAddressIndexFromUint64, out.Type, out.Address)
	case chainmodel.Empty:
		typeIndex, err = nextSubIndex(v.EmptyOutputIndexToTxIndex, index.EmptyOutputIndexFromUint64, txIndex)
	case chainmodel.OpReturn:
		typeIndex, err = nextSubIndex(v.OpReturnIndexToTxIndex, index.OpReturnIndexFromUint64, txIndex)
	case chainmodel.Unknown:
		typeIndex, err = nextSubIndex(v.UnknownOutputIndexToTxIndex, index.UnknownOutputIndexFromUint64, txIndex)
	case chainmodel.P2MS:
		typeIndex, err = nextSubIndex(v.P2MSOutputIndexToTxIndex, index.P2MSOutputIndexFromUint64, txIndex)
	default:
		err = errors.Errorf("indexer: unclassified output type %s", out.Type)
	}
	if err != nil {
		return err
	}
	return v.OutputIndexToTypeIndex.PushIfNeeded(outputIndex, typeIndex)
}

// internAddress resolves bytes's dictionary entry under
// addressbyteshash_to_typeindex, reusing an existing TypeIndex for a
// previously seen address or assigning the next one and recording
// both the dictionary entry and the address-space column append.
func internAddress[K cvs.Key](
	c *Coordinator,
	col *cvs.Column[K, chainmodel.AddressBytes],
	fromUint64 func(uint64) K,
	t chainmodel.OutputType,
	bytes chainmodel.AddressBytes,
) (index.TypeIndex, error) {
	hash := chainmodel.NewAddressBytesHash(bytes, t)
	if ti, ok := c.stores.AddressByteshashToTypeIndex.Get(hash); ok {
		return ti, nil
	}
	next := fromUint64(col.Len())
	if err := col.PushIfNeeded(next, bytes); err != nil {
		return index.TypeIndex{}, err
	}
	ti := index.TypeIndexFromUint64(next.Uint64())
	if err := c.stores.AddressByteshashToTypeIndex.Insert(hash, ti); err != nil {
		return index.TypeIndex{}, err
	}
	return ti, nil
}

// nextSubIndex appends txIndex to one of the no-address-space output
// sub-spaces (empty, OP_RETURN, unknown, bare multisig) and returns
// its position as a TypeIndex, the shared "index within type" unit
// recorded in outputindex_to_typeindex.
func nextSubIndex[K cvs.Key](col *cvs.Column[K, index.TxIndex], fromUint64 func(uint64) K, txIndex index.TxIndex) (index.TypeIndex, error) {
	next := fromUint64(col.Len())
	if err := col.PushIfNeeded(next, txIndex); err != nil {
		return index.TypeIndex{}, err
	}
	return index.TypeIndexFromUint64(next.Uint64()), nil
}
