package indexer

import (
	"github.com/brk-indexer/brkidx/internal/chainmodel"
	"github.com/brk-indexer/brkidx/internal/cvs"
	"github.com/brk-indexer/brkidx/internal/index"
)

// knownDuplicate is one of the two hardcoded historical pre-BIP34
// duplicate txids (spec §3.3 P2 / §6): its first occurrence must
// survive PKV rollback even though its txindex lies at or beyond
// whatever starting_indexes.txindex a later rollback computes for it.
type knownDuplicate struct {
	txIndex index.TxIndex
	prefix  chainmodel.TxidPrefix
}

var knownDuplicates = []knownDuplicate{
	{
		txIndex: index.TxIndexFromUint64(142_783),
		prefix:  chainmodel.TxidPrefix{153, 133, 216, 41, 84, 225, 15, 34},
	},
	{
		txIndex: index.TxIndexFromUint64(142_841),
		prefix:  chainmodel.TxidPrefix{104, 180, 95, 88, 182, 116, 233, 78},
	},
}

func isKnownDuplicate(txIndex index.TxIndex, prefix chainmodel.TxidPrefix) bool {
	for _, d := range knownDuplicates {
		if d.txIndex == txIndex && d.prefix == prefix {
			return true
		}
	}
	return false
}

// savedHeight computes starting_height-1, saturating at ZERO — the
// watermark every rolled-back column records (decremented().unwrap_or_default()
// in the original).
func savedHeight(startingHeight index.Height) index.Height {
	if h, ok := startingHeight.Decrement(); ok {
		return h
	}
	return index.ZeroHeight()
}

// rollbackPKV derives, from the not-yet-truncated tail of the CVS
// columns, every PKV key that was inserted at or after idx.Height (or
// idx.TxIndex / the per-type address cursors), and removes it. It must
// run before vecs.truncate (rollbackCVS below): once a column is
// truncated, the tail it would have to walk is gone.
func (c *Coordinator) rollbackPKV(idx Indexes) error {
	if idx.Height.IsZero() {
		if err := c.stores.BlockHashPrefixToHeight.ResetPartition(); err != nil {
			return err
		}
	} else {
		err := c.vecs.HeightToBlockHash.IterAt(idx.Height, func(_ index.Height, hash chainmodel.BlockHash) error {
			return c.stores.BlockHashPrefixToHeight.Remove(chainmodel.NewBlockHashPrefix(hash))
		})
		if err != nil {
			return err
		}
	}

	if idx.Height.IsZero() {
		if err := c.stores.AddressByteshashToTypeIndex.ResetPartition(); err != nil {
			return err
		}
	} else {
		if err := rollbackAddressSpace(c.vecs.P2AAddressIndexToBytes, idx.P2AAddressIndex, chainmodel.P2A, c.stores); err != nil {
			return err
		}
		if err := rollbackAddressSpace(c.vecs.P2PK33AddressIndexToBytes, idx.P2PK33AddressIndex, chainmodel.P2PK33, c.stores); err != nil {
			return err
		}
		if err := rollbackAddressSpace(c.vecs.P2PK65AddressIndexToBytes, idx.P2PK65AddressIndex, chainmodel.P2PK65, c.stores); err != nil {
			return err
		}
		if err := rollbackAddressSpace(c.vecs.P2PKHAddressIndexToBytes, idx.P2PKHAddressIndex, chainmodel.P2PKH, c.stores); err != nil {
			return err
		}
		if err := rollbackAddressSpace(c.vecs.P2SHAddressIndexToBytes, idx.P2SHAddressIndex, chainmodel.P2SH, c.stores); err != nil {
			return err
		}
		if err := rollbackAddressSpace(c.vecs.P2TRAddressIndexToBytes, idx.P2TRAddressIndex, chainmodel.P2TR, c.stores); err != nil {
			return err
		}
		if err := rollbackAddressSpace(c.vecs.P2WPKHAddressIndexToBytes, idx.P2WPKHAddressIndex, chainmodel.P2WPKH, c.stores); err != nil {
			return err
		}
		if err := rollbackAddressSpace(c.vecs.P2WSHAddressIndexToBytes, idx.P2WSHAddressIndex, chainmodel.P2WSH, c.stores); err != nil {
			return err
		}
	}

	if idx.TxIndex.IsZero() {
		if err := c.stores.TxidPrefixToTxIndex.ResetPartition(); err != nil {
			return err
		}
	} else {
		err := c.vecs.TxIndexToTxid.IterAt(idx.TxIndex, func(txIndex index.TxIndex, txid chainmodel.Txid) error {
			prefix := chainmodel.NewTxidPrefix(txid)
			if isKnownDuplicate(txIndex, prefix) {
				return nil
			}
			return c.stores.TxidPrefixToTxIndex.Remove(prefix)
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// rollbackAddressSpace walks one typed address column forward from
// cursor, removing every (hash(bytes), type) dictionary entry it
// produced — the per-output-type leg of §4.4.1's address-dictionary
// rollback.
func rollbackAddressSpace[K cvs.Key](
	col *cvs.Column[K, chainmodel.AddressBytes],
	cursor K,
	t chainmodel.OutputType,
	stores *Stores,
) error {
	return col.IterAt(cursor, func(_ K, bytes chainmodel.AddressBytes) error {
		return stores.AddressByteshashToTypeIndex.Remove(chainmodel.NewAddressBytesHash(bytes, t))
	})
}

// rollbackCVS truncates every column back to its starting_indexes
// cursor (or to idx.Height for the height-keyed columns), recording
// savedHeight as the new durable watermark throughout. Must run after
// rollbackPKV.
func (c *Coordinator) rollbackCVS(idx Indexes) error {
	sh := savedHeight(idx.Height)
	v := c.vecs

	heightCols := []interface {
		TruncateIfNeeded(index.Height, index.Height) error
	}{
		v.HeightToBlockHash, v.HeightToDifficulty, v.HeightToTimestamp, v.HeightToTotalSize, v.HeightToWeight,
		v.HeightToFirstTxIndex, v.HeightToFirstInputIndex, v.HeightToFirstOutputIndex,
		v.HeightToFirstEmptyOutputIndex, v.HeightToFirstOpReturnIndex, v.HeightToFirstUnknownOutputIndex,
		v.HeightToFirstP2MSOutputIndex, v.HeightToFirstP2AAddressIndex, v.HeightToFirstP2PK33AddressIndex,
		v.HeightToFirstP2PK65AddressIndex, v.HeightToFirstP2PKHAddressIndex, v.HeightToFirstP2SHAddressIndex,
		v.HeightToFirstP2TRAddressIndex, v.HeightToFirstP2WPKHAddressIndex, v.HeightToFirstP2WSHAddressIndex,
	}
	for _, col := range heightCols {
		if err := col.TruncateIfNeeded(idx.Height, sh); err != nil {
			return err
		}
	}

	if err := v.TxIndexToTxid.TruncateIfNeeded(idx.TxIndex, sh); err != nil {
		return err
	}
	if err := v.TxIndexToVersion.TruncateIfNeeded(idx.TxIndex, sh); err != nil {
		return err
	}
	if err := v.TxIndexToLockTime.TruncateIfNeeded(idx.TxIndex, sh); err != nil {
		return err
	}
	if err := v.TxIndexToBaseSize.TruncateIfNeeded(idx.TxIndex, sh); err != nil {
		return err
	}
	if err := v.TxIndexToTotalSize.TruncateIfNeeded(idx.TxIndex, sh); err != nil {
		return err
	}
	if err := v.TxIndexToIsExplicitRBF.TruncateIfNeeded(idx.TxIndex, sh); err != nil {
		return err
	}
	if err := v.TxIndexToFirstInput.TruncateIfNeeded(idx.TxIndex, sh); err != nil {
		return err
	}
	if err := v.TxIndexToFirstOutput.TruncateIfNeeded(idx.TxIndex, sh); err != nil {
		return err
	}

	if err := v.InputIndexToOutputIndex.TruncateIfNeeded(idx.InputIndex, sh); err != nil {
		return err
	}

	if err := v.OutputIndexToType.TruncateIfNeeded(idx.OutputIndex, sh); err != nil {
		return err
	}
	if err := v.OutputIndexToTypeIndex.TruncateIfNeeded(idx.OutputIndex, sh); err != nil {
		return err
	}
	if err := v.OutputIndexToValue.TruncateIfNeeded(idx.OutputIndex, sh); err != nil {
		return err
	}

	if err := v.EmptyOutputIndexToTxIndex.TruncateIfNeeded(idx.EmptyOutputIndex, sh); err != nil {
		return err
	}
	if err := v.OpReturnIndexToTxIndex.TruncateIfNeeded(idx.OpReturnIndex, sh); err != nil {
		return err
	}
	if err := v.UnknownOutputIndexToTxIndex.TruncateIfNeeded(idx.UnknownOutputIndex, sh); err != nil {
		return err
	}
	if err := v.P2MSOutputIndexToTxIndex.TruncateIfNeeded(idx.P2MSOutputIndex, sh); err != nil {
		return err
	}

	if err := v.P2AAddressIndexToBytes.TruncateIfNeeded(idx.P2AAddressIndex, sh); err != nil {
		return err
	}
	if err := v.P2PK33AddressIndexToBytes.TruncateIfNeeded(idx.P2PK33AddressIndex, sh); err != nil {
		return err
	}
	if err := v.P2PK65AddressIndexToBytes.TruncateIfNeeded(idx.P2PK65AddressIndex, sh); err != nil {
		return err
	}
	if err := v.P2PKHAddressIndexToBytes.TruncateIfNeeded(idx.P2PKHAddressIndex, sh); err != nil {
		return err
	}
	if err := v.P2SHAddressIndexToBytes.TruncateIfNeeded(idx.P2SHAddressIndex, sh); err != nil {
		return err
	}
	if err := v.P2TRAddressIndexToBytes.TruncateIfNeeded(idx.P2TRAddressIndex, sh); err != nil {
		return err
	}
	if err := v.P2WPKHAddressIndexToBytes.TruncateIfNeeded(idx.P2WPKHAddressIndex, sh); err != nil {
		return err
	}
	if err := v.P2WSHAddressIndexToBytes.TruncateIfNeeded(idx.P2WSHAddressIndex, sh); err != nil {
		return err
	}
	return nil
}
