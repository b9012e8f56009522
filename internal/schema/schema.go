// Package schema is the fixed catalog of every CVS column and PKV
// partition the indexer owns: the contract downstream consumers rely
// on, named the way erigon-lib/kv's table catalog names its buckets.
package schema

// Version is a schema-evolution counter. Every CVS column combines a
// caller-supplied base version with the catalog-level and
// component-level constants below; any of the three changing forces a
// forced_import rebuild of that column (see cvs.ForcedImport). PKV
// partitions carry a Component in PartitionDef, but pkv.Open neither
// stores nor compares it, so a version change does not reset a
// partition. There is no in-place migration: this addition is the
// entire schema-evolution mechanism, by design.
type Version uint64

// Combine folds two version contributions into one. It is deliberately
// just addition: a caller composing base+catalog+component versions
// gets a value that changes whenever any of its inputs does, with no
// need for the components to agree on bit widths or encoding.
func (v Version) Combine(other Version) Version { return v + other }

// CatalogVersion is this repository's catalog-level contribution. Bump
// it when a column or partition's on-disk layout changes in a way that
// is not captured by the component's own version (e.g. the catalog
// reassigns which columns exist at all).
const CatalogVersion Version = 1

// ColumnName identifies one CVS column file on disk, relative to the
// CVS root directory.
type ColumnName string

// PartitionName identifies one PKV partition (a key-prefix namespace
// inside the shared pebble keyspace).
type PartitionName string

// KeySpace names one dense index space. Columns keyed by the same
// KeySpace must agree on length at every committed height (spec
// invariant 1).
type KeySpace string

const (
	KeySpaceHeight             KeySpace = "height"
	KeySpaceTxIndex            KeySpace = "txindex"
	KeySpaceInputIndex         KeySpace = "inputindex"
	KeySpaceOutputIndex        KeySpace = "outputindex"
	KeySpaceEmptyOutputIndex   KeySpace = "emptyoutputindex"
	KeySpaceOpReturnIndex      KeySpace = "opreturnindex"
	KeySpaceUnknownOutputIndex KeySpace = "unknownoutputindex"
	KeySpaceP2MSOutputIndex    KeySpace = "p2msoutputindex"
	KeySpaceP2AAddressIndex    KeySpace = "p2aaddressindex"
	KeySpaceP2PK33AddressIndex KeySpace = "p2pk33addressindex"
	KeySpaceP2PK65AddressIndex KeySpace = "p2pk65addressindex"
	KeySpaceP2PKHAddressIndex  KeySpace = "p2pkhaddressindex"
	KeySpaceP2SHAddressIndex   KeySpace = "p2shaddressindex"
	KeySpaceP2TRAddressIndex   KeySpace = "p2traddressindex"
	KeySpaceP2WPKHAddressIndex KeySpace = "p2wpkhaddressindex"
	KeySpaceP2WSHAddressIndex  KeySpace = "p2wshaddressindex"
)

// ColumnDef describes one catalog entry.
type ColumnDef struct {
	Name      ColumnName
	KeySpace  KeySpace
	ValueSize int     // fixed stride, in bytes
	Component Version // this column's own version contribution
	// Cursor, if non-empty, names the KeySpace this column's values are
	// a "first_*" cursor into (so it can be used to derive
	// starting_indexes at a given height). Empty if this column is not
	// a cursor column.
	Cursor KeySpace
}

// Column-name constants. Every "first_*" column is keyed by Height and
// is a cursor into the space named in its own identifier.
const (
	ColHeightToBlockHash   ColumnName = "height_to_blockhash"
	ColHeightToDifficulty  ColumnName = "height_to_difficulty"
	ColHeightToTimestamp   ColumnName = "height_to_timestamp"
	ColHeightToTotalSize   ColumnName = "height_to_totalsize"
	ColHeightToWeight      ColumnName = "height_to_weight"

	ColHeightToFirstTxIndex            ColumnName = "height_to_first_txindex"
	ColHeightToFirstInputIndex         ColumnName = "height_to_first_inputindex"
	ColHeightToFirstOutputIndex        ColumnName = "height_to_first_outputindex"
	ColHeightToFirstEmptyOutputIndex   ColumnName = "height_to_first_emptyoutputindex"
	ColHeightToFirstOpReturnIndex      ColumnName = "height_to_first_opreturnindex"
	ColHeightToFirstUnknownOutputIndex ColumnName = "height_to_first_unknownoutputindex"
	ColHeightToFirstP2MSOutputIndex    ColumnName = "height_to_first_p2msoutputindex"
	ColHeightToFirstP2AAddressIndex    ColumnName = "height_to_first_p2aaddressindex"
	ColHeightToFirstP2PK33AddressIndex ColumnName = "height_to_first_p2pk33addressindex"
	ColHeightToFirstP2PK65AddressIndex ColumnName = "height_to_first_p2pk65addressindex"
	ColHeightToFirstP2PKHAddressIndex  ColumnName = "height_to_first_p2pkhaddressindex"
	ColHeightToFirstP2SHAddressIndex   ColumnName = "height_to_first_p2shaddressindex"
	ColHeightToFirstP2TRAddressIndex   ColumnName = "height_to_first_p2traddressindex"
	ColHeightToFirstP2WPKHAddressIndex ColumnName = "height_to_first_p2wpkhaddressindex"
	ColHeightToFirstP2WSHAddressIndex  ColumnName = "height_to_first_p2wshaddressindex"

	ColTxIndexToTxid           ColumnName = "txindex_to_txid"
	ColTxIndexToVersion        ColumnName = "txindex_to_txversion"
	ColTxIndexToLockTime       ColumnName = "txindex_to_rawlocktime"
	ColTxIndexToBaseSize       ColumnName = "txindex_to_basesize"
	ColTxIndexToTotalSize      ColumnName = "txindex_to_totalsize"
	ColTxIndexToIsExplicitRBF  ColumnName = "txindex_to_is_explicitly_rbf"
	ColTxIndexToFirstInput     ColumnName = "txindex_to_first_inputindex"
	ColTxIndexToFirstOutput    ColumnName = "txindex_to_first_outputindex"

	ColInputIndexToOutputIndex ColumnName = "inputindex_to_outputindex"

	ColOutputIndexToType      ColumnName = "outputindex_to_type"
	ColOutputIndexToTypeIndex ColumnName = "outputindex_to_typeindex"
	ColOutputIndexToValue     ColumnName = "outputindex_to_value"

	ColEmptyOutputIndexToTxIndex   ColumnName = "emptyoutputindex_to_txindex"
	ColOpReturnIndexToTxIndex      ColumnName = "opreturnindex_to_txindex"
	ColUnknownOutputIndexToTxIndex ColumnName = "unknownoutputindex_to_txindex"
	ColP2MSOutputIndexToTxIndex    ColumnName = "p2msoutputindex_to_txindex"

	ColP2AAddressIndexToBytes    ColumnName = "p2aaddressindex_to_p2abytes"
	ColP2PK33AddressIndexToBytes ColumnName = "p2pk33addressindex_to_p2pk33bytes"
	ColP2PK65AddressIndexToBytes ColumnName = "p2pk65addressindex_to_p2pk65bytes"
	ColP2PKHAddressIndexToBytes  ColumnName = "p2pkhaddressindex_to_p2pkhbytes"
	ColP2SHAddressIndexToBytes   ColumnName = "p2shaddressindex_to_p2shbytes"
	ColP2TRAddressIndexToBytes   ColumnName = "p2traddressindex_to_p2trbytes"
	ColP2WPKHAddressIndexToBytes ColumnName = "p2wpkhaddressindex_to_p2wpkhbytes"
	ColP2WSHAddressIndexToBytes  ColumnName = "p2wshaddressindex_to_p2wshbytes"
)

// Partition-name constants: the three coordinator-owned PKV partitions.
const (
	PartBlockHashPrefixToHeight      PartitionName = "blockhashprefix_to_height"
	PartTxidPrefixToTxIndex          PartitionName = "txidprefix_to_txindex"
	PartAddressByteshashToTypeIndex  PartitionName = "addressbyteshash_to_typeindex"
)

// PartitionDef describes one catalog entry for a PKV partition.
type PartitionDef struct {
	Name      PartitionName
	KeySize   int
	ValueSize int
	Component Version
}

// Columns is the full column catalog, in no particular order (callers
// that need block-size or scan order build their own slices).
var Columns = []ColumnDef{
	{Name: ColHeightToBlockHash, KeySpace: KeySpaceHeight, ValueSize: 32, Component: 1},
	{Name: ColHeightToDifficulty, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1},
	{Name: ColHeightToTimestamp, KeySpace: KeySpaceHeight, ValueSize: 4, Component: 1},
	{Name: ColHeightToTotalSize, KeySpace: KeySpaceHeight, ValueSize: 4, Component: 1},
	{Name: ColHeightToWeight, KeySpace: KeySpaceHeight, ValueSize: 4, Component: 1},

	{Name: ColHeightToFirstTxIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceTxIndex},
	{Name: ColHeightToFirstInputIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceInputIndex},
	{Name: ColHeightToFirstOutputIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceOutputIndex},
	{Name: ColHeightToFirstEmptyOutputIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceEmptyOutputIndex},
	{Name: ColHeightToFirstOpReturnIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceOpReturnIndex},
	{Name: ColHeightToFirstUnknownOutputIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceUnknownOutputIndex},
	{Name: ColHeightToFirstP2MSOutputIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceP2MSOutputIndex},
	{Name: ColHeightToFirstP2AAddressIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceP2AAddressIndex},
	{Name: ColHeightToFirstP2PK33AddressIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceP2PK33AddressIndex},
	{Name: ColHeightToFirstP2PK65AddressIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceP2PK65AddressIndex},
	{Name: ColHeightToFirstP2PKHAddressIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceP2PKHAddressIndex},
	{Name: ColHeightToFirstP2SHAddressIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceP2SHAddressIndex},
	{Name: ColHeightToFirstP2TRAddressIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceP2TRAddressIndex},
	{Name: ColHeightToFirstP2WPKHAddressIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceP2WPKHAddressIndex},
	{Name: ColHeightToFirstP2WSHAddressIndex, KeySpace: KeySpaceHeight, ValueSize: 8, Component: 1, Cursor: KeySpaceP2WSHAddressIndex},

	{Name: ColTxIndexToTxid, KeySpace: KeySpaceTxIndex, ValueSize: 32, Component: 1},
	{Name: ColTxIndexToVersion, KeySpace: KeySpaceTxIndex, ValueSize: 4, Component: 1},
	{Name: ColTxIndexToLockTime, KeySpace: KeySpaceTxIndex, ValueSize: 4, Component: 1},
	{Name: ColTxIndexToBaseSize, KeySpace: KeySpaceTxIndex, ValueSize: 4, Component: 1},
	{Name: ColTxIndexToTotalSize, KeySpace: KeySpaceTxIndex, ValueSize: 4, Component: 1},
	{Name: ColTxIndexToIsExplicitRBF, KeySpace: KeySpaceTxIndex, ValueSize: 1, Component: 1},
	{Name: ColTxIndexToFirstInput, KeySpace: KeySpaceTxIndex, ValueSize: 8, Component: 1, Cursor: KeySpaceInputIndex},
	{Name: ColTxIndexToFirstOutput, KeySpace: KeySpaceTxIndex, ValueSize: 8, Component: 1, Cursor: KeySpaceOutputIndex},

	{Name: ColInputIndexToOutputIndex, KeySpace: KeySpaceInputIndex, ValueSize: 8, Component: 1},

	{Name: ColOutputIndexToType, KeySpace: KeySpaceOutputIndex, ValueSize: 1, Component: 1},
	{Name: ColOutputIndexToTypeIndex, KeySpace: KeySpaceOutputIndex, ValueSize: 8, Component: 1},
	{Name: ColOutputIndexToValue, KeySpace: KeySpaceOutputIndex, ValueSize: 8, Component: 1},

	{Name: ColEmptyOutputIndexToTxIndex, KeySpace: KeySpaceEmptyOutputIndex, ValueSize: 8, Component: 1},
	{Name: ColOpReturnIndexToTxIndex, KeySpace: KeySpaceOpReturnIndex, ValueSize: 8, Component: 1},
	{Name: ColUnknownOutputIndexToTxIndex, KeySpace: KeySpaceUnknownOutputIndex, ValueSize: 8, Component: 1},
	{Name: ColP2MSOutputIndexToTxIndex, KeySpace: KeySpaceP2MSOutputIndex, ValueSize: 8, Component: 1},

	{Name: ColP2AAddressIndexToBytes, KeySpace: KeySpaceP2AAddressIndex, ValueSize: 33, Component: 1},
	{Name: ColP2PK33AddressIndexToBytes, KeySpace: KeySpaceP2PK33AddressIndex, ValueSize: 33, Component: 1},
	{Name: ColP2PK65AddressIndexToBytes, KeySpace: KeySpaceP2PK65AddressIndex, ValueSize: 65, Component: 1},
	{Name: ColP2PKHAddressIndexToBytes, KeySpace: KeySpaceP2PKHAddressIndex, ValueSize: 20, Component: 1},
	{Name: ColP2SHAddressIndexToBytes, KeySpace: KeySpaceP2SHAddressIndex, ValueSize: 20, Component: 1},
	{Name: ColP2TRAddressIndexToBytes, KeySpace: KeySpaceP2TRAddressIndex, ValueSize: 32, Component: 1},
	{Name: ColP2WPKHAddressIndexToBytes, KeySpace: KeySpaceP2WPKHAddressIndex, ValueSize: 20, Component: 1},
	{Name: ColP2WSHAddressIndexToBytes, KeySpace: KeySpaceP2WSHAddressIndex, ValueSize: 32, Component: 1},
}

// Partitions is the full partition catalog.
var Partitions = []PartitionDef{
	{Name: PartBlockHashPrefixToHeight, KeySize: 8, ValueSize: 8, Component: 1},
	{Name: PartTxidPrefixToTxIndex, KeySize: 8, ValueSize: 8, Component: 1},
	{Name: PartAddressByteshashToTypeIndex, KeySize: 8, ValueSize: 8, Component: 1},
}

// ColumnsByKeySpace indexes Columns by KeySpace for invariant checks
// (spec invariant 1: every column sharing a key space agrees on length).
func ColumnsByKeySpace(ks KeySpace) []ColumnDef {
	var out []ColumnDef
	for _, c := range Columns {
		if c.KeySpace == ks {
			out = append(out, c)
		}
	}
	return out
}

// CursorColumn returns the "first_*" column that is a cursor into ks,
// or false if ks has no cursor column (true for every space except
// Height itself).
func CursorColumn(ks KeySpace) (ColumnDef, bool) {
	for _, c := range Columns {
		if c.Cursor == ks {
			return c, true
		}
	}
	return ColumnDef{}, false
}

// Reserved, unimplemented partition-name families for the
// analytics-layer per-address-type UTXO tracking. These exist in the
// original source as a `todo!()` stub (crates/brk_computer/src/stores.rs)
// and are listed here only as documentation of the names a future
// implementation would need — never constructed, never opened, not
// part of Partitions above. See the repository's open-question note.
//
//	p2{a,pk33,pk65,pkh,sh,tr,wpkh,wsh}addressindex_to_addressdata
//	p2{...}addressindex_to_emptyaddressdata
//	p2{...}addressindex_to_utxos_received
//	p2{...}addressindex_to_utxos_sent
