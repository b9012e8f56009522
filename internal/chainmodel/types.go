package chainmodel

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// BlockHash is a full block hash, as handed in by the block source.
type BlockHash [32]byte

// Txid is a full transaction id, as handed in by the block source.
type Txid [32]byte

// PrefixLen is the width of the compact dictionary keys derived from a
// full hash. Collisions are possible in principle but are not handled:
// a later insert under the same prefix overwrites the earlier entry.
const PrefixLen = 8

// BlockHashPrefix is the first 8 bytes of a BlockHash, used as the key of
// the blockhashprefix_to_height partition.
type BlockHashPrefix [PrefixLen]byte

// NewBlockHashPrefix truncates a full block hash to its dictionary key.
func NewBlockHashPrefix(h BlockHash) BlockHashPrefix {
	var p BlockHashPrefix
	copy(p[:], h[:PrefixLen])
	return p
}

// TxidPrefix is the first 8 bytes of a Txid, used as the key of the
// txidprefix_to_txindex partition.
type TxidPrefix [PrefixLen]byte

// NewTxidPrefix truncates a full txid to its dictionary key.
func NewTxidPrefix(txid Txid) TxidPrefix {
	var p TxidPrefix
	copy(p[:], txid[:PrefixLen])
	return p
}

// Sats is a satoshi amount, the value column of outputindex_to_value.
type Sats uint64

// Timestamp is a block's header timestamp (seconds, Unix epoch). It is
// not guaranteed monotonic across heights: reorgs can replace a block
// with one carrying an earlier timestamp.
type Timestamp uint32

// Weight is a block's BIP141 weight unit.
type Weight uint32

// TxVersion is a transaction's version field.
type TxVersion uint32

// RawLockTime is a transaction's nLockTime field, uninterpreted.
type RawLockTime uint32

// Difficulty is a block's difficulty, stored as a float for compactness;
// downstream consumers reconstruct target/work from it as needed.
type Difficulty float64

// AddressBytes is the raw, variable-width (per output type) address
// payload extracted from a script, e.g. the 20-byte hash160 of a P2PKH
// script. Its width must equal OutputType.AddressByteLen() for the type
// it was classified as.
type AddressBytes []byte

// AddressBytesHash is the dictionary key of addressbyteshash_to_typeindex:
// a 64-bit hash of the address bytes, folded together with the output
// type so that two different types never collide on the same bytes (e.g.
// a 20-byte hash160 that is ambiguous between P2PKH and the hash part of
// P2SH).
type AddressBytesHash [8]byte

// NewAddressBytesHash computes the dictionary key for (bytes, t).
func NewAddressBytesHash(bytes AddressBytes, t OutputType) AddressBytesHash {
	h := xxhash.Sum64(bytes) ^ uint64(t)
	var out AddressBytesHash
	binary.LittleEndian.PutUint64(out[:], h)
	return out
}
