package chainmodel

// Block is the unit of work the coordinator consumes from the block
// source (spec §6's input interface), in order, one height at a time.
type Block struct {
	Hash         BlockHash
	Timestamp    Timestamp
	Difficulty   Difficulty
	TotalSize    uint32
	Weight       Weight
	Transactions []Transaction
}

// Transaction is one ordered transaction within a Block.
type Transaction struct {
	Txid              Txid
	Version           TxVersion
	LockTime          RawLockTime
	BaseSize          uint32
	TotalSize         uint32
	IsExplicitlyRBF   bool
	Inputs            []Input
	Outputs           []Output
}

// Input is one ordered transaction input. Coinbase is true for the
// single input of a coinbase transaction, which has no previous
// outpoint to resolve.
type Input struct {
	Coinbase    bool
	PrevTxid    Txid
	PrevVout    uint32
}

// Output is one ordered transaction output, already classified by the
// block source (script classification is outside this package's
// concern; the coordinator only consumes the result).
type Output struct {
	Value Sats
	Type  OutputType
	// Address is the raw address payload, present (and exactly
	// Type.AddressByteLen() bytes) iff Type.HasAddressSpace().
	Address AddressBytes
}
