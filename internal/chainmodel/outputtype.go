// Package chainmodel holds the plain data types the coordinator consumes
// from an upstream block source (§6 of the design: block acquisition and
// parsing are external collaborators, never implemented here).
package chainmodel

import "fmt"

// OutputType classifies a transaction output's script. The eight types
// with a dense, reusable address space come first; the four that do not
// (no single reusable address, or not worth indexing by address) follow.
type OutputType uint8

const (
	P2PK33 OutputType = iota
	P2PK65
	P2PKH
	P2SH
	P2WPKH
	P2WSH
	P2TR
	P2A

	OpReturn
	Empty
	Unknown
	P2MS
)

// HasAddressSpace reports whether this output type owns a dense,
// reusable AddressIndex space (and thus a p2Taddressindex_to_p2Tbytes
// column and participation in addressbyteshash_to_typeindex).
func (t OutputType) HasAddressSpace() bool {
	return t <= P2A
}

func (t OutputType) String() string {
	switch t {
	case P2PK33:
		return "p2pk33"
	case P2PK65:
		return "p2pk65"
	case P2PKH:
		return "p2pkh"
	case P2SH:
		return "p2sh"
	case P2WPKH:
		return "p2wpkh"
	case P2WSH:
		return "p2wsh"
	case P2TR:
		return "p2tr"
	case P2A:
		return "p2a"
	case OpReturn:
		return "opreturn"
	case Empty:
		return "empty"
	case Unknown:
		return "unknown"
	case P2MS:
		return "p2ms"
	default:
		return fmt.Sprintf("outputtype(%d)", uint8(t))
	}
}

// AddressByteLen is the fixed width of the raw address bytes stored for
// each reusable-address output type. Fixed widths are what let the
// p2Taddressindex_to_p2Tbytes columns use a constant stride.
func (t OutputType) AddressByteLen() int {
	switch t {
	case P2PK33:
		return 33
	case P2PK65:
		return 65
	case P2PKH:
		return 20
	case P2SH:
		return 20
	case P2WPKH:
		return 20
	case P2WSH:
		return 32
	case P2TR:
		return 32
	case P2A:
		return 33
	default:
		return 0
	}
}
