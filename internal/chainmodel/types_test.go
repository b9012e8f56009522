package chainmodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBlockHashPrefixTruncates(t *testing.T) {
	var h BlockHash
	for i := range h {
		h[i] = byte(i)
	}
	p := NewBlockHashPrefix(h)
	require.Equal(t, BlockHashPrefix{0, 1, 2, 3, 4, 5, 6, 7}, p)
}

func TestNewTxidPrefixTruncates(t *testing.T) {
	var txid Txid
	for i := range txid {
		txid[i] = byte(32 - i)
	}
	p := NewTxidPrefix(txid)
	require.Equal(t, TxidPrefix{32, 31, 30, 29, 28, 27, 26, 25}, p)
}

func TestAddressBytesHashDiffersByType(t *testing.T) {
	bytes := AddressBytes{1, 2, 3, 4}
	h1 := NewAddressBytesHash(bytes, P2PKH)
	h2 := NewAddressBytesHash(bytes, P2SH)
	require.NotEqual(t, h1, h2, "identical bytes under different types must not collide")
}

func TestAddressBytesHashDeterministic(t *testing.T) {
	bytes := AddressBytes{9, 8, 7}
	require.Equal(t, NewAddressBytesHash(bytes, P2TR), NewAddressBytesHash(bytes, P2TR))
}

func TestOutputTypeHasAddressSpace(t *testing.T) {
	for _, typ := range []OutputType{P2PK33, P2PK65, P2PKH, P2SH, P2WPKH, P2WSH, P2TR, P2A} {
		require.True(t, typ.HasAddressSpace(), "%s should have an address space", typ)
	}
	for _, typ := range []OutputType{OpReturn, Empty, Unknown, P2MS} {
		require.False(t, typ.HasAddressSpace(), "%s should not have an address space", typ)
	}
}

func TestOutputTypeAddressByteLen(t *testing.T) {
	require.Equal(t, 33, P2PK33.AddressByteLen())
	require.Equal(t, 65, P2PK65.AddressByteLen())
	require.Equal(t, 20, P2PKH.AddressByteLen())
	require.Equal(t, 32, P2TR.AddressByteLen())
	require.Zero(t, OpReturn.AddressByteLen())
}

func TestOutputTypeString(t *testing.T) {
	require.Equal(t, "p2pkh", P2PKH.String())
	require.Equal(t, "opreturn", OpReturn.String())
	require.Contains(t, OutputType(255).String(), "outputtype")
}
