package indexer

import (
	"encoding/binary"
	"math"

	"github.com/brk-indexer/brkidx/internal/chainmodel"
	"github.com/brk-indexer/brkidx/internal/cvs"
	"github.com/brk-indexer/brkidx/internal/index"
)

// byter is satisfied by every index.Idx[Tag] instantiation (including
// the exported aliases like index.Height, index.TxIndex, ...).
type byter interface {
	Bytes() [index.Size]byte
}

// idxCodec builds a fixed-8-byte Codec for an index type I (one of the
// exported aliases in package index) given its FromUint64 constructor.
// A generic helper keyed only on the exported alias, never on the
// unexported per-space tag, since callers outside package index cannot
// name the tags directly.
func idxCodec[I byter](fromUint64 func(uint64) I) cvs.Codec[I] {
	return cvs.Codec[I]{
		Size:   index.Size,
		Encode: func(v I, buf []byte) { b := v.Bytes(); copy(buf, b[:]) },
		Decode: func(buf []byte) I { return fromUint64(binary.LittleEndian.Uint64(buf)) },
	}
}

var hash32Codec = cvs.Codec[[32]byte]{
	Size:   32,
	Encode: func(v [32]byte, buf []byte) { copy(buf, v[:]) },
	Decode: func(buf []byte) [32]byte { var v [32]byte; copy(v[:], buf); return v },
}

var blockHashCodec = cvs.Codec[chainmodel.BlockHash]{
	Size:   32,
	Encode: func(v chainmodel.BlockHash, buf []byte) { copy(buf, v[:]) },
	Decode: func(buf []byte) chainmodel.BlockHash { var v chainmodel.BlockHash; copy(v[:], buf); return v },
}

var txidCodec = cvs.Codec[chainmodel.Txid]{
	Size:   32,
	Encode: func(v chainmodel.Txid, buf []byte) { copy(buf, v[:]) },
	Decode: func(buf []byte) chainmodel.Txid { var v chainmodel.Txid; copy(v[:], buf); return v },
}

var difficultyCodec = cvs.Codec[chainmodel.Difficulty]{
	Size:   8,
	Encode: func(v chainmodel.Difficulty, buf []byte) { binary.LittleEndian.PutUint64(buf, math.Float64bits(float64(v))) },
	Decode: func(buf []byte) chainmodel.Difficulty { return chainmodel.Difficulty(math.Float64frombits(binary.LittleEndian.Uint64(buf))) },
}

var timestampCodec = cvs.Codec[chainmodel.Timestamp]{
	Size:   4,
	Encode: func(v chainmodel.Timestamp, buf []byte) { binary.LittleEndian.PutUint32(buf, uint32(v)) },
	Decode: func(buf []byte) chainmodel.Timestamp { return chainmodel.Timestamp(binary.LittleEndian.Uint32(buf)) },
}

var weightCodec = cvs.Codec[chainmodel.Weight]{
	Size:   4,
	Encode: func(v chainmodel.Weight, buf []byte) { binary.LittleEndian.PutUint32(buf, uint32(v)) },
	Decode: func(buf []byte) chainmodel.Weight { return chainmodel.Weight(binary.LittleEndian.Uint32(buf)) },
}

var u32Codec = cvs.Codec[uint32]{
	Size:   4,
	Encode: func(v uint32, buf []byte) { binary.LittleEndian.PutUint32(buf, v) },
	Decode: func(buf []byte) uint32 { return binary.LittleEndian.Uint32(buf) },
}

var txVersionCodec = cvs.Codec[chainmodel.TxVersion]{
	Size:   4,
	Encode: func(v chainmodel.TxVersion, buf []byte) { binary.LittleEndian.PutUint32(buf, uint32(v)) },
	Decode: func(buf []byte) chainmodel.TxVersion { return chainmodel.TxVersion(binary.LittleEndian.Uint32(buf)) },
}

var lockTimeCodec = cvs.Codec[chainmodel.RawLockTime]{
	Size:   4,
	Encode: func(v chainmodel.RawLockTime, buf []byte) { binary.LittleEndian.PutUint32(buf, uint32(v)) },
	Decode: func(buf []byte) chainmodel.RawLockTime { return chainmodel.RawLockTime(binary.LittleEndian.Uint32(buf)) },
}

var boolCodec = cvs.Codec[bool]{
	Size: 1,
	Encode: func(v bool, buf []byte) {
		if v {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
	},
	Decode: func(buf []byte) bool { return buf[0] != 0 },
}

var satsCodec = cvs.Codec[chainmodel.Sats]{
	Size:   8,
	Encode: func(v chainmodel.Sats, buf []byte) { binary.LittleEndian.PutUint64(buf, uint64(v)) },
	Decode: func(buf []byte) chainmodel.Sats { return chainmodel.Sats(binary.LittleEndian.Uint64(buf)) },
}

var outputTypeCodec = cvs.Codec[chainmodel.OutputType]{
	Size:   1,
	Encode: func(v chainmodel.OutputType, buf []byte) { buf[0] = byte(v) },
	Decode: func(buf []byte) chainmodel.OutputType { return chainmodel.OutputType(buf[0]) },
}

// addressBytesCodec returns a fixed-width codec for raw address bytes
// of the given width (per-type: P2PKH is 20, P2TR is 32, etc). The
// caller is responsible for only ever pushing bytes of that exact
// width into the column it's paired with.
func addressBytesCodec(width int) cvs.Codec[chainmodel.AddressBytes] {
	return cvs.Codec[chainmodel.AddressBytes]{
		Size: width,
		Encode: func(v chainmodel.AddressBytes, buf []byte) {
			copy(buf, v)
		},
		Decode: func(buf []byte) chainmodel.AddressBytes {
			out := make(chainmodel.AddressBytes, len(buf))
			copy(out, buf)
			return out
		},
	}
}
