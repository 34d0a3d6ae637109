package pka

import (
	"fmt"
	"strings"

	"github.com/pocketknife/pka/internal/codec"
)

// IndexCodec selects the encoding of the index at the end of an archive.
//
// The archive does not record which codec wrote it; readers must be
// configured with the codec the writer used.
type IndexCodec uint8

const (
	// CodecBincode is the compact varint encoding read by existing
	// Pocket Knife tooling.
	CodecBincode IndexCodec = iota
	// CodecFlatBuffers stores a size-prefixed FlatBuffers table.
	CodecFlatBuffers
	// CodecCBOR stores a deterministic CBOR map.
	CodecCBOR
)

func (c IndexCodec) String() string {
	switch c {
	case CodecBincode:
		return "bincode"
	case CodecFlatBuffers:
		return "flatbuffers"
	case CodecCBOR:
		return "cbor"
	default:
		return fmt.Sprintf("IndexCodec(%d)", uint8(c))
	}
}

// ParseIndexCodec converts a codec name as printed by String.
func ParseIndexCodec(s string) (IndexCodec, error) {
	switch strings.ToLower(s) {
	case "bincode", "":
		return CodecBincode, nil
	case "flatbuffers", "fb":
		return CodecFlatBuffers, nil
	case "cbor":
		return CodecCBOR, nil
	default:
		return 0, fmt.Errorf("pka: unknown index codec %q", s)
	}
}

func (c IndexCodec) impl() (codec.Codec, error) {
	switch c {
	case CodecBincode:
		return codec.Bincode{}, nil
	case CodecFlatBuffers:
		return codec.FlatBuffers{}, nil
	case CodecCBOR:
		return codec.CBOR{}, nil
	default:
		return nil, fmt.Errorf("pka: unknown index codec %d", uint8(c))
	}
}
