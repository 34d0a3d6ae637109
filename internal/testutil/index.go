package testutil

import (
	"encoding/binary"
	"testing"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/pocketknife/pka/internal/fb"
)

// TestEntry holds one raw index row for hand-built archives.
type TestEntry struct {
	Name   string
	Offset uint64
	Length uint64
}

// BuildFlatBuffersIndex encodes entries as a size-prefixed FlatBuffers
// index, keeping their order and any repeated names.
func BuildFlatBuffersIndex(tb testing.TB, entries []TestEntry) []byte {
	tb.Helper()

	builder := flatbuffers.NewBuilder(1024)
	offsets := make([]flatbuffers.UOffsetT, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		name := builder.CreateString(entries[i].Name)
		fb.EntryStart(builder)
		fb.EntryAddName(builder, name)
		fb.EntryAddOffset(builder, entries[i].Offset)
		fb.EntryAddLength(builder, entries[i].Length)
		offsets[i] = fb.EntryEnd(builder)
	}

	fb.IndexStartEntriesVector(builder, len(offsets))
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	vec := builder.EndVector(len(offsets))

	fb.IndexStart(builder)
	fb.IndexAddEntries(builder, vec)
	root := fb.IndexEnd(builder)
	fb.FinishSizePrefixedIndexBuffer(builder, root)
	return builder.FinishedBytes()
}

// BuildArchive lays out signature, payload bytes and an encoded index by
// hand. The payload region starts at offset 28.
func BuildArchive(tb testing.TB, signature string, payload, index []byte) []byte {
	tb.Helper()

	out := make([]byte, 0, len(signature)+8+len(payload)+len(index))
	out = append(out, signature...)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(signature)+8+len(payload)))
	out = append(out, payload...)
	out = append(out, index...)
	return out
}
