package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/pocketknife/pka/internal/fb"
)

// FlatBuffers stores the index as a size-prefixed FlatBuffers buffer
// (see schema/index.fbs).
type FlatBuffers struct{}

// Encode implements Codec.
func (FlatBuffers) Encode(w io.Writer, records []Record) error {
	return writeAll(w, buildIndex(records))
}

// buildIndex serializes records to a size-prefixed FlatBuffers buffer.
func buildIndex(records []Record) []byte {
	builder := flatbuffers.NewBuilder(1024)

	// Build entries in reverse order (FlatBuffers requirement)
	entryOffsets := make([]flatbuffers.UOffsetT, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		nameOffset := builder.CreateString(rec.Name)

		fb.EntryStart(builder)
		fb.EntryAddName(builder, nameOffset)
		fb.EntryAddOffset(builder, rec.Offset)
		fb.EntryAddLength(builder, rec.Length)
		entryOffsets[i] = fb.EntryEnd(builder)
	}

	fb.IndexStartEntriesVector(builder, len(records))
	for i := len(entryOffsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(entryOffsets[i])
	}
	entriesOffset := builder.EndVector(len(records))

	fb.IndexStart(builder)
	fb.IndexAddEntries(builder, entriesOffset)
	indexOffset := fb.IndexEnd(builder)

	fb.FinishSizePrefixedIndexBuffer(builder, indexOffset)
	return builder.FinishedBytes()
}

// Decode implements Codec.
func (FlatBuffers) Decode(r io.Reader, maxEntries int) ([]Record, error) {
	var prefix [flatbuffers.SizeUint32]byte
	if err := readFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("size prefix: %w", err)
	}
	size := binary.LittleEndian.Uint32(prefix[:])
	if size < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("%w: buffer of %d bytes", ErrCorruptIndex, size)
	}
	data, err := readBytes(r, uint64(size))
	if err != nil {
		return nil, err
	}
	return parseIndex(data, maxEntries)
}

// parseIndex walks a FlatBuffers index. The generated accessors index the
// buffer without bounds checks, so out-of-range offsets in a damaged buffer
// surface as panics; those are reported as ErrCorruptIndex.
func parseIndex(data []byte, maxEntries int) (records []Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = fmt.Errorf("%w: %v", ErrCorruptIndex, r)
		}
	}()

	root := fb.GetRootAsIndex(data, 0)
	n := root.EntriesLength()
	if maxEntries > 0 && n > maxEntries {
		return nil, fmt.Errorf("%w: %d entries, limit %d", ErrTooManyEntries, n, maxEntries)
	}

	// Each vector slot takes at least one offset in data.
	records = make([]Record, 0, min(n, len(data)/flatbuffers.SizeUOffsetT))
	var entry fb.Entry
	for i := range n {
		if !root.Entries(&entry, i) {
			return nil, fmt.Errorf("%w: missing entry %d", ErrCorruptIndex, i)
		}
		name := entry.Name()
		if !utf8.Valid(name) {
			return nil, fmt.Errorf("%w: name is not valid UTF-8", ErrCorruptIndex)
		}
		records = append(records, Record{
			Name:   string(name),
			Offset: entry.Offset(),
			Length: entry.Length(),
		})
	}
	return records, nil
}
