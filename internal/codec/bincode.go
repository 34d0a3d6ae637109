package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"
)

// Varint markers. Values below markerU16 are stored as a single byte.
const (
	markerU16 = 251
	markerU32 = 252
	markerU64 = 253
)

// Bincode is the compact varint layout used by existing Pocket Knife
// tooling: an entry count followed by (name, offset, length) triples.
type Bincode struct{}

// Encode implements Codec.
func (Bincode) Encode(w io.Writer, records []Record) error {
	var buf bytes.Buffer
	buf.Grow(16 + len(records)*32)
	appendVarint(&buf, uint64(len(records)))
	for _, rec := range records {
		appendVarint(&buf, uint64(len(rec.Name)))
		buf.WriteString(rec.Name)
		appendVarint(&buf, rec.Offset)
		appendVarint(&buf, rec.Length)
	}
	return writeAll(w, buf.Bytes())
}

// Decode implements Codec.
func (Bincode) Decode(r io.Reader, maxEntries int) ([]Record, error) {
	br := bufio.NewReader(r)
	count, err := readVarint(br)
	if err != nil {
		return nil, fmt.Errorf("entry count: %w", err)
	}
	if maxEntries > 0 && count > uint64(maxEntries) {
		return nil, fmt.Errorf("%w: %d entries, limit %d", ErrTooManyEntries, count, maxEntries)
	}

	records := make([]Record, 0, min(count, 1024))
	for i := uint64(0); i < count; i++ {
		rec, err := readRecord(br)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readRecord(r *bufio.Reader) (Record, error) {
	nameLen, err := readVarint(r)
	if err != nil {
		return Record{}, err
	}
	name, err := readBytes(r, nameLen)
	if err != nil {
		return Record{}, err
	}
	if !utf8.Valid(name) {
		return Record{}, fmt.Errorf("%w: name is not valid UTF-8", ErrCorruptIndex)
	}
	offset, err := readVarint(r)
	if err != nil {
		return Record{}, err
	}
	length, err := readVarint(r)
	if err != nil {
		return Record{}, err
	}
	return Record{Name: string(name), Offset: offset, Length: length}, nil
}

func appendVarint(buf *bytes.Buffer, v uint64) {
	var scratch [8]byte
	switch {
	case v < markerU16:
		buf.WriteByte(byte(v))
	case v <= 0xFFFF:
		buf.WriteByte(markerU16)
		binary.LittleEndian.PutUint16(scratch[:2], uint16(v))
		buf.Write(scratch[:2])
	case v <= 0xFFFF_FFFF:
		buf.WriteByte(markerU32)
		binary.LittleEndian.PutUint32(scratch[:4], uint32(v))
		buf.Write(scratch[:4])
	default:
		buf.WriteByte(markerU64)
		binary.LittleEndian.PutUint64(scratch[:], v)
		buf.Write(scratch[:])
	}
}

func readVarint(r *bufio.Reader) (uint64, error) {
	var scratch [8]byte
	if err := readFull(r, scratch[:1]); err != nil {
		return 0, err
	}
	switch b := scratch[0]; {
	case b < markerU16:
		return uint64(b), nil
	case b == markerU16:
		if err := readFull(r, scratch[:2]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(scratch[:2])), nil
	case b == markerU32:
		if err := readFull(r, scratch[:4]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(scratch[:4])), nil
	case b == markerU64:
		if err := readFull(r, scratch[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(scratch[:]), nil
	default:
		return 0, fmt.Errorf("%w: invalid varint marker %d", ErrCorruptIndex, b)
	}
}
