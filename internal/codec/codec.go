// Package codec encodes and decodes the name table stored at the end of an
// archive.
//
// The archive header carries no version or codec marker, so the writer and
// every reader must agree on the Codec out of band.
package codec

import (
	"errors"
	"io"
)

// Sentinel errors for index decoding.
var (
	// ErrCorruptIndex is returned when the encoded index cannot be parsed.
	ErrCorruptIndex = errors.New("pka: corrupt index")

	// ErrTooManyEntries is returned when an index holds more entries than allowed.
	ErrTooManyEntries = errors.New("pka: too many entries")
)

// Record is one index row: a name and the location of its payload.
type Record struct {
	Name   string
	Offset uint64
	Length uint64
}

// Codec serializes index records.
//
// Encode receives records sorted by name and must write them in that order.
// Decode reads exactly one encoded index from r. maxEntries <= 0 disables
// the entry limit.
type Codec interface {
	Encode(w io.Writer, records []Record) error
	Decode(r io.Reader, maxEntries int) ([]Record, error)
}

// writeAll writes p in full, reporting io.ErrShortWrite for writers that
// stop early without an error.
func writeAll(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// readFull reads len(p) bytes, mapping a premature end of stream to
// ErrCorruptIndex while keeping the underlying cause.
func readFull(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return errors.Join(ErrCorruptIndex, io.ErrUnexpectedEOF)
		}
		return err
	}
	return nil
}

// readBytes reads n bytes without trusting n for the initial allocation.
// Streams that end early fail before a large buffer is ever committed.
func readBytes(r io.Reader, n uint64) ([]byte, error) {
	const chunk = 64 * 1024
	if n <= chunk {
		p := make([]byte, n)
		if err := readFull(r, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	var out []byte
	for remaining := n; remaining > 0; {
		step := min(remaining, chunk)
		start := len(out)
		out = append(out, make([]byte, step)...)
		if err := readFull(r, out[start:]); err != nil {
			return nil, err
		}
		remaining -= step
	}
	return out, nil
}
