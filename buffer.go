package pka

import (
	"errors"
	"io"
)

var errNegativePosition = errors.New("pka: negative position")

// Buffer is an in-memory stream that supports Read, Write and Seek.
//
// Writes at a position past the end grow the buffer, zero-filling any gap.
// The zero value is an empty buffer ready to use.
type Buffer struct {
	data []byte
	pos  int64
}

// NewBuffer returns a Buffer holding data, positioned at the start.
// The Buffer takes ownership of data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the buffer contents. The slice aliases the buffer until
// the next Write.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Read implements io.Reader.
func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += int64(n)
	return n, nil
}

// ReadAt implements io.ReaderAt.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativePosition
	}
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Write implements io.Writer.
func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.data)) {
		if end > int64(cap(b.data)) {
			grown := make([]byte, end, max(end, 2*int64(cap(b.data))))
			copy(grown, b.data)
			b.data = grown
		} else {
			// Bytes past len may hold stale data from an earlier Truncate.
			clear(b.data[len(b.data):end])
			b.data = b.data[:end]
		}
	}
	n := copy(b.data[b.pos:], p)
	b.pos += int64(n)
	return n, nil
}

// Seek implements io.Seeker. Seeking past the end is allowed.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = b.pos
	case io.SeekEnd:
		base = int64(len(b.data))
	default:
		return 0, errors.New("pka: invalid whence")
	}
	pos := base + offset
	if pos < 0 {
		return 0, errNegativePosition
	}
	b.pos = pos
	return pos, nil
}

// Truncate discards all bytes past size.
func (b *Buffer) Truncate(size int64) error {
	if size < 0 {
		return errNegativePosition
	}
	if size < int64(len(b.data)) {
		b.data = b.data[:size]
	}
	return nil
}
