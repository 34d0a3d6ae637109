package pka

import (
	"encoding/binary"
	"io"
)

// Signature marks the start of every archive.
const Signature = "Pocket Knife Archive"

// Header layout.
const (
	// SignatureSize is the length of Signature in bytes.
	SignatureSize = 20
	// AddressSize is the width of the little-endian index address that
	// follows the signature.
	AddressSize = 8
	// HeaderSize is the offset of the first payload byte.
	HeaderSize = SignatureSize + AddressSize
)

func putAddress(addr uint64) [AddressSize]byte {
	var b [AddressSize]byte
	binary.LittleEndian.PutUint64(b[:], addr)
	return b
}

// writeFull writes p in full, reporting io.ErrShortWrite for writers that
// stop early without an error.
func writeFull(w io.Writer, p []byte) error {
	n, err := w.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// position reports the current offset of s.
func position(s io.Seeker) (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}
