// Package testutil provides stream doubles for archive tests.
package testutil

import (
	"errors"
	"io"
)

// ErrInjected is returned by FaultyStream for the operation chosen to fail.
var ErrInjected = errors.New("testutil: injected failure")

// FaultyStream wraps a stream, counts calls and fails a chosen call.
//
// FailRead, FailWrite and FailSeek name the 1-based call number that fails
// with ErrInjected; zero never fails.
type FaultyStream struct {
	S io.ReadWriteSeeker

	FailRead  int
	FailWrite int
	FailSeek  int

	Reads  int
	Writes int
	Seeks  int
}

// Read implements io.Reader.
func (f *FaultyStream) Read(p []byte) (int, error) {
	f.Reads++
	if f.Reads == f.FailRead {
		return 0, ErrInjected
	}
	return f.S.Read(p)
}

// Write implements io.Writer.
func (f *FaultyStream) Write(p []byte) (int, error) {
	f.Writes++
	if f.Writes == f.FailWrite {
		return 0, ErrInjected
	}
	return f.S.Write(p)
}

// Seek implements io.Seeker.
func (f *FaultyStream) Seek(offset int64, whence int) (int64, error) {
	f.Seeks++
	if f.Seeks == f.FailSeek {
		return 0, ErrInjected
	}
	return f.S.Seek(offset, whence)
}

// NamedPayload is one (name, bytes) pair used to build archives in tests.
type NamedPayload struct {
	Name string
	Data []byte
}

// Payloads returns a fixed mix of payloads covering empty, small, binary
// and nested names.
func Payloads() []NamedPayload {
	big := make([]byte, 70_000)
	for i := range big {
		big[i] = byte(i * 31)
	}
	return []NamedPayload{
		{Name: "a.txt", Data: []byte("hello")},
		{Name: "b.bin", Data: []byte{0x00, 0x01}},
		{Name: "empty", Data: []byte{}},
		{Name: "images/menu.bmp", Data: big},
		{Name: "images/icons/x.bmp", Data: []byte("x")},
		{Name: "zz ünïcode", Data: []byte("utf8")},
	}
}
