package pka

import (
	"fmt"
	"io"
	"path/filepath"

	billy "gopkg.in/src-d/go-billy.v4"
)

// Producer is one named payload to be packed by Create.
//
// Name is called before any bytes of the item are written so duplicates are
// rejected early. WriteTo must return exactly the number of bytes it wrote
// to w; with LengthCheckNone that count is trusted as the entry length.
type Producer interface {
	Name() (string, error)
	io.WriterTo
}

// BytesProducer returns a Producer for an in-memory payload.
func BytesProducer(name string, data []byte) Producer {
	return &bytesProducer{name: name, data: data}
}

type bytesProducer struct {
	name string
	data []byte
}

func (p *bytesProducer) Name() (string, error) { return p.name, nil }

func (p *bytesProducer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.data)
	if err == nil && n != len(p.data) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// ReaderProducer returns a Producer that copies r until EOF.
// The producer can be written once.
func ReaderProducer(name string, r io.Reader) Producer {
	return &readerProducer{name: name, r: r}
}

type readerProducer struct {
	name string
	r    io.Reader
}

func (p *readerProducer) Name() (string, error) { return p.name, nil }

func (p *readerProducer) WriteTo(w io.Writer) (int64, error) {
	return io.Copy(w, p.r)
}

// FileProducer returns a Producer for the file at path in fsys.
// The entry is named after the base name of path.
func FileProducer(fsys billy.Filesystem, path string) Producer {
	return &fileProducer{fsys: fsys, path: path}
}

type fileProducer struct {
	fsys billy.Filesystem
	path string
}

func (p *fileProducer) Name() (string, error) {
	base := filepath.Base(p.path)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: no file name in %q", ErrInvalidName, p.path)
	}
	return base, nil
}

func (p *fileProducer) WriteTo(w io.Writer) (int64, error) {
	f, err := p.fsys.Open(p.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}
