package pka

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
)

// Extract returns the payload stored under name, read from r.
//
// Every call seeks and reads r; nothing is cached, so the result reflects
// r's content at call time. A zero-length entry returns an empty slice
// without touching r. On failure Extract returns an *ExtractError; a
// missing name wraps ErrNotFound.
func (idx *Index) Extract(r io.ReadSeeker, name string) ([]byte, error) {
	e, err := idx.locate(name)
	if err != nil {
		return nil, err
	}
	if e.Length == 0 {
		return []byte{}, nil
	}

	if err := seekTo(r, name, e); err != nil {
		return nil, err
	}

	// The index is not bounds-checked, so the buffer only grows as bytes
	// actually arrive.
	var buf bytes.Buffer
	buf.Grow(int(min(e.Length, extractPrealloc)))
	n, err := io.CopyN(&buf, r, int64(e.Length))
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("%w: got %d of %d bytes", io.ErrUnexpectedEOF, n, e.Length)
		}
		return nil, &ExtractError{Step: StepReadEntry, Name: name, Err: err}
	}
	return buf.Bytes(), nil
}

// extractPrealloc caps the up-front allocation in Extract.
const extractPrealloc = 1 << 20

// ExtractTo copies the payload stored under name from r to w without
// buffering it whole. It returns the number of bytes written to w.
func (idx *Index) ExtractTo(w io.Writer, r io.ReadSeeker, name string) (int64, error) {
	e, err := idx.locate(name)
	if err != nil {
		return 0, err
	}
	if e.Length == 0 {
		return 0, nil
	}
	if err := seekTo(r, name, e); err != nil {
		return 0, err
	}

	n, err := io.Copy(&stepWriter{w: w}, io.LimitReader(r, int64(e.Length)))
	if err != nil {
		var sw *stepWriteError
		if errors.As(err, &sw) {
			return n, &ExtractError{Step: StepWriteOutput, Name: name, Err: sw.err}
		}
		if errors.Is(err, io.ErrShortWrite) {
			return n, &ExtractError{Step: StepWriteOutput, Name: name, Err: err}
		}
		return n, &ExtractError{Step: StepReadEntry, Name: name, Err: err}
	}
	if uint64(n) != e.Length {
		return n, &ExtractError{Step: StepReadEntry, Name: name, Err: io.ErrUnexpectedEOF}
	}
	return n, nil
}

// locate looks up name and checks the entry fits this platform's sizes.
func (idx *Index) locate(name string) (Entry, error) {
	e, ok := idx.Lookup(name)
	if !ok {
		return Entry{}, &ExtractError{Step: StepNotFound, Name: name, Err: ErrNotFound}
	}
	if e.Length > math.MaxInt {
		return Entry{}, &ExtractError{Step: StepTooLarge, Name: name, Err: fmt.Errorf("%w: length %d", ErrSizeOverflow, e.Length)}
	}
	return e, nil
}

func seekTo(r io.Seeker, name string, e Entry) error {
	if e.Offset > math.MaxInt64 {
		return &ExtractError{Step: StepSeekToEntry, Name: name, Err: fmt.Errorf("%w: offset %d", ErrSizeOverflow, e.Offset)}
	}
	if _, err := r.Seek(int64(e.Offset), io.SeekStart); err != nil {
		return &ExtractError{Step: StepSeekToEntry, Name: name, Err: err}
	}
	return nil
}

// stepWriter tags errors from the destination so ExtractTo can tell them
// apart from stream read errors.
type stepWriter struct {
	w io.Writer
}

type stepWriteError struct {
	err error
}

func (e *stepWriteError) Error() string { return e.err.Error() }

func (sw *stepWriter) Write(p []byte) (int, error) {
	n, err := sw.w.Write(p)
	if err != nil {
		return n, &stepWriteError{err: err}
	}
	return n, nil
}
