package pka

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"unicode/utf8"

	billy "gopkg.in/src-d/go-billy.v4"
)

// Create writes a new archive holding every producer's payload to w.
//
// The layout is: Signature, an 8-byte index address, the payloads in
// producer order, then the encoded index. The address is reserved first and
// patched once the index position is known, so w must support seeking back.
// w should be empty and positioned at its start.
//
// Create returns the index it built in memory. On failure it returns a
// *CreateError and leaves whatever was written in place; such a stream has a
// stale index address and must be discarded.
func Create(w io.WriteSeeker, producers []Producer, opts ...CreateOption) (*Index, error) {
	cfg := createConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	enc, err := cfg.codec.impl()
	if err != nil {
		return nil, err
	}

	c := &creator{
		w:          w,
		cfg:        cfg,
		total:      len(producers),
		maxEntries: effectiveMaxEntries(cfg.maxEntries),
		idx:        newIndex(),
		log:        logOrDiscard(cfg.logger),
	}

	if err := writeFull(w, []byte(Signature)); err != nil {
		return nil, &CreateError{Step: StepWriteSignature, Err: err}
	}

	// The index address is not known until every payload is written.
	if _, err := w.Seek(AddressSize, io.SeekCurrent); err != nil {
		return nil, &CreateError{Step: StepReserveAddress, Err: err}
	}

	for _, p := range producers {
		if err := c.add(p); err != nil {
			return nil, err
		}
	}

	tableAddress, err := position(w)
	if err != nil {
		return nil, &CreateError{Step: StepIndexAddress, Err: err}
	}

	c.reportProgress(StageWritingIndex, "")
	c.idx.seal()
	if err := enc.Encode(w, c.idx.records()); err != nil {
		return nil, &CreateError{Step: StepEncodeIndex, Err: err}
	}

	if _, err := w.Seek(int64(SignatureSize), io.SeekStart); err != nil {
		return nil, &CreateError{Step: StepSeekToAddress, Err: err}
	}
	addr := putAddress(uint64(tableAddress))
	if err := writeFull(w, addr[:]); err != nil {
		return nil, &CreateError{Step: StepWriteAddress, Err: err}
	}

	c.reportProgress(StageDone, "")
	c.log.Debug("archive created",
		"entries", c.idx.Len(),
		"index_address", tableAddress,
		"codec", cfg.codec.String())
	return c.idx, nil
}

// creator holds state for one Create call.
type creator struct {
	w          io.WriteSeeker
	cfg        createConfig
	maxEntries int
	idx        *Index
	log        *slog.Logger
	total      int
	bytesDone  uint64
}

// reportProgress sends a progress event if a callback is configured.
func (c *creator) reportProgress(stage ProgressStage, name string) {
	if c.cfg.progress == nil {
		return
	}
	c.cfg.progress(ProgressEvent{
		Stage:      stage,
		Name:       name,
		BytesDone:  c.bytesDone,
		ItemsDone:  c.idx.Len(),
		ItemsTotal: c.total,
	})
}

// add writes one producer's payload and records its entry.
func (c *creator) add(p Producer) error {
	offset, err := position(c.w)
	if err != nil {
		return &CreateError{Step: StepItemOffset, Err: err}
	}

	name, err := p.Name()
	if err != nil {
		return &CreateError{Step: StepProducerName, Err: err}
	}
	if !utf8.ValidString(name) {
		return &CreateError{Step: StepProducerName, Name: name, Err: fmt.Errorf("%w: not valid UTF-8", ErrInvalidName)}
	}
	if c.idx.has(name) {
		return &CreateError{Step: StepDuplicateName, Name: name, Err: ErrDuplicateName}
	}
	if c.maxEntries > 0 && c.idx.Len() >= c.maxEntries {
		return &CreateError{Step: StepTooManyEntries, Name: name, Err: fmt.Errorf("%w: limit %d", ErrTooManyEntries, c.maxEntries)}
	}

	n, err := p.WriteTo(c.w)
	if err != nil {
		return &CreateError{Step: StepWriteItem, Name: name, Err: err}
	}
	if n < 0 {
		return &CreateError{Step: StepLengthMismatch, Name: name, Err: fmt.Errorf("%w: negative count %d", ErrLengthMismatch, n)}
	}

	if c.cfg.lengthCheck == LengthCheckStrict {
		end, err := position(c.w)
		if err != nil {
			return &CreateError{Step: StepItemOffset, Name: name, Err: err}
		}
		if written := end - offset; written != n {
			return &CreateError{Step: StepLengthMismatch, Name: name, Err: fmt.Errorf("%w: reported %d bytes, wrote %d", ErrLengthMismatch, n, written)}
		}
	}

	c.idx.insert(name, Entry{Offset: uint64(offset), Length: uint64(n)})
	c.bytesDone += uint64(n)
	c.log.Debug("item written", "name", name, "offset", offset, "length", n)
	c.reportProgress(StageWritingItems, name)
	return nil
}

// CreateFile creates a new archive at path in fsys.
//
// The file must not already exist; an existing file is reported as
// fs.ErrExist and left untouched. If Create fails, or the file cannot be
// closed, the partial file is removed.
func CreateFile(fsys billy.Filesystem, path string, producers []Producer, opts ...CreateOption) (*Index, error) {
	// Not every billy filesystem honors O_EXCL.
	if err := ensureAbsent(fsys, "create", path); err != nil {
		return nil, err
	}
	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}

	idx, err := Create(f, producers, opts...)
	if err != nil {
		f.Close()
		fsys.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		fsys.Remove(path)
		return nil, fmt.Errorf("close archive: %w", err)
	}
	return idx, nil
}

// ensureAbsent fails with fs.ErrExist if path exists in fsys.
func ensureAbsent(fsys billy.Basic, op, path string) error {
	_, err := fsys.Stat(path)
	switch {
	case err == nil:
		return &fs.PathError{Op: op, Path: path, Err: fs.ErrExist}
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return err
	}
}
