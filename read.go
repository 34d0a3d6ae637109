package pka

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Read validates the archive header in r and loads its index.
//
// r may be positioned anywhere; Read seeks to the start first. Payloads are
// not read or bounds-checked here; an entry pointing past the end of the
// stream only fails when it is extracted. On failure Read returns a
// *ReadError.
func Read(r io.ReadSeeker, opts ...ReadOption) (*Index, error) {
	cfg := readConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	dec, err := cfg.codec.impl()
	if err != nil {
		return nil, err
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, &ReadError{Step: StepSeekToStart, Err: err}
	}

	var sig [SignatureSize]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, &ReadError{Step: StepReadSignature, Err: err}
	}
	if string(sig[:]) != Signature {
		return nil, &ReadError{Step: StepInvalidSignature, Signature: sig, Err: ErrInvalidSignature}
	}

	var addr [AddressSize]byte
	if _, err := io.ReadFull(r, addr[:]); err != nil {
		return nil, &ReadError{Step: StepReadIndexAddress, Err: err}
	}
	tableAddress := binary.LittleEndian.Uint64(addr[:])
	if tableAddress > math.MaxInt64 {
		return nil, &ReadError{Step: StepSeekToIndex, Err: fmt.Errorf("%w: index address %d", ErrSizeOverflow, tableAddress)}
	}

	if _, err := r.Seek(int64(tableAddress), io.SeekStart); err != nil {
		return nil, &ReadError{Step: StepSeekToIndex, Err: err}
	}

	records, err := dec.Decode(r, effectiveMaxEntries(cfg.maxEntries))
	if err != nil {
		return nil, &ReadError{Step: StepDecodeIndex, Err: err}
	}

	idx := indexFromRecords(records)
	logOrDiscard(cfg.logger).Debug("index loaded",
		"entries", idx.Len(),
		"index_address", tableAddress,
		"codec", cfg.codec.String())
	return idx, nil
}
