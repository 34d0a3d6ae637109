package codec

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// CBOR stores the index as a deterministic CBOR map of name to
// [offset, length].
type CBOR struct{}

type cborEntry struct {
	_      struct{} `cbor:",toarray"`
	Offset uint64
	Length uint64
}

var cborEncMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: cbor encode mode: %v", err))
	}
	return em
}()

// Encode implements Codec.
func (CBOR) Encode(w io.Writer, records []Record) error {
	m := make(map[string]cborEntry, len(records))
	for _, rec := range records {
		m[rec.Name] = cborEntry{Offset: rec.Offset, Length: rec.Length}
	}
	data, err := cborEncMode.Marshal(m)
	if err != nil {
		return err
	}
	return writeAll(w, data)
}

// Decode implements Codec.
func (CBOR) Decode(r io.Reader, maxEntries int) ([]Record, error) {
	opts := cbor.DecOptions{MaxMapPairs: math.MaxInt32}
	if maxEntries > 0 {
		opts.MaxMapPairs = max(maxEntries, 16)
	}
	dm, err := opts.DecMode()
	if err != nil {
		return nil, err
	}

	var m map[string]cborEntry
	if err := dm.NewDecoder(r).Decode(&m); err != nil {
		var pairsErr *cbor.MaxMapPairsError
		if errors.As(err, &pairsErr) {
			return nil, fmt.Errorf("%w: %w", ErrTooManyEntries, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	if maxEntries > 0 && len(m) > maxEntries {
		return nil, fmt.Errorf("%w: %d entries, limit %d", ErrTooManyEntries, len(m), maxEntries)
	}

	records := make([]Record, 0, len(m))
	for name, e := range m {
		records = append(records, Record{Name: name, Offset: e.Offset, Length: e.Length})
	}
	slices.SortFunc(records, func(a, b Record) int {
		return strings.Compare(a.Name, b.Name)
	})
	return records, nil
}
