package pka

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/pocketknife/pka/internal/codec"
)

// Entry locates one payload inside an archive stream.
//
// Offset is absolute from the start of the stream. An Entry does not carry
// its own name; the Index maps names to entries.
type Entry struct {
	Offset uint64
	Length uint64
}

// End returns the offset one past the last payload byte.
// ok is false when Offset+Length overflows.
func (e Entry) End() (end uint64, ok bool) {
	if e.Length > ^uint64(0)-e.Offset {
		return 0, false
	}
	return e.Offset + e.Length, true
}

// Index maps names to entries.
//
// Names enumerate in byte-wise sorted order. An Index is not modified after
// Create or Read returns it and is safe for concurrent use by readers; the
// stream passed to Extract is not.
type Index struct {
	entries map[string]Entry
	names   []string
}

func newIndex() *Index {
	return &Index{entries: make(map[string]Entry)}
}

// insert adds or replaces name. Callers must seal the index before
// handing it out.
func (idx *Index) insert(name string, e Entry) {
	if _, ok := idx.entries[name]; !ok {
		idx.names = append(idx.names, name)
	}
	idx.entries[name] = e
}

// seal sorts the name list.
func (idx *Index) seal() *Index {
	slices.Sort(idx.names)
	return idx
}

func (idx *Index) has(name string) bool {
	_, ok := idx.entries[name]
	return ok
}

// Lookup returns the entry for name.
func (idx *Index) Lookup(name string) (Entry, bool) {
	e, ok := idx.entries[name]
	return e, ok
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.names)
}

// Names returns a copy of the entry names in sorted order.
func (idx *Index) Names() []string {
	return slices.Clone(idx.names)
}

// All returns an iterator over all entries in name order.
func (idx *Index) All() iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		for _, name := range idx.names {
			if !yield(name, idx.entries[name]) {
				return
			}
		}
	}
}

// WithPrefix returns an iterator over entries whose names begin with prefix,
// in name order.
func (idx *Index) WithPrefix(prefix string) iter.Seq2[string, Entry] {
	return func(yield func(string, Entry) bool) {
		start, _ := slices.BinarySearch(idx.names, prefix)
		for _, name := range idx.names[start:] {
			if !strings.HasPrefix(name, prefix) {
				return
			}
			if !yield(name, idx.entries[name]) {
				return
			}
		}
	}
}

// DataSize returns the sum of all entry lengths.
func (idx *Index) DataSize() uint64 {
	var total uint64
	for e := range maps.Values(idx.entries) {
		total += e.Length
	}
	return total
}

// records returns the index rows in name order for encoding.
func (idx *Index) records() []codec.Record {
	out := make([]codec.Record, 0, len(idx.names))
	for name, e := range idx.All() {
		out = append(out, codec.Record{Name: name, Offset: e.Offset, Length: e.Length})
	}
	return out
}

// indexFromRecords builds an Index from decoded rows. A repeated name keeps
// its last occurrence.
func indexFromRecords(records []codec.Record) *Index {
	idx := newIndex()
	for _, rec := range records {
		idx.insert(rec.Name, Entry{Offset: rec.Offset, Length: rec.Length})
	}
	return idx.seal()
}
