// Package pka reads and writes Pocket Knife Archives, a flat container of
// named byte payloads designed for sequential writing and random-access
// reading through a seekable stream.
//
// An archive is laid out as:
//   - Signature: the 20 ASCII bytes "Pocket Knife Archive"
//   - Index address: a little-endian uint64 holding the offset of the index
//   - Payloads: item bytes concatenated in producer order, starting at 28
//   - Index: the encoded name table mapping names to (offset, length)
//
// The index address is written as a placeholder and patched once the index
// position is known, so writers need an [io.WriteSeeker]. Readers load the
// index once with [Read] and then fetch payloads with [Index.Extract].
//
// # Quick Start
//
// Create an archive in memory:
//
//	var buf pka.Buffer
//	idx, err := pka.Create(&buf, []pka.Producer{
//	    pka.BytesProducer("a.txt", []byte("hello")),
//	    pka.BytesProducer("b.bin", []byte{0x00, 0x01}),
//	})
//
// Read it back:
//
//	idx, err := pka.Read(&buf)
//	if err != nil {
//	    return err
//	}
//	data, err := idx.Extract(&buf, "a.txt")
//
// Or browse it as an [io/fs.FS]:
//
//	a, err := pka.Open(&buf)
//	entries, err := fs.ReadDir(a, ".")
//
// # Index Encodings
//
// The header does not record how the index is encoded. Writers and readers
// must agree on an [IndexCodec]; the default, [CodecBincode], is the
// compact varint layout that existing Pocket Knife tooling reads.
//
// # Errors
//
// Failures are reported as [*CreateError], [*ReadError] or [*ExtractError],
// each naming the step that failed and wrapping the cause. Use [errors.Is]
// with the sentinel errors in this package to test for specific conditions.
package pka
