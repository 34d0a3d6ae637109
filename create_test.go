package pka

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/src-d/go-billy.v4/memfs"

	"github.com/pocketknife/pka/internal/testutil"
)

// lyingProducer reports a byte count that differs from what it writes.
type lyingProducer struct {
	name     string
	data     []byte
	reported int64
}

func (p *lyingProducer) Name() (string, error) { return p.name, nil }

func (p *lyingProducer) WriteTo(w io.Writer) (int64, error) {
	if _, err := w.Write(p.data); err != nil {
		return 0, err
	}
	return p.reported, nil
}

// failingProducer fails at Name or WriteTo.
type failingProducer struct {
	name    string
	nameErr error
	dataErr error
}

func (p *failingProducer) Name() (string, error) { return p.name, p.nameErr }

func (p *failingProducer) WriteTo(w io.Writer) (int64, error) {
	n, _ := w.Write([]byte("partial"))
	return int64(n), p.dataErr
}

func testProducers(payloads []testutil.NamedPayload) []Producer {
	out := make([]Producer, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, BytesProducer(p.Name, p.Data))
	}
	return out
}

func TestCreate_ExactLayout(t *testing.T) {
	t.Parallel()

	var buf Buffer
	idx, err := Create(&buf, []Producer{
		BytesProducer("a.txt", []byte("hello")),
		BytesProducer("b.bin", []byte{0x00, 0x01}),
	})
	require.NoError(t, err)

	var want []byte
	want = append(want, "Pocket Knife Archive"...)
	want = binary.LittleEndian.AppendUint64(want, 35)
	want = append(want, "hello"...)
	want = append(want, 0x00, 0x01)
	want = append(want, 0x02, 0x05)
	want = append(want, "a.txt"...)
	want = append(want, 0x1C, 0x05, 0x05)
	want = append(want, "b.bin"...)
	want = append(want, 0x21, 0x02)
	assert.Equal(t, want, buf.Bytes())

	assert.Equal(t, []string{"a.txt", "b.bin"}, idx.Names())
	e, ok := idx.Lookup("a.txt")
	require.True(t, ok)
	assert.Equal(t, Entry{Offset: 28, Length: 5}, e)
	e, ok = idx.Lookup("b.bin")
	require.True(t, ok)
	assert.Equal(t, Entry{Offset: 33, Length: 2}, e)
}

func TestCreate_Empty(t *testing.T) {
	t.Parallel()

	for _, c := range []IndexCodec{CodecBincode, CodecFlatBuffers, CodecCBOR} {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			var buf Buffer
			idx, err := Create(&buf, nil, CreateWithCodec(c))
			require.NoError(t, err)
			assert.Equal(t, 0, idx.Len())

			data := buf.Bytes()
			require.GreaterOrEqual(t, len(data), HeaderSize)
			assert.Equal(t, Signature, string(data[:SignatureSize]))
			assert.Equal(t, uint64(HeaderSize), binary.LittleEndian.Uint64(data[SignatureSize:HeaderSize]))
			if c == CodecBincode {
				assert.Equal(t, []byte{0x00}, data[HeaderSize:])
			}

			got, err := Read(NewBuffer(data), ReadWithCodec(c))
			require.NoError(t, err)
			assert.Equal(t, 0, got.Len())
		})
	}
}

func TestCreate_PayloadsAreContiguous(t *testing.T) {
	t.Parallel()

	var buf Buffer
	idx, err := Create(&buf, testProducers(testutil.Payloads()))
	require.NoError(t, err)

	// Entries in producer order tile the region from the header to the index.
	next := uint64(HeaderSize)
	for _, p := range testutil.Payloads() {
		e, ok := idx.Lookup(p.Name)
		require.True(t, ok, p.Name)
		assert.Equal(t, next, e.Offset, p.Name)
		assert.Equal(t, uint64(len(p.Data)), e.Length, p.Name)
		next += e.Length
	}
	tableAddress := binary.LittleEndian.Uint64(buf.Bytes()[SignatureSize:HeaderSize])
	assert.Equal(t, next, tableAddress)
	assert.Equal(t, next-HeaderSize, idx.DataSize())
}

func TestCreate_DuplicateName(t *testing.T) {
	t.Parallel()

	var buf Buffer
	_, err := Create(&buf, []Producer{
		BytesProducer("x", []byte("1")),
		BytesProducer("y", []byte("2")),
		BytesProducer("x", []byte("3")),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateName)

	var ce *CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StepDuplicateName, ce.Step)
	assert.Equal(t, "x", ce.Name)

	// The duplicate's bytes were never written.
	assert.Equal(t, HeaderSize+2, buf.Len())
}

func TestCreate_InvalidName(t *testing.T) {
	t.Parallel()

	var buf Buffer
	_, err := Create(&buf, []Producer{BytesProducer("bad\xff", []byte("1"))})
	assert.ErrorIs(t, err, ErrInvalidName)

	var ce *CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StepProducerName, ce.Step)
}

func TestCreate_ProducerFailures(t *testing.T) {
	t.Parallel()

	errName := errors.New("no name")
	errData := errors.New("disk gone")

	tests := []struct {
		name     string
		producer Producer
		step     CreateStep
		itemName string
		target   error
	}{
		{
			name:     "name",
			producer: &failingProducer{nameErr: errName},
			step:     StepProducerName,
			target:   errName,
		},
		{
			name:     "data",
			producer: &failingProducer{name: "f", dataErr: errData},
			step:     StepWriteItem,
			itemName: "f",
			target:   errData,
		},
		{
			name:     "negative count",
			producer: &lyingProducer{name: "neg", reported: -1},
			step:     StepLengthMismatch,
			itemName: "neg",
			target:   ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf Buffer
			_, err := Create(&buf, []Producer{tt.producer})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)

			var ce *CreateError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.step, ce.Step)
			assert.Equal(t, tt.itemName, ce.Name)
		})
	}
}

func TestCreate_LengthCheck(t *testing.T) {
	t.Parallel()

	producers := func() []Producer {
		return []Producer{&lyingProducer{name: "liar", data: []byte("abc"), reported: 5}}
	}

	t.Run("strict", func(t *testing.T) {
		t.Parallel()

		var buf Buffer
		_, err := Create(&buf, producers())
		assert.ErrorIs(t, err, ErrLengthMismatch)

		var ce *CreateError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, StepLengthMismatch, ce.Step)
		assert.Equal(t, "liar", ce.Name)
	})

	t.Run("none", func(t *testing.T) {
		t.Parallel()

		var buf Buffer
		idx, err := Create(&buf, producers(), CreateWithLengthCheck(LengthCheckNone))
		require.NoError(t, err)

		e, ok := idx.Lookup("liar")
		require.True(t, ok)
		assert.Equal(t, Entry{Offset: HeaderSize, Length: 5}, e)
	})
}

func TestCreate_MaxEntries(t *testing.T) {
	t.Parallel()

	var buf Buffer
	_, err := Create(&buf, []Producer{
		BytesProducer("a", nil),
		BytesProducer("b", nil),
		BytesProducer("c", nil),
	}, CreateWithMaxEntries(2))
	assert.ErrorIs(t, err, ErrTooManyEntries)

	var ce *CreateError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StepTooManyEntries, ce.Step)
	assert.Equal(t, "c", ce.Name)

	buf = Buffer{}
	idx, err := Create(&buf, []Producer{
		BytesProducer("a", nil),
		BytesProducer("b", nil),
		BytesProducer("c", nil),
	}, CreateWithMaxEntries(-1))
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
}

func TestCreate_UnknownCodec(t *testing.T) {
	t.Parallel()

	var buf Buffer
	_, err := Create(&buf, nil, CreateWithCodec(IndexCodec(42)))
	require.Error(t, err)
	assert.Equal(t, 0, buf.Len())
}

func TestCreate_StreamFailures(t *testing.T) {
	t.Parallel()

	// With one bytes producer and strict length checks Create issues, in
	// order: write signature, seek past address, seek for item offset,
	// write item, seek for item end, seek for index address, write index,
	// seek to address, write address.
	tests := []struct {
		name     string
		stream   testutil.FaultyStream
		step     CreateStep
		itemName string
	}{
		{name: "signature", stream: testutil.FaultyStream{FailWrite: 1}, step: StepWriteSignature},
		{name: "reserve", stream: testutil.FaultyStream{FailSeek: 1}, step: StepReserveAddress},
		{name: "item offset", stream: testutil.FaultyStream{FailSeek: 2}, step: StepItemOffset},
		{name: "item write", stream: testutil.FaultyStream{FailWrite: 2}, step: StepWriteItem, itemName: "a.txt"},
		{name: "item end", stream: testutil.FaultyStream{FailSeek: 3}, step: StepItemOffset, itemName: "a.txt"},
		{name: "index address", stream: testutil.FaultyStream{FailSeek: 4}, step: StepIndexAddress},
		{name: "encode index", stream: testutil.FaultyStream{FailWrite: 3}, step: StepEncodeIndex},
		{name: "seek to address", stream: testutil.FaultyStream{FailSeek: 5}, step: StepSeekToAddress},
		{name: "write address", stream: testutil.FaultyStream{FailWrite: 4}, step: StepWriteAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := tt.stream
			s.S = &Buffer{}
			_, err := Create(&s, []Producer{BytesProducer("a.txt", []byte("hello"))})
			require.Error(t, err)
			assert.ErrorIs(t, err, testutil.ErrInjected)

			var ce *CreateError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.step, ce.Step)
			assert.Equal(t, tt.itemName, ce.Name)
		})
	}
}

func TestCreate_OSFile(t *testing.T) {
	t.Parallel()

	f, err := os.Create(filepath.Join(t.TempDir(), "out.pka"))
	require.NoError(t, err)
	defer f.Close()

	_, err = Create(f, []Producer{
		BytesProducer("a.txt", []byte("hello")),
		ReaderProducer("b.bin", bytes.NewReader([]byte{0x00, 0x01})),
	})
	require.NoError(t, err)

	idx, err := Read(f)
	require.NoError(t, err)
	data, err := idx.Extract(f, "b.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01}, data)
}

func TestCreateFile(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		fsys := memfs.New()
		_, err := CreateFile(fsys, "out.pka", []Producer{BytesProducer("a.txt", []byte("hello"))})
		require.NoError(t, err)

		af, err := OpenFile(fsys, "out.pka")
		require.NoError(t, err)
		defer af.Close()

		data, err := af.Extract("a.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("existing file", func(t *testing.T) {
		t.Parallel()

		fsys := memfs.New()
		f, err := fsys.Create("out.pka")
		require.NoError(t, err)
		_, err = f.Write([]byte("keep me"))
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = CreateFile(fsys, "out.pka", []Producer{BytesProducer("a.txt", []byte("hello"))})
		assert.ErrorIs(t, err, fs.ErrExist)

		// A failing create must not touch the existing file either.
		_, err = CreateFile(fsys, "out.pka", []Producer{
			BytesProducer("a.txt", []byte("hello")),
			BytesProducer("a.txt", []byte("again")),
		})
		assert.ErrorIs(t, err, fs.ErrExist)

		got, err := fsys.Open("out.pka")
		require.NoError(t, err)
		defer got.Close()
		data, err := io.ReadAll(got)
		require.NoError(t, err)
		assert.Equal(t, "keep me", string(data))
	})

	t.Run("failure removes partial file", func(t *testing.T) {
		t.Parallel()

		fsys := memfs.New()
		_, err := CreateFile(fsys, "out.pka", []Producer{
			BytesProducer("a.txt", []byte("hello")),
			BytesProducer("a.txt", []byte("again")),
		})
		assert.ErrorIs(t, err, ErrDuplicateName)

		_, err = fsys.Stat("out.pka")
		assert.True(t, os.IsNotExist(err), "partial archive left behind: %v", err)
	})
}

func TestCreate_Progress(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	var buf Buffer
	_, err := Create(&buf, []Producer{
		BytesProducer("a.txt", []byte("hello")),
		BytesProducer("b.bin", []byte{0x00, 0x01}),
	}, CreateWithProgress(func(ev ProgressEvent) {
		events = append(events, ev)
	}))
	require.NoError(t, err)

	require.Len(t, events, 4)
	assert.Equal(t, ProgressEvent{Stage: StageWritingItems, Name: "a.txt", BytesDone: 5, ItemsDone: 1, ItemsTotal: 2}, events[0])
	assert.Equal(t, ProgressEvent{Stage: StageWritingItems, Name: "b.bin", BytesDone: 7, ItemsDone: 2, ItemsTotal: 2}, events[1])
	assert.Equal(t, StageWritingIndex, events[2].Stage)
	assert.Equal(t, StageDone, events[3].Stage)
	assert.Equal(t, "writing index", events[2].Stage.String())
}
