package pka

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	billy "gopkg.in/src-d/go-billy.v4"
	"gopkg.in/src-d/go-billy.v4/memfs"

	"github.com/pocketknife/pka/internal/testutil"
)

var allCodecs = []IndexCodec{CodecBincode, CodecFlatBuffers, CodecCBOR}

// createTestArchive packs payloads into a Buffer with the given codec.
func createTestArchive(tb testing.TB, payloads []testutil.NamedPayload, c IndexCodec) *Buffer {
	tb.Helper()

	var buf Buffer
	_, err := Create(&buf, testProducers(payloads), CreateWithCodec(c))
	require.NoError(tb, err)
	return &buf
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	streams := map[string]func(t *testing.T) io.ReadWriteSeeker{
		"buffer": func(*testing.T) io.ReadWriteSeeker { return &Buffer{} },
		"os file": func(t *testing.T) io.ReadWriteSeeker {
			f, err := os.Create(filepath.Join(t.TempDir(), "rt.pka"))
			require.NoError(t, err)
			t.Cleanup(func() { f.Close() })
			return f
		},
		"memfs": func(t *testing.T) io.ReadWriteSeeker {
			var fsys billy.Filesystem = memfs.New()
			f, err := fsys.Create("rt.pka")
			require.NoError(t, err)
			t.Cleanup(func() { f.Close() })
			return f
		},
	}

	for _, c := range allCodecs {
		for kind, newStream := range streams {
			t.Run(c.String()+"/"+kind, func(t *testing.T) {
				t.Parallel()

				s := newStream(t)
				payloads := testutil.Payloads()
				_, err := Create(s, testProducers(payloads), CreateWithCodec(c))
				require.NoError(t, err)

				idx, err := Read(s, ReadWithCodec(c))
				require.NoError(t, err)
				require.Equal(t, len(payloads), idx.Len())

				for _, p := range payloads {
					got, err := idx.Extract(s, p.Name)
					require.NoError(t, err, p.Name)
					assert.Equal(t, p.Data, got, p.Name)
				}
			})
		}
	}
}

func TestRead_NamesSorted(t *testing.T) {
	t.Parallel()

	buf := createTestArchive(t, []testutil.NamedPayload{
		{Name: "zeta", Data: []byte("z")},
		{Name: "Alpha", Data: []byte("A")},
		{Name: "alpha", Data: []byte("a")},
	}, CodecBincode)

	idx, err := Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "alpha", "zeta"}, idx.Names())
}

func TestRead_FromAnyPosition(t *testing.T) {
	t.Parallel()

	buf := createTestArchive(t, testutil.Payloads(), CodecBincode)
	_, err := buf.Seek(0, io.SeekEnd)
	require.NoError(t, err)

	idx, err := Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(testutil.Payloads()), idx.Len())
}

func TestRead_SignatureTamper(t *testing.T) {
	t.Parallel()

	orig := createTestArchive(t, testutil.Payloads(), CodecBincode).Bytes()

	for i := range SignatureSize {
		data := bytes.Clone(orig)
		data[i] ^= 0x20

		_, err := Read(NewBuffer(data))
		require.Error(t, err, "byte %d", i)
		assert.ErrorIs(t, err, ErrInvalidSignature, "byte %d", i)

		var re *ReadError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, StepInvalidSignature, re.Step)
		assert.Equal(t, data[:SignatureSize], re.Signature[:])
	}
}

func TestRead_Truncated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		step ReadStep
	}{
		{name: "empty", data: nil, step: StepReadSignature},
		{name: "short signature", data: []byte("Pocket Knife"), step: StepReadSignature},
		{name: "no address", data: []byte(Signature), step: StepReadIndexAddress},
		{name: "short address", data: append([]byte(Signature), 1, 2, 3), step: StepReadIndexAddress},
		{name: "no index", data: testutil.BuildArchive(t, Signature, []byte("abc"), nil), step: StepDecodeIndex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Read(NewBuffer(tt.data))
			require.Error(t, err)

			var re *ReadError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.step, re.Step)
		})
	}
}

func TestRead_IndexAddressPastEnd(t *testing.T) {
	t.Parallel()

	data := createTestArchive(t, testutil.Payloads(), CodecBincode).Bytes()
	binary.LittleEndian.PutUint64(data[SignatureSize:], uint64(len(data)+100))

	_, err := Read(NewBuffer(data))
	assert.ErrorIs(t, err, ErrCorruptIndex)

	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StepDecodeIndex, re.Step)
}

func TestRead_IndexAddressOverflow(t *testing.T) {
	t.Parallel()

	data := createTestArchive(t, nil, CodecBincode).Bytes()
	binary.LittleEndian.PutUint64(data[SignatureSize:], math.MaxUint64)

	_, err := Read(NewBuffer(data))
	assert.ErrorIs(t, err, ErrSizeOverflow)

	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StepSeekToIndex, re.Step)
}

func TestRead_CodecMismatch(t *testing.T) {
	t.Parallel()

	buf := createTestArchive(t, testutil.Payloads(), CodecBincode)
	_, err := Read(buf, ReadWithCodec(CodecCBOR))
	require.Error(t, err)

	var re *ReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StepDecodeIndex, re.Step)
}

func TestRead_MaxEntries(t *testing.T) {
	t.Parallel()

	for _, c := range allCodecs {
		t.Run(c.String(), func(t *testing.T) {
			t.Parallel()

			buf := createTestArchive(t, testutil.Payloads(), c)
			_, err := Read(buf, ReadWithCodec(c), ReadWithMaxEntries(2))
			assert.ErrorIs(t, err, ErrTooManyEntries)

			idx, err := Read(buf, ReadWithCodec(c), ReadWithMaxEntries(-1))
			require.NoError(t, err)
			assert.Equal(t, len(testutil.Payloads()), idx.Len())
		})
	}
}

func TestRead_RepeatedNameKeepsLast(t *testing.T) {
	t.Parallel()

	index := testutil.BuildFlatBuffersIndex(t, []testutil.TestEntry{
		{Name: "x", Offset: HeaderSize, Length: 1},
		{Name: "x", Offset: HeaderSize + 1, Length: 2},
	})
	data := testutil.BuildArchive(t, Signature, []byte("abc"), index)

	buf := NewBuffer(data)
	idx, err := Read(buf, ReadWithCodec(CodecFlatBuffers))
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())

	got, err := idx.Extract(buf, "x")
	require.NoError(t, err)
	assert.Equal(t, "bc", string(got))
}

func TestRead_StreamFailures(t *testing.T) {
	t.Parallel()

	// Read issues: seek to start, read signature, read address, seek to
	// index, then reads while decoding.
	tests := []struct {
		name   string
		stream testutil.FaultyStream
		step   ReadStep
	}{
		{name: "seek to start", stream: testutil.FaultyStream{FailSeek: 1}, step: StepSeekToStart},
		{name: "signature", stream: testutil.FaultyStream{FailRead: 1}, step: StepReadSignature},
		{name: "address", stream: testutil.FaultyStream{FailRead: 2}, step: StepReadIndexAddress},
		{name: "seek to index", stream: testutil.FaultyStream{FailSeek: 2}, step: StepSeekToIndex},
		{name: "decode", stream: testutil.FaultyStream{FailRead: 3}, step: StepDecodeIndex},
	}

	archive := createTestArchive(t, testutil.Payloads(), CodecBincode).Bytes()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := tt.stream
			s.S = NewBuffer(bytes.Clone(archive))
			_, err := Read(&s)
			assert.ErrorIs(t, err, testutil.ErrInjected)

			var re *ReadError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.step, re.Step)
		})
	}
}

func TestRead_Logger(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	buf := createTestArchive(t, testutil.Payloads(), CodecBincode)
	_, err := Read(buf, ReadWithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "index loaded")
	assert.Contains(t, logs.String(), "codec=bincode")
}
