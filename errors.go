package pka

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/pocketknife/pka/internal/codec"
)

// Sentinel errors. Pipeline failures wrap one of these (or the underlying
// stream error) inside a CreateError, ReadError or ExtractError.
var (
	// ErrDuplicateName is returned when two producers report the same name.
	ErrDuplicateName = errors.New("pka: duplicate name")

	// ErrInvalidName is returned when a producer's name is not valid UTF-8
	// or a file path has no usable base name.
	ErrInvalidName = errors.New("pka: invalid name")

	// ErrLengthMismatch is returned when a producer's reported byte count
	// differs from the bytes it actually wrote.
	ErrLengthMismatch = errors.New("pka: length mismatch")

	// ErrTooManyEntries is returned when an index exceeds the entry limit.
	ErrTooManyEntries = codec.ErrTooManyEntries

	// ErrInvalidSignature is returned when a stream does not start with Signature.
	ErrInvalidSignature = errors.New("pka: invalid signature")

	// ErrCorruptIndex is returned when the index cannot be decoded.
	ErrCorruptIndex = codec.ErrCorruptIndex

	// ErrNotFound is returned when a name is not in the index.
	// errors.Is(ErrNotFound, fs.ErrNotExist) reports true.
	ErrNotFound = fmt.Errorf("pka: entry not found: %w", fs.ErrNotExist)

	// ErrSizeOverflow is returned when an offset or length cannot be
	// represented on this platform.
	ErrSizeOverflow = errors.New("pka: size overflow")
)

// CreateStep identifies the stage of Create that failed.
type CreateStep uint8

const (
	StepWriteSignature CreateStep = iota + 1
	StepReserveAddress
	StepProducerName
	StepDuplicateName
	StepItemOffset
	StepWriteItem
	StepLengthMismatch
	StepTooManyEntries
	StepIndexAddress
	StepEncodeIndex
	StepSeekToAddress
	StepWriteAddress
)

var createStepNames = map[CreateStep]string{
	StepWriteSignature: "write signature",
	StepReserveAddress: "reserve index address",
	StepProducerName:   "get producer name",
	StepDuplicateName:  "check name",
	StepItemOffset:     "get item offset",
	StepWriteItem:      "write item",
	StepLengthMismatch: "verify item length",
	StepTooManyEntries: "check entry count",
	StepIndexAddress:   "get index address",
	StepEncodeIndex:    "encode index",
	StepSeekToAddress:  "seek to index address",
	StepWriteAddress:   "write index address",
}

func (s CreateStep) String() string {
	if name, ok := createStepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("CreateStep(%d)", uint8(s))
}

// CreateError reports a failed Create.
//
// Name is set for steps that concern a single item once its name is known.
// A failed Create leaves a partial archive behind; it has a stale index
// address and must be discarded.
type CreateError struct {
	Step CreateStep
	Name string
	Err  error
}

func (e *CreateError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("pka: create: %s %q: %v", e.Step, e.Name, e.Err)
	}
	return fmt.Sprintf("pka: create: %s: %v", e.Step, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// ReadStep identifies the stage of Read that failed.
type ReadStep uint8

const (
	StepSeekToStart ReadStep = iota + 1
	StepReadSignature
	StepInvalidSignature
	StepReadIndexAddress
	StepSeekToIndex
	StepDecodeIndex
)

var readStepNames = map[ReadStep]string{
	StepSeekToStart:      "seek to start",
	StepReadSignature:    "read signature",
	StepInvalidSignature: "check signature",
	StepReadIndexAddress: "read index address",
	StepSeekToIndex:      "seek to index",
	StepDecodeIndex:      "decode index",
}

func (s ReadStep) String() string {
	if name, ok := readStepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ReadStep(%d)", uint8(s))
}

// ReadError reports a failed Read.
//
// For StepInvalidSignature, Signature holds the bytes found at offset 0.
type ReadError struct {
	Step      ReadStep
	Signature [SignatureSize]byte
	Err       error
}

func (e *ReadError) Error() string {
	if e.Step == StepInvalidSignature {
		return fmt.Sprintf("pka: read: %s: %v: got %q", e.Step, e.Err, e.Signature[:])
	}
	return fmt.Sprintf("pka: read: %s: %v", e.Step, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ExtractStep identifies the stage of Extract that failed.
type ExtractStep uint8

const (
	StepNotFound ExtractStep = iota + 1
	StepTooLarge
	StepSeekToEntry
	StepReadEntry
	StepWriteOutput
)

var extractStepNames = map[ExtractStep]string{
	StepNotFound:    "lookup",
	StepTooLarge:    "check size",
	StepSeekToEntry: "seek to entry",
	StepReadEntry:   "read entry",
	StepWriteOutput: "write output",
}

func (s ExtractStep) String() string {
	if name, ok := extractStepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ExtractStep(%d)", uint8(s))
}

// ExtractError reports a failed Extract or ExtractTo for Name.
type ExtractError struct {
	Step ExtractStep
	Name string
	Err  error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("pka: extract %q: %s: %v", e.Name, e.Step, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }
