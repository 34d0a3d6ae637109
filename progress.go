package pka

// ProgressEvent is a progress update from Create.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Name is the item just written, if applicable.
	Name string

	// BytesDone is the number of payload bytes written so far.
	BytesDone uint64

	// ItemsDone is the number of items written so far.
	ItemsDone int

	// ItemsTotal is the number of producers passed to Create.
	ItemsTotal int
}

// ProgressStage identifies the current phase of Create.
type ProgressStage uint8

const (
	// StageWritingItems is reported after each payload is written.
	StageWritingItems ProgressStage = iota

	// StageWritingIndex is reported before the index is encoded.
	StageWritingIndex

	// StageDone is reported once the index address has been patched.
	StageDone
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageWritingItems:
		return "writing items"
	case StageWritingIndex:
		return "writing index"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates. Create calls it synchronously on
// the calling goroutine.
type ProgressFunc func(ProgressEvent)
