package device

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
)

var errNotReady = errors.New("device: not ready")

// Stream reads one slot of a Bridge. It implements io.ReadSeeker.
//
// A Stream is not safe for concurrent use, and only one Stream may drive a
// Bridge at a time since the bridge has a single selector.
type Stream struct {
	bridge Bridge
	slot   uint16
	size   int64
	pos    int64
	cfg    config
	log    *slog.Logger
}

// Open selects slot on bridge and waits for it to become ready.
func Open(bridge Bridge, slot uint16, opts ...Option) (*Stream, error) {
	cfg := config{pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Stream{bridge: bridge, slot: slot, cfg: cfg, log: cfg.logger}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}

	bridge.SelectSlot(slot)
	if err := s.poll(bridge.SlotReady); err != nil {
		return nil, fmt.Errorf("select slot %d: %w", slot, err)
	}
	if err := resultError(bridge.ResultCode()); err != nil {
		return nil, fmt.Errorf("select slot %d: %w", slot, err)
	}
	s.size = int64(bridge.SlotSize())
	s.log.Debug("slot selected", "slot", slot, "size", s.size)
	return s, nil
}

// Size returns the slot size reported by the bridge.
func (s *Stream) Size() int64 {
	return s.size
}

// Read implements io.Reader with one transfer per call.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if s.pos >= s.size {
		return 0, io.EOF
	}
	n := int(min(int64(len(p)), s.size-s.pos))
	if err := s.transfer(p[:n], uint32(s.pos)); err != nil {
		return 0, err
	}
	s.pos += int64(n)
	return n, nil
}

// Seek implements io.Seeker. Positions past the end read as EOF.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = s.pos
	case io.SeekEnd:
		base = s.size
	default:
		return 0, fmt.Errorf("device: invalid whence %d", whence)
	}
	pos := base + offset
	if pos < 0 {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, pos)
	}
	s.pos = pos
	return pos, nil
}

func (s *Stream) transfer(dst []byte, offset uint32) error {
	s.bridge.SetTransfer(dst, offset)
	s.bridge.RequestRead()
	if err := s.poll(s.bridge.TransferDone); err != nil {
		return fmt.Errorf("transfer %d bytes at %d: %w", len(dst), offset, err)
	}
	if err := resultError(s.bridge.ResultCode()); err != nil {
		return fmt.Errorf("transfer %d bytes at %d: %w", len(dst), offset, err)
	}
	return nil
}

// poll waits for flag to report true.
func (s *Stream) poll(flag func() bool) error {
	var b backoff.BackOff = backoff.NewConstantBackOff(s.cfg.pollInterval)
	if s.cfg.maxPolls > 0 {
		b = backoff.WithMaxRetries(b, s.cfg.maxPolls-1)
	}
	err := backoff.Retry(func() error {
		if flag() {
			return nil
		}
		return errNotReady
	}, b)
	if err != nil {
		return ErrTimeout
	}
	return nil
}
