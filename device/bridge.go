package device

import "errors"

// Result codes reported by a Bridge after a transfer.
const (
	ResultOK              uint32 = 0
	ResultInvalidSelector uint32 = 1
)

// Sentinel errors.
var (
	// ErrInvalidSelector is returned when the bridge rejects the slot.
	ErrInvalidSelector = errors.New("device: invalid selector")

	// ErrTransfer is returned for any other non-zero result code.
	ErrTransfer = errors.New("device: transfer failed")

	// ErrTimeout is returned when polling exceeds the configured budget.
	ErrTimeout = errors.New("device: timed out waiting for bridge")

	// ErrOutOfRange is returned for positions the bridge cannot address.
	ErrOutOfRange = errors.New("device: position out of range")
)

// Bridge is the register interface of a transfer bridge.
//
// The handshake is: SelectSlot, poll SlotReady, read SlotSize; then per
// transfer SetTransfer, RequestRead, poll TransferDone and check ResultCode.
// Implementations map these onto memory-mapped registers or an emulator.
type Bridge interface {
	// SelectSlot writes the item identifier to the selector register.
	SelectSlot(id uint16)
	// SlotReady reports whether the status register shows the slot ready.
	SlotReady() bool
	// SlotSize returns the size in bytes of the selected slot.
	SlotSize() uint32
	// SetTransfer writes the transfer parameters: destination, source
	// offset and length (len(dst)).
	SetTransfer(dst []byte, offset uint32)
	// RequestRead raises the request flag.
	RequestRead()
	// TransferDone reports whether the completion flag is set.
	TransferDone() bool
	// ResultCode returns the result of the last selection or request.
	ResultCode() uint32
}

func resultError(code uint32) error {
	switch code {
	case ResultOK:
		return nil
	case ResultInvalidSelector:
		return ErrInvalidSelector
	default:
		return ErrTransfer
	}
}
