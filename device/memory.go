package device

// ResultOutOfBounds is reported by MemoryBridge for transfers past the end
// of a slot.
const ResultOutOfBounds uint32 = 2

// MemoryBridge is a Bridge backed by in-memory slots, for emulators and
// tests. Each flag stays low for latency polls after the action that
// raises it.
type MemoryBridge struct {
	slots   map[uint16][]byte
	latency int

	selected     uint16
	readyPending int
	donePending  int
	dst          []byte
	offset       uint32
	result       uint32
	transfers    int
}

// NewMemoryBridge returns a bridge serving slots.
func NewMemoryBridge(slots map[uint16][]byte, latency int) *MemoryBridge {
	return &MemoryBridge{slots: slots, latency: max(latency, 0)}
}

// Transfers returns how many read requests have been raised.
func (m *MemoryBridge) Transfers() int {
	return m.transfers
}

func (m *MemoryBridge) SelectSlot(id uint16) {
	m.selected = id
	m.readyPending = m.latency
	m.result = ResultOK
	if _, ok := m.slots[id]; !ok {
		m.result = ResultInvalidSelector
	}
}

func (m *MemoryBridge) SlotReady() bool {
	if m.readyPending > 0 {
		m.readyPending--
		return false
	}
	return true
}

func (m *MemoryBridge) SlotSize() uint32 {
	return uint32(len(m.slots[m.selected]))
}

func (m *MemoryBridge) SetTransfer(dst []byte, offset uint32) {
	m.dst = dst
	m.offset = offset
}

func (m *MemoryBridge) RequestRead() {
	m.transfers++
	m.donePending = m.latency
	data, ok := m.slots[m.selected]
	if !ok {
		m.result = ResultInvalidSelector
		return
	}
	end := uint64(m.offset) + uint64(len(m.dst))
	if end > uint64(len(data)) {
		m.result = ResultOutOfBounds
		return
	}
	copy(m.dst, data[m.offset:end])
	m.result = ResultOK
}

func (m *MemoryBridge) TransferDone() bool {
	if m.donePending > 0 {
		m.donePending--
		return false
	}
	return true
}

func (m *MemoryBridge) ResultCode() uint32 {
	return m.result
}
