package channel

import "sync/atomic"

// Statistics tracks channel-level statistics
type Statistics struct {
	// Frame statistics
	numFramesTx       uint64
	numFramesRx       uint64
	numChecksumErrors uint64
	numSkippedBytes   uint64

	// Routing statistics
	numUnsolicited uint64
	numDropped     uint64

	// Connection statistics
	numConnects        uint64
	numConnectionsLost uint64
	numReconnects      uint64
}

// Snapshot is a point-in-time copy of all counters
type Snapshot struct {
	FramesTx        uint64
	FramesRx        uint64
	ChecksumErrors  uint64
	SkippedBytes    uint64
	Unsolicited     uint64
	Dropped         uint64
	Timeouts        uint64
	Connects        uint64
	ConnectionsLost uint64
	Reconnects      uint64
	Transport       TransportStats
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{}
}

// FrameTx increments transmitted frames
func (s *Statistics) FrameTx() {
	atomic.AddUint64(&s.numFramesTx, 1)
}

// FrameRx increments received frames
func (s *Statistics) FrameRx() {
	atomic.AddUint64(&s.numFramesRx, 1)
}

// ChecksumError increments CRC failures seen while parsing
func (s *Statistics) ChecksumError() {
	atomic.AddUint64(&s.numChecksumErrors, 1)
}

// SkippedBytes adds bytes discarded while resynchronising
func (s *Statistics) SkippedBytes(n uint64) {
	atomic.AddUint64(&s.numSkippedBytes, n)
}

// Unsolicited increments frames handed to observers
func (s *Statistics) Unsolicited() {
	atomic.AddUint64(&s.numUnsolicited, 1)
}

// Dropped increments frames nobody claimed
func (s *Statistics) Dropped() {
	atomic.AddUint64(&s.numDropped, 1)
}

// Connect increments successful connections, including reconnects
func (s *Statistics) Connect() {
	atomic.AddUint64(&s.numConnects, 1)
}

// ConnectionLost increments unexpected disconnections
func (s *Statistics) ConnectionLost() {
	atomic.AddUint64(&s.numConnectionsLost, 1)
}

// Reconnect increments automatic reconnections
func (s *Statistics) Reconnect() {
	atomic.AddUint64(&s.numReconnects, 1)
}

// GetFramesTx returns transmitted frames
func (s *Statistics) GetFramesTx() uint64 {
	return atomic.LoadUint64(&s.numFramesTx)
}

// GetFramesRx returns received frames
func (s *Statistics) GetFramesRx() uint64 {
	return atomic.LoadUint64(&s.numFramesRx)
}

// GetChecksumErrors returns CRC failures
func (s *Statistics) GetChecksumErrors() uint64 {
	return atomic.LoadUint64(&s.numChecksumErrors)
}

// GetReconnects returns automatic reconnections
func (s *Statistics) GetReconnects() uint64 {
	return atomic.LoadUint64(&s.numReconnects)
}

// Snapshot returns a copy of all counters
func (s *Statistics) Snapshot() Snapshot {
	return Snapshot{
		FramesTx:        atomic.LoadUint64(&s.numFramesTx),
		FramesRx:        atomic.LoadUint64(&s.numFramesRx),
		ChecksumErrors:  atomic.LoadUint64(&s.numChecksumErrors),
		SkippedBytes:    atomic.LoadUint64(&s.numSkippedBytes),
		Unsolicited:     atomic.LoadUint64(&s.numUnsolicited),
		Dropped:         atomic.LoadUint64(&s.numDropped),
		Connects:        atomic.LoadUint64(&s.numConnects),
		ConnectionsLost: atomic.LoadUint64(&s.numConnectionsLost),
		Reconnects:      atomic.LoadUint64(&s.numReconnects),
	}
}

// Reset resets all statistics
func (s *Statistics) Reset() {
	atomic.StoreUint64(&s.numFramesTx, 0)
	atomic.StoreUint64(&s.numFramesRx, 0)
	atomic.StoreUint64(&s.numChecksumErrors, 0)
	atomic.StoreUint64(&s.numSkippedBytes, 0)
	atomic.StoreUint64(&s.numUnsolicited, 0)
	atomic.StoreUint64(&s.numDropped, 0)
	atomic.StoreUint64(&s.numConnects, 0)
	atomic.StoreUint64(&s.numConnectionsLost, 0)
	atomic.StoreUint64(&s.numReconnects, 0)
}
