package channel

import "context"

// ConnectionStateListener receives notifications about connection state changes
type ConnectionStateListener interface {
	// OnConnectionEstablished is called after every successful connect or reconnect
	OnConnectionEstablished()

	// OnConnectionLost is called when an established connection drops unexpectedly
	OnConnectionLost(err error)
}

// Transport is one established byte-stream connection to a device
type Transport interface {
	// Read blocks until bytes arrive, the connection fails, or ctx is done.
	// Chunk boundaries are arbitrary; framing is recovered by the caller.
	Read(ctx context.Context) ([]byte, error)

	// Write writes data in full or returns an error
	Write(ctx context.Context, data []byte) error

	// Close closes the connection and unblocks any pending Read
	Close() error

	// Statistics returns transport-level statistics
	Statistics() TransportStats
}

// Dialer opens transports to a device address
type Dialer interface {
	Dial(ctx context.Context, address string) (Transport, error)
}

// TransportStats provides transport-level statistics
type TransportStats struct {
	BytesSent     uint64 // Total bytes sent
	BytesReceived uint64 // Total bytes received
	WriteErrors   uint64 // Number of write errors
	ReadErrors    uint64 // Number of read errors
}

// State is the connection manager state
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

// String returns string representation of State
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return "Unknown"
	}
}
