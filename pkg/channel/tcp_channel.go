package channel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

const readBufferSize = 4096

// TCPDialer opens TCP transports
type TCPDialer struct {
	Timeout      time.Duration // Connect timeout (0 = none beyond ctx)
	KeepAlive    time.Duration // TCP keep-alive period (0 = system default)
	WriteTimeout time.Duration // Per-write deadline (0 = none)
}

// Dial implements Dialer
func (d *TCPDialer) Dial(ctx context.Context, address string) (Transport, error) {
	nd := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	conn, err := nd.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	return NewTCPChannel(conn, d.WriteTimeout), nil
}

// TCPChannel implements Transport over a net.Conn
type TCPChannel struct {
	conn         net.Conn
	writeTimeout time.Duration
	writeLock    sync.Mutex
	buf          []byte

	// Statistics
	stats struct {
		bytesSent     atomic.Uint64
		bytesReceived atomic.Uint64
		writeErrors   atomic.Uint64
		readErrors    atomic.Uint64
	}

	closed atomic.Bool
}

// NewTCPChannel wraps an established connection
func NewTCPChannel(conn net.Conn, writeTimeout time.Duration) *TCPChannel {
	return &TCPChannel{
		conn:         conn,
		writeTimeout: writeTimeout,
		buf:          make([]byte, readBufferSize),
	}
}

// Read implements Transport.Read
func (tc *TCPChannel) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Unblock the read when ctx is cancelled
	stop := context.AfterFunc(ctx, func() {
		tc.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	n, err := tc.conn.Read(tc.buf)
	if n > 0 {
		tc.stats.bytesReceived.Add(uint64(n))
		data := make([]byte, n)
		copy(data, tc.buf[:n])
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	tc.stats.readErrors.Add(1)
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("connection closed by device: %w", err)
	}
	return nil, err
}

// Write implements Transport.Write
func (tc *TCPChannel) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tc.writeLock.Lock()
	defer tc.writeLock.Unlock()

	deadline := time.Time{}
	if tc.writeTimeout > 0 {
		deadline = time.Now().Add(tc.writeTimeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	tc.conn.SetWriteDeadline(deadline)

	_, err := tc.conn.Write(data)
	if err != nil {
		tc.stats.writeErrors.Add(1)
		return err
	}

	tc.stats.bytesSent.Add(uint64(len(data)))
	return nil
}

// Close implements Transport.Close
func (tc *TCPChannel) Close() error {
	if !tc.closed.CompareAndSwap(false, true) {
		return nil // Already closed
	}
	return tc.conn.Close()
}

// Statistics implements Transport.Statistics
func (tc *TCPChannel) Statistics() TransportStats {
	return TransportStats{
		BytesSent:     tc.stats.bytesSent.Load(),
		BytesReceived: tc.stats.bytesReceived.Load(),
		WriteErrors:   tc.stats.writeErrors.Load(),
		ReadErrors:    tc.stats.readErrors.Load(),
	}
}

// LocalAddr returns the local address of the connection
func (tc *TCPChannel) LocalAddr() net.Addr {
	return tc.conn.LocalAddr()
}

// RemoteAddr returns the remote address of the connection
func (tc *TCPChannel) RemoteAddr() net.Addr {
	return tc.conn.RemoteAddr()
}
