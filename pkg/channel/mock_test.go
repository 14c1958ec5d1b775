package channel

import (
	"context"
	"errors"
	"sync"
)

var errMockClosed = errors.New("mock transport closed")

// mockTransport is an in-memory Transport driven by the test
type mockTransport struct {
	readChan  chan []byte
	writeChan chan []byte
	closeChan chan struct{}
	closed    bool
	mu        sync.RWMutex
	stats     TransportStats
}

func newMockTransport() *mockTransport {
	return &mockTransport{
		readChan:  make(chan []byte, 16),
		writeChan: make(chan []byte, 16),
		closeChan: make(chan struct{}),
	}
}

func (m *mockTransport) Read(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closeChan:
		return nil, errMockClosed
	case data := <-m.readChan:
		m.mu.Lock()
		m.stats.BytesReceived += uint64(len(data))
		m.mu.Unlock()
		return data, nil
	}
}

func (m *mockTransport) Write(ctx context.Context, data []byte) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return errMockClosed
	}
	m.mu.RUnlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.writeChan <- data:
		m.mu.Lock()
		m.stats.BytesSent += uint64(len(data))
		m.mu.Unlock()
		return nil
	}
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.closeChan)
	return nil
}

func (m *mockTransport) Statistics() TransportStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

func (m *mockTransport) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

// inject simulates bytes arriving from the device
func (m *mockTransport) inject(data []byte) {
	m.readChan <- data
}

// mockDialer hands out transports from a script of results
type mockDialer struct {
	mu      sync.Mutex
	results []dialResult
	dials   int
}

type dialResult struct {
	t   *mockTransport
	err error
}

func (d *mockDialer) Dial(ctx context.Context, address string) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if len(d.results) == 0 {
		return nil, errors.New("connection refused")
	}
	r := d.results[0]
	d.results = d.results[1:]
	if r.err != nil {
		return nil, r.err
	}
	return r.t, nil
}

func (d *mockDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// stateRecorder records listener callbacks
type stateRecorder struct {
	mu          sync.Mutex
	established int
	lost        []error
}

func (r *stateRecorder) OnConnectionEstablished() {
	r.mu.Lock()
	r.established++
	r.mu.Unlock()
}

func (r *stateRecorder) OnConnectionLost(err error) {
	r.mu.Lock()
	r.lost = append(r.lost, err)
	r.mu.Unlock()
}

func (r *stateRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.established, len(r.lost)
}
