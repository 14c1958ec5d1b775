// Package correlator pairs outgoing ANPP requests with the frame that
// answers them. At most one request is outstanding at a time.
package correlator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"avaneesh/anpp-go/pkg/internal/logger"
	"avaneesh/anpp-go/pkg/link"
)

// Errors
var (
	ErrTimeout           = errors.New("timed out waiting for response")
	ErrRequestInProgress = errors.New("another request is in progress")
	ErrCancelled         = errors.New("request cancelled")
)

// idAcknowledge is the packet ID devices answer configuration writes with
const idAcknowledge = 0

// Matcher reports whether a received frame answers the pending request
type Matcher func(frame *link.Frame) bool

// ExpectPacket matches the first frame carrying packet id
func ExpectPacket(id uint8) Matcher {
	return func(frame *link.Frame) bool {
		return frame.ID == id
	}
}

// ExpectAck matches an Acknowledge whose first payload byte names id
func ExpectAck(id uint8) Matcher {
	return func(frame *link.Frame) bool {
		return frame.ID == idAcknowledge && len(frame.Payload) > 0 && frame.Payload[0] == id
	}
}

// ExpectPacketOrAck matches packet id, or an Acknowledge for id. Devices
// answer a request for a packet they do not support with a failure ack.
func ExpectPacketOrAck(id uint8) Matcher {
	packet, ack := ExpectPacket(id), ExpectAck(id)
	return func(frame *link.Frame) bool {
		return packet(frame) || ack(frame)
	}
}

// SendFunc writes an encoded frame to the device
type SendFunc func(ctx context.Context, data []byte) error

// Request describes one exchange
type Request struct {
	ID      uint8         // Packet ID to send
	Payload []byte        // Payload to send
	Match   Matcher       // Response predicate
	Timeout time.Duration // Zero waits until ctx is done
}

type result struct {
	frame *link.Frame
	err   error
}

type pending struct {
	match    Matcher
	deadline time.Time
	done     chan result
}

// Correlator owns the single pending-request slot
type Correlator struct {
	mu       sync.Mutex
	pending  *pending
	logger   logger.Logger
	timeouts atomic.Uint64
}

// New creates a correlator
func New(l logger.Logger) *Correlator {
	return &Correlator{logger: logger.OrNoOp(l)}
}

// SendAndWait encodes and sends req, then blocks until a matching frame is
// delivered, the timeout elapses, ctx is done, or the request is cancelled.
// A second call while one is outstanding fails with ErrRequestInProgress.
func (c *Correlator) SendAndWait(ctx context.Context, send SendFunc, req Request) (*link.Frame, error) {
	data, err := link.Encode(req.ID, req.Payload)
	if err != nil {
		return nil, err
	}

	p := &pending{match: req.Match, done: make(chan result, 1)}
	if req.Timeout > 0 {
		p.deadline = time.Now().Add(req.Timeout)
	}

	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return nil, ErrRequestInProgress
	}
	c.pending = p
	c.mu.Unlock()

	if err := send(ctx, data); err != nil {
		c.release(p)
		return nil, err
	}

	var timeout <-chan time.Time
	if req.Timeout > 0 {
		timer := time.NewTimer(req.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case r := <-p.done:
		return r.frame, r.err
	case <-timeout:
		if r, ok := c.settle(p); ok {
			return r.frame, r.err
		}
		c.timeouts.Add(1)
		c.logger.Warn("No response to packet %d within %v", req.ID, req.Timeout)
		return nil, fmt.Errorf("%w: packet %d after %v", ErrTimeout, req.ID, req.Timeout)
	case <-ctx.Done():
		if r, ok := c.settle(p); ok {
			return r.frame, r.err
		}
		return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
	}
}

// Deliver hands a received frame to the pending request. It returns false
// when nothing is pending or the frame does not match, leaving the caller
// to route the frame elsewhere.
func (c *Correlator) Deliver(frame *link.Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil || !c.pending.match(frame) {
		return false
	}
	c.pending.done <- result{frame: frame}
	c.pending = nil
	return true
}

// Cancel fails the pending request with err, if there is one
func (c *Correlator) Cancel(err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return false
	}
	c.pending.done <- result{err: err}
	c.pending = nil
	return true
}

// Pending reports whether a request is outstanding and when it expires
func (c *Correlator) Pending() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return time.Time{}, false
	}
	return c.pending.deadline, true
}

// Timeouts returns how many requests have timed out
func (c *Correlator) Timeouts() uint64 {
	return c.timeouts.Load()
}

// release frees the slot if p still holds it
func (c *Correlator) release(p *pending) {
	c.mu.Lock()
	if c.pending == p {
		c.pending = nil
	}
	c.mu.Unlock()
}

// settle frees the slot held by p. If p was completed concurrently, the
// completion is returned instead.
func (c *Correlator) settle(p *pending) (result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == p {
		c.pending = nil
		return result{}, false
	}
	select {
	case r := <-p.done:
		return r, true
	default:
		return result{}, false
	}
}
