package channel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"sync"
	"time"

	"avaneesh/anpp-go/pkg/correlator"
	"avaneesh/anpp-go/pkg/internal/logger"
	"avaneesh/anpp-go/pkg/link"
)

var (
	ErrNotConnected   = errors.New("not connected")
	ErrConnectionLost = errors.New("connection lost")
	ErrNetwork        = errors.New("network error")
	ErrInvalidState   = errors.New("invalid connection state")
)

// ReconnectPolicy bounds automatic reconnection after an unexpected loss
type ReconnectPolicy struct {
	MaxAttempts    int           // 0 disables reconnection
	InitialBackoff time.Duration // Wait before the first attempt
	MaxBackoff     time.Duration // Upper bound on any wait (0 = unbounded)
	Multiplier     float64       // Growth factor between attempts
}

// DefaultReconnectPolicy returns 3 attempts starting at 500ms, doubling up to 5s
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
	}
}

// Backoff returns the wait before the given 1-based attempt
func (p ReconnectPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.InitialBackoff) * math.Pow(mult, float64(attempt-1))
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		return p.MaxBackoff
	}
	return time.Duration(d)
}

// Config holds channel configuration
type Config struct {
	Address        string        // host:port of the device
	Dialer         Dialer        // Defaults to a TCPDialer
	ConnectTimeout time.Duration // Per-dial timeout (0 = ctx only)
	Reconnect      ReconnectPolicy
	Logger         logger.Logger
	Listener       ConnectionStateListener // Optional
}

// Channel owns the connection to one device. It runs the read loop that
// feeds the frame parser, hands responses to the correlator, routes
// everything else to observers, and reconnects after unexpected loss.
type Channel struct {
	cfg        Config
	correlator *correlator.Correlator
	router     *Router
	stats      *Statistics
	logger     logger.Logger

	// State
	mu           sync.Mutex
	state        State
	reconnecting bool
	transport    Transport
	generation   uint64 // Bumped on every connect and disconnect
	connCancel   context.CancelFunc
	loopCancel   context.CancelFunc
	loopDone     chan struct{}

	// Read loops
	wg sync.WaitGroup
}

// New creates a disconnected channel
func New(cfg Config) *Channel {
	if cfg.Dialer == nil {
		cfg.Dialer = &TCPDialer{Timeout: cfg.ConnectTimeout}
	}
	log := logger.OrNoOp(cfg.Logger)

	return &Channel{
		cfg:        cfg,
		correlator: correlator.New(log),
		router:     NewRouter(),
		stats:      NewStatistics(),
		logger:     log,
		state:      StateDisconnected,
	}
}

// Address returns the device address
func (c *Channel) Address() string {
	return c.cfg.Address
}

// State returns the current connection state
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// IsConnected reports whether the channel is Connected
func (c *Channel) IsConnected() bool {
	return c.State() == StateConnected
}

// IsReconnecting reports whether an automatic reconnect is under way
func (c *Channel) IsReconnecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reconnecting
}

// Connect dials the device. It is only valid from Disconnected; an
// automatic reconnect in progress is abandoned first.
func (c *Channel) Connect(ctx context.Context) error {
	c.stopReconnect()

	c.mu.Lock()
	if c.state != StateDisconnected {
		state := c.state
		c.mu.Unlock()
		return fmt.Errorf("%w: connect while %s", ErrInvalidState, state)
	}
	c.state = StateConnecting
	gen := c.generation
	c.mu.Unlock()

	c.logger.Info("Channel %s connecting", c.cfg.Address)

	t, err := c.dial(ctx)

	c.mu.Lock()
	if gen != c.generation {
		// Disconnect raced with the dial
		c.mu.Unlock()
		if t != nil {
			t.Close()
		}
		return fmt.Errorf("%w: disconnected while connecting", correlator.ErrCancelled)
	}
	if err != nil {
		c.state = StateDisconnected
		c.mu.Unlock()
		c.logger.Warn("Channel %s connect failed: %v", c.cfg.Address, err)
		return err
	}
	c.startLocked(t)
	c.mu.Unlock()

	c.established()
	return nil
}

// Disconnect closes the connection, fails any pending request with
// ErrCancelled and stops reconnection. It is safe to call repeatedly.
// It must not be called from an observer callback.
func (c *Channel) Disconnect() error {
	c.stopReconnect()

	c.mu.Lock()
	switch c.state {
	case StateDisconnected:
		c.mu.Unlock()
		return nil
	case StateConnecting:
		c.generation++
		c.state = StateDisconnected
		c.mu.Unlock()
		return nil
	}
	c.state = StateDisconnecting
	c.generation++
	t := c.transport
	cancel := c.connCancel
	c.transport = nil
	c.connCancel = nil
	c.mu.Unlock()

	c.logger.Info("Channel %s disconnecting", c.cfg.Address)

	c.correlator.Cancel(fmt.Errorf("%w: disconnected", correlator.ErrCancelled))
	if cancel != nil {
		cancel()
	}
	var err error
	if t != nil {
		err = t.Close()
	}
	c.wg.Wait()

	c.mu.Lock()
	c.state = StateDisconnected
	c.mu.Unlock()

	c.logger.Info("Channel %s disconnected", c.cfg.Address)
	return err
}

// Exchange sends a request and waits for the frame its matcher accepts
func (c *Channel) Exchange(ctx context.Context, req correlator.Request) (*link.Frame, error) {
	t, gen, err := c.active()
	if err != nil {
		return nil, err
	}

	send := func(ctx context.Context, data []byte) error {
		return c.write(ctx, t, gen, data)
	}
	return c.correlator.SendAndWait(ctx, send, req)
}

// Send writes a frame without waiting for any response
func (c *Channel) Send(ctx context.Context, id uint8, payload []byte) error {
	data, err := link.Encode(id, payload)
	if err != nil {
		return err
	}

	t, gen, err := c.active()
	if err != nil {
		return err
	}
	return c.write(ctx, t, gen, data)
}

// Subscribe registers an observer for unsolicited frames with packet id
func (c *Channel) Subscribe(id uint8, o Observer) Subscription {
	return c.router.Subscribe(id, o)
}

// SubscribeAll registers an observer for every unsolicited frame
func (c *Channel) SubscribeAll(o Observer) Subscription {
	return c.router.SubscribeAll(o)
}

// Unsubscribe removes an observer
func (c *Channel) Unsubscribe(sub Subscription) {
	c.router.Unsubscribe(sub)
}

// Statistics returns a snapshot of channel statistics
func (c *Channel) Statistics() Snapshot {
	snap := c.stats.Snapshot()
	snap.Timeouts = c.correlator.Timeouts()

	c.mu.Lock()
	if c.transport != nil {
		snap.Transport = c.transport.Statistics()
	}
	c.mu.Unlock()
	return snap
}

// ResetStatistics clears all channel counters
func (c *Channel) ResetStatistics() {
	c.stats.Reset()
}

// active returns the live transport or the error a caller should see
func (c *Channel) active() (Transport, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.state == StateConnected:
		return c.transport, c.generation, nil
	case c.reconnecting:
		return nil, 0, fmt.Errorf("%w: reconnecting to %s", ErrConnectionLost, c.cfg.Address)
	default:
		return nil, 0, ErrNotConnected
	}
}

func (c *Channel) write(ctx context.Context, t Transport, gen uint64, data []byte) error {
	logger.LogFrame(c.logger, "TX", data)

	if err := t.Write(ctx, data); err != nil {
		c.handleLoss(gen, err)
		return fmt.Errorf("%w: %w", ErrConnectionLost, err)
	}
	c.stats.FrameTx()
	return nil
}

func (c *Channel) dial(ctx context.Context) (Transport, error) {
	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
	}

	t, err := c.cfg.Dialer.Dial(ctx, c.cfg.Address)
	if err == nil {
		return t, nil
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return nil, fmt.Errorf("%w: connect to %s: %w", correlator.ErrTimeout, c.cfg.Address, err)
	case errors.Is(err, context.Canceled):
		return nil, fmt.Errorf("%w: %w", correlator.ErrCancelled, err)
	default:
		return nil, fmt.Errorf("%w: connect to %s: %w", ErrNetwork, c.cfg.Address, err)
	}
}

// startLocked installs t as the live transport. Caller holds c.mu.
func (c *Channel) startLocked(t Transport) {
	ctx, cancel := context.WithCancel(context.Background())
	c.generation++
	c.transport = t
	c.connCancel = cancel
	c.state = StateConnected

	c.wg.Add(1)
	go c.readLoop(ctx, t, c.generation)
}

func (c *Channel) established() {
	c.stats.Connect()
	c.logger.Info("Channel %s connected", c.cfg.Address)
	if c.cfg.Listener != nil {
		c.cfg.Listener.OnConnectionEstablished()
	}
}

func (c *Channel) readLoop(ctx context.Context, t Transport, gen uint64) {
	defer c.wg.Done()

	parser := link.NewParser()
	for {
		data, err := t.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.handleLoss(gen, err)
			}
			return
		}

		logger.LogFrame(c.logger, "RX", data)
		skipped := parser.SkippedBytes()
		parser.Feed(data)
		c.drain(parser)
		if n := parser.SkippedBytes() - skipped; n > 0 {
			c.stats.SkippedBytes(n)
		}
	}
}

func (c *Channel) drain(parser *link.Parser) {
	for {
		frame, err := parser.Next()
		switch {
		case err == nil:
			c.dispatch(frame)
		case errors.Is(err, link.ErrInvalidChecksum):
			c.stats.ChecksumError()
		default:
			return
		}
	}
}

// dispatch offers a frame to the pending request, then to observers
func (c *Channel) dispatch(frame *link.Frame) {
	c.stats.FrameRx()

	if c.correlator.Deliver(frame) {
		return
	}
	if c.router.Route(frame) {
		c.stats.Unsolicited()
		return
	}
	c.stats.Dropped()
	c.logger.Debug("Channel %s dropped %s", c.cfg.Address, frame)
}

// handleLoss tears down the connection identified by gen after a read or
// write failure and starts the reconnect loop if the policy allows.
func (c *Channel) handleLoss(gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.generation || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	t := c.transport
	c.transport = nil
	c.connCancel()
	c.connCancel = nil
	c.state = StateDisconnected

	var loopCtx context.Context
	var done chan struct{}
	if c.cfg.Reconnect.MaxAttempts > 0 {
		loopCtx, c.loopCancel = context.WithCancel(context.Background())
		done = make(chan struct{})
		c.loopDone = done
		c.reconnecting = true
	}
	c.mu.Unlock()

	t.Close()
	c.stats.ConnectionLost()
	c.logger.Warn("Channel %s connection lost: %v", c.cfg.Address, cause)
	c.correlator.Cancel(fmt.Errorf("%w: %w", ErrConnectionLost, cause))

	if c.cfg.Listener != nil {
		c.cfg.Listener.OnConnectionLost(cause)
	}
	if done != nil {
		go c.reconnectLoop(loopCtx, done)
	}
}

func (c *Channel) reconnectLoop(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		if c.loopCancel != nil {
			c.loopCancel()
			c.loopCancel = nil
		}
		c.mu.Unlock()
		close(done)
	}()

	policy := c.cfg.Reconnect
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		wait := policy.Backoff(attempt)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		c.mu.Lock()
		if ctx.Err() != nil {
			c.mu.Unlock()
			return
		}
		c.state = StateConnecting
		c.mu.Unlock()

		c.logger.Info("Channel %s reconnect attempt %d/%d", c.cfg.Address, attempt, policy.MaxAttempts)
		t, err := c.dial(ctx)

		c.mu.Lock()
		if ctx.Err() != nil {
			c.state = StateDisconnected
			c.mu.Unlock()
			if t != nil {
				t.Close()
			}
			return
		}
		if err != nil {
			c.state = StateDisconnected
			c.mu.Unlock()
			c.logger.Warn("Channel %s reconnect attempt %d failed: %v", c.cfg.Address, attempt, err)
			continue
		}
		c.startLocked(t)
		c.reconnecting = false
		c.mu.Unlock()

		c.stats.Reconnect()
		c.established()
		return
	}

	c.logger.Error("Channel %s giving up after %d reconnect attempts", c.cfg.Address, policy.MaxAttempts)
}

// stopReconnect cancels an automatic reconnect and waits for it to exit
func (c *Channel) stopReconnect() {
	c.mu.Lock()
	if !c.reconnecting {
		c.mu.Unlock()
		return
	}
	cancel := c.loopCancel
	done := c.loopDone
	c.mu.Unlock()

	cancel()
	<-done
}
