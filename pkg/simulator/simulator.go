// Package simulator implements an in-process ANPP device for tests and
// demonstrations. It answers requests from a packet store, acknowledges
// configuration writes and honours reset commands by dropping the client.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"avaneesh/anpp-go/pkg/internal/logger"
	"avaneesh/anpp-go/pkg/link"
	"avaneesh/anpp-go/pkg/packet"
	"avaneesh/anpp-go/pkg/types"
)

var ErrServerClosed = errors.New("simulator closed")

// Server is a simulated device listening on TCP
type Server struct {
	config   Config
	database *Database
	logger   logger.Logger

	listener net.Listener
	clients  map[*client]struct{}
	mu       sync.Mutex

	ignoreRequests atomic.Bool
	framesRx       atomic.Uint64
	resets         atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// client is one accepted connection
type client struct {
	conn    net.Conn
	writeMu sync.Mutex
}

func (c *client) send(id packet.ID, payload []byte) error {
	data, err := link.Encode(uint8(id), payload)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_, err = c.conn.Write(data)
	return err
}

// New creates a simulator. Call Start to begin listening.
func New(config Config) *Server {
	if config.Address == "" {
		config.Address = "127.0.0.1:0"
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		config:   config,
		database: NewDatabase(config.DeviceInformation, config.Clock),
		logger:   logger.OrNoOp(config.Logger),
		clients:  make(map[*client]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start listens and accepts clients in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("simulator listen on %s: %w", s.config.Address, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("Simulator listening on %s", ln.Addr())

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Run starts the simulator and blocks until ctx is done
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Close()
}

// Addr returns the listening address
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Database returns the packet store
func (s *Server) Database() *Database {
	return s.database
}

// SetIgnoreRequests makes the device stop answering anything
func (s *Server) SetIgnoreRequests(ignore bool) {
	s.ignoreRequests.Store(ignore)
}

// Clients returns the number of connected clients
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.clients)
}

// FramesReceived returns the number of valid frames received
func (s *Server) FramesReceived() uint64 {
	return s.framesRx.Load()
}

// Resets returns how many reset or factory reset commands were honoured
func (s *Server) Resets() uint64 {
	return s.resets.Load()
}

// Broadcast sends p unsolicited to every client
func (s *Server) Broadcast(p packet.Packet) error {
	payload, err := p.MarshalBinary()
	if err != nil {
		return err
	}

	var errs []error
	for _, c := range s.snapshot() {
		if err := c.send(p.ID(), payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DropClients closes every client connection without warning
func (s *Server) DropClients() int {
	clients := s.snapshot()
	for _, c := range clients {
		c.conn.Close()
	}
	return len(clients)
}

// Close stops listening and disconnects all clients
func (s *Server) Close() error {
	s.cancel()

	s.mu.Lock()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.mu.Unlock()

	s.DropClients()
	s.wg.Wait()
	return err
}

func (s *Server) snapshot() []*client {
	s.mu.Lock()
	defer s.mu.Unlock()

	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	return clients
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.ctx.Err() == nil {
				s.logger.Error("Simulator accept failed: %v", err)
			}
			return
		}

		c := &client{conn: conn}
		s.mu.Lock()
		s.clients[c] = struct{}{}
		s.mu.Unlock()

		s.logger.Info("Simulator client %s connected", conn.RemoteAddr())

		s.wg.Add(1)
		go s.serve(c)
	}
}

func (s *Server) serve(c *client) {
	defer s.wg.Done()
	defer func() {
		c.conn.Close()
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		s.logger.Info("Simulator client %s disconnected", c.conn.RemoteAddr())
	}()

	parser := link.NewParser()
	buf := make([]byte, 1024)
	for {
		n, err := c.conn.Read(buf)
		if err != nil {
			return
		}

		parser.Feed(buf[:n])
		for {
			frame, err := parser.Next()
			if errors.Is(err, link.ErrInvalidChecksum) {
				s.logger.Debug("Simulator dropped corrupt frame")
				continue
			}
			if err != nil {
				break
			}

			s.framesRx.Add(1)
			if !s.handle(c, frame) {
				return
			}
		}
	}
}

// handle answers one frame. It returns false when the connection must close.
func (s *Server) handle(c *client, frame *link.Frame) bool {
	if s.ignoreRequests.Load() {
		s.logger.Debug("Simulator ignoring %s", frame)
		return true
	}
	if s.config.ResponseDelay > 0 {
		select {
		case <-time.After(s.config.ResponseDelay):
		case <-s.ctx.Done():
			return false
		}
	}

	id := packet.ID(frame.ID)
	switch id {
	case packet.IDRequest:
		return s.handleRequest(c, frame)
	case packet.IDReset, packet.IDRestoreFactorySettings:
		return s.handleReset(c, frame)
	default:
		result := s.database.write(id, frame.Payload)
		s.logger.Debug("Simulator write %s: %s", id, result)
		return s.ack(c, frame, result) == nil
	}
}

func (s *Server) handleRequest(c *client, frame *link.Frame) bool {
	req := &packet.Request{}
	if err := req.UnmarshalBinary(frame.Payload); err != nil {
		return s.ack(c, frame, types.AckFailurePacketSize) == nil
	}

	for _, id := range req.IDs {
		payload, ok := s.database.Payload(id)
		if !ok {
			ack := &packet.Acknowledge{PacketID: id, Result: types.AckFailureUnknownPacket}
			data, _ := ack.MarshalBinary()
			if err := c.send(packet.IDAcknowledge, data); err != nil {
				return false
			}
			continue
		}
		if err := c.send(id, payload); err != nil {
			return false
		}
	}
	return true
}

func (s *Server) handleReset(c *client, frame *link.Frame) bool {
	p, err := packet.Decode(packet.ID(frame.ID), frame.Payload)
	if err != nil {
		return s.ack(c, frame, types.AckFailurePacketSize) == nil
	}
	if err := p.(validator).Validate(); err != nil {
		s.logger.Warn("Simulator rejected %s: %v", p.ID(), err)
		return s.ack(c, frame, types.AckFailureRange) == nil
	}

	if p.ID() == packet.IDRestoreFactorySettings {
		s.database.Reset()
	}
	s.resets.Add(1)
	s.ack(c, frame, types.AckSuccess)
	s.logger.Info("Simulator %s accepted, dropping client", p.ID())
	return false
}

func (s *Server) ack(c *client, frame *link.Frame, result types.AckResult) error {
	ack := &packet.Acknowledge{PacketID: packet.ID(frame.ID), PacketCRC: frame.CRC(), Result: result}
	data, _ := ack.MarshalBinary()
	return c.send(packet.IDAcknowledge, data)
}
