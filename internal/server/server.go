// Package server implements C10: the TCP front door. It accepts
// connections, reads framed wire.Message requests off them through a
// bounded worker pool, and serializes the resulting engine calls through a
// single session-handler goroutine per the teacher's internal/net/server.go
// shape — adapted here to dispatch through internal/manager so one server
// can host many instruments instead of one.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"matchbook/internal/domain"
	"matchbook/internal/engine"
	"matchbook/internal/manager"
	"matchbook/internal/wire"
)

const (
	maxRecvSize        = 4 * 1024
	defaultConnTimeout = time.Second
)

// orderSeq assigns the caller-side order ids spec.md requires submitters
// to provide. Wire clients don't send one — the teacher used a
// server-generated uuid.New() for the same purpose (internal/net/
// messages.go's NewOrderMessage.Order) — so the server generates a
// monotonic int64 instead, since spec.md's ids are integers.
var orderSeq uint64

func nextOrderID() int64 {
	return int64(atomic.AddUint64(&orderSeq, 1))
}

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// clientSession tracks the live connection for one address. connID is a
// correlation id threaded through logs for that session — the teacher
// used google/uuid for order ids; since spec.md's order ids are plain
// integers (nextOrderID), uuid is repurposed here for connection tracking
// instead.
type clientSession struct {
	conn   net.Conn
	connID uuid.UUID
}

// clientMessage links a parsed request to the connection it arrived on.
type clientMessage struct {
	address string
	message wire.Message
}

// Server owns the accept loop, worker pool, and manager dispatch.
type Server struct {
	address string
	port    int
	workers int
	mgr     *manager.Manager

	pool   WorkerPool
	cancel context.CancelFunc

	sessionsMu sync.Mutex
	sessions   map[string]clientSession

	inbox chan clientMessage
}

// New builds a Server bound to address:port, dispatching through mgr with
// the given worker pool size.
func New(address string, port int, workers int, mgr *manager.Manager) *Server {
	return &Server{
		address:  address,
		port:     port,
		workers:  workers,
		mgr:      mgr,
		pool:     NewWorkerPool(workers),
		sessions: make(map[string]clientSession),
		inbox:    make(chan clientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run blocks, accepting connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return err
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()
	// Accept does not watch ctx; closing the listener on cancellation
	// unblocks it so the loop below can observe ctx.Done and return.
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})
	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", s.address).Int("port", s.port).Msg("server running")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}
			connID := s.addSession(conn)
			log.Info().Str("address", conn.RemoteAddr().String()).Str("connID", connID.String()).Msg("client connected")
			s.pool.AddTask(conn)
		}
	}
}

// sessionHandler is the single goroutine that actually mutates order
// books, keeping the manager's single-writer-per-instrument contract even
// though many connection workers read concurrently.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case msg := <-s.inbox:
			if err := s.handleMessage(msg); err != nil {
				log.Error().Err(err).Str("address", msg.address).Msg("error handling message")
				s.reportError(msg.address, err)
			}
		}
	}
}

func (s *Server) handleMessage(msg clientMessage) error {
	switch m := msg.message.(type) {
	case wire.NewOrderMessage:
		order := m.ToOrder(nextOrderID())
		id, fills, err := s.mgr.Submit(m.Symbol, order)
		if err != nil {
			return err
		}
		return s.reportFills(msg.address, m.Symbol, id, fills)
	case wire.CancelOrderMessage:
		return s.mgr.Cancel(m.Symbol, m.OrderID)
	case wire.ModifyOrderMessage:
		_, err := s.mgr.Modify(m.Symbol, m.OrderID, domain.Quantity(m.Qty))
		return err
	case wire.SubscribeMessage:
		if m.Type() == wire.TypeUnsubscribe {
			s.mgr.Unsubscribe(m.Symbol, m.Owner)
			return nil
		}
		return s.mgr.Subscribe(m.Symbol, m.Owner)
	case wire.SnapshotRequestMessage:
		snap, version, err := s.mgr.Snapshot(m.Symbol, int(m.Depth))
		if err != nil {
			return err
		}
		log.Debug().Str("symbol", m.Symbol).Uint64("version", version).
			Int("bids", len(snap.Bids)).Int("asks", len(snap.Asks)).
			Msg("snapshot served")
		return s.reportSnapshot(msg.address, wire.SnapshotReportFrom(m.Symbol, version, snap))
	default:
		return wire.ErrInvalidMessageType
	}
}

func (s *Server) reportFills(address, symbol string, orderID int64, fills []engine.Fill) error {
	s.sessionsMu.Lock()
	session, ok := s.sessions[address]
	s.sessionsMu.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}
	log.Debug().Str("connID", session.connID.String()).Int64("orderID", orderID).
		Int("fills", len(fills)).Msg("reporting fills")
	for _, f := range fills {
		report := wire.ExecutionReport{
			Symbol:    symbol,
			RestingID: f.RestingID,
			Quantity:  uint64(f.Quantity),
			Price:     f.Price,
		}
		if _, err := session.conn.Write(report.Serialize()); err != nil {
			s.deleteSession(address)
			return fmt.Errorf("unable to send execution report: %w", err)
		}
	}
	return nil
}

func (s *Server) reportSnapshot(address string, report wire.SnapshotReport) error {
	s.sessionsMu.Lock()
	session, ok := s.sessions[address]
	s.sessionsMu.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}
	if _, err := session.conn.Write(report.Serialize()); err != nil {
		s.deleteSession(address)
		return fmt.Errorf("unable to send snapshot report: %w", err)
	}
	return nil
}

func (s *Server) reportError(address string, cause error) {
	s.sessionsMu.Lock()
	session, ok := s.sessions[address]
	s.sessionsMu.Unlock()
	if !ok {
		return
	}
	report := wire.ErrorReport{Message: cause.Error()}
	if _, err := session.conn.Write(report.Serialize()); err != nil {
		s.deleteSession(address)
	}
}

// handleConnection reads one framed message off conn and forwards it to
// the session handler, then re-queues the connection for its next message.
// Any error returned here is fatal to the owning tomb.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	address := conn.RemoteAddr().String()
	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", address).Msg("failed setting deadline")
		s.deleteSession(address)
		return nil
	}

	buf := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buf)
		if err != nil {
			log.Error().Err(err).Str("address", address).Msg("error reading from connection")
			s.deleteSession(address)
			return nil
		}

		msg, err := wire.ParseMessage(buf[:n])
		if err != nil {
			log.Error().Err(err).Str("address", address).Msg("error parsing message")
			s.reportError(address, err)
			s.pool.AddTask(conn)
			return nil
		}

		s.inbox <- clientMessage{address: address, message: msg}
		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) addSession(conn net.Conn) uuid.UUID {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	connID := uuid.New()
	s.sessions[conn.RemoteAddr().String()] = clientSession{conn: conn, connID: connID}
	return connID
}

func (s *Server) deleteSession(address string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	delete(s.sessions, address)
}
