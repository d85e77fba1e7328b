// Package manager implements C8: routing incoming work to the right
// per-instrument engine and tracking, per (symbol, client) pair, the
// version each subscriber has last seen. It is the Go-native reshaping of
// the Python original's OrderBookManager (original_source/src/
// orderbook_manager.py) into the teacher's Engine{Books map[...]OrderBook}
// idiom (internal/engine/engine.go in the teacher repo).
package manager

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"matchbook/internal/changelog"
	"matchbook/internal/domain"
	"matchbook/internal/engine"
)

var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrSymbolExists  = errors.New("symbol already registered")
)

// Manager multiplexes Orderbook engines across instruments and keeps
// subscription bookkeeping. Its own maps are guarded by mu, so routing and
// subscriber bookkeeping are safe for concurrent callers. The engine calls
// it forwards (Submit, Cancel, Modify, Snapshot, UpdatesFor) are not
// serialized against each other by Manager; the caller serializes them, as
// internal/server does with its single session-handler goroutine.
type Manager struct {
	mu      sync.RWMutex
	books   map[string]*engine.Orderbook
	subs    map[string]map[string]struct{}
	watermk map[string]map[string]uint64
}

func New() *Manager {
	return &Manager{
		books:   make(map[string]*engine.Orderbook),
		subs:    make(map[string]map[string]struct{}),
		watermk: make(map[string]map[string]uint64),
	}
}

// CreateOrderBook registers a fresh engine for symbol.
func (m *Manager) CreateOrderBook(symbol string, tickSize domain.Price) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.books[symbol]; exists {
		return ErrSymbolExists
	}
	m.books[symbol] = engine.New(domain.Instrument{Symbol: symbol, TickSize: tickSize})
	log.Info().Str("symbol", symbol).Int64("tickSize", int64(tickSize)).Msg("order book created")
	return nil
}

func (m *Manager) orderBook(symbol string) (*engine.Orderbook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ob, ok := m.books[symbol]
	if !ok {
		return nil, ErrUnknownSymbol
	}
	return ob, nil
}

// Submit routes order to symbol's engine.
func (m *Manager) Submit(symbol string, o engine.Order) (int64, []engine.Fill, error) {
	ob, err := m.orderBook(symbol)
	if err != nil {
		return 0, nil, err
	}
	return ob.Submit(o)
}

// Cancel routes a cancel to symbol's engine.
func (m *Manager) Cancel(symbol string, id int64) error {
	ob, err := m.orderBook(symbol)
	if err != nil {
		return err
	}
	return ob.Cancel(id)
}

// Modify routes a modify to symbol's engine.
func (m *Manager) Modify(symbol string, id int64, qty domain.Quantity) (int64, error) {
	ob, err := m.orderBook(symbol)
	if err != nil {
		return 0, err
	}
	return ob.Modify(id, qty)
}

// Snapshot returns symbol's current depth snapshot and the version it was
// taken at.
func (m *Manager) Snapshot(symbol string, depth int) (engine.Snapshot, uint64, error) {
	ob, err := m.orderBook(symbol)
	if err != nil {
		return engine.Snapshot{}, 0, err
	}
	return ob.Snapshot(depth), ob.CurrentVersion(), nil
}

// Subscribe registers clientID as a subscriber of symbol.
func (m *Manager) Subscribe(symbol, clientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[symbol]; !ok {
		return ErrUnknownSymbol
	}
	if m.subs[symbol] == nil {
		m.subs[symbol] = make(map[string]struct{})
	}
	m.subs[symbol][clientID] = struct{}{}
	if m.watermk[symbol] == nil {
		m.watermk[symbol] = make(map[string]uint64)
	}
	return nil
}

// Unsubscribe removes clientID from symbol's subscriber set.
func (m *Manager) Unsubscribe(symbol, clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subs[symbol], clientID)
	delete(m.watermk[symbol], clientID)
}

// SubscribedClients returns the current subscriber set for symbol.
func (m *Manager) SubscribedClients(symbol string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	clients := make([]string, 0, len(m.subs[symbol]))
	for c := range m.subs[symbol] {
		clients = append(clients, c)
	}
	return clients
}

// UpdatesFor returns the changes clientID has not yet seen for symbol and
// the book's current version. The watermark advances to that version only
// when at least one change is returned. Mirrors
// get_order_book_update in the Python original.
func (m *Manager) UpdatesFor(symbol, clientID string) ([]changelog.Change, uint64, error) {
	ob, err := m.orderBook(symbol)
	if err != nil {
		return nil, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	last := m.watermk[symbol][clientID]
	current := ob.CurrentVersion()
	updates := ob.UpdatesSince(last)
	if len(updates) > 0 {
		if m.watermk[symbol] == nil {
			m.watermk[symbol] = make(map[string]uint64)
		}
		m.watermk[symbol][clientID] = current
	}
	return updates, current, nil
}
