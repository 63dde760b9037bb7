package book

import "hyperion/internal/types"

// Manager owns one OrderBook per ticker and routes requests to the
// matching one (spec §2's Orderbook Manager component).
type Manager struct {
	books map[types.Ticker]*OrderBook
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{books: make(map[types.Ticker]*OrderBook)}
}

// AddOrderbook creates a fresh, empty book for ticker. Called once per
// ticker during startup configuration.
func (m *Manager) AddOrderbook(ticker types.Ticker) {
	m.books[ticker] = New(ticker)
}

// Handle routes req to ticker's orderbook, returning no logs if the
// ticker is unknown (the portal's stock-manager check prevents this in
// practice).
func (m *Manager) Handle(ticker types.Ticker, req any) []Log {
	b, ok := m.books[ticker]
	if !ok {
		return nil
	}
	return b.Handle(req)
}

// BestBuyPrice looks up ticker's best buy price, if any.
func (m *Manager) BestBuyPrice(ticker types.Ticker) (types.Price, bool) {
	b, ok := m.books[ticker]
	if !ok {
		return 0, false
	}
	return b.BestBuyPrice()
}

// BestSellPrice looks up ticker's best sell price, if any.
func (m *Manager) BestSellPrice(ticker types.Ticker) (types.Price, bool) {
	b, ok := m.books[ticker]
	if !ok {
		return 0, false
	}
	return b.BestSellPrice()
}
