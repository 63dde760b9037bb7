// Package stock holds the static per-ticker reference data (close price,
// lot size, minimum price fluctuation) used to validate incoming orders
// (spec §4.3's Stock Manager component).
package stock

import (
	"hyperion/internal/types"
)

// epsilon mirrors Rust's std::f32::EPSILON, used for the tick-size check.
const epsilon = 1.1920929e-7

// Manager binds every tradable ticker to its StockRecord.
type Manager struct {
	bind map[types.Ticker]types.StockRecord
}

// NewManager creates an empty stock manager.
func NewManager() *Manager {
	return &Manager{bind: make(map[types.Ticker]types.StockRecord)}
}

// BindStock registers rec for ticker. Called once per ticker at startup.
func (m *Manager) BindStock(ticker types.Ticker, rec types.StockRecord) {
	m.bind[ticker] = rec
}

func checkValidPrice(price, mpf types.Price) bool {
	ratio := price / mpf
	diff := ratio - float32(int32(ratio))
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func checkValidSize(size, lotSize types.Size) bool {
	return size > 0 && size%lotSize == 0
}

// CheckValidOrder reports whether price is a multiple of ticker's minimum
// price fluctuation and size is a positive multiple of its lot size.
func (m *Manager) CheckValidOrder(ticker types.Ticker, price types.Price, size types.Size) bool {
	rec, ok := m.bind[ticker]
	if !ok {
		return false
	}
	return checkValidPrice(price, rec.Mpf) && checkValidSize(size, rec.LotSize)
}

// GetClosePrice returns ticker's close price, used as the effective price
// of an incoming market order.
func (m *Manager) GetClosePrice(ticker types.Ticker) (types.Price, bool) {
	rec, ok := m.bind[ticker]
	if !ok {
		return 0, false
	}
	return rec.ClosePrice, true
}

// Tickers returns every bound ticker, for orderbook-manager setup.
func (m *Manager) Tickers() []types.Ticker {
	out := make([]types.Ticker, 0, len(m.bind))
	for t := range m.bind {
		out = append(out, t)
	}
	return out
}
