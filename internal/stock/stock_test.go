package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hyperion/internal/types"
)

func newManagerWithAAA() *Manager {
	m := NewManager()
	m.BindStock("AAA", types.StockRecord{
		Ticker:     "AAA",
		ClosePrice: 100.0,
		LotSize:    10,
		Mpf:        0.5,
		Name:       "Triple A Corp",
	})
	return m
}

func TestCheckValidOrderPriceMustBeMultipleOfMpf(t *testing.T) {
	m := newManagerWithAAA()

	assert.True(t, m.CheckValidOrder("AAA", 100.5, 10))
	assert.True(t, m.CheckValidOrder("AAA", 100.0, 10))
	assert.False(t, m.CheckValidOrder("AAA", 100.3, 10))
}

func TestCheckValidOrderSizeMustBePositiveMultipleOfLot(t *testing.T) {
	m := newManagerWithAAA()

	assert.True(t, m.CheckValidOrder("AAA", 100.0, 20))
	assert.False(t, m.CheckValidOrder("AAA", 100.0, 15))
	assert.False(t, m.CheckValidOrder("AAA", 100.0, 0))
}

func TestCheckValidOrderUnknownTickerIsInvalid(t *testing.T) {
	m := newManagerWithAAA()
	assert.False(t, m.CheckValidOrder("ZZZ", 100.0, 10))
}

func TestGetClosePrice(t *testing.T) {
	m := newManagerWithAAA()

	price, ok := m.GetClosePrice("AAA")
	assert.True(t, ok)
	assert.Equal(t, types.Price(100.0), price)

	_, ok = m.GetClosePrice("ZZZ")
	assert.False(t, ok)
}
