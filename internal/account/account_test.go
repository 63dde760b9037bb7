package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPotentialOrderBuyChecksCash(t *testing.T) {
	a := New(1, "alice", "pw", 1000.0)

	assert.True(t, a.ValidPotentialOrder(PotentialOrder{K: PotentialBuy, Total: 999.0}))
	assert.False(t, a.ValidPotentialOrder(PotentialOrder{K: PotentialBuy, Total: 1001.0}))
}

func TestValidPotentialOrderSellChecksPosition(t *testing.T) {
	a := New(1, "alice", "pw", 1000.0)
	a.AddPosition("AAA", 10)

	assert.True(t, a.ValidPotentialOrder(PotentialOrder{K: PotentialSell, Ticker: "AAA", Size: 10}))
	assert.False(t, a.ValidPotentialOrder(PotentialOrder{K: PotentialSell, Ticker: "AAA", Size: 11}))
	assert.False(t, a.ValidPotentialOrder(PotentialOrder{K: PotentialSell, Ticker: "BBB", Size: 1}))
}

func TestApplyUpdatesCashAndPositions(t *testing.T) {
	a := New(1, "alice", "pw", 1000.0)

	a.Apply(Update{K: UpdCash, Cash: -200.0})
	assert.Equal(t, float32(800.0), a.Cash)

	a.Apply(Update{K: AddPos, Ticker: "AAA", Size: 5})
	assert.Equal(t, uint32(5), a.Positions["AAA"])

	a.Apply(Update{K: MinusPos, Ticker: "AAA", Size: 2})
	assert.Equal(t, uint32(3), a.Positions["AAA"])
}

func TestManagerTryLoginIsOnceOnly(t *testing.T) {
	m := NewManager()
	m.AddAccount(1, New(1, "alice", "secret", 1000.0))

	assert.True(t, m.TryLogin(1, "secret"))
	assert.False(t, m.TryLogin(1, "secret"))
	assert.False(t, m.TryLogin(2, "secret"))
}

func TestManagerUpdateByPotentialOrder(t *testing.T) {
	m := NewManager()
	m.AddAccount(1, New(1, "alice", "secret", 1000.0))
	m.accounts[1].AddPosition("AAA", 10)

	m.UpdateByPotentialOrder(1, PotentialOrder{K: PotentialBuy, Total: 300.0})
	acc, _ := m.Get(1)
	assert.Equal(t, float32(700.0), acc.Cash)

	m.UpdateByPotentialOrder(1, PotentialOrder{K: PotentialSell, Ticker: "AAA", Size: 4})
	assert.Equal(t, uint32(6), acc.Positions["AAA"])
}
