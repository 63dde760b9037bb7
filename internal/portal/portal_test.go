package portal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyperion/internal/event"
	"hyperion/internal/types"
)

const investorConfig = `{
	"investors": [
		{"inv_id": 1, "account_name": "alice", "password": "pw1", "stocks": {"AAA": 100}, "cash_amount": 10000.0},
		{"inv_id": 2, "account_name": "bob", "password": "pw2", "stocks": {}, "cash_amount": 10000.0}
	]
}`

const stockConfig = `{
	"stocks": [
		{"ticker": "AAA", "close_price": 100.0, "lot_size": 1, "mpf": 0.1, "name": "Triple A Corp"}
	]
}`

func newTestPortal(t *testing.T) *Portal {
	t.Helper()
	dir := t.TempDir()

	investorsPath := filepath.Join(dir, "investors.json")
	stocksPath := filepath.Join(dir, "stocks.json")
	require.NoError(t, os.WriteFile(investorsPath, []byte(investorConfig), 0o644))
	require.NoError(t, os.WriteFile(stocksPath, []byte(stockConfig), 0o644))

	p, err := New(investorsPath, stocksPath)
	require.NoError(t, err)
	return p
}

func TestTryLoginOnceOnly(t *testing.T) {
	p := newTestPortal(t)

	assert.True(t, p.TryLogin(1, "pw1"))
	assert.False(t, p.TryLogin(1, "pw1"))
	assert.False(t, p.TryLogin(1, "wrong"))
}

func TestNewOrderRejectsInvalidPriceOrSize(t *testing.T) {
	p := newTestPortal(t)

	tasks := p.ProcessRequest(1, Request{
		K:     ReqNewOrder,
		InvId: 1,
		NewOrder: NewOrderRequest{
			Ticker: "AAA", Direction: types.Buy, Size: 10, Price: 100.05,
			LimitOrMarket: types.Limit, TimeInForce: types.Day, Timestamp: 1,
		},
	})

	require.Len(t, tasks, 1)
	assert.Equal(t, TaskOrderReject, tasks[0].K)
}

func TestNewOrderRejectsInsufficientCash(t *testing.T) {
	p := newTestPortal(t)

	tasks := p.ProcessRequest(1, Request{
		K:     ReqNewOrder,
		InvId: 1,
		NewOrder: NewOrderRequest{
			Ticker: "AAA", Direction: types.Buy, Size: 1000, Price: 100.0,
			LimitOrMarket: types.Limit, TimeInForce: types.Day, Timestamp: 1,
		},
	})

	require.Len(t, tasks, 1)
	assert.Equal(t, TaskOrderReject, tasks[0].K)
}

func TestNewOrderAcksAndRests(t *testing.T) {
	p := newTestPortal(t)

	tasks := p.ProcessRequest(1, Request{
		K:     ReqNewOrder,
		InvId: 1,
		NewOrder: NewOrderRequest{
			Ticker: "AAA", Direction: types.Buy, Size: 10, Price: 100.0,
			LimitOrMarket: types.Limit, TimeInForce: types.Day, Timestamp: 1,
		},
	})

	require.Len(t, tasks, 2)
	assert.Equal(t, TaskOrderAck, tasks[0].K)
	assert.Equal(t, types.OrderId(1), tasks[0].OrderId)
	assert.Equal(t, TaskIncrementalEvent, tasks[1].K)
	assert.Equal(t, event.OrderAdded, tasks[1].Event.K)
}

func TestMatchingTwoInvestorsAppliesAccountUpdates(t *testing.T) {
	p := newTestPortal(t)

	// alice (inv 1) sells 10 of her seeded AAA position to bob (inv 2).
	p.ProcessRequest(1, Request{
		K: ReqNewOrder, InvId: 1,
		NewOrder: NewOrderRequest{
			Ticker: "AAA", Direction: types.Sell, Size: 10, Price: 100.0,
			LimitOrMarket: types.Limit, TimeInForce: types.Day, Timestamp: 1,
		},
	})

	tasks := p.ProcessRequest(2, Request{
		K: ReqNewOrder, InvId: 2,
		NewOrder: NewOrderRequest{
			Ticker: "AAA", Direction: types.Buy, Size: 10, Price: 100.0,
			LimitOrMarket: types.Limit, TimeInForce: types.Day, Timestamp: 2,
		},
	})

	var sawFillForAlice, sawFillForBob bool
	for _, task := range tasks {
		if task.K == TaskOrderResponse && task.OrderResponse.K == event.OrderFill {
			if task.InvId == 1 {
				sawFillForAlice = true
			}
			if task.InvId == 2 {
				sawFillForBob = true
			}
		}
	}
	assert.True(t, sawFillForAlice)
	assert.True(t, sawFillForBob)

	acc1, _ := p.accounts.Get(1)
	assert.Equal(t, float32(10000.0+1000.0), acc1.Cash)
}

func TestCancelOrderRejectsWhenNotOwner(t *testing.T) {
	p := newTestPortal(t)

	p.ProcessRequest(1, Request{
		K: ReqNewOrder, InvId: 1,
		NewOrder: NewOrderRequest{
			Ticker: "AAA", Direction: types.Buy, Size: 10, Price: 100.0,
			LimitOrMarket: types.Limit, TimeInForce: types.Day, Timestamp: 1,
		},
	})

	tasks := p.ProcessRequest(2, Request{K: ReqCancelOrder, InvId: 2, OrderId: 1})
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskCancelReject, tasks[0].K)
}

func TestCancelOrderRefundsReservedCash(t *testing.T) {
	p := newTestPortal(t)

	p.ProcessRequest(1, Request{
		K: ReqNewOrder, InvId: 1,
		NewOrder: NewOrderRequest{
			Ticker: "AAA", Direction: types.Buy, Size: 10, Price: 100.0,
			LimitOrMarket: types.Limit, TimeInForce: types.Day, Timestamp: 1,
		},
	})

	acc1, _ := p.accounts.Get(1)
	assert.Equal(t, float32(10000.0-1000.0), acc1.Cash)

	p.ProcessRequest(2, Request{K: ReqCancelOrder, InvId: 1, OrderId: 1})
	assert.Equal(t, float32(10000.0), acc1.Cash)
}

func TestEventHistoryReplaysAccumulatedEvents(t *testing.T) {
	p := newTestPortal(t)

	p.ProcessRequest(1, Request{
		K: ReqNewOrder, InvId: 1,
		NewOrder: NewOrderRequest{
			Ticker: "AAA", Direction: types.Buy, Size: 10, Price: 100.0,
			LimitOrMarket: types.Limit, TimeInForce: types.Day, Timestamp: 1,
		},
	})

	tasks := p.ProcessRequest(0, Request{K: ReqEventHistory, SubId: 7})
	require.Len(t, tasks, 1)
	assert.Equal(t, TaskEventHistory, tasks[0].K)
	assert.Len(t, tasks[0].History, 1)
}
