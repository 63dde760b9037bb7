// Package book implements the per-ticker matching engine: two price-time
// priority heaps (buy/sell) with lazy-deleted cancels, price-time priority
// matching, and the fused OrderbookLog stream the portal consumes.
package book

import (
	"container/heap"

	"hyperion/internal/event"
	"hyperion/internal/types"
)

// NewOrderRequest is what the portal forwards to an OrderBook for a new
// (already-validated, already-priced) order.
type NewOrderRequest struct {
	OrderId       types.OrderId
	Direction     types.Direction
	Size          types.Size
	Price         types.Price
	Timestamp     types.Timestamp
	LimitOrMarket types.LimitOrMarket
	TimeInForce   types.TimeInForce
}

// CancelOrderRequest is what the portal forwards to cancel a live order.
type CancelOrderRequest struct {
	OrderId types.OrderId
}

// LogKind discriminates the two OrderbookLog variants.
type LogKind int

const (
	LogOrder LogKind = iota
	LogEvent
)

// Log is the engine's fused stream element (spec §3 OrderbookLog):
// either a per-investor OrderResponse or a market Event. A single
// matching action emits an interleaved sequence of both; callers must
// preserve that sequence.
type Log struct {
	K      LogKind
	Order  event.Response
	Market event.MarketEvent
}

func orderLog(r event.Response) Log    { return Log{K: LogOrder, Order: r} }
func marketLog(e event.MarketEvent) Log { return Log{K: LogEvent, Market: e} }

// OrderBook is the matching engine for a single ticker.
type OrderBook struct {
	ticker      types.Ticker
	buys        BuyHeap
	sells       SellHeap
	lazyDeleted map[types.OrderId]struct{}
}

// New creates an empty orderbook for ticker.
func New(ticker types.Ticker) *OrderBook {
	return &OrderBook{
		ticker:      ticker,
		buys:        BuyHeap{},
		sells:       SellHeap{},
		lazyDeleted: make(map[types.OrderId]struct{}),
	}
}

// bestBuy pops the best live buy order off the heap, discarding any
// tombstoned entries it encounters along the way (spec §4.1 pop-best
// primitive).
func (b *OrderBook) bestBuy() *RestingOrder {
	for b.buys.Len() > 0 {
		best := heap.Pop(&b.buys).(*RestingOrder)
		if _, dead := b.lazyDeleted[best.OrderId]; dead {
			delete(b.lazyDeleted, best.OrderId)
			continue
		}
		return best
	}
	return nil
}

// bestSell pops the best live sell order off the heap, discarding any
// tombstoned entries it encounters along the way.
func (b *OrderBook) bestSell() *RestingOrder {
	for b.sells.Len() > 0 {
		best := heap.Pop(&b.sells).(*RestingOrder)
		if _, dead := b.lazyDeleted[best.OrderId]; dead {
			delete(b.lazyDeleted, best.OrderId)
			continue
		}
		return best
	}
	return nil
}

// tradeLogs builds the (OrderFill, OrderExecuted) pair for one party of a
// trade (spec §4.1 step 2c/2d).
func (b *OrderBook) tradeLogs(orderId types.OrderId, fillSize types.Size, fillPrice types.Price) []Log {
	return []Log{
		orderLog(event.NewFill(event.Fill{OrderId: orderId, FillSize: fillSize, FillPrice: fillPrice})),
		marketLog(event.NewExecuted(event.Executed{
			OrderId:        orderId,
			Ticker:         b.ticker,
			ExecutionSize:  fillSize,
			ExecutionPrice: fillPrice,
		})),
	}
}

// Handle dispatches a new-order or cancel request and returns the logs it
// produced, in emission order.
func (b *OrderBook) Handle(req any) []Log {
	switch r := req.(type) {
	case NewOrderRequest:
		return b.handleNewOrder(r)
	case CancelOrderRequest:
		return b.handleCancel(r)
	default:
		return nil
	}
}

func (b *OrderBook) handleNewOrder(req NewOrderRequest) []Log {
	if req.Direction == types.Buy {
		return b.handleNewBuy(req)
	}
	return b.handleNewSell(req)
}

// handleNewBuy matches an incoming buy against resting sells, then rests
// or kills the remainder. Grounded on handle_new_buy_order in the
// original Rust source: the maker's fill/executed logs are emitted before
// the taker's for each match, and a fully-filled maker also gets an
// OrderDead.
func (b *OrderBook) handleNewBuy(req NewOrderRequest) []Log {
	var logs []Log
	left := req.Size

	for left > 0 {
		bestSell := b.bestSell()
		if bestSell == nil {
			break
		}
		if bestSell.Price > req.Price {
			heap.Push(&b.sells, bestSell)
			break
		}

		fillSize := min(left, bestSell.Size)
		fillPrice := bestSell.Price

		logs = append(logs, b.tradeLogs(bestSell.OrderId, fillSize, fillPrice)...)
		if fillSize < bestSell.Size {
			heap.Push(&b.sells, &RestingOrder{
				OrderId:   bestSell.OrderId,
				Size:      bestSell.Size - fillSize,
				Price:     bestSell.Price,
				Timestamp: bestSell.Timestamp,
			})
		} else {
			logs = append(logs, orderLog(event.NewDead(event.Dead{OrderId: bestSell.OrderId})))
		}

		logs = append(logs, b.tradeLogs(req.OrderId, fillSize, fillPrice)...)
		left -= fillSize
	}

	logs = append(logs, b.restOrKill(req, left)...)
	return logs
}

// handleNewSell is the mirror of handleNewBuy against resting buys.
func (b *OrderBook) handleNewSell(req NewOrderRequest) []Log {
	var logs []Log
	left := req.Size

	for left > 0 {
		bestBuy := b.bestBuy()
		if bestBuy == nil {
			break
		}
		if bestBuy.Price < req.Price {
			heap.Push(&b.buys, bestBuy)
			break
		}

		fillSize := min(left, bestBuy.Size)
		fillPrice := bestBuy.Price

		logs = append(logs, b.tradeLogs(bestBuy.OrderId, fillSize, fillPrice)...)
		if fillSize < bestBuy.Size {
			heap.Push(&b.buys, &RestingOrder{
				OrderId:   bestBuy.OrderId,
				Size:      bestBuy.Size - fillSize,
				Price:     bestBuy.Price,
				Timestamp: bestBuy.Timestamp,
			})
		} else {
			logs = append(logs, orderLog(event.NewDead(event.Dead{OrderId: bestBuy.OrderId})))
		}

		logs = append(logs, b.tradeLogs(req.OrderId, fillSize, fillPrice)...)
		left -= fillSize
	}

	logs = append(logs, b.restOrKill(req, left)...)
	return logs
}

// restOrKill rests the unfilled remainder of an aggressive order if it is
// a Day limit order, otherwise kills it (spec §4.1 step 3).
func (b *OrderBook) restOrKill(req NewOrderRequest, left types.Size) []Log {
	shouldRest := left > 0 && req.LimitOrMarket == types.Limit && req.TimeInForce == types.Day
	if !shouldRest {
		return []Log{orderLog(event.NewDead(event.Dead{OrderId: req.OrderId}))}
	}

	resting := &RestingOrder{OrderId: req.OrderId, Size: left, Price: req.Price, Timestamp: req.Timestamp}
	if req.Direction == types.Buy {
		heap.Push(&b.buys, resting)
	} else {
		heap.Push(&b.sells, resting)
	}
	return []Log{marketLog(event.NewAdded(event.Added{
		OrderId:     req.OrderId,
		Ticker:      b.ticker,
		Direction:   req.Direction,
		RestingSize: left,
		LimitPrice:  req.Price,
	}))}
}

// handleCancel marks order_id as dead and emits (OrderDead, OrderRemoved)
// unconditionally (spec §4.1: the engine doesn't gate validity, the
// portal does).
func (b *OrderBook) handleCancel(req CancelOrderRequest) []Log {
	b.lazyDeleted[req.OrderId] = struct{}{}
	return []Log{
		orderLog(event.NewDead(event.Dead{OrderId: req.OrderId})),
		marketLog(event.NewRemoved(event.Removed{OrderId: req.OrderId})),
	}
}

// BestBuyPrice returns the current best resting buy price, materialising
// any pending tombstones lazily (spec §4.1's only top-of-book GC point).
func (b *OrderBook) BestBuyPrice() (types.Price, bool) {
	best := b.bestBuy()
	if best == nil {
		return 0, false
	}
	price := best.Price
	heap.Push(&b.buys, best)
	return price, true
}

// BestSellPrice is the sell-side mirror of BestBuyPrice.
func (b *OrderBook) BestSellPrice() (types.Price, bool) {
	best := b.bestSell()
	if best == nil {
		return 0, false
	}
	price := best.Price
	heap.Push(&b.sells, best)
	return price, true
}
