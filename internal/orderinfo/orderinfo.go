// Package orderinfo tracks, per order id, the immutable static record
// assigned at acceptance and the mutable resting size driven by market
// events (spec §4.2). The portal exclusively owns and serializes access
// to an Info (spec §3/§5), so it carries no lock of its own.
package orderinfo

import (
	"hyperion/internal/event"
	"hyperion/internal/types"
)

// Record is the immutable-after-create order record.
type Record struct {
	InvId       types.InvId
	Ticker      types.Ticker
	Direction   types.Direction
	LimitPrice  types.Price
	InitialSize types.Size
}

// Info is the bind (static) + resting (mutable) store keyed by order id.
type Info struct {
	bind    map[types.OrderId]Record
	resting map[types.OrderId]types.Size
}

// New creates an empty order-info store.
func New() *Info {
	return &Info{
		bind:    make(map[types.OrderId]Record),
		resting: make(map[types.OrderId]types.Size),
	}
}

// AddNewOrder binds a new order's immutable record. The resting entry is
// populated later, only if/when an OrderAdded event arrives — a fully
// filled aggressive order never gets one.
func (i *Info) AddNewOrder(orderId types.OrderId, invId types.InvId, ticker types.Ticker, direction types.Direction, limitPrice types.Price, initialSize types.Size) {
	i.bind[orderId] = Record{
		InvId:       invId,
		Ticker:      ticker,
		Direction:   direction,
		LimitPrice:  limitPrice,
		InitialSize: initialSize,
	}
}

// GetResting returns the current resting size for orderId, if positive.
// A stored size that has reached zero is deleted and reported absent
// (spec §4.2: "if the stored size has reached zero it deletes the entry
// and returns absent").
func (i *Info) GetResting(orderId types.OrderId) (types.Size, bool) {
	size, ok := i.resting[orderId]
	if !ok {
		return 0, false
	}
	if size == 0 {
		delete(i.resting, orderId)
		return 0, false
	}
	return size, true
}

// ValidCancelOrder reports whether orderId has a live resting quantity
// and is owned by invId.
func (i *Info) ValidCancelOrder(orderId types.OrderId, invId types.InvId) bool {
	if _, ok := i.GetResting(orderId); !ok {
		return false
	}
	rec, ok := i.bind[orderId]
	return ok && rec.InvId == invId
}

// GetRecord returns the immutable record bound to orderId, if any.
func (i *Info) GetRecord(orderId types.OrderId) (Record, bool) {
	rec, ok := i.bind[orderId]
	return rec, ok
}

// UpdateByEvent applies one market event's effect on resting size:
// OrderAdded sets it, OrderExecuted decrements it, OrderRemoved deletes
// it (spec §4.2).
func (i *Info) UpdateByEvent(e event.MarketEvent) {
	switch e.K {
	case event.OrderAdded:
		i.resting[e.Added.OrderId] = e.Added.RestingSize
	case event.OrderExecuted:
		if size, ok := i.GetResting(e.Executed.OrderId); ok {
			i.resting[e.Executed.OrderId] = size - e.Executed.ExecutionSize
		}
	case event.OrderRemoved:
		delete(i.resting, e.Removed.OrderId)
	}
}
