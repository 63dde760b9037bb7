// Package event holds the market-event and per-investor order-response
// sum types the matching engine emits.
package event

import "hyperion/internal/types"

// Kind discriminates the variants of Event.
type Kind int

const (
	OrderAdded Kind = iota
	OrderExecuted
	OrderRemoved
)

// Added describes a resting order entering the book.
type Added struct {
	OrderId     types.OrderId
	Ticker      types.Ticker
	Direction   types.Direction
	RestingSize types.Size
	LimitPrice  types.Price
}

// Executed describes a single fill against one side of a trade.
type Executed struct {
	OrderId        types.OrderId
	Ticker         types.Ticker
	ExecutionSize  types.Size
	ExecutionPrice types.Price
}

// Removed describes an order leaving the book (via cancel).
type Removed struct {
	OrderId types.OrderId
}

// MarketEvent is the tagged union described in spec §3's Event type.
// Exactly one of Added/Executed/Removed is populated, selected by Kind.
type MarketEvent struct {
	K        Kind
	Added    Added
	Executed Executed
	Removed  Removed
}

func NewAdded(a Added) MarketEvent       { return MarketEvent{K: OrderAdded, Added: a} }
func NewExecuted(e Executed) MarketEvent { return MarketEvent{K: OrderExecuted, Executed: e} }
func NewRemoved(r Removed) MarketEvent   { return MarketEvent{K: OrderRemoved, Removed: r} }

// OrderIdOf returns the id the event concerns, regardless of variant.
func (e MarketEvent) OrderIdOf() types.OrderId {
	switch e.K {
	case OrderAdded:
		return e.Added.OrderId
	case OrderExecuted:
		return e.Executed.OrderId
	case OrderRemoved:
		return e.Removed.OrderId
	default:
		return 0
	}
}

// ResponseKind discriminates the variants of Response.
type ResponseKind int

const (
	OrderFill ResponseKind = iota
	OrderDead
)

// Fill is the per-investor notification of one execution.
type Fill struct {
	OrderId   types.OrderId
	FillSize  types.Size
	FillPrice types.Price
}

// Dead is the per-investor notification that an order is no longer live.
type Dead struct {
	OrderId types.OrderId
}

// Response is the per-investor OrderResponse sum type from spec §3.
type Response struct {
	K    ResponseKind
	Fill Fill
	Dead Dead
}

func NewFill(f Fill) Response { return Response{K: OrderFill, Fill: f} }
func NewDead(d Dead) Response { return Response{K: OrderDead, Dead: d} }

// OrderIdOf returns the id the response concerns, regardless of variant.
func (r Response) OrderIdOf() types.OrderId {
	if r.K == OrderFill {
		return r.Fill.OrderId
	}
	return r.Dead.OrderId
}
