// Package portal is the exchange's core façade: it validates requests,
// issues order ids, reserves cash/positions, drives the orderbook
// manager, and translates the engine's fused log stream into the tasks
// the dispatch layer fans out to investors and subscribers (spec §3/§5).
package portal

import (
	"sync"

	"github.com/rs/zerolog/log"

	"hyperion/internal/account"
	"hyperion/internal/book"
	"hyperion/internal/config"
	"hyperion/internal/event"
	"hyperion/internal/history"
	"hyperion/internal/orderinfo"
	"hyperion/internal/stock"
	"hyperion/internal/types"
)

// RequestKind discriminates the three PortalRequest variants.
type RequestKind int

const (
	ReqEventHistory RequestKind = iota
	ReqNewOrder
	ReqCancelOrder
)

// NewOrderRequest is the investor-facing shape of a new-order request,
// before the portal has assigned it an order id or filled in a market
// order's effective price.
type NewOrderRequest struct {
	Ticker        types.Ticker
	Direction     types.Direction
	Size          types.Size
	Price         types.Price
	LimitOrMarket types.LimitOrMarket
	TimeInForce   types.TimeInForce
	Timestamp     types.Timestamp
}

// Request is the tagged union the dispatch layer hands to the portal.
type Request struct {
	K         RequestKind
	SubId     types.SubId      // ReqEventHistory
	InvId     types.InvId      // ReqNewOrder, ReqCancelOrder
	NewOrder  NewOrderRequest  // ReqNewOrder
	OrderId   types.OrderId    // ReqCancelOrder
}

// TaskKind discriminates the six PortalTask variants.
type TaskKind int

const (
	TaskEventHistory TaskKind = iota
	TaskIncrementalEvent
	TaskOrderAck
	TaskOrderReject
	TaskCancelReject
	TaskOrderResponse
)

// Task is the tagged union the portal emits for the dispatch layer to
// route to the right investor/subscriber channel(s).
type Task struct {
	K             TaskKind
	SubId         types.SubId          // TaskEventHistory
	History       []event.MarketEvent  // TaskEventHistory
	Event         event.MarketEvent    // TaskIncrementalEvent
	InvId         types.InvId          // TaskOrderAck, TaskOrderReject, TaskCancelReject, TaskOrderResponse
	SeqNum        types.SeqNum         // TaskOrderAck, TaskOrderReject, TaskCancelReject
	OrderId       types.OrderId        // TaskOrderAck
	Reason        string               // TaskOrderReject, TaskCancelReject
	OrderResponse event.Response       // TaskOrderResponse
}

// Portal is the single serialized entry point into exchange state. Its
// exported methods take p.mu themselves and release it when they return,
// so the caller fans the returned tasks out to investor/subscriber
// channels without the lock held and a slow subscriber can never stall
// the matching engine (spec §5).
type Portal struct {
	mu sync.Mutex

	books      *book.Manager
	history    *history.History
	orderInfo  *orderinfo.Info
	accounts   *account.Manager
	stocks     *stock.Manager
	lastOrderId types.OrderId
}

// New builds a portal seeded from the given investor/stock config files.
func New(investorConfigPath, stockConfigPath string) (*Portal, error) {
	stocks := stock.NewManager()
	if err := config.SeedStockManager(stocks, stockConfigPath); err != nil {
		return nil, err
	}

	books := book.NewManager()
	for _, ticker := range stocks.Tickers() {
		books.AddOrderbook(ticker)
	}

	accounts := account.NewManager()
	if err := config.SeedAccountManager(accounts, investorConfigPath); err != nil {
		return nil, err
	}

	return &Portal{
		books:     books,
		history:   history.New(),
		orderInfo: orderinfo.New(),
		accounts:  accounts,
		stocks:    stocks,
	}, nil
}

// TryLogin authenticates invId, locking out a second attempt (spec §4.3).
func (p *Portal) TryLogin(invId types.InvId, password string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accounts.TryLogin(invId, password)
}

// ProcessRequest validates and executes req, returning the tasks it
// triggered. Callers must not hold p's lock when fanning the result out.
func (p *Portal) ProcessRequest(seqnum types.SeqNum, req Request) []Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	log.Debug().Int("kind", int(req.K)).Uint64("seqnum", uint64(seqnum)).Uint64("invId", uint64(req.InvId)).Msg("processing request")

	switch req.K {
	case ReqEventHistory:
		return []Task{{K: TaskEventHistory, SubId: req.SubId, History: p.history.Snapshot()}}
	case ReqNewOrder:
		return p.processNewOrder(req.InvId, seqnum, req.NewOrder)
	case ReqCancelOrder:
		return p.processCancelOrder(req.InvId, seqnum, req.OrderId)
	default:
		return nil
	}
}

func (p *Portal) generateOrderId() types.OrderId {
	p.lastOrderId++
	return p.lastOrderId
}

func makePotentialOrder(req NewOrderRequest) account.PotentialOrder {
	if req.Direction == types.Buy {
		return account.PotentialOrder{K: account.PotentialBuy, Total: req.Price * types.Cash(req.Size)}
	}
	return account.PotentialOrder{K: account.PotentialSell, Size: req.Size, Ticker: req.Ticker}
}

// fillInMarketOrder replaces a market order's zero price with the
// opposite side's current best price, falling back to the ticker's close
// price when the book is empty on that side (spec §4.1's market-order
// pricing rule).
func (p *Portal) fillInMarketOrder(req NewOrderRequest) NewOrderRequest {
	switch req.Direction {
	case types.Buy:
		if best, ok := p.books.BestSellPrice(req.Ticker); ok {
			req.Price = best
		} else if close, ok := p.stocks.GetClosePrice(req.Ticker); ok {
			req.Price = close
		}
	case types.Sell:
		if best, ok := p.books.BestBuyPrice(req.Ticker); ok {
			req.Price = best
		} else if close, ok := p.stocks.GetClosePrice(req.Ticker); ok {
			req.Price = close
		}
	}
	return req
}

func (p *Portal) processNewOrder(invId types.InvId, seqnum types.SeqNum, req NewOrderRequest) []Task {
	if !p.stocks.CheckValidOrder(req.Ticker, req.Price, req.Size) {
		log.Warn().Uint64("invId", uint64(invId)).Str("ticker", string(req.Ticker)).Msg("new order rejected: invalid price or size")
		return []Task{{
			K: TaskOrderReject, InvId: invId, SeqNum: seqnum,
			Reason: "Invalid new order request: Invalid price or size",
		}}
	}

	if req.LimitOrMarket == types.Market {
		req = p.fillInMarketOrder(req)
	}

	pOrder := makePotentialOrder(req)
	if !p.accounts.ValidPotentialOrder(invId, pOrder) {
		log.Warn().Uint64("invId", uint64(invId)).Msg("new order rejected: insufficient cash or lot")
		return []Task{{
			K: TaskOrderReject, InvId: invId, SeqNum: seqnum,
			Reason: "Invalid new order request: Insufficient cash or lot to complete the order",
		}}
	}

	orderId := p.generateOrderId()
	tasks := []Task{{K: TaskOrderAck, InvId: invId, SeqNum: seqnum, OrderId: orderId}}

	p.accounts.UpdateByPotentialOrder(invId, pOrder)
	p.orderInfo.AddNewOrder(orderId, invId, req.Ticker, req.Direction, req.Price, req.Size)

	logs := p.books.Handle(req.Ticker, book.NewOrderRequest{
		OrderId:       orderId,
		Direction:     req.Direction,
		Size:          req.Size,
		Price:         req.Price,
		Timestamp:     req.Timestamp,
		LimitOrMarket: req.LimitOrMarket,
		TimeInForce:   req.TimeInForce,
	})
	tasks = append(tasks, p.processLogs(logs)...)
	return tasks
}

func (p *Portal) processCancelOrder(invId types.InvId, seqnum types.SeqNum, orderId types.OrderId) []Task {
	if !p.orderInfo.ValidCancelOrder(orderId, invId) {
		return []Task{{
			K: TaskCancelReject, InvId: invId, SeqNum: seqnum,
			Reason: "Invalid cancel order request",
		}}
	}

	rec, _ := p.orderInfo.GetRecord(orderId)
	logs := p.books.Handle(rec.Ticker, book.CancelOrderRequest{OrderId: orderId})
	return p.processLogs(logs)
}

// processLogs translates the engine's fused log stream into portal
// tasks, in order, applying each log's account-update side effects as it
// goes (spec §4.3's process_log/process_logs translation).
func (p *Portal) processLogs(logs []book.Log) []Task {
	tasks := make([]Task, 0, len(logs))
	for _, l := range logs {
		tasks = append(tasks, p.processLog(l))
	}
	return tasks
}

func (p *Portal) processLog(l book.Log) Task {
	switch l.K {
	case book.LogOrder:
		return p.processOrderLog(l.Order)
	default:
		return p.processEventLog(l.Market)
	}
}

func (p *Portal) processOrderLog(resp event.Response) Task {
	orderId := resp.OrderIdOf()
	restingSize, hasResting := p.orderInfo.GetResting(orderId)
	rec, _ := p.orderInfo.GetRecord(orderId)

	for _, u := range orderResponseToAccUpdate(resp, rec, restingSize, hasResting) {
		p.accounts.Update(u)
	}

	return Task{K: TaskOrderResponse, InvId: rec.InvId, OrderResponse: resp}
}

func (p *Portal) processEventLog(e event.MarketEvent) Task {
	p.history.UpdateByEvent(e)
	p.orderInfo.UpdateByEvent(e)
	return Task{K: TaskIncrementalEvent, Event: e}
}

// orderResponseToAccUpdate derives the account-update side effects of one
// OrderResponse (spec §4.3's advance-drawdown reconciliation), grounded
// field-for-field on the original source's orderresponse_to_acc_update:
// a buy fill refunds the maker/taker spread and credits position, a sell
// fill credits cash at the fill price; a dead order's unfilled remainder
// refunds the reserved cash (buy) or position (sell).
func orderResponseToAccUpdate(resp event.Response, rec orderinfo.Record, restingSize types.Size, hasResting bool) []account.Update {
	switch resp.K {
	case event.OrderFill:
		fill := resp.Fill
		switch rec.Direction {
		case types.Buy:
			return []account.Update{
				{InvId: rec.InvId, K: account.UpdCash, Cash: types.Cash(fill.FillSize) * (rec.LimitPrice - fill.FillPrice)},
				{InvId: rec.InvId, K: account.AddPos, Ticker: rec.Ticker, Size: fill.FillSize},
			}
		default:
			return []account.Update{
				{InvId: rec.InvId, K: account.UpdCash, Cash: types.Cash(fill.FillSize) * fill.FillPrice},
			}
		}
	default: // event.OrderDead
		if !hasResting {
			return nil
		}
		switch rec.Direction {
		case types.Buy:
			return []account.Update{
				{InvId: rec.InvId, K: account.UpdCash, Cash: types.Cash(restingSize) * rec.LimitPrice},
			}
		default:
			return []account.Update{
				{InvId: rec.InvId, K: account.AddPos, Ticker: rec.Ticker, Size: restingSize},
			}
		}
	}
}
