package dispatch

import (
	"net"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"hyperion/internal/event"
	"hyperion/internal/portal"
	"hyperion/internal/types"
	"hyperion/internal/wire"
)

// runOrderSession drives one order-session connection through
// AwaitLogin then Authenticated (spec §6's session state machine): a
// non-login frame before successful login is simply rejected by the
// protocol's framing (only TagLogin is accepted first), and every frame
// after login is a new order or cancel request.
func (s *Server) runOrderSession(t *tomb.Tomb, conn net.Conn) {
	invId, ok := s.awaitLogin(conn)
	if !ok {
		return
	}

	ch := s.orders.Register(invId)
	defer s.orders.Unregister(invId)

	done := make(chan struct{})
	defer close(done)
	go s.writeOrderTasks(conn, ch, done)

	for {
		select {
		case <-t.Dying():
			return
		default:
		}

		tag, payload, err := wire.ReadFrame(conn)
		if err != nil {
			log.Info().Err(err).Uint64("invId", uint64(invId)).Msg("order session closed")
			return
		}

		switch tag {
		case wire.TagNewOrder:
			s.handleNewOrder(invId, payload)
		case wire.TagCancelOrder:
			s.handleCancelOrder(invId, payload)
		default:
			log.Warn().Int("tag", int(tag)).Msg("unexpected frame on order session")
		}
	}
}

// awaitLogin blocks for the session's mandatory first frame and reports
// whether login succeeded.
func (s *Server) awaitLogin(conn net.Conn) (types.InvId, bool) {
	tag, payload, err := wire.ReadFrame(conn)
	if err != nil {
		log.Info().Err(err).Msg("order session closed before login")
		return 0, false
	}
	if tag != wire.TagLogin {
		log.Warn().Int("tag", int(tag)).Msg("order session did not open with login")
		wire.WriteFrame(conn, wire.TagLoginReject, wire.EncodeLoginReject(0, "invalid first request"))
		return 0, false
	}

	login, err := wire.DecodeLogin(payload)
	if err != nil {
		log.Warn().Err(err).Msg("malformed login frame")
		wire.WriteFrame(conn, wire.TagLoginReject, wire.EncodeLoginReject(0, "invalid first request"))
		return 0, false
	}

	ok := s.portal.TryLogin(login.InvId, login.Password)
	if !ok {
		log.Info().Uint64("invId", uint64(login.InvId)).Msg("login rejected")
		wire.WriteFrame(conn, wire.TagLoginReject, wire.EncodeLoginReject(0, "login failed"))
		return 0, false
	}
	wire.WriteFrame(conn, wire.TagLoginAck, wire.EncodeLoginAck(ok))
	return login.InvId, true
}

func (s *Server) handleNewOrder(invId types.InvId, payload []byte) {
	msg, err := wire.DecodeNewOrder(payload)
	if err != nil {
		log.Warn().Err(err).Msg("malformed new order frame")
		return
	}

	tasks := s.portal.ProcessRequest(msg.SeqNum, portal.Request{
		K:     portal.ReqNewOrder,
		InvId: invId,
		NewOrder: portal.NewOrderRequest{
			Ticker:        msg.Ticker,
			Direction:     msg.Direction,
			Size:          msg.Size,
			Price:         msg.Price,
			LimitOrMarket: msg.LimitOrMarket,
			TimeInForce:   msg.TimeInForce,
			Timestamp:     msg.Timestamp,
		},
	})
	s.dispatchTasks(tasks)
}

func (s *Server) handleCancelOrder(invId types.InvId, payload []byte) {
	msg, err := wire.DecodeCancelOrder(payload)
	if err != nil {
		log.Warn().Err(err).Msg("malformed cancel order frame")
		return
	}

	tasks := s.portal.ProcessRequest(msg.SeqNum, portal.Request{
		K:       portal.ReqCancelOrder,
		InvId:   invId,
		OrderId: msg.OrderId,
	})
	s.dispatchTasks(tasks)
}

// writeOrderTasks drains ch and writes each task to conn in its wire
// form, until the session's read loop signals done.
func (s *Server) writeOrderTasks(conn net.Conn, ch chan portal.Task, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case task := <-ch:
			if err := writeOrderTask(conn, task); err != nil {
				log.Info().Err(err).Msg("error writing to order session")
				return
			}
		}
	}
}

func writeOrderTask(conn net.Conn, task portal.Task) error {
	switch task.K {
	case portal.TaskOrderAck:
		return wire.WriteFrame(conn, wire.TagOrderAck, wire.EncodeOrderAck(task.SeqNum, task.OrderId))
	case portal.TaskOrderReject:
		return wire.WriteFrame(conn, wire.TagOrderReject, wire.EncodeOrderReject(task.SeqNum, task.Reason))
	case portal.TaskCancelReject:
		return wire.WriteFrame(conn, wire.TagCancelReject, wire.EncodeCancelReject(task.SeqNum, task.Reason))
	case portal.TaskOrderResponse:
		tag, payload := wire.EncodeOrderResponse(task.OrderResponse)
		return wire.WriteFrame(conn, tag, payload)
	default:
		return nil
	}
}

// runSubscribeSession replays the full event history once, then streams
// the live incremental feed until the connection drops (spec §6's
// no-login subscribe session).
func (s *Server) runSubscribeSession(t *tomb.Tomb, conn net.Conn) {
	subId := s.allocSubId()
	ch := s.subscribers.Register(subId)
	defer s.subscribers.Unregister(subId)

	tasks := s.portal.ProcessRequest(0, portal.Request{K: portal.ReqEventHistory, SubId: subId})
	for _, task := range tasks {
		if task.K != portal.TaskEventHistory {
			continue
		}
		if err := wire.WriteFrame(conn, wire.TagEventHistory, wire.EncodeEventHistory(task.History)); err != nil {
			log.Info().Err(err).Msg("error writing event history")
			return
		}
	}

	// A subscribe session never sends anything after its opening tag
	// byte; this reader only exists to notice the connection closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		var buf [1]byte
		conn.Read(buf[:])
	}()

	for {
		select {
		case <-t.Dying():
			return
		case <-closed:
			return
		case task := <-ch:
			if task.K != portal.TaskIncrementalEvent {
				continue
			}
			if err := writeMarketEvent(conn, task.Event); err != nil {
				log.Info().Err(err).Msg("subscribe session closed")
				return
			}
		}
	}
}

func writeMarketEvent(conn net.Conn, e event.MarketEvent) error {
	return wire.WriteFrame(conn, wire.TagMarketEvent, wire.EncodeMarketEvent(e))
}
