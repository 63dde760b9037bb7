package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"hyperion/internal/portal"
	"hyperion/internal/types"
	"hyperion/internal/wire"
)

const defaultNWorkers = 64

var ErrImproperConversion = errors.New("dispatch: improper task type conversion")

// Server terminates client connections and bridges them to the portal.
type Server struct {
	address string
	port    int

	portal *portal.Portal
	pool   WorkerPool

	orders      *OrderRegistry
	subscribers *MarketRegistry
	nextSubId   atomic.Uint64

	cancel context.CancelFunc
}

// New builds a dispatch server fronting p.
func New(address string, port int, p *portal.Portal) *Server {
	return &Server{
		address:     address,
		port:        port,
		portal:      p,
		pool:        NewWorkerPool(defaultNWorkers),
		orders:      NewOrderRegistry(),
		subscribers: NewMarketRegistry(),
	}
}

// Shutdown cancels the server's run context.
func (s *Server) Shutdown() {
	log.Info().Msg("dispatch server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run accepts connections on address:port until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("dispatch: listen: %w", err)
	}
	defer listener.Close()

	// Closing the listener unblocks Accept so the loop below sees ctx.Done.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	log.Info().Str("address", listener.Addr().String()).Msg("dispatch server listening")

	for {
		select {
		case <-ctx.Done():
			return t.Wait()
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting connection")
				continue
			}
			s.pool.AddTask(conn)
		}
	}
}

// handleConnection owns one TCP connection for its entire life: it reads
// the session-kind tag and hands off to the order or subscribe session
// loop.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}
	defer conn.Close()

	// sessionId correlates every log line this connection produces; it
	// has no meaning to the protocol itself.
	sessionId := uuid.New().String()
	log := log.With().Str("sessionId", sessionId).Str("remote", conn.RemoteAddr().String()).Logger()

	var kindBuf [1]byte
	if _, err := conn.Read(kindBuf[:]); err != nil {
		log.Error().Err(err).Msg("error reading session kind")
		return nil
	}

	switch wire.SessionKind(kindBuf[0]) {
	case wire.OrderSession:
		log.Info().Msg("order session opened")
		s.runOrderSession(t, conn)
	case wire.SubscribeSession:
		log.Info().Msg("subscribe session opened")
		s.runSubscribeSession(t, conn)
	default:
		log.Error().Int("kind", int(kindBuf[0])).Msg("unknown session kind")
	}
	return nil
}

// dispatchTasks fans tasks out to investor/subscriber channels. Called
// only after the portal call that produced tasks has already returned —
// the portal's own lock is released by then, so a slow reader here can
// never stall the matching engine (spec §5).
func (s *Server) dispatchTasks(tasks []portal.Task) {
	for _, task := range tasks {
		s.dispatchTask(task)
	}
}

func (s *Server) dispatchTask(task portal.Task) {
	switch task.K {
	case portal.TaskEventHistory:
		s.subscribers.Send(task.SubId, task)
	case portal.TaskIncrementalEvent:
		s.subscribers.Broadcast(task)
	case portal.TaskOrderAck, portal.TaskOrderReject, portal.TaskCancelReject, portal.TaskOrderResponse:
		s.orders.Send(task.InvId, task)
	}
}

func (s *Server) allocSubId() types.SubId {
	return types.SubId(s.nextSubId.Add(1))
}
