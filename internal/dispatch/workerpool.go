package dispatch

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const taskQueueSize = 100

// WorkerFunc handles one queued task under tomb supervision. Unlike the
// one-shot message workers this pool is modeled on, a dispatch worker
// occupies its slot for the session's entire lifetime — the pool's size
// is the cap on concurrently open connections, not on queued messages.
type WorkerFunc = func(t *tomb.Tomb, task any) error

// WorkerPool runs up to n WorkerFunc invocations concurrently, each
// supervised by the same tomb so a session panic or shutdown signal
// tears the whole pool down together.
type WorkerPool struct {
	n     int
	tasks chan any
	work  WorkerFunc
}

func NewWorkerPool(n int) WorkerPool {
	return WorkerPool{n: n, tasks: make(chan any, taskQueueSize)}
}

// AddTask enqueues task for the next free worker.
func (pool *WorkerPool) AddTask(task any) {
	pool.tasks <- task
}

// Setup keeps pool.n workers alive until t starts dying.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunc) {
	pool.work = work
	log.Info().Int("workers", pool.n).Msg("starting dispatch worker pool")
	for i := 0; i < pool.n; i++ {
		t.Go(func() error {
			return pool.runWorker(t)
		})
	}
}

// runWorker repeatedly pulls a task and hands it to work, for the life
// of the tomb — unlike the request-response pool this was adapted from,
// a session worker blocks inside work() until its connection closes.
func (pool *WorkerPool) runWorker(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := pool.work(t, task); err != nil {
				log.Error().Err(err).Msg("dispatch worker exiting on error")
			}
		}
	}
}
