// Package dispatch is the session layer: it terminates client TCP
// connections, authenticates order sessions, replays history to
// subscribe sessions, and fans the portal's tasks out to the right
// investor/subscriber channel(s) (spec §3/§6's Server/Dispatch
// component). The channel registries below repurpose the ordered-map
// tree the matching engine itself no longer needs now that matching is
// done with per-ticker heaps.
package dispatch

import (
	"sync"

	"github.com/tidwall/btree"

	"hyperion/internal/portal"
	"hyperion/internal/types"
)

// taskChanBuf bounds how far a single slow session can lag the live
// event feed before its sends start blocking the dispatcher.
const taskChanBuf = 256

type invEntry struct {
	invId types.InvId
	ch    chan portal.Task
}

type subEntry struct {
	subId types.SubId
	ch    chan portal.Task
}

// OrderRegistry maps a logged-in investor id to the channel its session
// goroutine drains and writes back over its connection.
type OrderRegistry struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[invEntry]
}

func NewOrderRegistry() *OrderRegistry {
	return &OrderRegistry{
		tree: btree.NewBTreeG(func(a, b invEntry) bool { return a.invId < b.invId }),
	}
}

// Register creates and returns the channel for invId, replacing any
// stale entry left by a prior connection for the same investor.
func (r *OrderRegistry) Register(invId types.InvId) chan portal.Task {
	ch := make(chan portal.Task, taskChanBuf)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Set(invEntry{invId: invId, ch: ch})
	return ch
}

// Unregister removes invId's channel when its session ends.
func (r *OrderRegistry) Unregister(invId types.InvId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Delete(invEntry{invId: invId})
}

// Send routes task to invId's channel, if one is registered.
func (r *OrderRegistry) Send(invId types.InvId, task portal.Task) {
	r.mu.RLock()
	entry, ok := r.tree.Get(invEntry{invId: invId})
	r.mu.RUnlock()
	if !ok {
		return
	}
	entry.ch <- task
}

// MarketRegistry maps a subscriber id to the channel its session
// goroutine drains to receive the live incremental event feed.
type MarketRegistry struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[subEntry]
}

func NewMarketRegistry() *MarketRegistry {
	return &MarketRegistry{
		tree: btree.NewBTreeG(func(a, b subEntry) bool { return a.subId < b.subId }),
	}
}

func (r *MarketRegistry) Register(subId types.SubId) chan portal.Task {
	ch := make(chan portal.Task, taskChanBuf)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Set(subEntry{subId: subId, ch: ch})
	return ch
}

func (r *MarketRegistry) Unregister(subId types.SubId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.Delete(subEntry{subId: subId})
}

func (r *MarketRegistry) Send(subId types.SubId, task portal.Task) {
	r.mu.RLock()
	entry, ok := r.tree.Get(subEntry{subId: subId})
	r.mu.RUnlock()
	if !ok {
		return
	}
	entry.ch <- task
}

// Broadcast fans task out to every registered subscriber. It snapshots
// the channel list under the read lock and sends after releasing it, so
// one stalled subscriber can't hold up registry lookups for the others.
func (r *MarketRegistry) Broadcast(task portal.Task) {
	r.mu.RLock()
	chans := make([]chan portal.Task, 0, r.tree.Len())
	r.tree.Scan(func(e subEntry) bool {
		chans = append(chans, e.ch)
		return true
	})
	r.mu.RUnlock()

	for _, ch := range chans {
		ch <- task
	}
}
