// Package history is the append-only market event log the portal
// maintains and subscribers replay from (spec §4.3's EventHistory
// request / spec §8's "Subscription replay" invariant).
package history

import (
	"github.com/rs/zerolog/log"

	"hyperion/internal/event"
)

// History is a monotone, append-only, totally-ordered log of market
// events. The portal exclusively owns and serializes access to it.
type History struct {
	events []event.MarketEvent
}

// New creates an empty history.
func New() *History {
	return &History{}
}

// UpdateByEvent appends e to the log.
func (h *History) UpdateByEvent(e event.MarketEvent) {
	h.events = append(h.events, e)
	log.Debug().Int("kind", int(e.K)).Int("logLen", len(h.events)).Msg("event appended to history")
}

// Snapshot returns a copy of the full log, safe for a subscriber to hold
// onto after the portal lock is released.
func (h *History) Snapshot() []event.MarketEvent {
	out := make([]event.MarketEvent, len(h.events))
	copy(out, h.events)
	return out
}
