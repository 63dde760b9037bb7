package account

import (
	"github.com/rs/zerolog/log"

	"hyperion/internal/types"
)

// Manager owns every investor's Account plus the login-once tracking set
// (spec §4.3's Account Manager component).
type Manager struct {
	accounts  map[types.InvId]*Account
	loggedIn  map[types.InvId]struct{}
}

// NewManager creates an empty registry.
func NewManager() *Manager {
	return &Manager{
		accounts: make(map[types.InvId]*Account),
		loggedIn: make(map[types.InvId]struct{}),
	}
}

// AddAccount registers acc. Called once per investor during config load.
func (m *Manager) AddAccount(invId types.InvId, acc *Account) {
	m.accounts[invId] = acc
}

// ValidPotentialOrder reports whether invId's account can afford p.
func (m *Manager) ValidPotentialOrder(invId types.InvId, p PotentialOrder) bool {
	acc, ok := m.accounts[invId]
	if !ok {
		return false
	}
	return acc.ValidPotentialOrder(p)
}

// Update applies u to its account, a no-op if the account is unknown.
func (m *Manager) Update(u Update) {
	acc, ok := m.accounts[u.InvId]
	if !ok {
		return
	}
	log.Debug().Uint64("invId", uint64(u.InvId)).Int("kind", int(u.K)).Msg("applying account update")
	acc.Apply(u)
}

// TryLogin succeeds once per investor: correct password and not already
// logged in (spec §4.3 / SPEC_FULL §9 "login throttling" — decided none).
func (m *Manager) TryLogin(invId types.InvId, password string) bool {
	acc, ok := m.accounts[invId]
	if !ok {
		return false
	}
	if _, already := m.loggedIn[invId]; already {
		return false
	}
	if acc.Password != password {
		return false
	}
	m.loggedIn[invId] = struct{}{}
	return true
}

// UpdateByPotentialOrder applies the advance-drawdown reservation for a
// newly-accepted order: a buy debits cash, a sell removes the reserved
// position size (spec §4.3's advance-drawdown behaviour).
func (m *Manager) UpdateByPotentialOrder(invId types.InvId, p PotentialOrder) {
	if _, ok := m.accounts[invId]; !ok {
		return
	}
	switch p.K {
	case PotentialBuy:
		m.Update(Update{InvId: invId, K: UpdCash, Cash: -p.Total})
	case PotentialSell:
		m.Update(Update{InvId: invId, K: MinusPos, Ticker: p.Ticker, Size: p.Size})
	}
}

// Get returns invId's account, if registered.
func (m *Manager) Get(invId types.InvId) (*Account, bool) {
	acc, ok := m.accounts[invId]
	return acc, ok
}
