// Package account holds per-investor cash/position bookkeeping and the
// registry that owns every account (spec §4.3's Account/Account Manager
// components).
package account

import (
	"hyperion/internal/types"
)

// PotentialOrderKind discriminates the two PotentialOrder variants.
type PotentialOrderKind int

const (
	PotentialBuy PotentialOrderKind = iota
	PotentialSell
)

// PotentialOrder is the pre-trade reservation a new order would need
// (spec's glossary: "Potential order").
type PotentialOrder struct {
	K      PotentialOrderKind
	Total  types.Cash  // PotentialBuy: price * size
	Size   types.Size  // PotentialSell
	Ticker types.Ticker // PotentialSell
}

// UpdateKind discriminates the three AccountUpdate variants.
type UpdateKind int

const (
	UpdCash UpdateKind = iota
	AddPos
	MinusPos
)

// Update is one mutation to apply to an account (spec's "account
// updates" derived from fills/cancels in §4.3).
type Update struct {
	InvId  types.InvId
	K      UpdateKind
	Cash   types.Cash // UpdCash (may be negative: a drawdown or a debit)
	Ticker types.Ticker
	Size   types.Size
}

// Account is one investor's cash balance and ticker→owned-size map.
type Account struct {
	InvId     types.InvId
	AccName   string
	Password  string
	Cash      types.Cash
	Positions map[types.Ticker]types.Size
}

// New creates an account with zero positions.
func New(invId types.InvId, accName, password string, cash types.Cash) *Account {
	return &Account{
		InvId:     invId,
		AccName:   accName,
		Password:  password,
		Cash:      cash,
		Positions: make(map[types.Ticker]types.Size),
	}
}

// AddPosition seeds an initial owned size for ticker (used only during
// config load).
func (a *Account) AddPosition(ticker types.Ticker, size types.Size) {
	a.Positions[ticker] = size
}

// ValidPotentialOrder reports whether this account can afford p.
func (a *Account) ValidPotentialOrder(p PotentialOrder) bool {
	switch p.K {
	case PotentialBuy:
		return a.Cash >= p.Total
	case PotentialSell:
		owned, ok := a.Positions[p.Ticker]
		return ok && owned >= p.Size
	default:
		return false
	}
}

// Apply mutates the account per u.
func (a *Account) Apply(u Update) {
	switch u.K {
	case UpdCash:
		a.Cash += u.Cash
	case AddPos:
		a.Positions[u.Ticker] += u.Size
	case MinusPos:
		a.Positions[u.Ticker] -= u.Size
	}
}
