// Package config loads the investor and stock startup files the portal is
// seeded from (spec §4.3's config-driven account/stock-manager bootstrap).
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"hyperion/internal/account"
	"hyperion/internal/stock"
	"hyperion/internal/types"
)

// InvestorConfig is one entry of an investor config file.
type InvestorConfig struct {
	InvId       types.InvId        `json:"inv_id"`
	AccountName string             `json:"account_name"`
	Password    string             `json:"password"`
	Stocks      map[string]float64 `json:"stocks"`
	CashAmount  types.Cash         `json:"cash_amount"`
}

// InvestorList is the top-level shape of an investor config file.
type InvestorList struct {
	Investors []InvestorConfig `json:"investors"`
}

// StockConfig is one entry of a stock config file.
type StockConfig struct {
	Ticker     string      `json:"ticker"`
	ClosePrice types.Price `json:"close_price"`
	LotSize    types.Size  `json:"lot_size"`
	Mpf        types.Price `json:"mpf"`
	Name       string      `json:"name"`
}

// StockList is the top-level shape of a stock config file.
type StockList struct {
	Stocks []StockConfig `json:"stocks"`
}

// LoadInvestors reads path and returns one Account per entry, each seeded
// with its starting cash and position sizes.
func LoadInvestors(path string) ([]*account.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read investor file: %w", err)
	}
	var list InvestorList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("config: parse investor file: %w", err)
	}

	accounts := make([]*account.Account, 0, len(list.Investors))
	for _, inv := range list.Investors {
		acc := account.New(inv.InvId, inv.AccountName, inv.Password, inv.CashAmount)
		for ticker, size := range inv.Stocks {
			acc.AddPosition(types.Ticker(ticker), types.Size(size))
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// LoadStocks reads path and returns one (ticker, StockRecord) pair per
// entry.
func LoadStocks(path string) (map[types.Ticker]types.StockRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read stock file: %w", err)
	}
	var list StockList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("config: parse stock file: %w", err)
	}

	out := make(map[types.Ticker]types.StockRecord, len(list.Stocks))
	for _, s := range list.Stocks {
		out[types.Ticker(s.Ticker)] = types.StockRecord{
			Ticker:     types.Ticker(s.Ticker),
			ClosePrice: s.ClosePrice,
			LotSize:    s.LotSize,
			Mpf:        s.Mpf,
			Name:       s.Name,
		}
	}
	return out, nil
}

// SeedStockManager loads path and binds every record into m.
func SeedStockManager(m *stock.Manager, path string) error {
	records, err := LoadStocks(path)
	if err != nil {
		return err
	}
	for ticker, rec := range records {
		m.BindStock(ticker, rec)
	}
	return nil
}

// SeedAccountManager loads path and registers every account into m.
func SeedAccountManager(m *account.Manager, path string) error {
	accounts, err := LoadInvestors(path)
	if err != nil {
		return err
	}
	for _, acc := range accounts {
		m.AddAccount(acc.InvId, acc)
	}
	return nil
}
