// Package economy provides currency providers for the penalty engine: an
// in-memory Bank and a SQLite-backed Ledger.
package economy

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nathoo/deathpenalty/engine"
	"github.com/nathoo/deathpenalty/types"
)

// Bank is an in-memory economy.
type Bank struct {
	Currency string
	accounts map[types.PlayerID]*bankAccount
}

// NewBank creates an empty bank using currency.
func NewBank(currency string) *Bank {
	return &Bank{Currency: currency, accounts: map[types.PlayerID]*bankAccount{}}
}

type bankAccount struct {
	balances map[string]decimal.Decimal
}

// DefaultCurrency implements engine.Economy.
func (b *Bank) DefaultCurrency() string {
	return b.Currency
}

// GetOrCreateAccount implements engine.Economy.
func (b *Bank) GetOrCreateAccount(ctx context.Context, player types.PlayerID) (engine.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, ok := b.accounts[player]
	if !ok {
		a = &bankAccount{balances: map[string]decimal.Decimal{}}
		b.accounts[player] = a
	}
	return a, nil
}

func (a *bankAccount) Balance(_ context.Context, currency string) (decimal.Decimal, error) {
	return a.balances[currency], nil
}

func (a *bankAccount) SetBalance(_ context.Context, currency string, amount decimal.Decimal, _ types.Cause) error {
	a.balances[currency] = amount
	return nil
}
