// Package ledger mediates every change to a player's currency balances.
// Balances are never assigned directly by mutation services; they debit
// or credit through the ledger and merge the returned write op into
// their atomic batch.
package ledger

import (
	"fmt"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/repositories"
)

// ErrInsufficientFunds is returned when a debit would leave the balance
// negative. Commits must never persist a negative balance.
type ErrInsufficientFunds struct {
	Currency gametypes.SpecialistCurrency
	Balance  int
	Amount   int
}

func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient %s: balance %d, requested %d", e.Currency, e.Balance, e.Amount)
}

// Ledger applies balance changes to the in-memory player immediately so
// later checks in the same call chain see the new value, and returns the
// deferred write op for the caller's atomic batch. The ledger never
// commits on its own.
type Ledger struct {
}

func New() *Ledger {
	return &Ledger{}
}

// Debit subtracts amount from the player's balance in the given
// currency. amount must be positive.
func (l *Ledger) Debit(player *gametypes.Player, currency gametypes.SpecialistCurrency, amount int) (repositories.Op, error) {
	if amount < 0 {
		return nil, fmt.Errorf("debit amount must not be negative: %d", amount)
	}
	return l.apply(player, currency, -amount)
}

// Credit adds amount to the player's balance in the given currency.
func (l *Ledger) Credit(player *gametypes.Player, currency gametypes.SpecialistCurrency, amount int) (repositories.Op, error) {
	if amount < 0 {
		return nil, fmt.Errorf("credit amount must not be negative: %d", amount)
	}
	return l.apply(player, currency, amount)
}

func (l *Ledger) apply(player *gametypes.Player, currency gametypes.SpecialistCurrency, delta int) (repositories.Op, error) {
	switch currency {
	case gametypes.SpecialistCurrencyCredits:
		next := player.Credits + delta
		if next < 0 {
			return nil, &ErrInsufficientFunds{Currency: currency, Balance: player.Credits, Amount: -delta}
		}
		player.Credits = next
		return repositories.SetPlayerCredits{PlayerID: player.ID, Credits: next}, nil
	case gametypes.SpecialistCurrencyCreditsSpecialists:
		next := player.CreditsSpecialists + delta
		if next < 0 {
			return nil, &ErrInsufficientFunds{Currency: currency, Balance: player.CreditsSpecialists, Amount: -delta}
		}
		player.CreditsSpecialists = next
		return repositories.SetPlayerCreditsSpecialists{PlayerID: player.ID, CreditsSpecialists: next}, nil
	default:
		// Not user-triggerable; a bad currency enum is a config defect.
		return nil, fmt.Errorf("unsupported specialist currency type: %s", currency)
	}
}
