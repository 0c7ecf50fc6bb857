package ledger

import (
	"errors"
	"testing"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Debit(t *testing.T) {
	t.Run("applies immediately and returns the write op", func(t *testing.T) {
		l := New()
		player := &gametypes.Player{ID: "player-1", Credits: 100}

		op, err := l.Debit(player, gametypes.SpecialistCurrencyCredits, 40)
		require.NoError(t, err)

		assert.Equal(t, 60, player.Credits)
		assert.Equal(t, repositories.SetPlayerCredits{PlayerID: "player-1", Credits: 60}, op)
	})

	t.Run("refuses to overdraw", func(t *testing.T) {
		l := New()
		player := &gametypes.Player{ID: "player-1", Credits: 100}

		_, err := l.Debit(player, gametypes.SpecialistCurrencyCredits, 150)
		require.Error(t, err)

		var insufficient *ErrInsufficientFunds
		assert.True(t, errors.As(err, &insufficient))
		assert.Equal(t, 100, player.Credits)
	})

	t.Run("debits the specialist currency independently", func(t *testing.T) {
		l := New()
		player := &gametypes.Player{ID: "player-1", Credits: 100, CreditsSpecialists: 5}

		op, err := l.Debit(player, gametypes.SpecialistCurrencyCreditsSpecialists, 2)
		require.NoError(t, err)

		assert.Equal(t, 3, player.CreditsSpecialists)
		assert.Equal(t, 100, player.Credits)
		assert.Equal(t, repositories.SetPlayerCreditsSpecialists{PlayerID: "player-1", CreditsSpecialists: 3}, op)
	})

	t.Run("rejects a negative amount", func(t *testing.T) {
		l := New()
		player := &gametypes.Player{ID: "player-1", Credits: 100}

		_, err := l.Debit(player, gametypes.SpecialistCurrencyCredits, -1)
		require.Error(t, err)
		assert.Equal(t, 100, player.Credits)
	})
}

func TestLedger_Credit(t *testing.T) {
	l := New()
	player := &gametypes.Player{ID: "player-1", Credits: 100}

	op, err := l.Credit(player, gametypes.SpecialistCurrencyCredits, 30)
	require.NoError(t, err)

	assert.Equal(t, 130, player.Credits)
	assert.Equal(t, repositories.SetPlayerCredits{PlayerID: "player-1", Credits: 130}, op)
}
