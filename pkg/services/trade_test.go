package services

import (
	"context"
	"testing"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTradeService(repo *fakeRepository, achievements *fakeAchievements) *TradeService {
	return NewTradeService(NewTradeServiceOptions{
		Ledger:     ledger.New(),
		Repository: repo,
		Achievements: NewAchievementsService(NewAchievementsServiceOptions{
			Repository: achievements,
			GameType:   NewGameTypeService(),
		}),
	})
}

func TestTradeService_SendCredits(t *testing.T) {
	ctx := context.Background()

	t.Run("moves credits between both players atomically", func(t *testing.T) {
		game := newTestGame()
		repo := &fakeRepository{game: game}
		achievements := &fakeAchievements{}
		svc := newTradeService(repo, achievements)
		from := game.Player("player-1")
		to := game.Player("player-2")

		result, ev, err := svc.SendCredits(ctx, game, from, "player-2", 30)
		require.NoError(t, err)
		require.NotNil(t, ev)

		assert.Equal(t, 70, from.Credits)
		assert.Equal(t, 130, to.Credits)
		assert.Equal(t, 30, result.Amount)
		assert.Equal(t, 30, from.Stats.CreditsSent)
		assert.Equal(t, 30, to.Stats.CreditsReceived)
		assert.Equal(t, 30, achievements.creditsTraded)
		// Debit and credit commit in one batch.
		require.Len(t, repo.batches, 1)
		assert.Len(t, repo.batches[0], 2)
	})

	t.Run("rejects sending more than the balance", func(t *testing.T) {
		game := newTestGame()
		svc := newTradeService(&fakeRepository{game: game}, &fakeAchievements{})
		from := game.Player("player-1")

		_, _, err := svc.SendCredits(ctx, game, from, "player-2", 101)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, 100, from.Credits)
		assert.Equal(t, 100, game.Player("player-2").Credits)
	})

	t.Run("rejects sending to yourself", func(t *testing.T) {
		game := newTestGame()
		svc := newTradeService(&fakeRepository{game: game}, &fakeAchievements{})

		_, _, err := svc.SendCredits(ctx, game, game.Player("player-1"), "player-1", 10)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects a defeated recipient", func(t *testing.T) {
		game := newTestGame()
		svc := newTradeService(&fakeRepository{game: game}, &fakeAchievements{})
		game.Player("player-2").Defeated = true

		_, _, err := svc.SendCredits(ctx, game, game.Player("player-1"), "player-2", 10)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		game := newTestGame()
		svc := newTradeService(&fakeRepository{game: game}, &fakeAchievements{})

		_, _, err := svc.SendCredits(ctx, game, game.Player("player-1"), "player-2", 0)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("sends the specialist currency separately", func(t *testing.T) {
		game := newTestGame()
		svc := newTradeService(&fakeRepository{game: game}, &fakeAchievements{})
		from := game.Player("player-1")
		to := game.Player("player-2")
		from.CreditsSpecialists = 5

		result, _, err := svc.SendCreditsSpecialists(ctx, game, from, "player-2", 3)
		require.NoError(t, err)
		assert.Equal(t, gametypes.SpecialistCurrencyCreditsSpecialists, result.Currency)
		assert.Equal(t, 2, from.CreditsSpecialists)
		assert.Equal(t, 3, to.CreditsSpecialists)
		assert.Equal(t, 100, from.Credits)
	})
}
