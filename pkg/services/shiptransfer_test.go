package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipTransferService_TransferShips(t *testing.T) {
	ctx := context.Background()

	t.Run("moves ships between garrison and carrier", func(t *testing.T) {
		game := newTestGame()
		repo := &fakeRepository{game: game}
		svc := NewShipTransferService(NewShipTransferServiceOptions{Repository: repo})
		player := game.Player("player-1")

		// 10 on the carrier, 50 in the garrison.
		result, ev, err := svc.TransferShips(ctx, game, player, "carrier-1", 40, 20)
		require.NoError(t, err)
		require.NotNil(t, ev)

		assert.Equal(t, 40, result.Carrier.Ships)
		assert.Equal(t, 20, result.Star.Garrison)
		require.Len(t, repo.batches, 1)
	})

	t.Run("rejects a split that does not conserve ships", func(t *testing.T) {
		game := newTestGame()
		svc := NewShipTransferService(NewShipTransferServiceOptions{Repository: &fakeRepository{game: game}})

		_, _, err := svc.TransferShips(ctx, game, game.Player("player-1"), "carrier-1", 40, 21)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, 10, game.Carrier("carrier-1").Ships)
		assert.Equal(t, 50, game.Star("star-1").Garrison)
	})

	t.Run("requires the carrier to keep a ship", func(t *testing.T) {
		game := newTestGame()
		svc := NewShipTransferService(NewShipTransferServiceOptions{Repository: &fakeRepository{game: game}})

		_, _, err := svc.TransferShips(ctx, game, game.Player("player-1"), "carrier-1", 0, 60)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects a carrier in transit", func(t *testing.T) {
		game := newTestGame()
		svc := NewShipTransferService(NewShipTransferServiceOptions{Repository: &fakeRepository{game: game}})
		game.Carrier("carrier-1").OrbitingStarID = ""

		_, _, err := svc.TransferShips(ctx, game, game.Player("player-1"), "carrier-1", 5, 55)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects a transfer at another player's star", func(t *testing.T) {
		game := newTestGame()
		svc := NewShipTransferService(NewShipTransferServiceOptions{Repository: &fakeRepository{game: game}})
		game.Carrier("carrier-1").OrbitingStarID = "star-3"

		_, _, err := svc.TransferShips(ctx, game, game.Player("player-1"), "carrier-1", 5, 55)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}
