package services

import (
	"context"
	"testing"

	"github.com/starfall-games/starfall/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerService_Join(t *testing.T) {
	ctx := context.Background()

	t.Run("claims an empty slot", func(t *testing.T) {
		game := newTestGame()
		svc := NewPlayerService(NewPlayerServiceOptions{Repository: &fakeRepository{game: game}})
		slot := game.Player("player-2")
		slot.UserID = ""
		slot.Alias = ""
		slot.IsEmptySlot = true

		player, ev, err := svc.Join(ctx, game, "player-2", "user-9", "Carol", "avatar-3")
		require.NoError(t, err)
		require.NotNil(t, ev)
		assert.Equal(t, events.TypePlayerJoined, ev.Type)

		assert.Equal(t, "user-9", player.UserID)
		assert.Equal(t, "Carol", player.Alias)
		assert.False(t, player.IsEmptySlot)
	})

	t.Run("rejects a taken slot", func(t *testing.T) {
		game := newTestGame()
		svc := NewPlayerService(NewPlayerServiceOptions{Repository: &fakeRepository{game: game}})

		_, _, err := svc.Join(ctx, game, "player-2", "user-9", "Carol", "")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects a duplicate alias", func(t *testing.T) {
		game := newTestGame()
		svc := NewPlayerService(NewPlayerServiceOptions{Repository: &fakeRepository{game: game}})
		slot := game.Player("player-2")
		slot.UserID = ""
		slot.IsEmptySlot = true

		_, _, err := svc.Join(ctx, game, "player-2", "user-9", "Alice", "")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects joining twice", func(t *testing.T) {
		game := newTestGame()
		svc := NewPlayerService(NewPlayerServiceOptions{Repository: &fakeRepository{game: game}})
		slot := game.Player("player-2")
		slot.UserID = ""
		slot.IsEmptySlot = true

		_, _, err := svc.Join(ctx, game, "player-2", "user-1", "Carol", "")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestPlayerService_Quit(t *testing.T) {
	ctx := context.Background()

	t.Run("releases the slot and keeps its assets", func(t *testing.T) {
		game := newTestGame()
		svc := NewPlayerService(NewPlayerServiceOptions{Repository: &fakeRepository{game: game}})
		player := game.Player("player-1")
		player.Ready = true

		ev, err := svc.Quit(ctx, game, player)
		require.NoError(t, err)
		assert.Equal(t, events.TypePlayerQuit, ev.Type)

		assert.True(t, player.IsEmptySlot)
		assert.False(t, player.Ready)
		assert.Empty(t, player.UserID)
		// Stars and carriers stay with the slot for a takeover.
		assert.Equal(t, "player-1", game.Star("star-1").OwnedByPlayerID)
		assert.NotNil(t, game.Carrier("carrier-1"))
	})
}

func TestPlayerService_Ready(t *testing.T) {
	ctx := context.Background()

	t.Run("declares and undeclares", func(t *testing.T) {
		game := newTestGame()
		svc := NewPlayerService(NewPlayerServiceOptions{Repository: &fakeRepository{game: game}})
		player := game.Player("player-1")

		ev, err := svc.DeclareReady(ctx, game, player)
		require.NoError(t, err)
		assert.Equal(t, events.TypePlayerReady, ev.Type)
		assert.True(t, player.Ready)

		ev, err = svc.UndeclareReady(ctx, game, player)
		require.NoError(t, err)
		assert.Equal(t, events.TypePlayerNotReady, ev.Type)
		assert.False(t, player.Ready)
	})

	t.Run("rejects declaring twice", func(t *testing.T) {
		game := newTestGame()
		svc := NewPlayerService(NewPlayerServiceOptions{Repository: &fakeRepository{game: game}})
		player := game.Player("player-1")
		player.Ready = true

		_, err := svc.DeclareReady(ctx, game, player)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}
