package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/starfall-games/starfall/pkg/broadcast"
	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/repositories"
	"github.com/starfall-games/starfall/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	game      *gametypes.Game
	loads     int
	batchErrs []error
	saves     int
}

func (f *fakeRepository) Close(ctx context.Context) error { return nil }

func (f *fakeRepository) FindGameByID(ctx context.Context, gameID string) (*gametypes.Game, error) {
	if f.game == nil || f.game.ID != gameID {
		return nil, &repositories.ErrNotFound{}
	}
	f.loads++
	return f.game.Clone()
}

func (f *fakeRepository) SaveGame(ctx context.Context, game *gametypes.Game) error {
	f.saves++
	return nil
}

func (f *fakeRepository) AtomicBatch(ctx context.Context, gameID string, ops []repositories.Op) error {
	if len(f.batchErrs) > 0 {
		err := f.batchErrs[0]
		f.batchErrs = f.batchErrs[1:]
		return err
	}
	return nil
}

func newTestGame() *gametypes.Game {
	return &gametypes.Game{
		ID: "game-1",
		Players: []*gametypes.Player{
			{ID: "player-1", UserID: "user-1", Alias: "Alice", Credits: 100},
		},
	}
}

func newTestEngine(repo *fakeRepository) (*Engine, *broadcast.Broadcaster) {
	broadcaster := broadcast.NewBroadcaster(broadcast.NewBroadcasterOptions{})
	return NewEngine(NewEngineOptions{
		Repository:  repo,
		Broadcaster: broadcaster,
	}), broadcaster
}

func readyMutation(repo *fakeRepository) MutationFunc {
	return func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
		if err := repo.AtomicBatch(ctx, game.ID, []repositories.Op{
			repositories.SetPlayerReady{PlayerID: player.ID, Ready: true},
		}); err != nil {
			return nil, err
		}
		player.Ready = true
		return events.New(game.ID, events.TypePlayerReady, events.PlayerReady{PlayerID: player.ID})
	}
}

func TestEngine_Mutate(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes the event after a successful commit", func(t *testing.T) {
		repo := &fakeRepository{game: newTestGame()}
		eng, broadcaster := newTestEngine(repo)
		ch, cancel := broadcaster.Subscribe("game-1")
		defer cancel()

		ev, err := eng.Mutate(ctx, "game-1", "user-1", readyMutation(repo))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), ev.Seq)

		got := <-ch
		assert.Equal(t, events.TypePlayerReady, got.Type)
	})

	t.Run("retries after a commit conflict with a reloaded copy", func(t *testing.T) {
		repo := &fakeRepository{
			game:      newTestGame(),
			batchErrs: []error{&repositories.ErrConflict{}},
		}
		eng, _ := newTestEngine(repo)

		_, err := eng.Mutate(ctx, "game-1", "user-1", readyMutation(repo))
		require.NoError(t, err)
		// Initial load plus the reload after the conflict.
		assert.Equal(t, 2, repo.loads)
	})

	t.Run("does not publish on a validation failure", func(t *testing.T) {
		repo := &fakeRepository{game: newTestGame()}
		eng, broadcaster := newTestEngine(repo)

		_, err := eng.Mutate(ctx, "game-1", "user-1", func(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
			return nil, services.NewValidationError("no")
		})
		require.Error(t, err)
		assert.True(t, services.IsValidationError(err))
		assert.Equal(t, uint64(0), broadcaster.Seq("game-1"))
	})

	t.Run("rejects a user that is not in the game", func(t *testing.T) {
		repo := &fakeRepository{game: newTestGame()}
		eng, _ := newTestEngine(repo)

		_, err := eng.Mutate(ctx, "game-1", "user-9", readyMutation(repo))
		require.Error(t, err)
		assert.True(t, services.IsValidationError(err))
	})

	t.Run("gives up after repeated conflicts", func(t *testing.T) {
		repo := &fakeRepository{
			game: newTestGame(),
			batchErrs: []error{
				&repositories.ErrConflict{},
				&repositories.ErrConflict{},
				&repositories.ErrConflict{},
				&repositories.ErrConflict{},
				&repositories.ErrConflict{},
			},
		}
		eng, _ := newTestEngine(repo)

		_, err := eng.Mutate(ctx, "game-1", "user-1", readyMutation(repo))
		require.Error(t, err)
		assert.True(t, repositories.IsConflict(err))
	})

	t.Run("reloads the working copy after a system failure", func(t *testing.T) {
		repo := &fakeRepository{
			game:      newTestGame(),
			batchErrs: []error{errors.New("connection reset")},
		}
		eng, _ := newTestEngine(repo)

		_, err := eng.Mutate(ctx, "game-1", "user-1", readyMutation(repo))
		require.Error(t, err)
		assert.Equal(t, 2, repo.loads)

		// The reloaded copy is clean.
		game, _, snapErr := eng.Snapshot(ctx, "game-1")
		require.NoError(t, snapErr)
		assert.False(t, game.Player("player-1").Ready)
	})

	t.Run("returns not found for an unknown game", func(t *testing.T) {
		repo := &fakeRepository{}
		eng, _ := newTestEngine(repo)

		_, err := eng.Mutate(ctx, "game-9", "user-1", readyMutation(repo))
		require.Error(t, err)
		assert.True(t, repositories.IsNotFound(err))
	})
}

func TestEngine_Snapshot(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{game: newTestGame()}
	eng, _ := newTestEngine(repo)

	game, seq, err := eng.Snapshot(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), seq)

	// Mutating the snapshot must not touch the working copy.
	game.Player("player-1").Credits = 0
	again, _, err := eng.Snapshot(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, 100, again.Player("player-1").Credits)
}

func TestEngine_SaveAll(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{game: newTestGame()}
	eng, _ := newTestEngine(repo)

	// Load the game into the engine.
	_, _, err := eng.Snapshot(ctx, "game-1")
	require.NoError(t, err)

	eng.SaveAll(ctx)
	assert.Equal(t, 1, repo.saves)
}
