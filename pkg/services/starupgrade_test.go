package services

import (
	"context"
	"testing"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/ledger"
	"github.com/starfall-games/starfall/pkg/specialists"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStarUpgradeService(repo *fakeRepository, achievements *fakeAchievements) *StarUpgradeService {
	gameType := NewGameTypeService()
	return NewStarUpgradeService(NewStarUpgradeServiceOptions{
		Catalog:    specialists.NewCatalog(),
		Ledger:     ledger.New(),
		Repository: repo,
		Achievements: NewAchievementsService(NewAchievementsServiceOptions{
			Repository: achievements,
			GameType:   gameType,
		}),
	})
}

func TestStarUpgradeService_UpgradeCost(t *testing.T) {
	svc := newStarUpgradeService(&fakeRepository{}, &fakeAchievements{})
	game := newTestGame()

	tests := []struct {
		name             string
		infrastructure   gametypes.InfrastructureType
		level            int
		naturalResources float64
		expense          gametypes.InfrastructureExpense
		want             int
	}{
		{
			name:             "economy level 0 standard",
			infrastructure:   gametypes.InfrastructureTypeEconomy,
			level:            0,
			naturalResources: 100,
			expense:          gametypes.InfrastructureExpenseStandard,
			want:             5,
		},
		{
			name:             "industry level 0 standard",
			infrastructure:   gametypes.InfrastructureTypeIndustry,
			level:            0,
			naturalResources: 100,
			expense:          gametypes.InfrastructureExpenseStandard,
			want:             10,
		},
		{
			name:             "science level 0 standard",
			infrastructure:   gametypes.InfrastructureTypeScience,
			level:            0,
			naturalResources: 100,
			expense:          gametypes.InfrastructureExpenseStandard,
			want:             40,
		},
		{
			name:             "economy level 4 cheap",
			infrastructure:   gametypes.InfrastructureTypeEconomy,
			level:            4,
			naturalResources: 100,
			expense:          gametypes.InfrastructureExpenseCheap,
			want:             12,
		},
		{
			name:             "richer stars upgrade cheaper",
			infrastructure:   gametypes.InfrastructureTypeScience,
			level:            0,
			naturalResources: 200,
			expense:          gametypes.InfrastructureExpenseStandard,
			want:             20,
		},
		{
			name:             "poorer stars upgrade dearer",
			infrastructure:   gametypes.InfrastructureTypeEconomy,
			level:            0,
			naturalResources: 50,
			expense:          gametypes.InfrastructureExpenseStandard,
			want:             10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			game.Settings.InfrastructureExpense = tt.expense
			star := &gametypes.Star{NaturalResources: tt.naturalResources}
			star.SetInfrastructureLevel(tt.infrastructure, tt.level)

			got, err := svc.UpgradeCost(game, star, tt.infrastructure)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStarUpgradeService_UpgradeIndustry(t *testing.T) {
	ctx := context.Background()

	t.Run("recomputes manufacturing with the new level", func(t *testing.T) {
		game := newTestGame()
		repo := &fakeRepository{game: game}
		svc := newStarUpgradeService(repo, &fakeAchievements{})
		player := game.Player("player-1")

		result, ev, err := svc.UpgradeIndustry(ctx, game, player, "star-1")
		require.NoError(t, err)
		require.NotNil(t, ev)

		assert.Equal(t, 10, result.Cost)
		assert.Equal(t, 1, result.Infrastructure)
		// 1 industry * (manufacturing 1 + 5) / 24 = 0.25
		assert.Equal(t, 0.25, result.Manufacturing)
		assert.Equal(t, 90, player.Credits)
		assert.Equal(t, 1, player.Stats.TotalIndustry)
	})

	t.Run("includes the star specialist's manufacturing modifier", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		player := game.Player("player-1")
		// Foreman: +1 manufacturing.
		game.Star("star-1").SpecialistID = 2

		result, _, err := svc.UpgradeIndustry(ctx, game, player, "star-1")
		require.NoError(t, err)
		// 1 industry * (1 + 1 + 5) / 24 = 0.29
		assert.Equal(t, 0.29, result.Manufacturing)
	})

	t.Run("rejects when unaffordable", func(t *testing.T) {
		game := newTestGame()
		repo := &fakeRepository{game: game}
		svc := newStarUpgradeService(repo, &fakeAchievements{})
		player := game.Player("player-1")
		player.Credits = 5

		_, _, err := svc.UpgradeIndustry(ctx, game, player, "star-1")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, 5, player.Credits)
		assert.Equal(t, 0, game.Star("star-1").Infrastructure.Industry)
		assert.Empty(t, repo.batches)
	})

	t.Run("rejects a dead star", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		game.Star("star-1").NaturalResources = 0

		_, _, err := svc.UpgradeIndustry(ctx, game, game.Player("player-1"), "star-1")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestStarUpgradeService_BulkUpgrade(t *testing.T) {
	ctx := context.Background()

	t.Run("spends the budget cheapest-first", func(t *testing.T) {
		game := newTestGame()
		repo := &fakeRepository{game: game}
		svc := newStarUpgradeService(repo, &fakeAchievements{})
		player := game.Player("player-1")

		result, ev, err := svc.BulkUpgrade(ctx, game, player, gametypes.InfrastructureTypeEconomy, 11)
		require.NoError(t, err)
		require.NotNil(t, ev)

		// Two level-0 stars at 5 credits each; the third level costs 10.
		assert.Equal(t, 2, result.Upgraded)
		assert.Equal(t, 10, result.Cost)
		assert.Equal(t, 90, player.Credits)
		assert.Equal(t, 1, game.Star("star-1").Infrastructure.Economy)
		assert.Equal(t, 1, game.Star("star-2").Infrastructure.Economy)
	})

	t.Run("aggregate equals the sum of per-star deltas", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		player := game.Player("player-1")
		player.Credits = 1000

		before := map[string]int{}
		for _, star := range game.Galaxy.Stars {
			before[star.ID] = star.Infrastructure.Economy
		}

		result, _, err := svc.BulkUpgrade(ctx, game, player, gametypes.InfrastructureTypeEconomy, 100)
		require.NoError(t, err)

		deltaSum := 0
		for _, delta := range result.Stars {
			deltaSum += delta.Infrastructure - before[delta.StarID]
		}
		assert.Equal(t, result.Upgraded, deltaSum)
		assert.Equal(t, result.Upgraded, player.Stats.TotalEconomy)
	})

	t.Run("caps the budget at the player's balance", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		player := game.Player("player-1")
		player.Credits = 7

		result, _, err := svc.BulkUpgrade(ctx, game, player, gametypes.InfrastructureTypeEconomy, 1000)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Upgraded)
		assert.Equal(t, 2, player.Credits)
	})

	t.Run("rejects a budget that buys nothing", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		player := game.Player("player-1")
		player.Credits = 2

		_, _, err := svc.BulkUpgrade(ctx, game, player, gametypes.InfrastructureTypeEconomy, 2)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects a non-positive budget", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})

		_, _, err := svc.BulkUpgrade(ctx, game, game.Player("player-1"), gametypes.InfrastructureTypeEconomy, 0)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestStarUpgradeService_WarpGates(t *testing.T) {
	ctx := context.Background()

	t.Run("builds a warp gate for the full cost", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		player := game.Player("player-1")

		result, _, err := svc.BuildWarpGate(ctx, game, player, "star-1")
		require.NoError(t, err)
		assert.Equal(t, 100, result.Cost)
		assert.Equal(t, 0, player.Credits)
		assert.True(t, game.Star("star-1").WarpGate)
		assert.Equal(t, 1, player.Stats.WarpGates)
	})

	t.Run("rejects a duplicate warp gate", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		game.Star("star-1").WarpGate = true

		_, _, err := svc.BuildWarpGate(ctx, game, game.Player("player-1"), "star-1")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("destroys a warp gate for free", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		player := game.Player("player-1")
		game.Star("star-1").WarpGate = true
		player.Stats.WarpGates = 1

		result, _, err := svc.DestroyWarpGate(ctx, game, player, "star-1")
		require.NoError(t, err)
		assert.Equal(t, 0, result.Cost)
		assert.Equal(t, 100, player.Credits)
		assert.False(t, game.Star("star-1").WarpGate)
		assert.Equal(t, 0, player.Stats.WarpGates)
	})

	t.Run("rejects destroying a missing warp gate", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})

		_, _, err := svc.DestroyWarpGate(ctx, game, game.Player("player-1"), "star-1")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestStarUpgradeService_BuildCarrier(t *testing.T) {
	ctx := context.Background()

	t.Run("splits the garrison into the new carrier", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		player := game.Player("player-1")

		result, ev, err := svc.BuildCarrier(ctx, game, player, "star-1", 10)
		require.NoError(t, err)
		require.NotNil(t, ev)

		assert.Equal(t, 50, result.Cost)
		assert.Equal(t, 10, result.Carrier.Ships)
		assert.Equal(t, 40, result.StarGarrison)
		assert.Equal(t, 40, game.Star("star-1").Garrison)
		assert.NotNil(t, game.Carrier(result.Carrier.ID))
		assert.Equal(t, 1, player.Stats.TotalCarriers)
	})

	t.Run("rejects more ships than the garrison holds", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})

		_, _, err := svc.BuildCarrier(ctx, game, game.Player("player-1"), "star-1", 51)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})

	t.Run("rejects a carrier with no ships", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})

		_, _, err := svc.BuildCarrier(ctx, game, game.Player("player-1"), "star-1", 0)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}

func TestStarUpgradeService_AbandonStar(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the star and removes orbiting carriers", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})
		player := game.Player("player-1")
		player.Stats.TotalStars = 2

		result, ev, err := svc.AbandonStar(ctx, game, player, "star-1")
		require.NoError(t, err)
		require.NotNil(t, ev)

		star := game.Star("star-1")
		assert.Empty(t, star.OwnedByPlayerID)
		assert.Equal(t, 0, star.Garrison)
		assert.Equal(t, []string{"carrier-1"}, result.RemovedCarriers)
		assert.Nil(t, game.Carrier("carrier-1"))
		assert.Equal(t, 1, player.Stats.TotalStars)
	})

	t.Run("rejects abandoning another player's star", func(t *testing.T) {
		game := newTestGame()
		svc := newStarUpgradeService(&fakeRepository{game: game}, &fakeAchievements{})

		_, _, err := svc.AbandonStar(ctx, game, game.Player("player-1"), "star-3")
		require.Error(t, err)
		assert.True(t, IsValidationError(err))
	})
}
