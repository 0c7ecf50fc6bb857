package services

import (
	"context"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/repositories"
)

// fakeRepository records atomic batches without persisting anything.
type fakeRepository struct {
	game    *gametypes.Game
	batches [][]repositories.Op
	// batchErrs are returned by successive AtomicBatch calls before the
	// fake starts succeeding.
	batchErrs []error
}

func (f *fakeRepository) Close(ctx context.Context) error { return nil }

func (f *fakeRepository) FindGameByID(ctx context.Context, gameID string) (*gametypes.Game, error) {
	if f.game == nil || f.game.ID != gameID {
		return nil, &repositories.ErrNotFound{}
	}
	return f.game.Clone()
}

func (f *fakeRepository) SaveGame(ctx context.Context, game *gametypes.Game) error {
	f.game = game
	return nil
}

func (f *fakeRepository) AtomicBatch(ctx context.Context, gameID string, ops []repositories.Op) error {
	if len(f.batchErrs) > 0 {
		err := f.batchErrs[0]
		f.batchErrs = f.batchErrs[1:]
		return err
	}
	f.batches = append(f.batches, ops)
	return nil
}

// fakeAchievements counts cascade invocations.
type fakeAchievements struct {
	specialistsHired    int
	infrastructureBuilt int
	warpGatesBuilt      int
	carriersBuilt       int
	creditsTraded       int
}

func (f *fakeAchievements) IncrementSpecialistsHired(ctx context.Context, userID string) error {
	f.specialistsHired++
	return nil
}

func (f *fakeAchievements) IncrementInfrastructureBuilt(ctx context.Context, userID string, infrastructureType gametypes.InfrastructureType, amount int) error {
	f.infrastructureBuilt += amount
	return nil
}

func (f *fakeAchievements) IncrementWarpGatesBuilt(ctx context.Context, userID string) error {
	f.warpGatesBuilt++
	return nil
}

func (f *fakeAchievements) IncrementCarriersBuilt(ctx context.Context, userID string) error {
	f.carriersBuilt++
	return nil
}

func (f *fakeAchievements) IncrementCreditsTraded(ctx context.Context, fromUserID, toUserID string, amount int) error {
	f.creditsTraded += amount
	return nil
}

// newTestGame builds a two-player game with three stars and one
// carrier in orbit of the first.
func newTestGame() *gametypes.Game {
	return &gametypes.Game{
		ID: "game-1",
		Settings: gametypes.Settings{
			Type:                  gametypes.GameTypeStandard,
			SpecialistsCurrency:   gametypes.SpecialistCurrencyCredits,
			SpecialistCost:        gametypes.SpecialistCostStandard,
			InfrastructureExpense: gametypes.InfrastructureExpenseStandard,
		},
		Players: []*gametypes.Player{
			{
				ID:      "player-1",
				UserID:  "user-1",
				Alias:   "Alice",
				Credits: 100,
				Research: gametypes.Research{
					Hyperspace:    1,
					Manufacturing: 1,
				},
			},
			{
				ID:      "player-2",
				UserID:  "user-2",
				Alias:   "Bob",
				Credits: 100,
				Research: gametypes.Research{
					Hyperspace:    1,
					Manufacturing: 1,
				},
			},
		},
		Galaxy: gametypes.Galaxy{
			Stars: []*gametypes.Star{
				{
					ID:               "star-1",
					Name:             "Sol",
					OwnedByPlayerID:  "player-1",
					Position:         gametypes.Position{X: 0, Y: 0},
					NaturalResources: 100,
					Garrison:         50,
				},
				{
					ID:               "star-2",
					Name:             "Vega",
					OwnedByPlayerID:  "player-1",
					Position:         gametypes.Position{X: 100, Y: 0},
					NaturalResources: 100,
				},
				{
					ID:               "star-3",
					Name:             "Rigel",
					OwnedByPlayerID:  "player-2",
					Position:         gametypes.Position{X: 0, Y: 300},
					NaturalResources: 100,
				},
			},
			Carriers: []*gametypes.Carrier{
				{
					ID:              "carrier-1",
					Name:            "Sol 1",
					OwnedByPlayerID: "player-1",
					OrbitingStarID:  "star-1",
					Position:        gametypes.Position{X: 0, Y: 0},
					Ships:           10,
				},
			},
		},
	}
}
