package repositories

import (
	"context"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
)

// GameRepository is the persistence collaborator for game state. The
// engine validates and mutates against its in-memory copy, then commits
// every mutation as one atomic batch of typed ops.
type GameRepository interface {
	Close(ctx context.Context) error
	FindGameByID(ctx context.Context, gameID string) (*gametypes.Game, error)
	// SaveGame writes the full game, used for seeding and periodic
	// snapshots, not for mutation commits.
	SaveGame(ctx context.Context, game *gametypes.Game) error
	// AtomicBatch applies all ops in a single transaction. Either every
	// op is applied or none are. Returns ErrConflict on a concurrent
	// write conflict; callers retry under the per-game serialization
	// discipline.
	AtomicBatch(ctx context.Context, gameID string, ops []Op) error
}

// AchievementsRepository records cross-game, per-user accounting. It is
// a cascade collaborator: failures are logged, never rolled back into
// the core mutation.
type AchievementsRepository interface {
	IncrementSpecialistsHired(ctx context.Context, userID string) error
	IncrementInfrastructureBuilt(ctx context.Context, userID string, infrastructureType gametypes.InfrastructureType, amount int) error
	IncrementWarpGatesBuilt(ctx context.Context, userID string) error
	IncrementCarriersBuilt(ctx context.Context, userID string) error
	IncrementCreditsTraded(ctx context.Context, fromUserID, toUserID string, amount int) error
}
