package services

import (
	"context"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/log"
	"github.com/starfall-games/starfall/pkg/repositories"
)

// AchievementsService records cross-game per-user accounting. It only
// runs as a post-commit cascade: a failure here is logged and never
// rolls back the mutation that triggered it.
type AchievementsService struct {
	repository repositories.AchievementsRepository
	gameType   *GameTypeService
}

type NewAchievementsServiceOptions struct {
	Repository repositories.AchievementsRepository
	GameType   *GameTypeService
}

func NewAchievementsService(opts NewAchievementsServiceOptions) *AchievementsService {
	return &AchievementsService{
		repository: opts.Repository,
		gameType:   opts.GameType,
	}
}

// counts reports whether the player's actions in this game feed
// achievements. Defeated players and tutorial games are excluded.
func (s *AchievementsService) counts(game *gametypes.Game, player *gametypes.Player) bool {
	return !player.Defeated && !s.gameType.IsTutorialGame(game)
}

func (s *AchievementsService) SpecialistHired(ctx context.Context, game *gametypes.Game, player *gametypes.Player) {
	if !s.counts(game, player) {
		return
	}
	if err := s.repository.IncrementSpecialistsHired(ctx, player.UserID); err != nil {
		log.Error("Failed to increment specialists hired for user %s: %v", player.UserID, err)
	}
}

func (s *AchievementsService) InfrastructureBuilt(ctx context.Context, game *gametypes.Game, player *gametypes.Player, infrastructureType gametypes.InfrastructureType, amount int) {
	if !s.counts(game, player) {
		return
	}
	if err := s.repository.IncrementInfrastructureBuilt(ctx, player.UserID, infrastructureType, amount); err != nil {
		log.Error("Failed to increment %s built for user %s: %v", infrastructureType, player.UserID, err)
	}
}

func (s *AchievementsService) WarpGateBuilt(ctx context.Context, game *gametypes.Game, player *gametypes.Player) {
	if !s.counts(game, player) {
		return
	}
	if err := s.repository.IncrementWarpGatesBuilt(ctx, player.UserID); err != nil {
		log.Error("Failed to increment warp gates built for user %s: %v", player.UserID, err)
	}
}

func (s *AchievementsService) CarrierBuilt(ctx context.Context, game *gametypes.Game, player *gametypes.Player) {
	if !s.counts(game, player) {
		return
	}
	if err := s.repository.IncrementCarriersBuilt(ctx, player.UserID); err != nil {
		log.Error("Failed to increment carriers built for user %s: %v", player.UserID, err)
	}
}

func (s *AchievementsService) CreditsTraded(ctx context.Context, game *gametypes.Game, from, to *gametypes.Player, amount int) {
	if s.gameType.IsTutorialGame(game) {
		return
	}
	if err := s.repository.IncrementCreditsTraded(ctx, from.UserID, to.UserID, amount); err != nil {
		log.Error("Failed to increment credits traded from user %s to user %s: %v", from.UserID, to.UserID, err)
	}
}
