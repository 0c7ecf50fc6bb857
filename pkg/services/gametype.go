package services

import gametypes "github.com/starfall-games/starfall/pkg/game/types"

// GameTypeService answers game-mode questions for the other services.
type GameTypeService struct {
}

func NewGameTypeService() *GameTypeService {
	return &GameTypeService{}
}

// IsTutorialGame reports whether the game is excluded from stat and
// achievement accounting.
func (s *GameTypeService) IsTutorialGame(game *gametypes.Game) bool {
	return game.IsTutorial()
}
