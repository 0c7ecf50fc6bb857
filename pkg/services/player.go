package services

import (
	"context"

	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/repositories"
)

// PlayerService handles slot membership and readiness.
type PlayerService struct {
	repository repositories.GameRepository
}

type NewPlayerServiceOptions struct {
	Repository repositories.GameRepository
}

func NewPlayerService(opts NewPlayerServiceOptions) *PlayerService {
	return &PlayerService{
		repository: opts.Repository,
	}
}

// Join claims an empty slot for the user.
func (s *PlayerService) Join(ctx context.Context, game *gametypes.Game, playerID, userID, alias, avatar string) (*gametypes.Player, *events.Event, error) {
	if alias == "" {
		return nil, nil, NewValidationError("An alias is required to join a game.")
	}

	for _, p := range game.Players {
		if p.UserID == userID && !p.IsEmptySlot {
			return nil, nil, NewValidationError("You are already a player in this game.")
		}
		if p.Alias == alias && !p.IsEmptySlot {
			return nil, nil, NewValidationError("The alias %s is already taken.", alias)
		}
	}

	player := game.Player(playerID)
	if player == nil {
		return nil, nil, NewValidationError("The player slot does not exist.")
	}

	if !player.IsEmptySlot {
		return nil, nil, NewValidationError("The player slot has already been taken.")
	}

	player.UserID = userID
	player.Alias = alias
	player.Avatar = avatar
	player.IsEmptySlot = false

	err := s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		repositories.SetPlayerSlot{
			PlayerID:    player.ID,
			UserID:      userID,
			Alias:       alias,
			Avatar:      avatar,
			IsEmptySlot: false,
		},
	})
	if err != nil {
		return nil, nil, err
	}

	ev, err := events.New(game.ID, events.TypePlayerJoined, events.PlayerJoined{
		PlayerID: player.ID,
		Alias:    player.Alias,
		Avatar:   player.Avatar,
	})
	if err != nil {
		return nil, nil, err
	}

	return player, ev, nil
}

// Quit releases the player's slot. The slot's stars and carriers are
// untouched so another user can take it over.
func (s *PlayerService) Quit(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
	if player.IsEmptySlot {
		return nil, NewValidationError("The player slot is already empty.")
	}

	player.UserID = ""
	player.Alias = ""
	player.Avatar = ""
	player.IsEmptySlot = true
	player.Ready = false

	err := s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		repositories.SetPlayerSlot{
			PlayerID:    player.ID,
			UserID:      "",
			Alias:       "",
			Avatar:      "",
			IsEmptySlot: true,
		},
		repositories.SetPlayerReady{PlayerID: player.ID, Ready: false},
	})
	if err != nil {
		return nil, err
	}

	return events.New(game.ID, events.TypePlayerQuit, events.PlayerQuit{PlayerID: player.ID})
}

// DeclareReady marks the player ready for the next production cycle.
func (s *PlayerService) DeclareReady(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
	if player.Ready {
		return nil, NewValidationError("You have already declared ready.")
	}

	player.Ready = true

	err := s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		repositories.SetPlayerReady{PlayerID: player.ID, Ready: true},
	})
	if err != nil {
		return nil, err
	}

	return events.New(game.ID, events.TypePlayerReady, events.PlayerReady{PlayerID: player.ID})
}

// UndeclareReady reverses DeclareReady.
func (s *PlayerService) UndeclareReady(ctx context.Context, game *gametypes.Game, player *gametypes.Player) (*events.Event, error) {
	if !player.Ready {
		return nil, NewValidationError("You have not declared ready.")
	}

	player.Ready = false

	err := s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		repositories.SetPlayerReady{PlayerID: player.ID, Ready: false},
	})
	if err != nil {
		return nil, err
	}

	return events.New(game.ID, events.TypePlayerNotReady, events.PlayerNotReady{PlayerID: player.ID})
}
