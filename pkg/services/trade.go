package services

import (
	"context"

	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/ledger"
	"github.com/starfall-games/starfall/pkg/repositories"
)

// TradeService transfers currency between two players of the same game.
// Both sides of the transfer commit in one atomic batch.
type TradeService struct {
	ledger       *ledger.Ledger
	repository   repositories.GameRepository
	achievements *AchievementsService
}

type NewTradeServiceOptions struct {
	Ledger       *ledger.Ledger
	Repository   repositories.GameRepository
	Achievements *AchievementsService
}

func NewTradeService(opts NewTradeServiceOptions) *TradeService {
	return &TradeService{
		ledger:       opts.Ledger,
		repository:   opts.Repository,
		achievements: opts.Achievements,
	}
}

// TradeResult is returned by the send operations.
type TradeResult struct {
	FromPlayer *gametypes.Player
	ToPlayer   *gametypes.Player
	Amount     int
	Currency   gametypes.SpecialistCurrency
}

func (s *TradeService) SendCredits(ctx context.Context, game *gametypes.Game, player *gametypes.Player, toPlayerID string, amount int) (*TradeResult, *events.Event, error) {
	return s.send(ctx, game, player, toPlayerID, amount, gametypes.SpecialistCurrencyCredits)
}

func (s *TradeService) SendCreditsSpecialists(ctx context.Context, game *gametypes.Game, player *gametypes.Player, toPlayerID string, amount int) (*TradeResult, *events.Event, error) {
	return s.send(ctx, game, player, toPlayerID, amount, gametypes.SpecialistCurrencyCreditsSpecialists)
}

func (s *TradeService) send(ctx context.Context, game *gametypes.Game, player *gametypes.Player, toPlayerID string, amount int, currency gametypes.SpecialistCurrency) (*TradeResult, *events.Event, error) {
	if amount <= 0 {
		return nil, nil, NewValidationError("The amount must be a positive number.")
	}

	if toPlayerID == player.ID {
		return nil, nil, NewValidationError("Cannot send credits to yourself.")
	}

	toPlayer := game.Player(toPlayerID)
	if toPlayer == nil || toPlayer.IsEmptySlot {
		return nil, nil, NewValidationError("The recipient is not a player in this game.")
	}

	if toPlayer.Defeated {
		return nil, nil, NewValidationError("Cannot send credits to a defeated player.")
	}

	if player.Balance(currency) < amount {
		return nil, nil, NewValidationError("You do not have enough credits to send.")
	}

	debitOp, err := s.ledger.Debit(player, currency, amount)
	if err != nil {
		return nil, nil, err
	}

	creditOp, err := s.ledger.Credit(toPlayer, currency, amount)
	if err != nil {
		return nil, nil, err
	}

	err = s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{debitOp, creditOp})
	if err != nil {
		return nil, nil, err
	}

	if !game.IsTutorial() {
		player.Stats.CreditsSent += amount
		toPlayer.Stats.CreditsReceived += amount
	}
	s.achievements.CreditsTraded(ctx, game, player, toPlayer, amount)

	ev, err := events.New(game.ID, events.TypePlayerDebtSettled, events.PlayerDebtSettled{
		CreditorPlayerID: toPlayer.ID,
		DebtorPlayerID:   player.ID,
		Amount:           amount,
		Currency:         currency,
	})
	if err != nil {
		return nil, nil, err
	}

	return &TradeResult{
		FromPlayer: player,
		ToPlayer:   toPlayer,
		Amount:     amount,
		Currency:   currency,
	}, ev, nil
}
