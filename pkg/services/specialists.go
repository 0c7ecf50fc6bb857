package services

import (
	"context"
	"fmt"

	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/ledger"
	"github.com/starfall-games/starfall/pkg/log"
	"github.com/starfall-games/starfall/pkg/repositories"
	"github.com/starfall-games/starfall/pkg/specialists"
)

// SpecialistService handles specialist hiring for stars and carriers.
// Both paths follow the same contract: every precondition is checked in
// a fixed order before any write, the debit and the assignment commit
// as one atomic batch, and cascades run only after the commit.
type SpecialistService struct {
	catalog      *specialists.Catalog
	ledger       *ledger.Ledger
	repository   repositories.GameRepository
	achievements *AchievementsService
	waypoints    *WaypointService
	starUpgrade  *StarUpgradeService
}

type NewSpecialistServiceOptions struct {
	Catalog      *specialists.Catalog
	Ledger       *ledger.Ledger
	Repository   repositories.GameRepository
	Achievements *AchievementsService
	Waypoints    *WaypointService
	StarUpgrade  *StarUpgradeService
}

func NewSpecialistService(opts NewSpecialistServiceOptions) *SpecialistService {
	return &SpecialistService{
		catalog:      opts.Catalog,
		ledger:       opts.Ledger,
		repository:   opts.Repository,
		achievements: opts.Achievements,
		waypoints:    opts.Waypoints,
		starUpgrade:  opts.StarUpgrade,
	}
}

// StarSpecialistHireResult is returned to the caller and feeds the
// broadcast event.
type StarSpecialistHireResult struct {
	Star       *gametypes.Star
	Specialist *gametypes.Specialist
	Cost       int
	Currency   gametypes.SpecialistCurrency
}

// CarrierSpecialistHireResult includes the carrier's waypoints after
// the hyperspace-range culling cascade.
type CarrierSpecialistHireResult struct {
	Carrier    *gametypes.Carrier
	Specialist *gametypes.Specialist
	Cost       int
	Currency   gametypes.SpecialistCurrency
	Waypoints  []gametypes.Waypoint
}

func (s *SpecialistService) HireStarSpecialist(ctx context.Context, game *gametypes.Game, player *gametypes.Player, starID string, specialistID int) (*StarSpecialistHireResult, *events.Event, error) {
	if game.Settings.SpecialistCost == gametypes.SpecialistCostNone {
		return nil, nil, NewValidationError("The game settings has disabled the hiring of specialists.")
	}

	if s.catalog.IsStarBanned(game, specialistID) {
		return nil, nil, NewValidationError("This specialist has been banned from this game.")
	}

	star := game.PlayerStar(player.ID, starID)
	if star == nil {
		return nil, nil, NewValidationError("Cannot assign a specialist to a star that you do not own.")
	}

	if star.IsDead() {
		return nil, nil, NewValidationError("Cannot hire a specialist on a dead star.")
	}

	specialist := s.catalog.GetByIDStar(specialistID)
	if specialist == nil {
		return nil, nil, NewValidationError("A specialist with ID %d does not exist.", specialistID)
	}

	if star.SpecialistID == specialist.ID {
		return nil, nil, NewValidationError("The star already has the specialist assigned.")
	}

	cost, err := s.affordableCost(game, player, specialist)
	if err != nil {
		return nil, nil, err
	}

	if star.SpecialistID != 0 {
		current := s.catalog.GetByIDStar(star.SpecialistID)
		if current != nil && current.OneShot {
			return nil, nil, NewValidationError("The current specialist cannot be replaced.")
		}
	}

	debitOp, err := s.ledger.Debit(player, game.Settings.SpecialistsCurrency, cost)
	if err != nil {
		return nil, nil, err
	}

	star.SpecialistID = specialist.ID

	ops := []repositories.Op{
		debitOp,
		repositories.SetStarSpecialist{StarID: star.ID, SpecialistID: specialist.ID},
	}

	// A manufacturing modifier changes the star's ship output
	// immediately, not at the next industry upgrade.
	manufacturing := s.starUpgrade.Manufacturing(player, star, star.Infrastructure.Industry)
	if manufacturing != star.Manufacturing {
		star.Manufacturing = manufacturing
		ops = append(ops, repositories.SetStarInfrastructure{
			StarID:        star.ID,
			Type:          gametypes.InfrastructureTypeIndustry,
			Level:         star.Infrastructure.Industry,
			Manufacturing: manufacturing,
		})
	}

	err = s.repository.AtomicBatch(ctx, game.ID, ops)
	if err != nil {
		return nil, nil, err
	}

	s.achievements.SpecialistHired(ctx, game, player)
	if !game.IsTutorial() && !player.Defeated {
		player.Stats.SpecialistsHired++
	}

	ev, err := events.New(game.ID, events.TypeStarSpecialistHired, events.StarSpecialistHired{
		StarID:        star.ID,
		Specialist:    *specialist,
		Manufacturing: star.Manufacturing,
	})
	if err != nil {
		return nil, nil, err
	}

	return &StarSpecialistHireResult{
		Star:       star,
		Specialist: specialist,
		Cost:       cost,
		Currency:   game.Settings.SpecialistsCurrency,
	}, ev, nil
}

func (s *SpecialistService) HireCarrierSpecialist(ctx context.Context, game *gametypes.Game, player *gametypes.Player, carrierID string, specialistID int) (*CarrierSpecialistHireResult, *events.Event, error) {
	if game.Settings.SpecialistCost == gametypes.SpecialistCostNone {
		return nil, nil, NewValidationError("The game settings has disabled the hiring of specialists.")
	}

	if s.catalog.IsCarrierBanned(game, specialistID) {
		return nil, nil, NewValidationError("This specialist has been banned from this game.")
	}

	carrier := game.PlayerCarrier(player.ID, carrierID)
	if carrier == nil {
		return nil, nil, NewValidationError("Cannot assign a specialist to a carrier that you do not own.")
	}

	if carrier.InTransit() {
		return nil, nil, NewValidationError("Cannot assign a specialist to a carrier in transit.")
	}

	star := game.Star(carrier.OrbitingStarID)
	if star == nil || star.IsDead() {
		return nil, nil, NewValidationError("Cannot hire a specialist while in orbit of a dead star.")
	}

	specialist := s.catalog.GetByIDCarrier(specialistID)
	if specialist == nil {
		return nil, nil, NewValidationError("A specialist with ID %d does not exist.", specialistID)
	}

	if carrier.SpecialistID == specialist.ID {
		return nil, nil, NewValidationError("The carrier already has the specialist assigned.")
	}

	cost, err := s.affordableCost(game, player, specialist)
	if err != nil {
		return nil, nil, err
	}

	if carrier.SpecialistID != 0 {
		current := s.catalog.GetByIDCarrier(carrier.SpecialistID)
		if current != nil && current.OneShot {
			return nil, nil, NewValidationError("The current specialist cannot be replaced.")
		}
	}

	debitOp, err := s.ledger.Debit(player, game.Settings.SpecialistsCurrency, cost)
	if err != nil {
		return nil, nil, err
	}

	carrier.SpecialistID = specialist.ID

	err = s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		debitOp,
		repositories.SetCarrierSpecialist{CarrierID: carrier.ID, SpecialistID: specialist.ID},
	})
	if err != nil {
		return nil, nil, err
	}

	s.achievements.SpecialistHired(ctx, game, player)
	if !game.IsTutorial() && !player.Defeated {
		player.Stats.SpecialistsHired++
	}

	// The new specialist may have changed the carrier's hyperspace
	// range; unreachable waypoints are pruned before the event is built
	// so mirrors see the final route.
	waypoints, err := s.waypoints.CullWaypointsByHyperspaceRange(ctx, game, player, carrier)
	if err != nil {
		// The hire is committed; a failed cull write must not undo it.
		// The pruned route stays on the working copy and reaches the
		// store with the next full save.
		log.Error("Failed to persist culled waypoints for carrier %s: %v", carrier.ID, err)
		waypoints = carrier.Waypoints
	}

	ev, err := events.New(game.ID, events.TypeCarrierSpecialistHired, events.CarrierSpecialistHired{
		CarrierID:  carrier.ID,
		Specialist: *specialist,
		Waypoints:  waypoints,
	})
	if err != nil {
		return nil, nil, err
	}

	return &CarrierSpecialistHireResult{
		Carrier:    carrier,
		Specialist: specialist,
		Cost:       cost,
		Currency:   game.Settings.SpecialistsCurrency,
		Waypoints:  waypoints,
	}, ev, nil
}

// affordableCost resolves the specialist's effective price and checks
// it against the player's current, pre-debit balance.
func (s *SpecialistService) affordableCost(game *gametypes.Game, player *gametypes.Player, specialist *gametypes.Specialist) (int, error) {
	actual, err := s.catalog.ActualCost(game, specialist)
	if err != nil {
		return 0, err
	}

	var cost int
	switch game.Settings.SpecialistsCurrency {
	case gametypes.SpecialistCurrencyCredits:
		cost = actual.Credits
	case gametypes.SpecialistCurrencyCreditsSpecialists:
		cost = actual.CreditsSpecialists
	default:
		return 0, fmt.Errorf("unsupported specialist currency type: %s", game.Settings.SpecialistsCurrency)
	}

	if player.Balance(game.Settings.SpecialistsCurrency) < cost {
		return 0, NewValidationError("You cannot afford to buy this specialist.")
	}

	return cost, nil
}
