package services

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/ledger"
	"github.com/starfall-games/starfall/pkg/repositories"
	"github.com/starfall-games/starfall/pkg/specialists"
)

const (
	economyBaseCost  = 2.5
	industryBaseCost = 5.0
	scienceBaseCost  = 20.0
	warpGateBaseCost = 50.0
	carrierBaseCost  = 25.0

	// ticksPerCycle converts industry into ship output per production cycle.
	ticksPerCycle = 24.0
)

// StarUpgradeService handles star infrastructure purchases, warp gates,
// carrier builds and star abandonment. Infrastructure is always paid in
// credits regardless of the game's specialist currency.
type StarUpgradeService struct {
	catalog      *specialists.Catalog
	ledger       *ledger.Ledger
	repository   repositories.GameRepository
	achievements *AchievementsService
}

type NewStarUpgradeServiceOptions struct {
	Catalog      *specialists.Catalog
	Ledger       *ledger.Ledger
	Repository   repositories.GameRepository
	Achievements *AchievementsService
}

func NewStarUpgradeService(opts NewStarUpgradeServiceOptions) *StarUpgradeService {
	return &StarUpgradeService{
		catalog:      opts.Catalog,
		ledger:       opts.Ledger,
		repository:   opts.Repository,
		achievements: opts.Achievements,
	}
}

func expenseMultiplier(expense gametypes.InfrastructureExpense) (float64, error) {
	switch expense {
	case gametypes.InfrastructureExpenseCheap:
		return 1, nil
	case gametypes.InfrastructureExpenseStandard:
		return 2, nil
	case gametypes.InfrastructureExpenseExpensive:
		return 4, nil
	case gametypes.InfrastructureExpenseVeryExpensive:
		return 8, nil
	case gametypes.InfrastructureExpenseCrazyExpensive:
		return 16, nil
	default:
		return 0, fmt.Errorf("unsupported infrastructure expense mode: %s", expense)
	}
}

func infrastructureBaseCost(t gametypes.InfrastructureType) (float64, error) {
	switch t {
	case gametypes.InfrastructureTypeEconomy:
		return economyBaseCost, nil
	case gametypes.InfrastructureTypeIndustry:
		return industryBaseCost, nil
	case gametypes.InfrastructureTypeScience:
		return scienceBaseCost, nil
	default:
		return 0, fmt.Errorf("unsupported infrastructure type: %s", t)
	}
}

// UpgradeCost is the price of the next level of the given
// infrastructure type at the star. Richer stars upgrade cheaper.
func (s *StarUpgradeService) UpgradeCost(game *gametypes.Game, star *gametypes.Star, t gametypes.InfrastructureType) (int, error) {
	multiplier, err := expenseMultiplier(game.Settings.InfrastructureExpense)
	if err != nil {
		return 0, err
	}
	base, err := infrastructureBaseCost(t)
	if err != nil {
		return 0, err
	}
	nextLevel := star.InfrastructureLevel(t) + 1
	return int(math.Floor(multiplier * base * float64(nextLevel) / (star.NaturalResources / 100))), nil
}

// WarpGateCost is the price of building a warp gate at the star.
func (s *StarUpgradeService) WarpGateCost(game *gametypes.Game, star *gametypes.Star) (int, error) {
	multiplier, err := expenseMultiplier(game.Settings.InfrastructureExpense)
	if err != nil {
		return 0, err
	}
	return int(math.Floor(multiplier * warpGateBaseCost / (star.NaturalResources / 100))), nil
}

// Manufacturing is the star's ship output per tick for its industry
// level, the owner's manufacturing research and any star specialist.
func (s *StarUpgradeService) Manufacturing(player *gametypes.Player, star *gametypes.Star, industry int) float64 {
	level := player.Research.Manufacturing
	if star.SpecialistID != 0 {
		if spec := s.catalog.GetByIDStar(star.SpecialistID); spec != nil {
			level += spec.Modifiers.Manufacturing
		}
	}
	return gametypes.Round2(float64(industry) * (float64(level) + 5) / ticksPerCycle)
}

// StarUpgradeResult is returned by the single-star upgrade operations.
type StarUpgradeResult struct {
	Star           *gametypes.Star
	Infrastructure int
	Cost           int
	Manufacturing  float64
}

func (s *StarUpgradeService) UpgradeEconomy(ctx context.Context, game *gametypes.Game, player *gametypes.Player, starID string) (*StarUpgradeResult, *events.Event, error) {
	return s.upgradeInfrastructure(ctx, game, player, starID, gametypes.InfrastructureTypeEconomy)
}

func (s *StarUpgradeService) UpgradeIndustry(ctx context.Context, game *gametypes.Game, player *gametypes.Player, starID string) (*StarUpgradeResult, *events.Event, error) {
	return s.upgradeInfrastructure(ctx, game, player, starID, gametypes.InfrastructureTypeIndustry)
}

func (s *StarUpgradeService) UpgradeScience(ctx context.Context, game *gametypes.Game, player *gametypes.Player, starID string) (*StarUpgradeResult, *events.Event, error) {
	return s.upgradeInfrastructure(ctx, game, player, starID, gametypes.InfrastructureTypeScience)
}

func (s *StarUpgradeService) upgradeInfrastructure(ctx context.Context, game *gametypes.Game, player *gametypes.Player, starID string, t gametypes.InfrastructureType) (*StarUpgradeResult, *events.Event, error) {
	star := game.PlayerStar(player.ID, starID)
	if star == nil {
		return nil, nil, NewValidationError("Cannot upgrade infrastructure on a star that you do not own.")
	}

	if star.IsDead() {
		return nil, nil, NewValidationError("Cannot upgrade infrastructure on a dead star.")
	}

	cost, err := s.UpgradeCost(game, star, t)
	if err != nil {
		return nil, nil, err
	}

	if player.Credits < cost {
		return nil, nil, NewValidationError("You cannot afford to upgrade this infrastructure.")
	}

	debitOp, err := s.ledger.Debit(player, gametypes.SpecialistCurrencyCredits, cost)
	if err != nil {
		return nil, nil, err
	}

	level := star.InfrastructureLevel(t) + 1
	star.SetInfrastructureLevel(t, level)
	star.Manufacturing = s.Manufacturing(player, star, star.Infrastructure.Industry)

	err = s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		debitOp,
		repositories.SetStarInfrastructure{StarID: star.ID, Type: t, Level: level, Manufacturing: star.Manufacturing},
	})
	if err != nil {
		return nil, nil, err
	}

	s.applyInfrastructureStats(game, player, t, 1)
	s.achievements.InfrastructureBuilt(ctx, game, player, t, 1)

	ev, err := s.infrastructureEvent(game, star, t)
	if err != nil {
		return nil, nil, err
	}

	return &StarUpgradeResult{
		Star:           star,
		Infrastructure: level,
		Cost:           cost,
		Manufacturing:  star.Manufacturing,
	}, ev, nil
}

func (s *StarUpgradeService) applyInfrastructureStats(game *gametypes.Game, player *gametypes.Player, t gametypes.InfrastructureType, amount int) {
	if game.IsTutorial() || player.Defeated {
		return
	}
	switch t {
	case gametypes.InfrastructureTypeEconomy:
		player.Stats.TotalEconomy += amount
	case gametypes.InfrastructureTypeIndustry:
		player.Stats.TotalIndustry += amount
	case gametypes.InfrastructureTypeScience:
		player.Stats.TotalScience += amount
	}
}

func (s *StarUpgradeService) infrastructureEvent(game *gametypes.Game, star *gametypes.Star, t gametypes.InfrastructureType) (*events.Event, error) {
	switch t {
	case gametypes.InfrastructureTypeEconomy:
		return events.New(game.ID, events.TypeStarEconomyUpgraded, events.StarEconomyUpgraded{
			StarID:         star.ID,
			Infrastructure: star.Infrastructure.Economy,
		})
	case gametypes.InfrastructureTypeIndustry:
		return events.New(game.ID, events.TypeStarIndustryUpgraded, events.StarIndustryUpgraded{
			StarID:         star.ID,
			Infrastructure: star.Infrastructure.Industry,
			Manufacturing:  star.Manufacturing,
		})
	case gametypes.InfrastructureTypeScience:
		return events.New(game.ID, events.TypeStarScienceUpgraded, events.StarScienceUpgraded{
			StarID:         star.ID,
			Infrastructure: star.Infrastructure.Science,
		})
	default:
		return nil, fmt.Errorf("unsupported infrastructure type: %s", t)
	}
}

// BulkUpgradeResult is returned by BulkUpgrade.
type BulkUpgradeResult struct {
	Stars    []events.BulkUpgradedStar
	Upgraded int
	Cost     int
}

// BulkUpgrade spends up to budget credits on the given infrastructure
// type, always buying the cheapest available upgrade next. The
// aggregate Upgraded count equals the sum of levels gained across the
// per-star deltas.
func (s *StarUpgradeService) BulkUpgrade(ctx context.Context, game *gametypes.Game, player *gametypes.Player, t gametypes.InfrastructureType, budget int) (*BulkUpgradeResult, *events.Event, error) {
	if budget <= 0 {
		return nil, nil, NewValidationError("The upgrade budget must be a positive amount of credits.")
	}

	if _, err := infrastructureBaseCost(t); err != nil {
		return nil, nil, err
	}

	if budget > player.Credits {
		budget = player.Credits
	}

	upgraded := 0
	spent := 0
	touched := make(map[string]*gametypes.Star)

	for {
		var cheapest *gametypes.Star
		cheapestCost := 0
		for _, star := range game.Galaxy.Stars {
			if star.OwnedByPlayerID != player.ID || star.IsDead() {
				continue
			}
			cost, err := s.UpgradeCost(game, star, t)
			if err != nil {
				return nil, nil, err
			}
			if cheapest == nil || cost < cheapestCost {
				cheapest = star
				cheapestCost = cost
			}
		}

		if cheapest == nil || spent+cheapestCost > budget {
			break
		}

		cheapest.SetInfrastructureLevel(t, cheapest.InfrastructureLevel(t)+1)
		cheapest.Manufacturing = s.Manufacturing(player, cheapest, cheapest.Infrastructure.Industry)
		touched[cheapest.ID] = cheapest
		spent += cheapestCost
		upgraded++
	}

	if upgraded == 0 {
		return nil, nil, NewValidationError("You cannot afford to upgrade any %s infrastructure.", t)
	}

	debitOp, err := s.ledger.Debit(player, gametypes.SpecialistCurrencyCredits, spent)
	if err != nil {
		return nil, nil, err
	}

	ops := []repositories.Op{debitOp}
	starDeltas := make([]events.BulkUpgradedStar, 0, len(touched))
	for _, star := range game.Galaxy.Stars {
		touchedStar, ok := touched[star.ID]
		if !ok {
			continue
		}
		ops = append(ops, repositories.SetStarInfrastructure{
			StarID:        touchedStar.ID,
			Type:          t,
			Level:         touchedStar.InfrastructureLevel(t),
			Manufacturing: touchedStar.Manufacturing,
		})
		nextCost, err := s.UpgradeCost(game, touchedStar, t)
		if err != nil {
			return nil, nil, err
		}
		starDeltas = append(starDeltas, events.BulkUpgradedStar{
			StarID:             touchedStar.ID,
			Infrastructure:     touchedStar.InfrastructureLevel(t),
			InfrastructureCost: nextCost,
			Manufacturing:      touchedStar.Manufacturing,
		})
	}

	if err := s.repository.AtomicBatch(ctx, game.ID, ops); err != nil {
		return nil, nil, err
	}

	s.applyInfrastructureStats(game, player, t, upgraded)
	s.achievements.InfrastructureBuilt(ctx, game, player, t, upgraded)

	ev, err := events.New(game.ID, events.TypeStarBulkUpgraded, events.StarBulkUpgraded{
		PlayerID:           player.ID,
		InfrastructureType: t,
		Stars:              starDeltas,
		Upgraded:           upgraded,
		Cost:               spent,
	})
	if err != nil {
		return nil, nil, err
	}

	return &BulkUpgradeResult{
		Stars:    starDeltas,
		Upgraded: upgraded,
		Cost:     spent,
	}, ev, nil
}

// WarpGateResult is returned by BuildWarpGate and DestroyWarpGate.
type WarpGateResult struct {
	Star *gametypes.Star
	Cost int
}

func (s *StarUpgradeService) BuildWarpGate(ctx context.Context, game *gametypes.Game, player *gametypes.Player, starID string) (*WarpGateResult, *events.Event, error) {
	star := game.PlayerStar(player.ID, starID)
	if star == nil {
		return nil, nil, NewValidationError("Cannot build a warp gate on a star that you do not own.")
	}

	if star.IsDead() {
		return nil, nil, NewValidationError("Cannot build a warp gate on a dead star.")
	}

	if star.WarpGate {
		return nil, nil, NewValidationError("The star already has a warp gate.")
	}

	cost, err := s.WarpGateCost(game, star)
	if err != nil {
		return nil, nil, err
	}

	if player.Credits < cost {
		return nil, nil, NewValidationError("You cannot afford to build a warp gate.")
	}

	debitOp, err := s.ledger.Debit(player, gametypes.SpecialistCurrencyCredits, cost)
	if err != nil {
		return nil, nil, err
	}

	star.WarpGate = true

	err = s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		debitOp,
		repositories.SetStarWarpGate{StarID: star.ID, WarpGate: true},
	})
	if err != nil {
		return nil, nil, err
	}

	if !game.IsTutorial() && !player.Defeated {
		player.Stats.WarpGates++
	}
	s.achievements.WarpGateBuilt(ctx, game, player)

	ev, err := events.New(game.ID, events.TypeStarWarpGateBuilt, events.StarWarpGateBuilt{StarID: star.ID})
	if err != nil {
		return nil, nil, err
	}

	return &WarpGateResult{Star: star, Cost: cost}, ev, nil
}

func (s *StarUpgradeService) DestroyWarpGate(ctx context.Context, game *gametypes.Game, player *gametypes.Player, starID string) (*WarpGateResult, *events.Event, error) {
	star := game.PlayerStar(player.ID, starID)
	if star == nil {
		return nil, nil, NewValidationError("Cannot destroy a warp gate on a star that you do not own.")
	}

	if !star.WarpGate {
		return nil, nil, NewValidationError("The star does not have a warp gate.")
	}

	star.WarpGate = false

	err := s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		repositories.SetStarWarpGate{StarID: star.ID, WarpGate: false},
	})
	if err != nil {
		return nil, nil, err
	}

	if !game.IsTutorial() && !player.Defeated && player.Stats.WarpGates > 0 {
		player.Stats.WarpGates--
	}

	ev, err := events.New(game.ID, events.TypeStarWarpGateDestroyed, events.StarWarpGateDestroyed{StarID: star.ID})
	if err != nil {
		return nil, nil, err
	}

	return &WarpGateResult{Star: star, Cost: 0}, ev, nil
}

// BuildCarrierResult is returned by BuildCarrier.
type BuildCarrierResult struct {
	Carrier      *gametypes.Carrier
	StarGarrison int
	Cost         int
}

func (s *StarUpgradeService) BuildCarrier(ctx context.Context, game *gametypes.Game, player *gametypes.Player, starID string, ships int) (*BuildCarrierResult, *events.Event, error) {
	star := game.PlayerStar(player.ID, starID)
	if star == nil {
		return nil, nil, NewValidationError("Cannot build a carrier at a star that you do not own.")
	}

	if star.IsDead() {
		return nil, nil, NewValidationError("Cannot build a carrier at a dead star.")
	}

	if ships < 1 {
		return nil, nil, NewValidationError("A carrier must be built with at least 1 ship.")
	}

	if star.Garrison < ships {
		return nil, nil, NewValidationError("The star does not have enough ships in its garrison.")
	}

	multiplier, err := expenseMultiplier(game.Settings.InfrastructureExpense)
	if err != nil {
		return nil, nil, err
	}
	cost := int(carrierBaseCost * multiplier)

	if player.Credits < cost {
		return nil, nil, NewValidationError("You cannot afford to build a carrier.")
	}

	debitOp, err := s.ledger.Debit(player, gametypes.SpecialistCurrencyCredits, cost)
	if err != nil {
		return nil, nil, err
	}

	carrier := &gametypes.Carrier{
		ID:              uuid.NewString(),
		Name:            fmt.Sprintf("%s %d", star.Name, len(game.CarriersOrbiting(star.ID))+1),
		OwnedByPlayerID: player.ID,
		OrbitingStarID:  star.ID,
		Position:        star.Position,
		Ships:           ships,
		Waypoints:       []gametypes.Waypoint{},
	}

	star.Garrison -= ships
	game.AddCarrier(carrier)

	err = s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		debitOp,
		repositories.InsertCarrier{Carrier: carrier},
		repositories.SetStarGarrison{StarID: star.ID, Garrison: star.Garrison},
	})
	if err != nil {
		return nil, nil, err
	}

	if !game.IsTutorial() && !player.Defeated {
		player.Stats.TotalCarriers++
	}
	s.achievements.CarrierBuilt(ctx, game, player)

	ev, err := events.New(game.ID, events.TypeStarCarrierBuilt, events.StarCarrierBuilt{
		Carrier:      *carrier,
		StarGarrison: star.Garrison,
	})
	if err != nil {
		return nil, nil, err
	}

	return &BuildCarrierResult{
		Carrier:      carrier,
		StarGarrison: star.Garrison,
		Cost:         cost,
	}, ev, nil
}

// AbandonStarResult is returned by AbandonStar.
type AbandonStarResult struct {
	Star            *gametypes.Star
	RemovedCarriers []string
}

// AbandonStar clears the star's owner and garrison and removes every
// carrier in orbit. Carriers are removed outright: a carrier can never
// exist without an owner.
func (s *StarUpgradeService) AbandonStar(ctx context.Context, game *gametypes.Game, player *gametypes.Player, starID string) (*AbandonStarResult, *events.Event, error) {
	star := game.PlayerStar(player.ID, starID)
	if star == nil {
		return nil, nil, NewValidationError("Cannot abandon a star that you do not own.")
	}

	orbiting := game.CarriersOrbiting(star.ID)

	ops := []repositories.Op{
		repositories.SetStarOwner{StarID: star.ID, OwnerPlayerID: ""},
		repositories.SetStarGarrison{StarID: star.ID, Garrison: 0},
	}
	removed := make([]string, 0, len(orbiting))
	for _, c := range orbiting {
		ops = append(ops, repositories.DeleteCarrier{CarrierID: c.ID})
		removed = append(removed, c.ID)
	}

	star.OwnedByPlayerID = ""
	star.Garrison = 0
	for _, id := range removed {
		game.RemoveCarrier(id)
	}

	if err := s.repository.AtomicBatch(ctx, game.ID, ops); err != nil {
		return nil, nil, err
	}

	if !game.IsTutorial() && !player.Defeated {
		player.Stats.TotalStars--
	}

	ev, err := events.New(game.ID, events.TypeStarAbandoned, events.StarAbandoned{StarID: star.ID})
	if err != nil {
		return nil, nil, err
	}

	return &AbandonStarResult{
		Star:            star,
		RemovedCarriers: removed,
	}, ev, nil
}
