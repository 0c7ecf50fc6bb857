package specialists

import (
	"fmt"

	"github.com/starfall-games/starfall/pkg/game/types"
)

// Catalog is the static, read-only specialist registry. Definitions are
// shared by every game; per-game bans and cost modes are applied on top
// of it at lookup time.
type Catalog struct {
	star    []types.Specialist
	carrier []types.Specialist
}

// NewCatalog returns the default catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		star:    starSpecialists,
		carrier: carrierSpecialists,
	}
}

// GetByIDStar returns the star specialist with the given id, or nil.
func (c *Catalog) GetByIDStar(id int) *types.Specialist {
	return lookup(c.star, id)
}

// GetByIDCarrier returns the carrier specialist with the given id, or nil.
func (c *Catalog) GetByIDCarrier(id int) *types.Specialist {
	return lookup(c.carrier, id)
}

// ListStar returns all star specialists that are not banned in the game.
func (c *Catalog) ListStar(game *types.Game) []types.Specialist {
	return filterBanned(c.star, game.Settings.SpecialistBans.Star)
}

// ListCarrier returns all carrier specialists that are not banned in the game.
func (c *Catalog) ListCarrier(game *types.Game) []types.Specialist {
	return filterBanned(c.carrier, game.Settings.SpecialistBans.Carrier)
}

// IsStarBanned reports whether the star specialist id is banned in the game.
func (c *Catalog) IsStarBanned(game *types.Game, specialistID int) bool {
	return contains(game.Settings.SpecialistBans.Star, specialistID)
}

// IsCarrierBanned reports whether the carrier specialist id is banned in the game.
func (c *Catalog) IsCarrierBanned(game *types.Game, specialistID int) bool {
	return contains(game.Settings.SpecialistBans.Carrier, specialistID)
}

// ActualCost returns the specialist's price under the game's cost mode.
// An unknown cost mode is a configuration defect, not a validation error.
func (c *Catalog) ActualCost(game *types.Game, spec *types.Specialist) (types.SpecialistCost, error) {
	multiplier, err := costMultiplier(game.Settings.SpecialistCost)
	if err != nil {
		return types.SpecialistCost{}, err
	}
	return types.SpecialistCost{
		Credits:            spec.Cost.Credits * multiplier,
		CreditsSpecialists: spec.Cost.CreditsSpecialists * multiplier,
	}, nil
}

func costMultiplier(mode types.SpecialistCostMode) (int, error) {
	switch mode {
	case types.SpecialistCostStandard:
		return 1, nil
	case types.SpecialistCostExpensive:
		return 2, nil
	case types.SpecialistCostVeryExpensive:
		return 4, nil
	case types.SpecialistCostCrazyExpensive:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported specialist cost mode: %s", mode)
	}
}

func lookup(specs []types.Specialist, id int) *types.Specialist {
	for i := range specs {
		if specs[i].ID == id {
			return &specs[i]
		}
	}
	return nil
}

func filterBanned(specs []types.Specialist, bans []int) []types.Specialist {
	out := make([]types.Specialist, 0, len(specs))
	for _, s := range specs {
		if !contains(bans, s.ID) {
			out = append(out, s)
		}
	}
	return out
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
