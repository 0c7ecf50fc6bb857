package services

import (
	"context"

	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/repositories"
	"github.com/starfall-games/starfall/pkg/specialists"
)

const (
	// lightYear converts a hyperspace level into galaxy distance.
	lightYear = 50.0
	// baseHyperspaceBonus is added to every carrier's effective level.
	baseHyperspaceBonus = 1.5
)

// WaypointService manages carrier routes and the hyperspace-range
// dependent culling cascade.
type WaypointService struct {
	catalog    *specialists.Catalog
	repository repositories.GameRepository
}

type NewWaypointServiceOptions struct {
	Catalog    *specialists.Catalog
	Repository repositories.GameRepository
}

func NewWaypointService(opts NewWaypointServiceOptions) *WaypointService {
	return &WaypointService{
		catalog:    opts.Catalog,
		repository: opts.Repository,
	}
}

// HyperspaceRange computes the carrier's maximum jump distance from the
// owner's research level and the carrier specialist's modifier.
func (s *WaypointService) HyperspaceRange(player *gametypes.Player, carrier *gametypes.Carrier) float64 {
	level := player.Research.Hyperspace
	if carrier.SpecialistID != 0 {
		if spec := s.catalog.GetByIDCarrier(carrier.SpecialistID); spec != nil {
			level += spec.Modifiers.Hyperspace
		}
	}
	if level < 1 {
		level = 1
	}
	return (float64(level) + baseHyperspaceBonus) * lightYear
}

// CullWaypointsByHyperspaceRange removes waypoints whose destination is
// out of range from the carrier's current position, preserving the
// relative order of the remainder. It persists the pruned list only
// when something was removed, and returns the resulting list.
func (s *WaypointService) CullWaypointsByHyperspaceRange(ctx context.Context, game *gametypes.Game, player *gametypes.Player, carrier *gametypes.Carrier) ([]gametypes.Waypoint, error) {
	hyperspaceRange := s.HyperspaceRange(player, carrier)

	culled := make([]gametypes.Waypoint, 0, len(carrier.Waypoints))
	for _, wp := range carrier.Waypoints {
		destination := game.Star(wp.Destination)
		if destination == nil {
			continue
		}
		if gametypes.Distance(carrier.Position, destination.Position) <= hyperspaceRange {
			culled = append(culled, wp)
		}
	}

	if len(culled) == len(carrier.Waypoints) {
		return carrier.Waypoints, nil
	}

	carrier.Waypoints = culled

	err := s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		repositories.SetCarrierWaypoints{CarrierID: carrier.ID, Waypoints: culled},
	})
	if err != nil {
		return nil, err
	}

	return culled, nil
}

// SaveWaypointsResult is returned by SaveWaypoints.
type SaveWaypointsResult struct {
	Carrier   *gametypes.Carrier
	Waypoints []gametypes.Waypoint
}

// SaveWaypoints validates and replaces a carrier's route. Every leg
// must reference an existing star and be reachable within the carrier's
// hyperspace range.
func (s *WaypointService) SaveWaypoints(ctx context.Context, game *gametypes.Game, player *gametypes.Player, carrierID string, waypoints []gametypes.Waypoint) (*SaveWaypointsResult, *events.Event, error) {
	carrier := game.PlayerCarrier(player.ID, carrierID)
	if carrier == nil {
		return nil, nil, NewValidationError("Cannot set waypoints on a carrier that you do not own.")
	}

	hyperspaceRange := s.HyperspaceRange(player, carrier)

	for _, wp := range waypoints {
		source := game.Star(wp.Source)
		destination := game.Star(wp.Destination)
		if source == nil || destination == nil {
			return nil, nil, NewValidationError("Waypoint references a star that does not exist.")
		}
		if gametypes.Distance(source.Position, destination.Position) > hyperspaceRange {
			return nil, nil, NewValidationError("Waypoint destination %s is out of hyperspace range.", destination.Name)
		}
	}

	carrier.Waypoints = waypoints

	err := s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		repositories.SetCarrierWaypoints{CarrierID: carrier.ID, Waypoints: waypoints},
	})
	if err != nil {
		return nil, nil, err
	}

	ev, err := events.New(game.ID, events.TypeCarrierWaypointsSaved, events.CarrierWaypointsSaved{
		CarrierID: carrier.ID,
		Waypoints: waypoints,
	})
	if err != nil {
		return nil, nil, err
	}

	return &SaveWaypointsResult{
		Carrier:   carrier,
		Waypoints: waypoints,
	}, ev, nil
}
