package services

import (
	"context"

	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/repositories"
)

// ShipTransferService moves ships between a star garrison and a carrier
// in orbit of it. The combined total is always conserved.
type ShipTransferService struct {
	repository repositories.GameRepository
}

type NewShipTransferServiceOptions struct {
	Repository repositories.GameRepository
}

func NewShipTransferService(opts NewShipTransferServiceOptions) *ShipTransferService {
	return &ShipTransferService{
		repository: opts.Repository,
	}
}

// ShipTransferResult is returned by TransferShips.
type ShipTransferResult struct {
	Star    *gametypes.Star
	Carrier *gametypes.Carrier
}

// TransferShips sets the carrier to carrierShips and the star garrison
// to starShips. The caller states both sides explicitly; the service
// rejects any split that creates or destroys ships.
func (s *ShipTransferService) TransferShips(ctx context.Context, game *gametypes.Game, player *gametypes.Player, carrierID string, carrierShips, starShips int) (*ShipTransferResult, *events.Event, error) {
	carrier := game.PlayerCarrier(player.ID, carrierID)
	if carrier == nil {
		return nil, nil, NewValidationError("Cannot transfer ships to a carrier that you do not own.")
	}

	if carrier.InTransit() {
		return nil, nil, NewValidationError("Cannot transfer ships to a carrier in transit.")
	}

	star := game.PlayerStar(player.ID, carrier.OrbitingStarID)
	if star == nil {
		return nil, nil, NewValidationError("Cannot transfer ships at a star that you do not own.")
	}

	if carrierShips < 1 {
		return nil, nil, NewValidationError("A carrier must keep at least 1 ship.")
	}

	if starShips < 0 {
		return nil, nil, NewValidationError("A star garrison cannot be negative.")
	}

	if carrierShips+starShips != carrier.Ships+star.Garrison {
		return nil, nil, NewValidationError("The ship transfer does not conserve the total number of ships.")
	}

	carrier.Ships = carrierShips
	star.Garrison = starShips

	err := s.repository.AtomicBatch(ctx, game.ID, []repositories.Op{
		repositories.SetCarrierShips{CarrierID: carrier.ID, Ships: carrierShips},
		repositories.SetStarGarrison{StarID: star.ID, Garrison: starShips},
	})
	if err != nil {
		return nil, nil, err
	}

	ev, err := events.New(game.ID, events.TypeStarCarrierShipTransferred, events.StarCarrierShipTransferred{
		StarID:       star.ID,
		CarrierID:    carrier.ID,
		StarShips:    starShips,
		CarrierShips: carrierShips,
	})
	if err != nil {
		return nil, nil, err
	}

	return &ShipTransferResult{Star: star, Carrier: carrier}, ev, nil
}
