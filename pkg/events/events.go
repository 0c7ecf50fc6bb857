// Package events defines the closed catalog of game events and their
// wire form. Every committed mutation produces exactly one event with a
// minimal delta payload; clients never receive full galaxy snapshots
// over this channel.
package events

import (
	"encoding/json"
	"fmt"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
)

type Type string

const (
	TypePlayerJoined               Type = "playerJoined"
	TypePlayerQuit                 Type = "playerQuit"
	TypePlayerReady                Type = "playerReady"
	TypePlayerNotReady             Type = "playerNotReady"
	TypeStarEconomyUpgraded        Type = "starEconomyUpgraded"
	TypeStarIndustryUpgraded       Type = "starIndustryUpgraded"
	TypeStarScienceUpgraded        Type = "starScienceUpgraded"
	TypeStarBulkUpgraded           Type = "starBulkUpgraded"
	TypeStarWarpGateBuilt          Type = "starWarpGateBuilt"
	TypeStarWarpGateDestroyed      Type = "starWarpGateDestroyed"
	TypeStarCarrierBuilt           Type = "starCarrierBuilt"
	TypeStarCarrierShipTransferred Type = "starCarrierShipTransferred"
	TypeStarAbandoned              Type = "starAbandoned"
	TypePlayerDebtSettled          Type = "playerDebtSettled"
	TypeStarSpecialistHired        Type = "starSpecialistHired"
	TypeCarrierSpecialistHired     Type = "carrierSpecialistHired"
	TypeCarrierWaypointsSaved      Type = "carrierWaypointsSaved"
	TypeCarrierWaypointsCulled     Type = "carrierWaypointsCulled"
)

// Event is the envelope broadcast to subscribed clients. Seq is the
// monotonic per-game sequence assigned in commit order; mirrors use it
// to de-duplicate deliveries and to detect gaps.
type Event struct {
	GameID  string          `json:"gameId"`
	Seq     uint64          `json:"seq"`
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// New marshals the payload into an event envelope. Seq is assigned by
// the broadcaster at publish time.
func New(gameID string, eventType Type, payload interface{}) (*Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %v", eventType, err)
	}
	return &Event{
		GameID:  gameID,
		Type:    eventType,
		Payload: b,
	}, nil
}

type PlayerJoined struct {
	PlayerID string `json:"playerId"`
	Alias    string `json:"alias"`
	Avatar   string `json:"avatar"`
}

type PlayerQuit struct {
	PlayerID string `json:"playerId"`
}

type PlayerReady struct {
	PlayerID string `json:"playerId"`
}

type PlayerNotReady struct {
	PlayerID string `json:"playerId"`
}

type StarEconomyUpgraded struct {
	StarID         string `json:"starId"`
	Infrastructure int    `json:"infrastructure"`
}

type StarIndustryUpgraded struct {
	StarID         string  `json:"starId"`
	Infrastructure int     `json:"infrastructure"`
	Manufacturing  float64 `json:"manufacturing"`
}

type StarScienceUpgraded struct {
	StarID         string `json:"starId"`
	Infrastructure int    `json:"infrastructure"`
}

// StarBulkUpgraded carries one delta per upgraded star plus a single
// aggregate counter. Upgraded always equals the sum of the per-star
// contributions.
type StarBulkUpgraded struct {
	PlayerID           string                       `json:"playerId"`
	InfrastructureType gametypes.InfrastructureType `json:"infrastructureType"`
	Stars              []BulkUpgradedStar           `json:"stars"`
	Upgraded           int                          `json:"upgraded"`
	Cost               int                          `json:"cost"`
}

type BulkUpgradedStar struct {
	StarID             string  `json:"starId"`
	Infrastructure     int     `json:"infrastructure"`
	InfrastructureCost int     `json:"infrastructureCost"`
	Manufacturing      float64 `json:"manufacturing"`
}

type StarWarpGateBuilt struct {
	StarID string `json:"starId"`
}

type StarWarpGateDestroyed struct {
	StarID string `json:"starId"`
}

// StarCarrierBuilt is the only event carrying a full entity: the new
// carrier does not exist on mirrors yet.
type StarCarrierBuilt struct {
	Carrier      gametypes.Carrier `json:"carrier"`
	StarGarrison int               `json:"starGarrison"`
}

type StarCarrierShipTransferred struct {
	StarID       string `json:"starId"`
	CarrierID    string `json:"carrierId"`
	StarShips    int    `json:"starShips"`
	CarrierShips int    `json:"carrierShips"`
}

type StarAbandoned struct {
	StarID string `json:"starId"`
}

type PlayerDebtSettled struct {
	CreditorPlayerID string                       `json:"creditorPlayerId"`
	DebtorPlayerID   string                       `json:"debtorPlayerId"`
	Amount           int                          `json:"amount"`
	Currency         gametypes.SpecialistCurrency `json:"currency"`
}

// StarSpecialistHired carries the star's recomputed manufacturing,
// which a specialist modifier can change.
type StarSpecialistHired struct {
	StarID        string               `json:"starId"`
	Specialist    gametypes.Specialist `json:"specialist"`
	Manufacturing float64              `json:"manufacturing"`
}

// CarrierSpecialistHired includes the carrier's post-cull waypoints so
// mirrors stay consistent without a second round trip.
type CarrierSpecialistHired struct {
	CarrierID  string               `json:"carrierId"`
	Specialist gametypes.Specialist `json:"specialist"`
	Waypoints  []gametypes.Waypoint `json:"waypoints"`
}

// CarrierWaypointsSaved is a player-submitted route replacement.
type CarrierWaypointsSaved struct {
	CarrierID string               `json:"carrierId"`
	Waypoints []gametypes.Waypoint `json:"waypoints"`
}

// CarrierWaypointsCulled is a server-initiated prune of waypoints that
// fell out of the carrier's hyperspace range.
type CarrierWaypointsCulled struct {
	CarrierID string               `json:"carrierId"`
	Waypoints []gametypes.Waypoint `json:"waypoints"`
}
