package repositories

import gametypes "github.com/starfall-games/starfall/pkg/game/types"

// Op is one typed write in an atomic batch. Each variant names the
// entity and the exact fields it sets; there are no string field paths.
type Op interface {
	isOp()
}

type SetPlayerCredits struct {
	PlayerID string
	Credits  int
}

type SetPlayerCreditsSpecialists struct {
	PlayerID           string
	CreditsSpecialists int
}

type SetPlayerReady struct {
	PlayerID string
	Ready    bool
}

type SetPlayerDefeated struct {
	PlayerID string
	Defeated bool
}

// SetPlayerSlot claims or releases a player slot.
type SetPlayerSlot struct {
	PlayerID    string
	UserID      string
	Alias       string
	Avatar      string
	IsEmptySlot bool
}

type SetStarSpecialist struct {
	StarID       string
	SpecialistID int
}

type SetStarInfrastructure struct {
	StarID        string
	Type          gametypes.InfrastructureType
	Level         int
	Manufacturing float64
}

type SetStarWarpGate struct {
	StarID   string
	WarpGate bool
}

type SetStarGarrison struct {
	StarID   string
	Garrison int
}

type SetStarOwner struct {
	StarID string
	// OwnerPlayerID empty means unowned.
	OwnerPlayerID string
}

type SetCarrierSpecialist struct {
	CarrierID    string
	SpecialistID int
}

type SetCarrierShips struct {
	CarrierID string
	Ships     int
}

type SetCarrierWaypoints struct {
	CarrierID string
	Waypoints []gametypes.Waypoint
}

type InsertCarrier struct {
	Carrier *gametypes.Carrier
}

type DeleteCarrier struct {
	CarrierID string
}

func (SetPlayerCredits) isOp()            {}
func (SetPlayerCreditsSpecialists) isOp() {}
func (SetPlayerReady) isOp()              {}
func (SetPlayerDefeated) isOp()           {}
func (SetPlayerSlot) isOp()               {}
func (SetStarSpecialist) isOp()           {}
func (SetStarInfrastructure) isOp()       {}
func (SetStarWarpGate) isOp()             {}
func (SetStarGarrison) isOp()             {}
func (SetStarOwner) isOp()                {}
func (SetCarrierSpecialist) isOp()        {}
func (SetCarrierShips) isOp()             {}
func (SetCarrierWaypoints) isOp()         {}
func (InsertCarrier) isOp()               {}
func (DeleteCarrier) isOp()               {}
