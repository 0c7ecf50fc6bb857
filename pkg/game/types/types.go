package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// Game is the in-memory working copy of a single game instance. The
// authoritative durable copy lives behind the repository; the engine
// holds exactly one of these per active game.
type Game struct {
	ID       string    `json:"id"`
	Settings Settings  `json:"settings"`
	Galaxy   Galaxy    `json:"galaxy"`
	Players  []*Player `json:"players"`
}

type Galaxy struct {
	Stars    []*Star    `json:"stars"`
	Carriers []*Carrier `json:"carriers"`
}

// Settings holds the per-game rules that mutation validation reads.
type Settings struct {
	Type                  GameType              `json:"type"`
	SpecialistsCurrency   SpecialistCurrency    `json:"specialistsCurrency"`
	SpecialistCost        SpecialistCostMode    `json:"specialistCost"`
	SpecialistBans        SpecialistBans        `json:"specialistBans"`
	InfrastructureExpense InfrastructureExpense `json:"infrastructureExpense"`
}

type GameType string

const (
	GameTypeStandard GameType = "standard"
	GameTypeTutorial GameType = "tutorial"
)

// SpecialistCurrency selects which player balance specialists are paid from.
type SpecialistCurrency string

const (
	SpecialistCurrencyCredits            SpecialistCurrency = "credits"
	SpecialistCurrencyCreditsSpecialists SpecialistCurrency = "creditsSpecialists"
)

// SpecialistCostMode scales specialist prices. "none" disables hiring.
type SpecialistCostMode string

const (
	SpecialistCostNone           SpecialistCostMode = "none"
	SpecialistCostStandard       SpecialistCostMode = "standard"
	SpecialistCostExpensive      SpecialistCostMode = "expensive"
	SpecialistCostVeryExpensive  SpecialistCostMode = "veryExpensive"
	SpecialistCostCrazyExpensive SpecialistCostMode = "crazyExpensive"
)

type SpecialistBans struct {
	Star    []int `json:"star"`
	Carrier []int `json:"carrier"`
}

// InfrastructureExpense scales star infrastructure upgrade costs.
type InfrastructureExpense string

const (
	InfrastructureExpenseCheap          InfrastructureExpense = "cheap"
	InfrastructureExpenseStandard       InfrastructureExpense = "standard"
	InfrastructureExpenseExpensive      InfrastructureExpense = "expensive"
	InfrastructureExpenseVeryExpensive  InfrastructureExpense = "veryExpensive"
	InfrastructureExpenseCrazyExpensive InfrastructureExpense = "crazyExpensive"
)

type InfrastructureType string

const (
	InfrastructureTypeEconomy  InfrastructureType = "economy"
	InfrastructureTypeIndustry InfrastructureType = "industry"
	InfrastructureTypeScience  InfrastructureType = "science"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Star looks up a star by id, or nil.
func (g *Game) Star(id string) *Star {
	for _, s := range g.Galaxy.Stars {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Carrier looks up a carrier by id, or nil.
func (g *Game) Carrier(id string) *Carrier {
	for _, c := range g.Galaxy.Carriers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Player looks up a player by id, or nil.
func (g *Game) Player(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerByUserID looks up the player controlling a slot for the user,
// or nil.
func (g *Game) PlayerByUserID(userID string) *Player {
	for _, p := range g.Players {
		if p.UserID == userID && !p.IsEmptySlot {
			return p
		}
	}
	return nil
}

// PlayerStar returns the star only when it is owned by the given player.
func (g *Game) PlayerStar(playerID, starID string) *Star {
	s := g.Star(starID)
	if s == nil || s.OwnedByPlayerID != playerID {
		return nil
	}
	return s
}

// PlayerCarrier returns the carrier only when it is owned by the given player.
func (g *Game) PlayerCarrier(playerID, carrierID string) *Carrier {
	c := g.Carrier(carrierID)
	if c == nil || c.OwnedByPlayerID != playerID {
		return nil
	}
	return c
}

// CarriersOrbiting returns all carriers currently in orbit of the star.
func (g *Game) CarriersOrbiting(starID string) []*Carrier {
	var orbiting []*Carrier
	for _, c := range g.Galaxy.Carriers {
		if c.OrbitingStarID == starID {
			orbiting = append(orbiting, c)
		}
	}
	return orbiting
}

// AddCarrier appends a new carrier to the galaxy.
func (g *Game) AddCarrier(c *Carrier) {
	g.Galaxy.Carriers = append(g.Galaxy.Carriers, c)
}

// RemoveCarrier deletes a carrier from the galaxy, preserving order.
func (g *Game) RemoveCarrier(id string) {
	carriers := g.Galaxy.Carriers[:0]
	for _, c := range g.Galaxy.Carriers {
		if c.ID != id {
			carriers = append(carriers, c)
		}
	}
	g.Galaxy.Carriers = carriers
}

// IsTutorial reports whether the game is excluded from stat and
// achievement accounting.
func (g *Game) IsTutorial() bool {
	return g.Settings.Type == GameTypeTutorial
}

// Clone returns a deep copy of the game, used to hand snapshots to
// readers without exposing the engine's working copy.
func (g *Game) Clone() (*Game, error) {
	b, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game: %v", err)
	}
	clone := &Game{}
	if err := json.Unmarshal(b, clone); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %v", err)
	}
	return clone, nil
}

// Round2 rounds to two decimal places, half away from zero. The server
// and every client mirror must use this same rule or incremental stats
// drift.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Distance is the euclidean distance between two galaxy positions.
func Distance(a, b Position) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}
