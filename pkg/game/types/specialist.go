package types

// SpecialistScope is the entity kind a specialist attaches to.
type SpecialistScope string

const (
	SpecialistScopeStar    SpecialistScope = "star"
	SpecialistScopeCarrier SpecialistScope = "carrier"
)

// Specialist is a static, read-only definition from the catalog.
type Specialist struct {
	ID          int                 `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Scope       SpecialistScope     `json:"scope"`
	Cost        SpecialistCost      `json:"cost"`
	OneShot     bool                `json:"oneShot"`
	Modifiers   SpecialistModifiers `json:"modifiers"`
}

// SpecialistCost is the base price in both currencies. The effective
// price is scaled by the game's cost mode.
type SpecialistCost struct {
	Credits            int `json:"credits"`
	CreditsSpecialists int `json:"creditsSpecialists"`
}

// SpecialistModifiers are additive deltas applied while the specialist
// is assigned.
type SpecialistModifiers struct {
	Hyperspace    int `json:"hyperspace"`
	Manufacturing int `json:"manufacturing"`
	Scanning      int `json:"scanning"`
	Weapons       int `json:"weapons"`
}
