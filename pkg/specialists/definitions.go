package specialists

import "github.com/starfall-games/starfall/pkg/game/types"

var starSpecialists = []types.Specialist{
	{
		ID:          1,
		Name:        "Surveyor",
		Description: "Improves the star's scanning reach.",
		Scope:       types.SpecialistScopeStar,
		Cost:        types.SpecialistCost{Credits: 25, CreditsSpecialists: 1},
		Modifiers:   types.SpecialistModifiers{Scanning: 1},
	},
	{
		ID:          2,
		Name:        "Foreman",
		Description: "Boosts manufacturing output at the star.",
		Scope:       types.SpecialistScopeStar,
		Cost:        types.SpecialistCost{Credits: 40, CreditsSpecialists: 2},
		Modifiers:   types.SpecialistModifiers{Manufacturing: 1},
	},
	{
		ID:          3,
		Name:        "Warden",
		Description: "Strengthens the garrison's weapons in defence.",
		Scope:       types.SpecialistScopeStar,
		Cost:        types.SpecialistCost{Credits: 60, CreditsSpecialists: 3},
		Modifiers:   types.SpecialistModifiers{Weapons: 2},
	},
	{
		ID:          4,
		Name:        "Demolition Rig",
		Description: "Single-use charge. Cannot be replaced once placed.",
		Scope:       types.SpecialistScopeStar,
		Cost:        types.SpecialistCost{Credits: 100, CreditsSpecialists: 5},
		OneShot:     true,
	},
}

var carrierSpecialists = []types.Specialist{
	{
		ID:          1,
		Name:        "Navigator",
		Description: "Extends the carrier's hyperspace range.",
		Scope:       types.SpecialistScopeCarrier,
		Cost:        types.SpecialistCost{Credits: 25, CreditsSpecialists: 1},
		Modifiers:   types.SpecialistModifiers{Hyperspace: 1},
	},
	{
		ID:          2,
		Name:        "Pathfinder",
		Description: "Greatly extends the carrier's hyperspace range.",
		Scope:       types.SpecialistScopeCarrier,
		Cost:        types.SpecialistCost{Credits: 50, CreditsSpecialists: 3},
		Modifiers:   types.SpecialistModifiers{Hyperspace: 3},
	},
	{
		ID:          3,
		Name:        "Raider",
		Description: "Improves the carrier's weapons at the cost of range.",
		Scope:       types.SpecialistScopeCarrier,
		Cost:        types.SpecialistCost{Credits: 40, CreditsSpecialists: 2},
		Modifiers:   types.SpecialistModifiers{Weapons: 2, Hyperspace: -1},
	},
	{
		ID:          4,
		Name:        "Fire Ship",
		Description: "Single-use payload. Cannot be replaced once armed.",
		Scope:       types.SpecialistScopeCarrier,
		Cost:        types.SpecialistCost{Credits: 80, CreditsSpecialists: 4},
		OneShot:     true,
	},
}
