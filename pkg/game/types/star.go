package types

// Star is a fixed galaxy body. An empty OwnedByPlayerID means the star
// is unowned or abandoned.
type Star struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	OwnedByPlayerID  string         `json:"ownedByPlayerId"`
	Position         Position       `json:"position"`
	NaturalResources float64        `json:"naturalResources"`
	Infrastructure   Infrastructure `json:"infrastructure"`
	Manufacturing    float64        `json:"manufacturing"`
	Garrison         int            `json:"garrison"`
	SpecialistID     int            `json:"specialistId"`
	WarpGate         bool           `json:"warpGate"`
	UpgradeCosts     *UpgradeCosts  `json:"upgradeCosts,omitempty"`
}

type Infrastructure struct {
	Economy  int `json:"economy"`
	Industry int `json:"industry"`
	Science  int `json:"science"`
}

// UpgradeCosts is a cached view of the next upgrade price per
// infrastructure type, refreshed by upgrade events.
type UpgradeCosts struct {
	Economy  int `json:"economy"`
	Industry int `json:"industry"`
	Science  int `json:"science"`
	WarpGate int `json:"warpGate"`
}

// IsDead reports whether the star has no natural resources. Dead stars
// cannot host specialists or infrastructure.
func (s *Star) IsDead() bool {
	return s.NaturalResources <= 0
}

// InfrastructureLevel returns the current level of one infrastructure type.
func (s *Star) InfrastructureLevel(t InfrastructureType) int {
	switch t {
	case InfrastructureTypeEconomy:
		return s.Infrastructure.Economy
	case InfrastructureTypeIndustry:
		return s.Infrastructure.Industry
	case InfrastructureTypeScience:
		return s.Infrastructure.Science
	}
	return 0
}

// SetInfrastructureLevel sets the level of one infrastructure type.
func (s *Star) SetInfrastructureLevel(t InfrastructureType, level int) {
	switch t {
	case InfrastructureTypeEconomy:
		s.Infrastructure.Economy = level
	case InfrastructureTypeIndustry:
		s.Infrastructure.Industry = level
	case InfrastructureTypeScience:
		s.Infrastructure.Science = level
	}
}
