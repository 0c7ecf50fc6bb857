package types

// Player is a participant in one game. Players are never deleted
// mid-game, only marked defeated or reverted to an empty slot.
type Player struct {
	ID                 string   `json:"id"`
	UserID             string   `json:"userId"`
	Alias              string   `json:"alias"`
	Avatar             string   `json:"avatar"`
	Credits            int      `json:"credits"`
	CreditsSpecialists int      `json:"creditsSpecialists"`
	Defeated           bool     `json:"defeated"`
	AFK                bool     `json:"afk"`
	Ready              bool     `json:"ready"`
	IsEmptySlot        bool     `json:"isEmptySlot"`
	Research           Research `json:"research"`
	Stats              Stats    `json:"stats"`
}

// Research levels feed derived values (hyperspace range, manufacturing).
type Research struct {
	Hyperspace    int `json:"hyperspace"`
	Manufacturing int `json:"manufacturing"`
}

// Stats are incremental counters. They are only ever mutated by deltas
// carried on events, never recomputed from the galaxy.
type Stats struct {
	TotalEconomy     int     `json:"totalEconomy"`
	TotalIndustry    int     `json:"totalIndustry"`
	TotalScience     int     `json:"totalScience"`
	TotalCarriers    int     `json:"totalCarriers"`
	TotalStars       int     `json:"totalStars"`
	NewShips         float64 `json:"newShips"`
	SpecialistsHired int     `json:"specialistsHired"`
	WarpGates        int     `json:"warpGates"`
	CreditsSent      int     `json:"creditsSent"`
	CreditsReceived  int     `json:"creditsReceived"`
}

// Balance returns the player's balance in the given currency.
func (p *Player) Balance(currency SpecialistCurrency) int {
	if currency == SpecialistCurrencyCreditsSpecialists {
		return p.CreditsSpecialists
	}
	return p.Credits
}
