package specialists

import (
	"testing"

	"github.com/starfall-games/starfall/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(mode types.SpecialistCostMode) *types.Game {
	return &types.Game{
		ID: "game-1",
		Settings: types.Settings{
			SpecialistCost: mode,
		},
	}
}

func TestCatalog_ActualCost(t *testing.T) {
	catalog := NewCatalog()
	foreman := catalog.GetByIDStar(2)
	require.NotNil(t, foreman)

	tests := []struct {
		name                   string
		mode                   types.SpecialistCostMode
		wantCredits            int
		wantCreditsSpecialists int
		wantErr                bool
	}{
		{
			name:                   "standard",
			mode:                   types.SpecialistCostStandard,
			wantCredits:            40,
			wantCreditsSpecialists: 2,
		},
		{
			name:                   "expensive",
			mode:                   types.SpecialistCostExpensive,
			wantCredits:            80,
			wantCreditsSpecialists: 4,
		},
		{
			name:                   "very expensive",
			mode:                   types.SpecialistCostVeryExpensive,
			wantCredits:            160,
			wantCreditsSpecialists: 8,
		},
		{
			name:                   "crazy expensive",
			mode:                   types.SpecialistCostCrazyExpensive,
			wantCredits:            320,
			wantCreditsSpecialists: 16,
		},
		{
			name:    "none is not a price",
			mode:    types.SpecialistCostNone,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost, err := catalog.ActualCost(newTestGame(tt.mode), foreman)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCredits, cost.Credits)
			assert.Equal(t, tt.wantCreditsSpecialists, cost.CreditsSpecialists)
		})
	}
}

func TestCatalog_Bans(t *testing.T) {
	catalog := NewCatalog()
	game := newTestGame(types.SpecialistCostStandard)
	game.Settings.SpecialistBans = types.SpecialistBans{
		Star:    []int{2},
		Carrier: []int{1, 3},
	}

	assert.True(t, catalog.IsStarBanned(game, 2))
	assert.False(t, catalog.IsStarBanned(game, 1))
	assert.True(t, catalog.IsCarrierBanned(game, 3))

	stars := catalog.ListStar(game)
	for _, s := range stars {
		assert.NotEqual(t, 2, s.ID)
	}
	carriers := catalog.ListCarrier(game)
	assert.Len(t, carriers, 2)
}

func TestCatalog_Lookup(t *testing.T) {
	catalog := NewCatalog()

	assert.Nil(t, catalog.GetByIDStar(99))
	assert.Nil(t, catalog.GetByIDCarrier(99))

	// Star and carrier ids are separate namespaces.
	star := catalog.GetByIDStar(1)
	carrier := catalog.GetByIDCarrier(1)
	require.NotNil(t, star)
	require.NotNil(t, carrier)
	assert.NotEqual(t, star.Name, carrier.Name)
}
