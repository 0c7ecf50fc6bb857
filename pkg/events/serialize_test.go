package events

import (
	"encoding/json"
	"testing"

	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeEvent(t *testing.T) {
	ev, err := New("game-1", TypeStarIndustryUpgraded, StarIndustryUpgraded{
		StarID:         "star-1",
		Infrastructure: 5,
		Manufacturing:  5.0,
	})
	require.NoError(t, err)
	ev.Seq = 42

	b, err := Serialize(ev)
	require.NoError(t, err)

	got, err := Deserialize(b)
	require.NoError(t, err)

	assert.Equal(t, ev.GameID, got.GameID)
	assert.Equal(t, ev.Seq, got.Seq)
	assert.Equal(t, ev.Type, got.Type)

	payload := StarIndustryUpgraded{}
	require.NoError(t, json.Unmarshal(got.Payload, &payload))
	assert.Equal(t, "star-1", payload.StarID)
	assert.Equal(t, 5, payload.Infrastructure)
	assert.Equal(t, 5.0, payload.Manufacturing)
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	_, err := Deserialize([]byte("not a zstd frame"))
	assert.Error(t, err)
}

func TestEventPayloadFieldNames(t *testing.T) {
	// Mirrors depend on the exact wire field names.
	ev, err := New("game-1", TypeCarrierSpecialistHired, CarrierSpecialistHired{
		CarrierID:  "carrier-1",
		Specialist: gametypes.Specialist{ID: 3, Name: "Raider"},
		Waypoints:  []gametypes.Waypoint{},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"carrierId": "carrier-1",
		"specialist": {
			"id": 3,
			"name": "Raider",
			"description": "",
			"scope": "",
			"cost": {"credits": 0, "creditsSpecialists": 0},
			"oneShot": false,
			"modifiers": {"hyperspace": 0, "manufacturing": 0, "scanning": 0, "weapons": 0}
		},
		"waypoints": []
	}`, string(ev.Payload))
}
