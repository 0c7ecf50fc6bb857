package network

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeMessage(t *testing.T) {
	msg, err := NewMessage(MessageTypeClientSubscribe, ClientSubscribe{
		GameID: "game-1",
		UserID: "user-1",
	})
	require.NoError(t, err)

	b, err := SerializeMessage(msg)
	require.NoError(t, err)

	got, err := DeserializeMessage(b)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeClientSubscribe, got.Type)

	subscribe := ClientSubscribe{}
	require.NoError(t, json.Unmarshal(got.Payload, &subscribe))
	assert.Equal(t, "game-1", subscribe.GameID)
	assert.Equal(t, "user-1", subscribe.UserID)
}

func TestDeserializeMessageRejectsGarbage(t *testing.T) {
	_, err := DeserializeMessage([]byte("not a zstd frame"))
	assert.Error(t, err)
}
