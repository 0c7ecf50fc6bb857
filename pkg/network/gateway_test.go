package network

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/starfall-games/starfall/pkg/broadcast"
	"github.com/stretchr/testify/assert"
)

func TestGateway_EnsureRelay(t *testing.T) {
	t.Run("starts one consumer per game", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		broadcaster := broadcast.NewBroadcaster(broadcast.NewBroadcasterOptions{})
		relay := broadcast.NewRedisRelay(broadcast.NewRedisRelayOptions{
			Client:      redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}),
			Broadcaster: broadcaster,
		})
		gateway := NewGateway(NewGatewayOptions{
			Port:        0,
			Broadcaster: broadcaster,
			Relay:       relay,
		})

		gateway.ensureRelay(ctx, "game-1")
		gateway.ensureRelay(ctx, "game-1")
		gateway.ensureRelay(ctx, "game-2")

		gateway.relayMu.Lock()
		defer gateway.relayMu.Unlock()
		assert.Len(t, gateway.relayGames, 2)
	})

	t.Run("is a no-op without a relay", func(t *testing.T) {
		gateway := NewGateway(NewGatewayOptions{
			Port:        0,
			Broadcaster: broadcast.NewBroadcaster(broadcast.NewBroadcasterOptions{}),
		})

		gateway.ensureRelay(context.Background(), "game-1")
		assert.Empty(t, gateway.relayGames)
	})
}
