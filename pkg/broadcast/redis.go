package broadcast

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/starfall-games/starfall/pkg/events"
	"github.com/starfall-games/starfall/pkg/log"
)

const redisChannelPrefix = "starfall:events:"

// RedisRelay mirrors a node's event stream over Redis pub/sub so that
// gateways on other nodes can serve subscribers for games they do not
// host. Relayed events keep the sequence assigned by the origin node.
type RedisRelay struct {
	client      *redis.Client
	broadcaster *Broadcaster
}

type NewRedisRelayOptions struct {
	Client      *redis.Client
	Broadcaster *Broadcaster
}

func NewRedisRelay(opts NewRedisRelayOptions) *RedisRelay {
	return &RedisRelay{
		client:      opts.Client,
		broadcaster: opts.Broadcaster,
	}
}

func channelFor(gameID string) string {
	return redisChannelPrefix + gameID
}

// Publish sends an already-sequenced event to the game's channel.
func (r *RedisRelay) Publish(ctx context.Context, ev *events.Event) error {
	b, err := events.Serialize(ev)
	if err != nil {
		return fmt.Errorf("failed to serialize event for relay: %w", err)
	}
	if err := r.client.Publish(ctx, channelFor(ev.GameID), b).Err(); err != nil {
		return fmt.Errorf("failed to publish event to redis: %w", err)
	}
	return nil
}

// Run consumes the game's channel and feeds events into the local
// broadcaster until the context is cancelled.
func (r *RedisRelay) Run(ctx context.Context, gameID string) error {
	pubsub := r.client.Subscribe(ctx, channelFor(gameID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription for game %s closed", gameID)
			}
			ev, err := events.Deserialize([]byte(msg.Payload))
			if err != nil {
				log.Error("Failed to deserialize relayed event for game %s: %v", gameID, err)
				continue
			}
			r.broadcaster.Deliver(ev)
		}
	}
}
