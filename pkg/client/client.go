// Package client is a headless game client: it subscribes to a game's
// event stream over the gateway and keeps a mirror of the game state.
// On a desync it reconnects and resumes from a fresh snapshot.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/starfall-games/starfall/pkg/events"
	gametypes "github.com/starfall-games/starfall/pkg/game/types"
	"github.com/starfall-games/starfall/pkg/log"
	"github.com/starfall-games/starfall/pkg/mirror"
	"github.com/starfall-games/starfall/pkg/network"
	"nhooyr.io/websocket"
)

const reconnectDelay = 2 * time.Second

// GameClient mirrors one game.
type GameClient struct {
	gatewayURL string
	gameID     string
	userID     string

	mu     sync.RWMutex
	mirror *mirror.Mirror
}

type NewGameClientOptions struct {
	// GatewayURL is the WebSocket endpoint, e.g. ws://localhost:9000/events.
	GatewayURL string
	GameID     string
	UserID     string
}

func NewGameClient(opts NewGameClientOptions) *GameClient {
	return &GameClient{
		gatewayURL: opts.GatewayURL,
		gameID:     opts.GameID,
		userID:     opts.UserID,
	}
}

// Game returns the current mirrored state, or nil before the first
// snapshot arrives.
func (c *GameClient) Game() *gametypes.Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mirror == nil {
		return nil
	}
	return c.mirror.Game()
}

// Seq returns the sequence number of the last applied event.
func (c *GameClient) Seq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.mirror == nil {
		return 0
	}
	return c.mirror.Seq()
}

// Run maintains the subscription until the context is cancelled. Every
// connection starts with a snapshot, so a reconnect always recovers
// from a desync or a dropped stream.
func (c *GameClient) Run(ctx context.Context) error {
	for {
		err := c.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("Connection to gateway lost: %v", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *GameClient) runConnection(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.gatewayURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial gateway: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	subscribe, err := network.NewMessage(network.MessageTypeClientSubscribe, network.ClientSubscribe{
		GameID: c.gameID,
		UserID: c.userID,
	})
	if err != nil {
		return err
	}
	if err := network.WriteMessageToWS(ctx, conn, subscribe); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	for {
		msg, err := network.ReadMessageFromWS(ctx, conn)
		if err != nil {
			return err
		}

		switch msg.Type {
		case network.MessageTypeServerSnapshot:
			if err := c.handleSnapshot(msg.Payload); err != nil {
				return err
			}
		case network.MessageTypeServerEvent:
			if err := c.handleEvent(msg.Payload); err != nil {
				// A desync falls through to the reconnect loop, which
				// fetches a fresh snapshot.
				return err
			}
		case network.MessageTypeServerError:
			serverErr := &network.ServerError{}
			if err := json.Unmarshal(msg.Payload, serverErr); err != nil {
				return fmt.Errorf("malformed server error: %v", err)
			}
			return fmt.Errorf("server error: %s", serverErr.Reason)
		default:
			log.Warn("Ignoring unexpected message type %s", msg.Type)
		}
	}
}

func (c *GameClient) handleSnapshot(payload json.RawMessage) error {
	snapshot := &network.ServerSnapshot{}
	if err := json.Unmarshal(payload, snapshot); err != nil {
		return fmt.Errorf("malformed snapshot: %v", err)
	}

	game := &gametypes.Game{}
	if err := json.Unmarshal(snapshot.Game, game); err != nil {
		return fmt.Errorf("malformed snapshot game: %v", err)
	}

	c.mu.Lock()
	c.mirror = mirror.NewMirror(mirror.NewMirrorOptions{
		Game: game,
		Seq:  snapshot.Seq,
	})
	c.mu.Unlock()

	log.Info("Mirror of game %s initialized at seq %d", c.gameID, snapshot.Seq)
	return nil
}

func (c *GameClient) handleEvent(payload json.RawMessage) error {
	wrapper := &network.ServerEvent{}
	if err := json.Unmarshal(payload, wrapper); err != nil {
		return fmt.Errorf("malformed event frame: %v", err)
	}

	ev := &events.Event{}
	if err := json.Unmarshal(wrapper.Event, ev); err != nil {
		return fmt.Errorf("malformed event: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mirror == nil {
		return fmt.Errorf("received event before snapshot")
	}
	if err := c.mirror.Apply(ev); err != nil {
		return err
	}

	log.Debug("Applied %s event seq %d", ev.Type, ev.Seq)
	return nil
}
