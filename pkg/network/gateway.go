// Package network is the WebSocket gateway for game event streams. A
// connection subscribes to one game, receives a full snapshot with its
// sequence number, then a strictly ordered stream of events from the
// broadcaster. Frames are zstd-compressed JSON.
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/starfall-games/starfall/pkg/broadcast"
	"github.com/starfall-games/starfall/pkg/engine"
	"github.com/starfall-games/starfall/pkg/events"
	"github.com/starfall-games/starfall/pkg/log"
	"nhooyr.io/websocket"
)

// Gateway serves event-stream subscriptions over WebSocket.
type Gateway struct {
	port          int
	tls           *TLSConfig
	engine        *engine.Engine
	broadcaster   *broadcast.Broadcaster
	clientManager *ClientManager
	relay         *broadcast.RedisRelay

	relayMu    sync.Mutex
	relayGames map[string]struct{}
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewGatewayOptions struct {
	Port        int
	TLS         *TLSConfig
	Engine      *engine.Engine
	Broadcaster *broadcast.Broadcaster
	// Relay is optional; when set, the gateway consumes events relayed
	// from other nodes for every game it has subscribers for.
	Relay *broadcast.RedisRelay
}

func NewGateway(opts NewGatewayOptions) *Gateway {
	return &Gateway{
		port:          opts.Port,
		tls:           opts.TLS,
		engine:        opts.Engine,
		broadcaster:   opts.Broadcaster,
		clientManager: NewClientManager(),
		relay:         opts.Relay,
		relayGames:    make(map[string]struct{}),
	}
}

// ClientManager exposes the connection registry for introspection.
func (g *Gateway) ClientManager() *ClientManager {
	return g.clientManager
}

// Start runs the gateway until the context is cancelled.
func (g *Gateway) Start(ctx context.Context) {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			log.Error("Failed to accept WebSocket connection: %v", err)
			return
		}
		go g.handleConnection(ctx, conn)
	})

	addr := fmt.Sprintf(":%d", g.port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	var listenAndServe func() error
	if g.tls != nil {
		log.Info("Gateway listening on %s with TLS", addr)
		listenAndServe = func() error {
			return server.ListenAndServeTLS(g.tls.CertFile, g.tls.KeyFile)
		}
	} else {
		log.Info("Gateway listening on %s", addr)
		listenAndServe = server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("Gateway closed")
			return
		}
		log.Error("Gateway error: %v", err)
	}
}

func (g *Gateway) handleConnection(gatewayCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(gatewayCtx)
	defer cancel()
	defer conn.Close(websocket.StatusNormalClosure, "")

	msg, err := ReadMessageFromWS(ctx, conn)
	if err != nil {
		log.Trace("Connection closed before subscribing: %v", err)
		return
	}

	if msg.Type != MessageTypeClientSubscribe {
		g.writeError(ctx, conn, "the first message must be a subscription")
		return
	}

	subscribe := &ClientSubscribe{}
	if err := json.Unmarshal(msg.Payload, subscribe); err != nil {
		g.writeError(ctx, conn, "malformed subscription")
		return
	}

	client := g.clientManager.ConnectClient(conn, subscribe.UserID, subscribe.GameID)
	defer func() {
		g.clientManager.DisconnectClient(client.ID)
		log.Info("Client %d disconnected", client.ID)
	}()
	log.Info("Client %d subscribed to game %s", client.ID, subscribe.GameID)

	// The relay consumer outlives this connection, so it runs on the
	// gateway's context.
	g.ensureRelay(gatewayCtx, subscribe.GameID)

	// Subscribe before snapshotting so no event between the two is
	// lost; the mirror skips any event the snapshot already covers.
	eventCh, unsubscribe := g.broadcaster.Subscribe(subscribe.GameID)
	defer unsubscribe()

	if err := g.writeSnapshot(ctx, conn, subscribe.GameID); err != nil {
		log.Error("Failed to send snapshot to client %d: %v", client.ID, err)
		return
	}

	// Reads only detect disconnection; subscribers do not send after
	// the subscription frame.
	go func() {
		defer cancel()
		for {
			if _, err := ReadMessageFromWS(ctx, conn); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				// Dropped by the broadcaster for falling behind.
				g.writeError(ctx, conn, "event stream dropped, resubscribe for a fresh snapshot")
				return
			}
			if err := g.writeEvent(ctx, conn, ev); err != nil {
				log.Trace("Failed to write event to client %d: %v", client.ID, err)
				return
			}
		}
	}
}

// ensureRelay starts consuming the game's cross-node event stream the
// first time a subscriber asks for the game. Events that originated on
// this node come back around with an already-published sequence, which
// mirrors skip.
func (g *Gateway) ensureRelay(ctx context.Context, gameID string) {
	if g.relay == nil {
		return
	}

	g.relayMu.Lock()
	defer g.relayMu.Unlock()
	if _, ok := g.relayGames[gameID]; ok {
		return
	}
	g.relayGames[gameID] = struct{}{}

	go func() {
		if err := g.relay.Run(ctx, gameID); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Relay consumer for game %s stopped: %v", gameID, err)
		}
	}()
}

func (g *Gateway) writeSnapshot(ctx context.Context, conn *websocket.Conn, gameID string) error {
	game, seq, err := g.engine.Snapshot(ctx, gameID)
	if err != nil {
		return err
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game snapshot: %v", err)
	}

	msg, err := NewMessage(MessageTypeServerSnapshot, ServerSnapshot{
		Game: gameJSON,
		Seq:  seq,
	})
	if err != nil {
		return err
	}

	return WriteMessageToWS(ctx, conn, msg)
}

func (g *Gateway) writeEvent(ctx context.Context, conn *websocket.Conn, ev *events.Event) error {
	eventJSON, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %v", err)
	}

	msg, err := NewMessage(MessageTypeServerEvent, ServerEvent{Event: eventJSON})
	if err != nil {
		return err
	}

	return WriteMessageToWS(ctx, conn, msg)
}

func (g *Gateway) writeError(ctx context.Context, conn *websocket.Conn, reason string) {
	msg, err := NewMessage(MessageTypeServerError, ServerError{Reason: reason})
	if err != nil {
		log.Error("Failed to build error message: %v", err)
		return
	}
	if err := WriteMessageToWS(ctx, conn, msg); err != nil {
		log.Trace("Failed to write error message: %v", err)
	}
}

// WriteMessageToWS writes a frame to a WebSocket connection.
func WriteMessageToWS(ctx context.Context, conn *websocket.Conn, msg *Message) error {
	b, err := SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if err := conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}

// ReadMessageFromWS reads a frame from a WebSocket connection.
func ReadMessageFromWS(ctx context.Context, conn *websocket.Conn) (*Message, error) {
	_, b, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}

	msg, err := DeserializeMessage(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return msg, nil
}
