package network

import (
	"fmt"
	"sync"

	"nhooyr.io/websocket"
)

// Client is one subscribed gateway connection.
type Client struct {
	ID     uint32
	UserID string
	GameID string
	Conn   *websocket.Conn
}

// ClientManager tracks the gateway's live connections.
type ClientManager struct {
	mu      sync.RWMutex
	clients map[uint32]*Client
	nextID  uint32
}

func NewClientManager() *ClientManager {
	return &ClientManager{
		clients: make(map[uint32]*Client),
	}
}

// ConnectClient registers a subscribed connection and assigns its id.
func (m *ClientManager) ConnectClient(conn *websocket.Conn, userID, gameID string) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	client := &Client{
		ID:     m.nextID,
		UserID: userID,
		GameID: gameID,
		Conn:   conn,
	}
	m.clients[client.ID] = client
	return client
}

func (m *ClientManager) DisconnectClient(clientID uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, clientID)
}

func (m *ClientManager) GetClient(clientID uint32) (*Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, ok := m.clients[clientID]
	if !ok {
		return nil, fmt.Errorf("client %d is not connected", clientID)
	}
	return client, nil
}

// GetClientsForGame returns the connections subscribed to a game.
func (m *ClientManager) GetClientsForGame(gameID string) []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var clients []*Client
	for _, c := range m.clients {
		if c.GameID == gameID {
			clients = append(clients, c)
		}
	}
	return clients
}

// Count returns the number of live connections.
func (m *ClientManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
