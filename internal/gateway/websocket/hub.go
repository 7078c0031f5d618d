// Package websocket pushes store changes to browsers connected to the local
// gateway.
package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Shinox-lab/dashboard/internal/common/logger"
	ws "github.com/Shinox-lab/dashboard/pkg/websocket"
)

// SnapshotFunc returns the value sent in SNAPSHOT frames.
type SnapshotFunc func() interface{}

// Hub manages all browser connections
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	snapshot SnapshotFunc

	mu     sync.RWMutex
	logger *logger.Logger
}

// NewHub creates a new hub. snapshot may be nil.
func NewHub(snapshot SnapshotFunc, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		logger:     log.WithFields(zap.String("component", "ws_hub")),
	}
}

// Run starts the hub's main processing loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer h.logger.Info("WebSocket hub stopped")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.removeClient(client)

		case data := <-h.broadcast:
			h.broadcastData(data)
		}
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
		delete(h.clients, client)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.close()
	}
	h.logger.Debug("Client unregistered", zap.String("client_id", client.ID))
}

func (h *Hub) broadcastData(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.enqueue(data) {
			// slow client; it catches up with the next SNAPSHOT request
			h.logger.Warn("Client send buffer full, dropping frame", zap.String("client_id", client.ID))
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a frame for every connected client. Frames are dropped
// when the queue is full.
func (h *Hub) Broadcast(frame *ws.Frame) {
	data, err := frame.Encode()
	if err != nil {
		h.logger.Error("Failed to marshal broadcast frame", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Broadcast queue full, dropping frame", zap.String("type", string(frame.Type)))
	}
}

// SnapshotFrame builds a SNAPSHOT frame from the current state.
func (h *Hub) SnapshotFrame() (*ws.Frame, error) {
	var payload interface{}
	if h.snapshot != nil {
		payload = h.snapshot()
	}
	return ws.NewFrame(ws.FrameSnapshot, payload)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
