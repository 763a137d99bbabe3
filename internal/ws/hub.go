package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/internal/metrics"
	"github.com/XavierBriggs/fortuna/services/nfl-analytics-service/pkg/models"
)

// Hub maintains the set of active clients and pushes analysis updates
// to them as games are re-analyzed.
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan *models.AnalysisPayload
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *models.AnalysisPayload, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	log.Println("Analysis hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case payload := <-h.broadcast:
			h.broadcastUpdate(payload)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	h.unregister <- c
}

// Broadcast queues an analysis update for delivery. Drops the update
// when the buffer is full rather than blocking the poller.
func (h *Hub) Broadcast(payload *models.AnalysisPayload) {
	select {
	case h.broadcast <- payload:
	default:
		log.Println("broadcast buffer full, dropping analysis update")
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	metrics.WSClientsConnected.Set(float64(len(h.clients)))
	log.Printf("client %s connected (total: %d)", c.ID, len(h.clients))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		metrics.WSClientsConnected.Set(float64(len(h.clients)))
		log.Printf("client %s disconnected (total: %d)", c.ID, len(h.clients))
	}
}

// broadcastUpdate delivers an update to every client whose game filter
// matches. Clients that cannot keep up are disconnected.
func (h *Hub) broadcastUpdate(payload *models.AnalysisPayload) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      MessageTypeAnalysis,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for _, c := range clients {
		if !c.WatchesGame(payload.GameID) {
			continue
		}
		if !c.TrySend(message) {
			log.Printf("client %s buffer full, disconnecting", c.ID)
			go h.Unregister(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	log.Printf("shutting down hub (%d active clients)", len(h.clients))

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
	metrics.WSClientsConnected.Set(0)
}
