package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 1024

	// Buffer size for outbound messages
	sendBufferSize = 64
)

// Message types exchanged with clients.
const (
	MessageTypeAnalysis    = "analysis_update"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeError       = "error"
)

// ServerMessage is the envelope for everything pushed to a client.
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClientMessage is what clients send: a subscription naming the games
// they want updates for. An empty list means all games.
type ClientMessage struct {
	Type  string   `json:"type"`
	Games []string `json:"games,omitempty"`
}

// Client represents one WebSocket connection.
type Client struct {
	ID   string
	Send chan ServerMessage

	conn    *websocket.Conn
	hub     *Hub
	games   map[string]bool
	gamesMu sync.RWMutex
}

// NewClient creates a client for an upgraded connection.
func NewClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:    uuid.NewString(),
		Send:  make(chan ServerMessage, sendBufferSize),
		conn:  conn,
		hub:   hub,
		games: make(map[string]bool),
	}
}

// WatchesGame reports whether the client wants updates for a game.
func (c *Client) WatchesGame(gameID string) bool {
	c.gamesMu.RLock()
	defer c.gamesMu.RUnlock()
	if len(c.games) == 0 {
		return true
	}
	return c.games[gameID]
}

// TrySend sends a message to the client (non-blocking). Returns false
// when the buffer is full.
func (c *Client) TrySend(msg ServerMessage) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// ReadPump pumps subscription messages from the connection to the
// client's filter.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg ClientMessage
			if err := c.conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("client %s unexpected close: %v", c.ID, err)
				}
				return
			}
			c.handleMessage(msg)
		}
	}
}

// WritePump pumps messages from the hub to the connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("client %s write error: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg ClientMessage) {
	switch msg.Type {
	case MessageTypeSubscribe:
		c.gamesMu.Lock()
		c.games = make(map[string]bool, len(msg.Games))
		for _, id := range msg.Games {
			c.games[id] = true
		}
		c.gamesMu.Unlock()
		log.Printf("client %s subscribed to games %v", c.ID, msg.Games)

	case MessageTypeUnsubscribe:
		c.gamesMu.Lock()
		c.games = make(map[string]bool)
		c.gamesMu.Unlock()

	default:
		c.TrySend(ServerMessage{
			Type:      MessageTypeError,
			Payload:   map[string]string{"message": "unknown message type: " + msg.Type},
			Timestamp: time.Now(),
		})
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The service sits behind the gateway, which enforces origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request and attaches the client to the hub.
func ServeWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}

		c := NewClient(conn, hub)
		hub.Register(c)

		// The request context dies when this handler returns, so the
		// pumps run off the connection lifetime instead.
		go c.WritePump(context.Background())
		go c.ReadPump(context.Background())
	}
}
