package network

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/GridSnake/internal/engine"
	"github.com/MRamiBalles/GridSnake/internal/events"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
	// Outgoing messages buffered per client.
	sendBuffer = 256
)

// Client is one browser connection playing its own game.
type Client struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	session *engine.Session

	mu     sync.Mutex
	send   chan []byte
	closed bool

	// Messages accepted per second; 0 disables the limit.
	rateLimit   int
	windowStart time.Time
	windowCount int
}

// NewClient creates a new WebSocket client. Attach a session with
// SetSession before starting the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, id string, rateLimit int) *Client {
	return &Client{
		id:        id,
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		rateLimit: rateLimit,
	}
}

// ID returns the client's session identifier.
func (c *Client) ID() string {
	return c.id
}

// SetSession attaches the game the client controls.
func (c *Client) SetSession(s *engine.Session) {
	c.session = s
}

// Publish implements engine.Publisher: every state change of the client's
// session is pushed to the browser. Frames that do not fit the buffer are
// dropped; the next snapshot supersedes them.
func (c *Client) Publish(state engine.GameState, evs []events.Event) {
	c.sendMessage(ServerMessage{Type: MessageState, State: &state, Events: evs})
}

func (c *Client) sendMessage(msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Errorf("Failed to serialize %s message for %s: %v", msg.Type, c.id, err)
		return
	}
	if !c.trySend(payload) {
		c.hub.metrics.RecordWSError()
	}
}

func (c *Client) trySend(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend ends the write pump. Safe to call more than once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// allow applies the per-second message budget.
func (c *Client) allow(now time.Time) bool {
	if c.rateLimit <= 0 {
		return true
	}
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	c.windowCount++
	return c.windowCount <= c.rateLimit
}

// ReadPump pumps messages from the websocket connection into the session.
// It returns when the connection fails or the session ends.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.metrics.RecordWSError()
				c.hub.logger.Warnf("WebSocket read error for %s: %v", c.id, err)
			}
			return
		}
		c.hub.metrics.RecordWSMessage(true)

		if !c.allow(time.Now()) {
			c.hub.logger.Warnf("Rate limit exceeded for client %s", c.id)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.metrics.RecordWSError()
			c.hub.logger.Warnf("Failed to parse message from %s: %v", c.id, err)
			c.sendMessage(ServerMessage{Type: MessageError, Error: "malformed message"})
			continue
		}

		intent, err := msg.Intent()
		if errors.Is(err, ErrNoIntent) {
			continue
		}
		if err != nil {
			c.hub.metrics.RecordWSError()
			c.hub.logger.Warnf("Rejected message from %s: %v", c.id, err)
			c.sendMessage(ServerMessage{Type: MessageError, Error: err.Error()})
			continue
		}

		if err := c.session.Submit(ctx, intent); err != nil {
			return
		}
	}
}

// WritePump pumps messages from the send queue to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			c.hub.metrics.RecordWSMessage(false)

			// Add queued messages to the current websocket message,
			// one JSON document per line.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
				c.hub.metrics.RecordWSMessage(false)
			}

			if err := w.Close(); err != nil {
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
