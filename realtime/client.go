package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 10000
)

// Namespace names a client may subscribe to.
const (
	NamespaceLobby = "room"
	NamespaceChat  = "chat"
)

// Client represents a connected websocket client. Its subscriptions
// live in the hub's lobby and room maps; the hub removes it from all of
// them on unregister.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	sid  string
}

// Command is an inbound subscription request from a client.
type Command struct {
	Type      string `json:"type"`
	Namespace string `json:"namespace"`
	RoomID    uint   `json:"room_id"`
}

// SID returns the client's socket identifier.
func (c *Client) SID() string {
	return c.sid
}

// readPump pumps subscription commands from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
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
				log.Error().Err(err).Str("sid", c.sid).Msg("websocket read error")
			}
			break
		}

		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			log.Error().Err(err).Str("sid", c.sid).Msg("error unmarshaling command")
			continue
		}

		c.handleCommand(cmd)
	}
}

// handleCommand applies a subscribe/unsubscribe request to the hub.
func (c *Client) handleCommand(cmd Command) {
	switch cmd.Type {
	case "subscribe":
		switch cmd.Namespace {
		case NamespaceLobby:
			c.hub.JoinLobby(c)
		case NamespaceChat:
			c.hub.JoinRoom(c, cmd.RoomID)
		}
	case "unsubscribe":
		switch cmd.Namespace {
		case NamespaceLobby:
			c.hub.LeaveLobby(c)
		case NamespaceChat:
			c.hub.LeaveRoom(c, cmd.RoomID)
		}
	default:
		log.Warn().Str("type", cmd.Type).Str("sid", c.sid).Msg("unknown command")
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
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
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write(<-c.send)
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
