package realtime

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// HandleConnection upgrades an HTTP request to a websocket connection.
// The assigned socket id is sent back first so the client can tag its
// own posts with it.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("error upgrading connection")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		sid:  uuid.NewString(),
	}

	// Register client
	client.hub.register <- client

	// Queued before the pumps start so it is the first frame the client sees.
	greeting, err := json.Marshal(Message{Event: "connected", Payload: gin.H{"sid": client.sid}})
	if err == nil {
		client.send <- greeting
	}

	// Start goroutines for reading and writing
	go client.readPump()
	go client.writePump()
}
