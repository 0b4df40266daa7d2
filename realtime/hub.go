package realtime

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Message is the wire envelope for outbound events.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub maintains the set of active clients and their subscriptions.
//
// Subscriptions are partitioned into two namespaces: the lobby, which
// carries room-list events to every connected client that asked for them,
// and per-room partitions keyed by room id. The length of a room's
// subscriber set is the room's occupancy; it is the hub's own live
// bookkeeping and is never persisted anywhere.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Lobby subscribers (room-list events)
	lobby map[*Client]bool

	// Rooms mapping (roomID -> subscribers)
	rooms map[uint]map[*Client]bool

	// Mutex for lobby and rooms maps
	mux sync.RWMutex

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		lobby:      make(map[*Client]bool),
		rooms:      make(map[uint]map[*Client]bool),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)

				// Remove client from the lobby and all rooms before
				// closing its send channel: broadcasters send under the
				// same mutex, so once the client is out of the maps no
				// send can race the close.
				h.mux.Lock()
				delete(h.lobby, client)
				for roomID, clients := range h.rooms {
					if _, ok := clients[client]; ok {
						delete(h.rooms[roomID], client)
						// Clean up empty rooms
						if len(h.rooms[roomID]) == 0 {
							delete(h.rooms, roomID)
						}
					}
				}
				h.mux.Unlock()

				close(client.send)
			}
		}
	}
}

// JoinLobby subscribes a client to room-list events.
func (h *Hub) JoinLobby(client *Client) {
	h.mux.Lock()
	defer h.mux.Unlock()
	h.lobby[client] = true
}

// LeaveLobby unsubscribes a client from room-list events.
func (h *Hub) LeaveLobby(client *Client) {
	h.mux.Lock()
	defer h.mux.Unlock()
	delete(h.lobby, client)
}

// JoinRoom adds a client to a room's subscriber set.
func (h *Hub) JoinRoom(client *Client, roomID uint) {
	h.mux.Lock()
	defer h.mux.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
}

// LeaveRoom removes a client from a room's subscriber set.
func (h *Hub) LeaveRoom(client *Client, roomID uint) {
	h.mux.Lock()
	defer h.mux.Unlock()

	if _, ok := h.rooms[roomID]; ok {
		delete(h.rooms[roomID], client)
		// Clean up empty rooms
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Occupancy returns the current number of subscribers to a room. The
// count is read from the live subscriber set at call time and must not
// be cached by callers.
func (h *Hub) Occupancy(roomID uint) int {
	h.mux.RLock()
	defer h.mux.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastLobby sends an event to every lobby subscriber.
func (h *Hub) BroadcastLobby(event string, payload interface{}) {
	msgBytes, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("error marshaling lobby message")
		return
	}

	h.mux.Lock()
	defer h.mux.Unlock()

	for client := range h.lobby {
		select {
		case client.send <- msgBytes:
		default:
			delete(h.lobby, client)
		}
	}
}

// BroadcastRoom sends an event to all subscribers of a room.
func (h *Hub) BroadcastRoom(roomID uint, event string, payload interface{}) {
	msgBytes, err := json.Marshal(Message{Event: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("error marshaling room message")
		return
	}

	h.mux.Lock()
	defer h.mux.Unlock()

	if clients, ok := h.rooms[roomID]; ok {
		for client := range clients {
			select {
			case client.send <- msgBytes:
			default:
				delete(clients, client)
			}
		}
	}
}
