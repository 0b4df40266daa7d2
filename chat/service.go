// Package chat implements room admission, lifecycle and message ingestion.
//
// Occupancy is always read from the realtime directory's live subscriber
// list at the moment of a check and never cached. Admission is therefore
// check-then-act without atomicity: two concurrent joins can both observe
// the same pre-increment count and both be admitted. That race is inherent
// to deriving occupancy from the socket layer's bookkeeping and is kept
// rather than hidden behind a stored counter, which would drift on abrupt
// disconnects.
package chat

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gifchat/backend/models"
)

var (
	// ErrRoomNotFound is returned when no room exists for the given id.
	ErrRoomNotFound = errors.New("room not found")

	// ErrUnauthorized is returned when the supplied password does not match.
	ErrUnauthorized = errors.New("wrong password")

	// ErrRoomFull is returned when occupancy has reached the room's capacity.
	ErrRoomFull = errors.New("room is full")

	// ErrNotOwner is returned when a non-owner tries to delete a room.
	ErrNotOwner = errors.New("only the room owner can delete the room")

	// ErrBadNoticeKind is returned for a system notice kind other than join or leave.
	ErrBadNoticeKind = errors.New("unknown notice kind")
)

// Directory is the view of the realtime layer the service depends on.
// *realtime.Hub implements it in production.
type Directory interface {
	// Occupancy returns the live subscriber count for a room.
	Occupancy(roomID uint) int

	// BroadcastLobby fans an event out to every room-list subscriber.
	BroadcastLobby(event string, payload interface{})

	// BroadcastRoom fans an event out to one room's subscribers.
	BroadcastRoom(roomID uint, event string, payload interface{})
}

// ChatEvent is the fan-out payload for user messages and attachments.
type ChatEvent struct {
	Socket string `json:"socket"`
	RoomID uint   `json:"room_id"`
	User   string `json:"user"`
	Chat   string `json:"chat,omitempty"`
	Gif    string `json:"gif,omitempty"`
}

// NoticeEvent is the fan-out payload for join/leave system notices.
// Number is the occupancy read at emit time, not at admission.
type NoticeEvent struct {
	User   string `json:"user"`
	Chat   string `json:"chat"`
	Number int    `json:"number"`
}

// Service coordinates the document store and the realtime directory.
type Service struct {
	db          *gorm.DB
	dir         Directory
	removeDelay time.Duration

	// Pending removeRoom broadcast timers, keyed by room id.
	timersMux sync.Mutex
	timers    map[uint]*time.Timer
}

// NewService wires the store, the realtime directory and the delay used
// before removeRoom broadcasts.
func NewService(db *gorm.DB, dir Directory, removeDelay time.Duration) *Service {
	return &Service{
		db:          db,
		dir:         dir,
		removeDelay: removeDelay,
		timers:      make(map[uint]*time.Timer),
	}
}

// ListRooms returns every room record.
func (s *Service) ListRooms() ([]models.Room, error) {
	var rooms []models.Room
	if err := s.db.Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch rooms: %w", err)
	}
	return rooms, nil
}

// CreateRoom inserts a room and announces it to the lobby. The insert and
// the broadcast are not atomic: if the broadcast is lost the room still
// exists and shows up on the next room-list fetch.
func (s *Service) CreateRoom(title string, max int, password, owner string) (models.Room, error) {
	room := models.Room{
		Title:    title,
		Max:      max,
		Owner:    owner,
		Password: password,
	}

	if err := s.db.Create(&room).Error; err != nil {
		return room, fmt.Errorf("failed to create room: %w", err)
	}

	s.dir.BroadcastLobby("newRoom", room)

	return room, nil
}

// Join runs the admission check for a room and, on success, returns the
// room, its full history ordered by creation time, and the slot the
// joiner is about to occupy (occupancy + 1, display only). The actual
// increment happens when the caller's socket subscribes to the room,
// which is outside this service's control.
func (s *Service) Join(roomID uint, password string) (models.Room, []models.Chat, int, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return room, nil, 0, ErrRoomNotFound
		}
		return room, nil, 0, fmt.Errorf("failed to fetch room: %w", err)
	}

	if room.Protected() && room.Password != password {
		return room, nil, 0, ErrUnauthorized
	}

	occupancy := s.dir.Occupancy(roomID)
	if occupancy >= room.Max {
		return room, nil, 0, ErrRoomFull
	}

	var chats []models.Chat
	if err := s.db.Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&chats).Error; err != nil {
		return room, nil, 0, fmt.Errorf("failed to fetch chat history: %w", err)
	}

	return room, chats, occupancy + 1, nil
}

// DeleteRoom removes a room and all chats referencing it, then schedules
// the removeRoom lobby broadcast after the configured delay. The delay
// lets in-flight leave handling settle before clients are told the room
// is gone; it narrows the delete/join race, it does not close it.
func (s *Service) DeleteRoom(roomID uint, caller string) error {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to fetch room: %w", err)
	}

	if room.Owner != caller {
		return ErrNotOwner
	}

	if err := s.db.Where("room_id = ?", roomID).Delete(&models.Chat{}).Error; err != nil {
		return fmt.Errorf("failed to delete room chats: %w", err)
	}

	if err := s.db.Delete(&room).Error; err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	s.scheduleRemoveBroadcast(roomID)

	return nil
}

// scheduleRemoveBroadcast arms a cancellable timer for the removeRoom
// event. A second delete of the same id resets the pending timer instead
// of stacking another one.
func (s *Service) scheduleRemoveBroadcast(roomID uint) {
	s.timersMux.Lock()
	defer s.timersMux.Unlock()

	if t, ok := s.timers[roomID]; ok {
		t.Stop()
	}

	s.timers[roomID] = time.AfterFunc(s.removeDelay, func() {
		s.timersMux.Lock()
		delete(s.timers, roomID)
		s.timersMux.Unlock()

		s.dir.BroadcastLobby("removeRoom", roomID)
	})
}

// Shutdown cancels all pending removeRoom broadcasts.
func (s *Service) Shutdown() {
	s.timersMux.Lock()
	defer s.timersMux.Unlock()

	for roomID, t := range s.timers {
		t.Stop()
		delete(s.timers, roomID)
	}
}

// PostMessage appends a text message and fans it out to the room's
// current subscribers. No admission re-check happens here: a sender
// admitted earlier may post even if the room now reports full.
func (s *Service) PostMessage(roomID uint, user, text, socketID string) (models.Chat, error) {
	chat := models.Chat{
		RoomID: roomID,
		User:   user,
		Chat:   text,
	}

	if err := s.db.Create(&chat).Error; err != nil {
		return chat, fmt.Errorf("failed to create chat: %w", err)
	}

	s.dir.BroadcastRoom(roomID, "chat", ChatEvent{
		Socket: socketID,
		RoomID: roomID,
		User:   user,
		Chat:   text,
	})

	return chat, nil
}

// PostGif appends an attachment record and fans the stored filename out
// to the room's current subscribers.
func (s *Service) PostGif(roomID uint, user, filename, socketID string) (models.Chat, error) {
	chat := models.Chat{
		RoomID: roomID,
		User:   user,
		Gif:    filename,
	}

	if err := s.db.Create(&chat).Error; err != nil {
		return chat, fmt.Errorf("failed to create chat: %w", err)
	}

	s.dir.BroadcastRoom(roomID, "chat", ChatEvent{
		Socket: socketID,
		RoomID: roomID,
		User:   user,
		Gif:    filename,
	})

	return chat, nil
}

// PostNotice appends a join/leave system notice and fans it out under an
// event named after the kind. The occupancy in the payload is read again
// at emit time.
func (s *Service) PostNotice(roomID uint, kind, user string) (models.Chat, error) {
	var text string
	switch kind {
	case "join":
		text = fmt.Sprintf("%s joined the room", user)
	case "leave":
		text = fmt.Sprintf("%s left the room", user)
	default:
		return models.Chat{}, ErrBadNoticeKind
	}

	notice := models.Chat{
		RoomID: roomID,
		User:   models.SystemUser,
		Chat:   text,
	}

	if err := s.db.Create(&notice).Error; err != nil {
		return notice, fmt.Errorf("failed to create notice: %w", err)
	}

	s.dir.BroadcastRoom(roomID, kind, NoticeEvent{
		User:   models.SystemUser,
		Chat:   text,
		Number: s.dir.Occupancy(roomID),
	})

	log.Debug().Uint("room", roomID).Str("kind", kind).Msg("system notice posted")

	return notice, nil
}
