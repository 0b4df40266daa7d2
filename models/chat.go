package models

import (
	"time"
)

// SystemUser is the sender label on join/leave notices.
const SystemUser = "system"

// Chat is a single room message. Exactly one of Chat or Gif is set:
// Chat for text (and system notices), Gif for a stored attachment filename.
type Chat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"index;not null" json:"room_id"`
	User      string    `gorm:"size:32;not null" json:"user"`
	Chat      string    `gorm:"type:text" json:"chat,omitempty"`
	Gif       string    `gorm:"size:255" json:"gif,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// System reports whether the record is a join/leave notice.
func (c *Chat) System() bool {
	return c.User == SystemUser
}
