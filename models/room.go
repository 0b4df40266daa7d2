package models

import (
	"time"
)

type Room struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Max       int       `gorm:"not null" json:"max"`
	Owner     string    `gorm:"size:32;not null" json:"owner"`
	Password  string    `gorm:"size:255" json:"password,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Protected reports whether joining the room requires a password.
func (r *Room) Protected() bool {
	return r.Password != ""
}
