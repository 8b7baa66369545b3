package domain

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

type (
	RoomID string
	ConnID string
)

const MaxRoomNameLen = 64

// Room is the identity half of a session: metadata only, no membership
// or history. Those live in core.Session.
type Room struct {
	ID          RoomID    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatorConn ConnID    `json:"-"`
}

// NewRoom avoids ad-hoc struct literals in the registry and keeps id
// assignment in one place.
func NewRoom(name, code string, creator ConnID) *Room {
	name = truncate(name, MaxRoomNameLen)
	return &Room{
		ID:          RoomID(uuid.NewString()),
		Code:        code,
		Name:        name,
		CreatedAt:   time.Now(),
		CreatorConn: creator,
	}
}

// truncate cuts on a rune boundary so a clipped name stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
