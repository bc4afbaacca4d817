package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoomCollection = "chat_room"

	RoomTypeGroup  = "group"
	RoomTypeFriend = "friend"
)

// DateFormat matches the display format the rest of the system stores
// timestamps in ("Sep 01 2026 03:04:05 PM").
const DateFormat = "Jan 02 2006 03:04:05 PM"

func FormattedNow() string {
	return time.Now().UTC().Format(DateFormat)
}

type RoomUser struct {
	UserID   int64  `bson:"user_id" json:"user_id"`
	AddedBy  int64  `bson:"added_by,omitempty" json:"added_by,omitempty"`
	JoinedAt string `bson:"joined_at" json:"joined_at"`
	IsAdmin  bool   `bson:"isAdmin" json:"isAdmin"`
}

// Room is the persisted membership record. is_active=false means the room
// is logically closed: attach and send are rejected, history stays readable.
type Room struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Users     []RoomUser         `bson:"users" json:"users"`
	CreatedAt string             `bson:"created_at" json:"created_at"`
	Type      string             `bson:"type" json:"type"`
	CreatedBy int64              `bson:"created_by,omitempty" json:"created_by,omitempty"`
	IsActive  bool               `bson:"is_active" json:"is_active"`
}

func (r *Room) MemberIDs() []int64 {
	out := make([]int64, 0, len(r.Users))
	for _, u := range r.Users {
		out = append(out, u.UserID)
	}
	return out
}

func (r *Room) HasMember(userID int64) bool {
	for _, u := range r.Users {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

func ValidRoomType(t string) bool {
	return t == RoomTypeGroup || t == RoomTypeFriend
}
