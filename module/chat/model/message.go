package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MessageCollection = "message"

	TypeText     = "text"
	TypeVideo    = "video"
	TypeImage    = "image"
	TypeDocument = "document"
	TypeLinks    = "links"

	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusSeen      = "seen"
)

// Message is owned by its room. Immutable after insert except status/seen_by,
// which only room members other than the sender may touch.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID      string             `bson:"room_id" json:"room_id"`
	SenderID    int64              `bson:"sender_id" json:"sender_id"`
	MessageText string             `bson:"message_text,omitempty" json:"message_text,omitempty"`
	MessageType string             `bson:"message_type" json:"message_type"`
	CreatedAt   string             `bson:"created_at" json:"created_at"`
	FileLinks   []string           `bson:"file_links,omitempty" json:"file_links,omitempty"`
	Status      string             `bson:"status" json:"status"`
	SeenBy      []int64            `bson:"seen_by" json:"seen_by"`
	// Seq is the per-node insertion ordinal; recent-N queries and history
	// sorting rely on it being strictly increasing.
	Seq int64 `bson:"seq" json:"seq"`
}

func ValidMessageType(t string) bool {
	switch t {
	case TypeText, TypeVideo, TypeImage, TypeDocument, TypeLinks:
		return true
	}
	return false
}

// StatusRank orders delivery states: sent < delivered < seen. Unknown
// states rank below everything so they never overwrite a real one.
func StatusRank(s string) int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusSeen:
		return 2
	}
	return -1
}

// ValidTargetStatus reports whether s is a state a reader may move a
// message to. "sent" is the insert-only initial state.
func ValidTargetStatus(s string) bool {
	return s == StatusDelivered || s == StatusSeen
}
