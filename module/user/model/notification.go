package model

// Notification mirrors the persisted notification row; the core only ever
// forwards it over a main socket, it never writes one.
type Notification struct {
	ID               int64          `json:"id"`
	IsRead           bool           `json:"is_read"`
	CreatedAt        string         `json:"created_at"`
	ReadAt           string         `json:"read_at,omitempty"`
	NotificationType string         `json:"notification_type"`
	Message          string         `json:"message"`
	SenderID         int64          `json:"sender_id"`
	ReceiverID       int64          `json:"receiver_id"`
	ExtraData        map[string]any `json:"extra_data,omitempty"`
}
