package models

import "time"

// Message types shared by group and direct messages.
const (
	MessageTypeText   = "text"
	MessageTypeMedia  = "media"
	MessageTypeSystem = "system"
)

// GroupMessage is a message inside a group, ordered by CreatedAt ascending.
type GroupMessage struct {
	ID        int       `db:"id" json:"id"`
	GroupID   int       `db:"group_id" json:"group_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Type      string    `db:"msg_type" json:"type"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GroupFeedEvent is pushed over group websocket connections. Every store
// change re-delivers the full ordered message list.
type GroupFeedEvent struct {
	Type     string         `json:"type"`
	GroupID  int            `json:"group_id"`
	Messages []GroupMessage `json:"messages"`
}
