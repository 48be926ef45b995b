package models

import "time"

// DirectMessage is a one-to-one message. Created unread; the only mutation
// ever applied is flipping Read to true.
type DirectMessage struct {
	ID          int       `db:"id" json:"id"`
	SenderID    int       `db:"sender_id" json:"sender_id"`
	RecipientID int       `db:"recipient_id" json:"recipient_id"`
	Content     string    `db:"content" json:"content"`
	Type        string    `db:"msg_type" json:"type"`
	Read        bool      `db:"read" json:"read"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// InboxFeedEvent is pushed over inbox websocket connections with the full
// descending message list for the subscribed user.
type InboxFeedEvent struct {
	Type     string          `json:"type"`
	UserID   int             `json:"user_id"`
	Messages []DirectMessage `json:"messages"`
}
