package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"sporthub-service/internal/apperrors"
	"sporthub-service/internal/models"
)

var ErrMessageNotFound = apperrors.NotFound("message not found")

// DirectMessageRepository defines interactions for one-to-one messages.
type DirectMessageRepository interface {
	SendMessage(ctx context.Context, senderID int, recipientID int, content string) (models.DirectMessage, error)
	GetConversation(ctx context.Context, userA int, userB int) ([]models.DirectMessage, error)
	MarkMessageAsRead(ctx context.Context, messageID int) error
	GetUnreadMessages(ctx context.Context, userID int) ([]models.DirectMessage, error)
	GetUserMessages(ctx context.Context, userID int) ([]models.DirectMessage, error)
	GetRecentConversations(ctx context.Context, userID int) ([]models.DirectMessage, error)
}

// DirectMessageRepo is a sqlx-backed repository.
type DirectMessageRepo struct {
	db *sqlx.DB
}

// NewDirectMessageRepo constructs a DirectMessageRepo.
func NewDirectMessageRepo(db *sqlx.DB) *DirectMessageRepo {
	return &DirectMessageRepo{db: db}
}

const directMessageColumns = `id, sender_id, recipient_id, content, msg_type, read, created_at`

// SendMessage stores an unread message with a server-assigned timestamp.
func (r *DirectMessageRepo) SendMessage(ctx context.Context, senderID int, recipientID int, content string) (models.DirectMessage, error) {
	var msg models.DirectMessage
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO direct_messages (sender_id, recipient_id, content, msg_type, read)
         VALUES ($1, $2, $3, 'text', FALSE)
         RETURNING `+directMessageColumns, senderID, recipientID, content).StructScan(&msg)
	return msg, err
}

// GetConversation returns the messages exchanged between exactly the two
// users, newest first.
func (r *DirectMessageRepo) GetConversation(ctx context.Context, userA int, userB int) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+directMessageColumns+` FROM direct_messages
         WHERE (sender_id=$1 AND recipient_id=$2) OR (sender_id=$2 AND recipient_id=$1)
         ORDER BY created_at DESC`, userA, userB)
	return msgs, err
}

// MarkMessageAsRead flips the read flag; repeating the call is a no-op.
func (r *DirectMessageRepo) MarkMessageAsRead(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE direct_messages SET read=TRUE WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// GetUnreadMessages returns unread messages addressed to the user, newest
// first.
func (r *DirectMessageRepo) GetUnreadMessages(ctx context.Context, userID int) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+directMessageColumns+` FROM direct_messages
         WHERE recipient_id=$1 AND read=FALSE ORDER BY created_at DESC`, userID)
	return msgs, err
}

// GetUserMessages returns every message the user participates in, newest
// first. This is the snapshot source for inbox subscriptions.
func (r *DirectMessageRepo) GetUserMessages(ctx context.Context, userID int) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+directMessageColumns+` FROM direct_messages
         WHERE sender_id=$1 OR recipient_id=$1 ORDER BY created_at DESC`, userID)
	return msgs, err
}

// GetRecentConversations returns the latest message the user sent to each
// distinct recipient, newest first. Conversations where the user never sent
// anything do not appear.
func (r *DirectMessageRepo) GetRecentConversations(ctx context.Context, userID int) ([]models.DirectMessage, error) {
	var msgs []models.DirectMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+directMessageColumns+` FROM (
            SELECT DISTINCT ON (recipient_id) `+directMessageColumns+`
            FROM direct_messages WHERE sender_id=$1
            ORDER BY recipient_id, created_at DESC
         ) latest ORDER BY created_at DESC`, userID)
	return msgs, err
}
