package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"sporthub-service/internal/models"
)

// GroupMessageRepository defines interactions for group messages.
type GroupMessageRepository interface {
	CreateGroupMessage(ctx context.Context, groupID int, senderID int, content string) (models.GroupMessage, error)
	ListGroupMessages(ctx context.Context, groupID int) ([]models.GroupMessage, error)
}

// GroupMessageRepo is a sqlx-backed implementation.
type GroupMessageRepo struct {
	db *sqlx.DB
}

// NewGroupMessageRepo constructs a GroupMessageRepo.
func NewGroupMessageRepo(db *sqlx.DB) *GroupMessageRepo {
	return &GroupMessageRepo{db: db}
}

// CreateGroupMessage persists a text message with a server-assigned
// timestamp and bumps the group's activity time in the same transaction.
func (r *GroupMessageRepo) CreateGroupMessage(ctx context.Context, groupID int, senderID int, content string) (models.GroupMessage, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.GroupMessage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var msg models.GroupMessage
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO group_messages (group_id, sender_id, content, msg_type)
         VALUES ($1, $2, $3, 'text')
         RETURNING id, group_id, sender_id, content, msg_type, read, created_at`,
		groupID, senderID, content).StructScan(&msg); err != nil {
		return models.GroupMessage{}, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE groups SET updated_at=NOW() WHERE id=$1`, groupID); err != nil {
		return models.GroupMessage{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.GroupMessage{}, err
	}
	return msg, nil
}

// ListGroupMessages returns the group's messages oldest first, the order
// chat views render in.
func (r *GroupMessageRepo) ListGroupMessages(ctx context.Context, groupID int) ([]models.GroupMessage, error) {
	var msgs []models.GroupMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, group_id, sender_id, content, msg_type, read, created_at
         FROM group_messages WHERE group_id=$1 ORDER BY created_at ASC`, groupID)
	return msgs, err
}
