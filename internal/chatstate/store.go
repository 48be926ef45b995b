package chatstate

import (
	"context"

	"sporthub-service/internal/models"
	"sporthub-service/internal/realtime"
	"sporthub-service/internal/repositories"
)

// RepositoryStore adapts the sqlx repositories to the controller's Store.
type RepositoryStore struct {
	groups   repositories.GroupRepository
	messages repositories.GroupMessageRepository
}

// NewRepositoryStore constructs a RepositoryStore.
func NewRepositoryStore(groups repositories.GroupRepository, messages repositories.GroupMessageRepository) *RepositoryStore {
	return &RepositoryStore{groups: groups, messages: messages}
}

func (s *RepositoryStore) ListMessages(ctx context.Context, groupID int) ([]models.GroupMessage, error) {
	return s.messages.ListGroupMessages(ctx, groupID)
}

func (s *RepositoryStore) SendMessage(ctx context.Context, groupID, senderID int, content string) (*models.GroupMessage, error) {
	msg, err := s.messages.CreateGroupMessage(ctx, groupID, senderID, content)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *RepositoryStore) JoinGroup(ctx context.Context, groupID, userID int) error {
	return s.groups.JoinGroup(ctx, groupID, userID)
}

func (s *RepositoryStore) LeaveGroup(ctx context.Context, groupID, userID int) error {
	return s.groups.LeaveGroup(ctx, groupID, userID)
}

// HubSubscribe binds a realtime hub to the controller's subscribe hook.
func HubSubscribe(hub *realtime.Hub) SubscribeFunc {
	return func(groupID int) Subscription {
		return hub.SubscribeGroup(groupID)
	}
}

var _ Store = (*RepositoryStore)(nil)
