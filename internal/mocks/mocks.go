package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"sporthub-service/internal/models"
	"sporthub-service/internal/repositories"
	"sporthub-service/internal/verify"
)

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, params repositories.CreateGroupParams) (models.Group, error) {
	args := m.Called(ctx, params)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroupsBySport(ctx context.Context, sport string) ([]models.Group, error) {
	args := m.Called(ctx, sport)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

func (m *GroupRepositoryMock) GetUserGroups(ctx context.Context, userID int) ([]models.Group, error) {
	args := m.Called(ctx, userID)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

func (m *GroupRepositoryMock) SearchGroups(ctx context.Context, query string) ([]models.Group, error) {
	args := m.Called(ctx, query)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

func (m *GroupRepositoryMock) JoinGroup(ctx context.Context, groupID int, userID int) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) LeaveGroup(ctx context.Context, groupID int, userID int) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) IsAdmin(ctx context.Context, groupID int, userID int) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) TouchGroup(ctx context.Context, groupID int) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

type GroupMessageRepositoryMock struct {
	mock.Mock
}

func (m *GroupMessageRepositoryMock) CreateGroupMessage(ctx context.Context, groupID int, senderID int, content string) (models.GroupMessage, error) {
	args := m.Called(ctx, groupID, senderID, content)
	var msg models.GroupMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.GroupMessage)
	}
	return msg, args.Error(1)
}

func (m *GroupMessageRepositoryMock) ListGroupMessages(ctx context.Context, groupID int) ([]models.GroupMessage, error) {
	args := m.Called(ctx, groupID)
	var msgs []models.GroupMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.GroupMessage)
	}
	return msgs, args.Error(1)
}

type DirectMessageRepositoryMock struct {
	mock.Mock
}

func (m *DirectMessageRepositoryMock) SendMessage(ctx context.Context, senderID int, recipientID int, content string) (models.DirectMessage, error) {
	args := m.Called(ctx, senderID, recipientID, content)
	var msg models.DirectMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.DirectMessage)
	}
	return msg, args.Error(1)
}

func (m *DirectMessageRepositoryMock) GetConversation(ctx context.Context, userA int, userB int) ([]models.DirectMessage, error) {
	args := m.Called(ctx, userA, userB)
	var msgs []models.DirectMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.DirectMessage)
	}
	return msgs, args.Error(1)
}

func (m *DirectMessageRepositoryMock) MarkMessageAsRead(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *DirectMessageRepositoryMock) GetUnreadMessages(ctx context.Context, userID int) ([]models.DirectMessage, error) {
	args := m.Called(ctx, userID)
	var msgs []models.DirectMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.DirectMessage)
	}
	return msgs, args.Error(1)
}

func (m *DirectMessageRepositoryMock) GetUserMessages(ctx context.Context, userID int) ([]models.DirectMessage, error) {
	args := m.Called(ctx, userID)
	var msgs []models.DirectMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.DirectMessage)
	}
	return msgs, args.Error(1)
}

func (m *DirectMessageRepositoryMock) GetRecentConversations(ctx context.Context, userID int) ([]models.DirectMessage, error) {
	args := m.Called(ctx, userID)
	var msgs []models.DirectMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.DirectMessage)
	}
	return msgs, args.Error(1)
}

type InviteRepositoryMock struct {
	mock.Mock
}

func (m *InviteRepositoryMock) CreateInvite(ctx context.Context, groupID, inviterID, inviteeID int, expiresAt *time.Time) (models.GroupInvite, error) {
	args := m.Called(ctx, groupID, inviterID, inviteeID, expiresAt)
	var invite models.GroupInvite
	if val := args.Get(0); val != nil {
		invite = val.(models.GroupInvite)
	}
	return invite, args.Error(1)
}

func (m *InviteRepositoryMock) GetInvite(ctx context.Context, inviteID int) (models.GroupInvite, error) {
	args := m.Called(ctx, inviteID)
	var invite models.GroupInvite
	if val := args.Get(0); val != nil {
		invite = val.(models.GroupInvite)
	}
	return invite, args.Error(1)
}

func (m *InviteRepositoryMock) AcceptInvite(ctx context.Context, invite models.GroupInvite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *InviteRepositoryMock) ResolveInvite(ctx context.Context, inviteID int, status string) error {
	args := m.Called(ctx, inviteID, status)
	return args.Error(0)
}

func (m *InviteRepositoryMock) ListInvitesForUser(ctx context.Context, userID int) ([]models.GroupInvite, error) {
	args := m.Called(ctx, userID)
	var invites []models.GroupInvite
	if val := args.Get(0); val != nil {
		invites = val.([]models.GroupInvite)
	}
	return invites, args.Error(1)
}

func (m *InviteRepositoryMock) CreateJoinRequest(ctx context.Context, groupID, userID int) (models.JoinRequest, error) {
	args := m.Called(ctx, groupID, userID)
	var request models.JoinRequest
	if val := args.Get(0); val != nil {
		request = val.(models.JoinRequest)
	}
	return request, args.Error(1)
}

func (m *InviteRepositoryMock) GetJoinRequest(ctx context.Context, requestID int) (models.JoinRequest, error) {
	args := m.Called(ctx, requestID)
	var request models.JoinRequest
	if val := args.Get(0); val != nil {
		request = val.(models.JoinRequest)
	}
	return request, args.Error(1)
}

func (m *InviteRepositoryMock) AcceptJoinRequest(ctx context.Context, request models.JoinRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *InviteRepositoryMock) ResolveJoinRequest(ctx context.Context, requestID int, status string) error {
	args := m.Called(ctx, requestID, status)
	return args.Error(0)
}

func (m *InviteRepositoryMock) ListJoinRequests(ctx context.Context, groupID int) ([]models.JoinRequest, error) {
	args := m.Called(ctx, groupID)
	var requests []models.JoinRequest
	if val := args.Get(0); val != nil {
		requests = val.([]models.JoinRequest)
	}
	return requests, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) UpsertByPhone(ctx context.Context, phone string) (models.User, error) {
	args := m.Called(ctx, phone)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type VerifierMock struct {
	mock.Mock
}

func (m *VerifierMock) SendVerification(ctx context.Context, phoneNumber string) (string, error) {
	args := m.Called(ctx, phoneNumber)
	return args.String(0), args.Error(1)
}

func (m *VerifierMock) CheckVerification(ctx context.Context, phoneNumber, code string) (bool, error) {
	args := m.Called(ctx, phoneNumber, code)
	return args.Bool(0), args.Error(1)
}

var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.GroupMessageRepository = (*GroupMessageRepositoryMock)(nil)
var _ repositories.DirectMessageRepository = (*DirectMessageRepositoryMock)(nil)
var _ repositories.InviteRepository = (*InviteRepositoryMock)(nil)
var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ verify.Verifier = (*VerifierMock)(nil)
