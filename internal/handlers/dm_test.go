package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sporthub-service/internal/mocks"
	"sporthub-service/internal/models"
	"sporthub-service/internal/repositories"
)

func setupDMRouter(handler *DirectMessageHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/api/messages", handler.SendMessage)
	r.GET("/api/messages/unread", handler.GetUnreadMessages)
	r.POST("/api/messages/:message_id/read", handler.MarkMessageAsRead)
	r.GET("/api/conversations", handler.GetRecentConversations)
	r.GET("/api/conversations/:user_id", handler.GetConversation)
	return r
}

func TestSendDirectMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.DirectMessageRepositoryMock)
	handler := NewDirectMessageHandler(messageRepo, nil)
	router := setupDMRouter(handler)

	messageRepo.On("SendMessage", mock.Anything, 1, 2, "hi").
		Return(models.DirectMessage{ID: 10, SenderID: 1, RecipientID: 2, Content: "hi"}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"recipient_id":2,"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestSendDirectMessageToSelfRejected(t *testing.T) {
	handler := NewDirectMessageHandler(new(mocks.DirectMessageRepositoryMock), nil)
	router := setupDMRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"recipient_id":1,"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendDirectMessageInvalidBody(t *testing.T) {
	handler := NewDirectMessageHandler(new(mocks.DirectMessageRepositoryMock), nil)
	router := setupDMRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/messages", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetConversationSuccess(t *testing.T) {
	messageRepo := new(mocks.DirectMessageRepositoryMock)
	handler := NewDirectMessageHandler(messageRepo, nil)
	router := setupDMRouter(handler)

	messageRepo.On("GetConversation", mock.Anything, 1, 2).
		Return([]models.DirectMessage{{ID: 3, SenderID: 2, RecipientID: 1}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestGetConversationInvalidUserID(t *testing.T) {
	handler := NewDirectMessageHandler(new(mocks.DirectMessageRepositoryMock), nil)
	router := setupDMRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/bob", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRecentConversations(t *testing.T) {
	messageRepo := new(mocks.DirectMessageRepositoryMock)
	handler := NewDirectMessageHandler(messageRepo, nil)
	router := setupDMRouter(handler)

	messageRepo.On("GetRecentConversations", mock.Anything, 1).
		Return([]models.DirectMessage{{ID: 9, SenderID: 1, RecipientID: 4}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestGetUnreadMessages(t *testing.T) {
	messageRepo := new(mocks.DirectMessageRepositoryMock)
	handler := NewDirectMessageHandler(messageRepo, nil)
	router := setupDMRouter(handler)

	messageRepo.On("GetUnreadMessages", mock.Anything, 1).
		Return([]models.DirectMessage{{ID: 5, RecipientID: 1, Read: false}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/messages/unread", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}

func TestMarkMessageAsReadNotFound(t *testing.T) {
	messageRepo := new(mocks.DirectMessageRepositoryMock)
	handler := NewDirectMessageHandler(messageRepo, nil)
	router := setupDMRouter(handler)

	messageRepo.On("MarkMessageAsRead", mock.Anything, 77).Return(repositories.ErrMessageNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/messages/77/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertExpectations(t)
}
