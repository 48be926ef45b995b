package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sporthub-service/internal/repositories"
	"sporthub-service/internal/telemetry"
)

// DirectMessageHandler manages one-to-one messaging endpoints.
type DirectMessageHandler struct {
	messageRepo repositories.DirectMessageRepository
	audit       *telemetry.AuditEmitter
}

// NewDirectMessageHandler constructs a DirectMessageHandler.
func NewDirectMessageHandler(messageRepo repositories.DirectMessageRepository, audit *telemetry.AuditEmitter) *DirectMessageHandler {
	return &DirectMessageHandler{messageRepo: messageRepo, audit: audit}
}

// SendMessage handles POST /api/messages.
func (h *DirectMessageHandler) SendMessage(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		RecipientID int    `json:"recipient_id" binding:"required"`
		Content     string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RecipientID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	msg, err := h.messageRepo.SendMessage(c.Request.Context(), userID, req.RecipientID, req.Content)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	h.emitAudit(c, "INFO", "direct message sent")
	c.JSON(http.StatusCreated, msg)
}

// GetConversation handles GET /api/conversations/:user_id: the messages
// exchanged between the caller and exactly that user, newest first.
func (h *DirectMessageHandler) GetConversation(c *gin.Context) {
	otherID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	msgs, err := h.messageRepo.GetConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GetRecentConversations handles GET /api/conversations: the latest message
// the caller sent to each distinct recipient.
func (h *DirectMessageHandler) GetRecentConversations(c *gin.Context) {
	userID := c.GetInt("userID")
	msgs, err := h.messageRepo.GetRecentConversations(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": msgs})
}

// GetUnreadMessages handles GET /api/messages/unread.
func (h *DirectMessageHandler) GetUnreadMessages(c *gin.Context) {
	userID := c.GetInt("userID")
	msgs, err := h.messageRepo.GetUnreadMessages(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load unread messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// MarkMessageAsRead handles POST /api/messages/:message_id/read.
func (h *DirectMessageHandler) MarkMessageAsRead(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	if err := h.messageRepo.MarkMessageAsRead(c.Request.Context(), messageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": true})
}

func (h *DirectMessageHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
