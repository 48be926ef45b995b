package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sporthub-service/internal/models"
	"sporthub-service/internal/repositories"
	"sporthub-service/internal/telemetry"
)

// InviteHandler manages group invites and join requests. Accepting either
// one performs the membership mutation in the same transaction as the
// status change: a full group rejects the accept and leaves the record
// pending, so the group-full check applies at acceptance time and a failed
// accept stays retryable.
type InviteHandler struct {
	inviteRepo repositories.InviteRepository
	groupRepo  repositories.GroupRepository
	audit      *telemetry.AuditEmitter
}

// NewInviteHandler constructs an InviteHandler.
func NewInviteHandler(inviteRepo repositories.InviteRepository, groupRepo repositories.GroupRepository, audit *telemetry.AuditEmitter) *InviteHandler {
	return &InviteHandler{inviteRepo: inviteRepo, groupRepo: groupRepo, audit: audit}
}

// CreateInvite handles POST /api/groups/:group_id/invites. Members only.
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	var req struct {
		InviteeID int        `json:"invitee_id" binding:"required"`
		ExpiresAt *time.Time `json:"expires_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invite, err := h.inviteRepo.CreateInvite(c.Request.Context(), groupID, userID, req.InviteeID, req.ExpiresAt)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create invite"})
		return
	}

	h.emitAudit(c, "INFO", "invite created")
	c.JSON(http.StatusCreated, invite)
}

// ListInvites handles GET /api/invites: the caller's pending invites.
func (h *InviteHandler) ListInvites(c *gin.Context) {
	userID := c.GetInt("userID")
	invites, err := h.inviteRepo.ListInvitesForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load invites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// AcceptInvite handles POST /api/invites/:invite_id/accept. Only the invitee
// may accept; acceptance joins the group.
func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	h.resolveInvite(c, models.StatusAccepted)
}

// RejectInvite handles POST /api/invites/:invite_id/reject.
func (h *InviteHandler) RejectInvite(c *gin.Context) {
	h.resolveInvite(c, models.StatusRejected)
}

func (h *InviteHandler) resolveInvite(c *gin.Context, status string) {
	inviteID, err := strconv.Atoi(c.Param("invite_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invite id"})
		return
	}

	userID := c.GetInt("userID")
	invite, err := h.inviteRepo.GetInvite(c.Request.Context(), inviteID)
	if err != nil {
		respondError(c, err)
		return
	}
	if invite.InviteeID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your invite"})
		return
	}

	if status == models.StatusAccepted {
		err = h.inviteRepo.AcceptInvite(c.Request.Context(), invite)
	} else {
		err = h.inviteRepo.ResolveInvite(c.Request.Context(), inviteID, status)
	}
	if err != nil {
		h.emitAudit(c, "ERROR", "invite resolution failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "invite "+status)
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// CreateJoinRequest handles POST /api/groups/:group_id/join-requests.
func (h *InviteHandler) CreateJoinRequest(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if member {
		c.JSON(http.StatusConflict, gin.H{"error": "already a member"})
		return
	}

	request, err := h.inviteRepo.CreateJoinRequest(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create join request"})
		return
	}

	h.emitAudit(c, "INFO", "join request created")
	c.JSON(http.StatusCreated, request)
}

// ListJoinRequests handles GET /api/groups/:group_id/join-requests. Admins
// only, pending requests in arrival order.
func (h *InviteHandler) ListJoinRequests(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	admin, err := h.groupRepo.IsAdmin(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "admin check failed"})
		return
	}
	if !admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}

	requests, err := h.inviteRepo.ListJoinRequests(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load join requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// AcceptJoinRequest handles POST /api/groups/:group_id/join-requests/:request_id/accept.
func (h *InviteHandler) AcceptJoinRequest(c *gin.Context) {
	h.resolveJoinRequest(c, models.StatusAccepted)
}

// RejectJoinRequest handles POST /api/groups/:group_id/join-requests/:request_id/reject.
func (h *InviteHandler) RejectJoinRequest(c *gin.Context) {
	h.resolveJoinRequest(c, models.StatusRejected)
}

func (h *InviteHandler) resolveJoinRequest(c *gin.Context, status string) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	userID := c.GetInt("userID")
	admin, err := h.groupRepo.IsAdmin(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "admin check failed"})
		return
	}
	if !admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}

	request, err := h.inviteRepo.GetJoinRequest(c.Request.Context(), requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	if request.GroupID != groupID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request does not belong to group"})
		return
	}

	if status == models.StatusAccepted {
		err = h.inviteRepo.AcceptJoinRequest(c.Request.Context(), request)
	} else {
		err = h.inviteRepo.ResolveJoinRequest(c.Request.Context(), requestID, status)
	}
	if err != nil {
		h.emitAudit(c, "ERROR", "join request resolution failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "join request "+status)
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *InviteHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
