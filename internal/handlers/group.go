package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sporthub-service/internal/repositories"
	"sporthub-service/internal/telemetry"
)

// GroupHandler manages group discovery, membership and messaging endpoints.
type GroupHandler struct {
	groupRepo   repositories.GroupRepository
	messageRepo repositories.GroupMessageRepository
	audit       *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groupRepo repositories.GroupRepository, messageRepo repositories.GroupMessageRepository, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		audit:       audit,
	}
}

// CreateGroup handles POST /api/groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		Sport       string   `json:"sport" binding:"required"`
		IsPrivate   bool     `json:"is_private"`
		PhotoURL    *string  `json:"photo_url"`
		MaxMembers  *int     `json:"max_members"`
		Rules       *string  `json:"rules"`
		Tags        []string `json:"tags"`
		MemberIDs   []int    `json:"member_ids"`
		AdminIDs    []int    `json:"admin_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MaxMembers != nil && *req.MaxMembers < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_members must be positive"})
		return
	}

	group, err := h.groupRepo.CreateGroup(c.Request.Context(), repositories.CreateGroupParams{
		Name:        req.Name,
		Description: req.Description,
		Sport:       req.Sport,
		CreatorID:   userID,
		IsPrivate:   req.IsPrivate,
		PhotoURL:    req.PhotoURL,
		MaxMembers:  req.MaxMembers,
		Rules:       req.Rules,
		Tags:        req.Tags,
		MemberIDs:   req.MemberIDs,
		AdminIDs:    req.AdminIDs,
	})
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	h.emitAudit(c, "INFO", "group created")
	c.JSON(http.StatusCreated, group)
}

// GetGroup handles GET /api/groups/:group_id.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	group, err := h.groupRepo.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// ListGroups handles GET /api/groups. With ?sport= it filters by exact
// sport, otherwise it returns the caller's groups.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	if sport := c.Query("sport"); sport != "" {
		groups, err := h.groupRepo.GetGroupsBySport(c.Request.Context(), sport)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"groups": groups})
		return
	}

	userID := c.GetInt("userID")
	groups, err := h.groupRepo.GetUserGroups(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// SearchGroups handles GET /api/groups/search?q=.
func (h *GroupHandler) SearchGroups(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	groups, err := h.groupRepo.SearchGroups(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// JoinGroup handles POST /api/groups/:group_id/join.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	if err := h.groupRepo.JoinGroup(c.Request.Context(), groupID, userID); err != nil {
		h.emitAudit(c, "ERROR", "join failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "user joined group")
	c.JSON(http.StatusOK, gin.H{"joined": true})
}

// LeaveGroup handles POST /api/groups/:group_id/leave.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	if err := h.groupRepo.LeaveGroup(c.Request.Context(), groupID, userID); err != nil {
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "user left group")
	c.JSON(http.StatusOK, gin.H{"left": true})
}

// GetGroupMessages handles GET /api/groups/:group_id/messages. Members only.
func (h *GroupHandler) GetGroupMessages(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		h.emitAudit(c, "ERROR", "not allowed")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	msgs, err := h.messageRepo.ListGroupMessages(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostGroupMessage handles POST /api/groups/:group_id/messages. The store
// write triggers the change notification that fans the new list out to
// websocket subscribers; nothing is pushed from here.
func (h *GroupHandler) PostGroupMessage(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		h.emitAudit(c, "ERROR", "not allowed")
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.CreateGroupMessage(c.Request.Context(), groupID, userID, req.Content)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	h.emitAudit(c, "INFO", "group message sent")
	c.JSON(http.StatusCreated, msg)
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func parseGroupID(c *gin.Context) (int, bool) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return 0, false
	}
	return groupID, true
}
