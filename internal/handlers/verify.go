package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sporthub-service/internal/apperrors"
	"sporthub-service/internal/auth"
	"sporthub-service/internal/observability"
	"sporthub-service/internal/repositories"
	"sporthub-service/internal/telemetry"
	"sporthub-service/internal/verify"
)

// VerificationHandler exposes the two-step phone verification flow. A
// successful code check upserts the account and mints a session token.
type VerificationHandler struct {
	verifier verify.Verifier
	users    repositories.UserRepository
	sessions *auth.Service
	audit    *telemetry.AuditEmitter
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(verifier verify.Verifier, users repositories.UserRepository, sessions *auth.Service, audit *telemetry.AuditEmitter) *VerificationHandler {
	return &VerificationHandler{verifier: verifier, users: users, sessions: sessions, audit: audit}
}

// SendVerification handles POST /api/send-verification.
func (h *VerificationHandler) SendVerification(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PhoneNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "phoneNumber is required"})
		return
	}

	status, err := h.verifier.SendVerification(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		observability.IncVerification("send", "error")
		h.respondVerificationError(c, err)
		return
	}

	observability.IncVerification("send", "ok")
	h.emitAudit(c, "INFO", "verification code sent")
	c.JSON(http.StatusOK, gin.H{"success": true, "status": status})
}

// VerifyCode handles POST /api/verify-code.
func (h *VerificationHandler) VerifyCode(c *gin.Context) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
		Code        string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PhoneNumber == "" || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "phoneNumber and code are required"})
		return
	}

	valid, err := h.verifier.CheckVerification(c.Request.Context(), req.PhoneNumber, req.Code)
	if err != nil {
		observability.IncVerification("check", "error")
		h.respondVerificationError(c, err)
		return
	}
	observability.IncVerification("check", "ok")

	if !valid {
		c.JSON(http.StatusOK, gin.H{"success": true, "valid": false})
		return
	}

	user, err := h.users.UpsertByPhone(c.Request.Context(), req.PhoneNumber)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to verify code"})
		return
	}

	token, err := h.sessions.Generate(user.ID, user.Phone)
	if err != nil {
		h.emitAudit(c, "ERROR", "internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to verify code"})
		return
	}

	h.emitAudit(c, "INFO", "phone verified")
	c.JSON(http.StatusOK, gin.H{"success": true, "valid": true, "token": token, "user_id": user.ID})
}

// respondVerificationError keeps the original endpoint contract: validation
// failures and known provider errors are 400, everything else 500.
func (h *VerificationHandler) respondVerificationError(c *gin.Context, err error) {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInvalidArgument, apperrors.CodeRateLimited:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	default:
		h.emitAudit(c, "ERROR", "verification provider failure")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "verification failed"})
	}
}

func (h *VerificationHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
