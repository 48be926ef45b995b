package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sporthub-service/internal/apperrors"
)

func statusForCode(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodePermissionDenied:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeAlreadyExists, apperrors.CodeFailedPrecondition:
		return http.StatusConflict
	case apperrors.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a typed error to its HTTP status. Internal causes are
// never echoed to the client.
func respondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	status := statusForCode(code)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}
