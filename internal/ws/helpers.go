package ws

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sporthub-service/internal/auth"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newConnID() string {
	return uuid.NewString()
}

// sessionUserID authenticates a websocket request. Browsers cannot set
// headers on websocket dials, so a token query parameter is accepted too.
func sessionUserID(c *gin.Context, sessions *auth.Service) (int, error) {
	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	parts := strings.Split(token, " ")
	if len(parts) != 2 {
		return 0, auth.ErrTokenInvalid
	}
	claims, err := sessions.Validate(parts[1])
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}
