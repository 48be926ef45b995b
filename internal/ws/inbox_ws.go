package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"

	"sporthub-service/internal/auth"
	"sporthub-service/internal/logger"
	"sporthub-service/internal/models"
	"sporthub-service/internal/observability"
	"sporthub-service/internal/realtime"
)

// InboxFeedHandler streams full direct-message snapshots for the
// authenticated user.
type InboxFeedHandler struct {
	hub      *realtime.Hub
	sessions *auth.Service
}

// NewInboxFeedHandler constructs an InboxFeedHandler.
func NewInboxFeedHandler(hub *realtime.Hub, sessions *auth.Service) *InboxFeedHandler {
	return &InboxFeedHandler{hub: hub, sessions: sessions}
}

// Handle upgrades the connection and streams inbox snapshots.
func (h *InboxFeedHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("sporthub-service/ws").Start(c.Request.Context(), "ws.inbox_feed")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := sessionUserID(c, h.sessions)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	connID := newConnID()
	connectedAt := time.Now()
	sub := h.hub.SubscribeInbox(userID)

	observability.IncWSActive("inbox")
	observability.IncWSEvent("inbox", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.inbox", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        "inbox",
				"resource_id": userID,
				"event":       "ws_connect",
				"conn_id":     connID,
			},
			"identity": map[string]interface{}{
				"user_id": userID,
				"ip":      observability.IPFromRequest(c.Request),
			},
		},
	}, observability.BuildHeaders(observability.RequestIDFromRequest(c.Request), span.SpanContext().TraceID().String()))

	go func() {
		for snapshot := range sub.Snapshots() {
			event := models.InboxFeedEvent{Type: "snapshot", UserID: userID, Messages: snapshot}
			if err := conn.WriteJSON(event); err != nil {
				sub.Unsubscribe()
				return
			}
		}
	}()

	go func() {
		defer func() {
			sub.Unsubscribe()
			observability.DecWSActive("inbox")
			observability.IncWSEvent("inbox", "ws_disconnect")
			logger.Info().
				Str("conn_id", connID).
				Int("user_id", userID).
				Int64("duration_ms", time.Since(connectedAt).Milliseconds()).
				Msg("inbox feed closed")
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
