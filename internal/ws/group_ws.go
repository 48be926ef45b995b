package ws

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"sporthub-service/internal/auth"
	"sporthub-service/internal/models"
	"sporthub-service/internal/observability"
	"sporthub-service/internal/realtime"
	"sporthub-service/internal/repositories"
)

// GroupFeedHandler streams full message-list snapshots for one group over a
// websocket. Each store change produces a complete replacement list; clients
// never receive incremental appends.
type GroupFeedHandler struct {
	hub       *realtime.Hub
	groupRepo repositories.GroupRepository
	sessions  *auth.Service
}

// NewGroupFeedHandler constructs a GroupFeedHandler.
func NewGroupFeedHandler(hub *realtime.Hub, groupRepo repositories.GroupRepository, sessions *auth.Service) *GroupFeedHandler {
	return &GroupFeedHandler{hub: hub, groupRepo: groupRepo, sessions: sessions}
}

// Handle upgrades the connection and streams snapshots until the client
// disconnects.
func (h *GroupFeedHandler) Handle(c *gin.Context) {
	groupID, err := strconv.Atoi(c.Param("group_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	ctx, span := otel.Tracer("sporthub-service/ws").Start(c.Request.Context(), "ws.group_feed")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := sessionUserID(c, h.sessions)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil || !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      userID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	sub := h.hub.SubscribeGroup(groupID)

	observability.IncWSActive("group")
	observability.IncWSEvent("group", "ws_connect")
	_ = observability.PublishEvent(ctx, "ws_events.groups", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload: map[string]interface{}{
			"ws": map[string]interface{}{
				"kind":        "group",
				"resource_id": groupID,
				"event":       "ws_connect",
				"conn_id":     info.ConnID,
				"duration_ms": 0,
				"reason":      "",
			},
			"identity": map[string]interface{}{
				"user_id":   info.UserID,
				"device_id": info.DeviceID,
				"ip":        info.IP,
			},
		},
	}, observability.BuildHeaders(requestID, traceID))

	// Writer: one JSON event per coalesced snapshot.
	go func() {
		for snapshot := range sub.Snapshots() {
			event := models.GroupFeedEvent{Type: "snapshot", GroupID: groupID, Messages: snapshot}
			if err := conn.WriteJSON(event); err != nil {
				sub.Unsubscribe()
				return
			}
		}
	}()

	// Reader: detect close and tear down.
	go func() {
		var closeReason string
		defer func() {
			sub.Unsubscribe()
			observability.DecWSActive("group")
			observability.IncWSEvent("group", "ws_disconnect")
			_ = observability.PublishEvent(ctx, "ws_events.groups", observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload: map[string]interface{}{
					"ws": map[string]interface{}{
						"kind":        "group",
						"resource_id": groupID,
						"event":       "ws_disconnect",
						"conn_id":     info.ConnID,
						"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
						"reason":      closeReason,
					},
					"identity": map[string]interface{}{
						"user_id":   info.UserID,
						"device_id": info.DeviceID,
						"ip":        info.IP,
					},
				},
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("group", "ws_error")
					_ = observability.PublishEvent(ctx, "ws_events.groups", observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload: map[string]interface{}{
							"ws": map[string]interface{}{
								"kind":        "group",
								"resource_id": groupID,
								"event":       "ws_error",
								"conn_id":     info.ConnID,
								"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
								"reason":      closeReason,
							},
							"identity": map[string]interface{}{
								"user_id":   info.UserID,
								"device_id": info.DeviceID,
								"ip":        info.IP,
							},
						},
					}, observability.BuildHeaders(requestID, traceID))
				}
				return
			}
		}
	}()
}
