package realtime

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"sporthub-service/internal/logger"
	"sporthub-service/internal/models"
	"sporthub-service/internal/observability"
)

// GroupSnapshotFetcher loads the full ordered message list for a group.
type GroupSnapshotFetcher func(ctx context.Context, groupID int) ([]models.GroupMessage, error)

// InboxSnapshotFetcher loads the full descending message list for a user.
type InboxSnapshotFetcher func(ctx context.Context, userID int) ([]models.DirectMessage, error)

// Hub bridges store change notifications to snapshot subscriptions. Every
// change event triggers one full refetch per affected room, and the complete
// replacement list fans out to all of the room's subscribers. There is no
// incremental diffing: correctness rests on the store's ordering being
// stable and complete on each read.
type Hub struct {
	fetchGroup GroupSnapshotFetcher
	fetchInbox InboxSnapshotFetcher

	mu        sync.RWMutex
	groupSubs map[int]map[*GroupSubscription]struct{}
	inboxSubs map[int]map[*InboxSubscription]struct{}
}

// NewHub creates an empty hub.
func NewHub(fetchGroup GroupSnapshotFetcher, fetchInbox InboxSnapshotFetcher) *Hub {
	return &Hub{
		fetchGroup: fetchGroup,
		fetchInbox: fetchInbox,
		groupSubs:  make(map[int]map[*GroupSubscription]struct{}),
		inboxSubs:  make(map[int]map[*InboxSubscription]struct{}),
	}
}

// SubscribeGroup registers a snapshot subscription for a group room.
func (h *Hub) SubscribeGroup(groupID int) *GroupSubscription {
	sub := &GroupSubscription{
		hub:     h,
		groupID: groupID,
		ch:      make(chan []models.GroupMessage, 1),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.groupSubs[groupID]; !ok {
		h.groupSubs[groupID] = make(map[*GroupSubscription]struct{})
	}
	h.groupSubs[groupID][sub] = struct{}{}
	return sub
}

// SubscribeInbox registers a snapshot subscription for a user's inbox.
func (h *Hub) SubscribeInbox(userID int) *InboxSubscription {
	sub := &InboxSubscription{
		hub:    h,
		userID: userID,
		ch:     make(chan []models.DirectMessage, 1),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.inboxSubs[userID]; !ok {
		h.inboxSubs[userID] = make(map[*InboxSubscription]struct{})
	}
	h.inboxSubs[userID][sub] = struct{}{}
	return sub
}

func (h *Hub) removeGroupSub(sub *GroupSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.groupSubs[sub.groupID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.groupSubs, sub.groupID)
		}
	}
}

func (h *Hub) removeInboxSub(sub *InboxSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.inboxSubs[sub.userID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.inboxSubs, sub.userID)
		}
	}
}

// Run consumes the notifier until the context ends or the notification
// stream closes.
func (h *Hub) Run(ctx context.Context, notifier Notifier) {
	for {
		select {
		case <-ctx.Done():
			return
		case notification, ok := <-notifier.Notifications():
			if !ok {
				return
			}
			h.handleNotification(ctx, notification)
		}
	}
}

func (h *Hub) handleNotification(ctx context.Context, notification Notification) {
	switch notification.Channel {
	case ChannelGroupMessages:
		groupID, err := strconv.Atoi(notification.Payload)
		if err != nil {
			logger.Warn().Str("payload", notification.Payload).Msg("bad group notification payload")
			return
		}
		h.refreshGroup(ctx, groupID)
	case ChannelDirectMessages:
		for _, userID := range parseParticipants(notification.Payload) {
			h.refreshInbox(ctx, userID)
		}
	case ChannelWildcard:
		h.refreshAll(ctx)
	}
}

// refreshGroup refetches a group's message list once and delivers it to
// every subscriber of that room.
func (h *Hub) refreshGroup(ctx context.Context, groupID int) {
	h.mu.RLock()
	subs := make([]*GroupSubscription, 0, len(h.groupSubs[groupID]))
	for sub := range h.groupSubs[groupID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	snapshot, err := h.fetchGroup(ctx, groupID)
	if err != nil {
		observability.IncSnapshotFetch("group", "error")
		logger.Error().Err(err).Int("group_id", groupID).Msg("group snapshot fetch failed")
		return
	}
	observability.IncSnapshotFetch("group", "ok")

	for _, sub := range subs {
		sub.deliver(snapshot)
	}
}

func (h *Hub) refreshInbox(ctx context.Context, userID int) {
	h.mu.RLock()
	subs := make([]*InboxSubscription, 0, len(h.inboxSubs[userID]))
	for sub := range h.inboxSubs[userID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	if len(subs) == 0 {
		return
	}

	snapshot, err := h.fetchInbox(ctx, userID)
	if err != nil {
		observability.IncSnapshotFetch("inbox", "error")
		logger.Error().Err(err).Int("user_id", userID).Msg("inbox snapshot fetch failed")
		return
	}
	observability.IncSnapshotFetch("inbox", "ok")

	for _, sub := range subs {
		sub.deliver(snapshot)
	}
}

func (h *Hub) refreshAll(ctx context.Context) {
	h.mu.RLock()
	groupIDs := make([]int, 0, len(h.groupSubs))
	for groupID := range h.groupSubs {
		groupIDs = append(groupIDs, groupID)
	}
	userIDs := make([]int, 0, len(h.inboxSubs))
	for userID := range h.inboxSubs {
		userIDs = append(userIDs, userID)
	}
	h.mu.RUnlock()

	for _, groupID := range groupIDs {
		h.refreshGroup(ctx, groupID)
	}
	for _, userID := range userIDs {
		h.refreshInbox(ctx, userID)
	}
}

// parseParticipants decodes the "sender:recipient" trigger payload.
func parseParticipants(payload string) []int {
	parts := strings.Split(payload, ":")
	ids := make([]int, 0, len(parts))
	seen := map[int]struct{}{}
	for _, part := range parts {
		id, err := strconv.Atoi(part)
		if err != nil {
			logger.Warn().Str("payload", payload).Msg("bad direct-message notification payload")
			return nil
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
