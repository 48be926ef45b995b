package realtime

import (
	"sync"

	"sporthub-service/internal/models"
)

// GroupSubscription delivers full replacement snapshots of one group's
// ordered message list. The channel has capacity one: an undelivered
// snapshot is replaced by a newer one, so rapid changes coalesce and the
// receiver always converges on the latest store read.
type GroupSubscription struct {
	hub     *Hub
	groupID int
	ch      chan []models.GroupMessage

	mu     sync.Mutex
	closed bool
}

// Snapshots returns the snapshot channel. It closes after Unsubscribe.
func (s *GroupSubscription) Snapshots() <-chan []models.GroupMessage {
	return s.ch
}

// Unsubscribe removes the subscription. No snapshot is delivered after it
// returns; calling it twice is safe.
func (s *GroupSubscription) Unsubscribe() {
	s.hub.removeGroupSub(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func (s *GroupSubscription) deliver(snapshot []models.GroupMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch: // drop the stale pending snapshot
	default:
	}
	s.ch <- snapshot
}

// InboxSubscription is the direct-message counterpart, keyed by user and
// carrying the user's full descending message list.
type InboxSubscription struct {
	hub    *Hub
	userID int
	ch     chan []models.DirectMessage

	mu     sync.Mutex
	closed bool
}

// Snapshots returns the snapshot channel. It closes after Unsubscribe.
func (s *InboxSubscription) Snapshots() <-chan []models.DirectMessage {
	return s.ch
}

// Unsubscribe removes the subscription. No snapshot is delivered after it
// returns; calling it twice is safe.
func (s *InboxSubscription) Unsubscribe() {
	s.hub.removeInboxSub(s)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
}

func (s *InboxSubscription) deliver(snapshot []models.DirectMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snapshot
}
