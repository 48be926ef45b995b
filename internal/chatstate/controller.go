package chatstate

import (
	"context"
	"strings"
	"sync"

	"sporthub-service/internal/apperrors"
	"sporthub-service/internal/models"
)

// Store is the slice of the message store the controller drives.
type Store interface {
	ListMessages(ctx context.Context, groupID int) ([]models.GroupMessage, error)
	SendMessage(ctx context.Context, groupID, senderID int, content string) (*models.GroupMessage, error)
	JoinGroup(ctx context.Context, groupID, userID int) error
	LeaveGroup(ctx context.Context, groupID, userID int) error
}

// Subscription is a live snapshot stream for one group.
type Subscription interface {
	Snapshots() <-chan []models.GroupMessage
	Unsubscribe()
}

// SubscribeFunc opens a snapshot subscription for a group.
type SubscribeFunc func(groupID int) Subscription

// State is the view-facing projection of the controller.
type State struct {
	GroupID  int
	Loading  bool
	Messages []models.GroupMessage
	Compose  string
}

// Controller owns the message list, loading flag, and compose text for one
// mounted group context. The lifecycle is fetch-then-subscribe: Mount loads
// the full list, then every store change replaces the list wholesale from a
// fresh store read. Nothing is inserted optimistically.
//
// Each Mount starts a new epoch. Fetch results and snapshots carrying an
// older epoch are discarded, so a slow fetch racing a remount can never
// overwrite the newer context's state.
type Controller struct {
	store     Store
	subscribe SubscribeFunc
	userID    int

	// onChange is invoked with a copy of the state after every change.
	onChange func(State)
	// onMembership is invoked after a join or leave succeeds so the owner
	// can swap selection or exit the view.
	onMembership func(groupID int, joined bool)

	mu       sync.Mutex
	epoch    uint64
	groupID  int
	loading  bool
	messages []models.GroupMessage
	compose  string
	sub      Subscription
}

// Option configures a Controller.
type Option func(*Controller)

// WithOnChange sets the state change callback.
func WithOnChange(fn func(State)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithOnMembership sets the membership change callback.
func WithOnMembership(fn func(groupID int, joined bool)) Option {
	return func(c *Controller) { c.onMembership = fn }
}

// NewController constructs a Controller for one user.
func NewController(store Store, subscribe SubscribeFunc, userID int, opts ...Option) *Controller {
	c := &Controller{store: store, subscribe: subscribe, userID: userID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount switches the controller to a group context. It sets the loading
// flag, fetches the full message list, then opens the live subscription.
// Any previous mount is torn down first.
func (c *Controller) Mount(ctx context.Context, groupID int) error {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	c.groupID = groupID
	c.loading = true
	c.messages = nil
	c.mu.Unlock()
	c.notify()

	messages, err := c.store.ListMessages(ctx, groupID)

	c.mu.Lock()
	if c.epoch != epoch {
		// A newer Mount or Close won the race; this result is stale.
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.loading = false
		c.mu.Unlock()
		c.notify()
		return err
	}
	c.messages = messages
	c.loading = false
	sub := c.subscribe(groupID)
	c.sub = sub
	c.mu.Unlock()
	c.notify()

	go c.pump(epoch, sub)
	return nil
}

// pump replaces the list on every snapshot until the subscription closes or
// the epoch moves on.
func (c *Controller) pump(epoch uint64, sub Subscription) {
	for snapshot := range sub.Snapshots() {
		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		c.messages = snapshot
		c.mu.Unlock()
		c.notify()
	}
}

// Send writes the compose text to the store. On success the compose field is
// cleared; the message itself appears only when the subscription delivers
// the next snapshot.
func (c *Controller) Send(ctx context.Context) error {
	c.mu.Lock()
	groupID := c.groupID
	content := strings.TrimSpace(c.compose)
	c.mu.Unlock()

	if content == "" {
		return apperrors.InvalidArg("message content is empty")
	}

	if _, err := c.store.SendMessage(ctx, groupID, c.userID, content); err != nil {
		return err
	}

	c.mu.Lock()
	c.compose = ""
	c.mu.Unlock()
	c.notify()
	return nil
}

// Join adds the user to a group and reports the change to the owner.
func (c *Controller) Join(ctx context.Context, groupID int) error {
	if err := c.store.JoinGroup(ctx, groupID, c.userID); err != nil {
		return err
	}
	if c.onMembership != nil {
		c.onMembership(groupID, true)
	}
	return nil
}

// Leave removes the user from a group and reports the change to the owner.
func (c *Controller) Leave(ctx context.Context, groupID int) error {
	if err := c.store.LeaveGroup(ctx, groupID, c.userID); err != nil {
		return err
	}
	if c.onMembership != nil {
		c.onMembership(groupID, false)
	}
	return nil
}

// SetCompose updates the compose text.
func (c *Controller) SetCompose(text string) {
	c.mu.Lock()
	c.compose = text
	c.mu.Unlock()
	c.notify()
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	messages := make([]models.GroupMessage, len(c.messages))
	copy(messages, c.messages)
	return State{
		GroupID:  c.groupID,
		Loading:  c.loading,
		Messages: messages,
		Compose:  c.compose,
	}
}

// Close tears down the current mount. Snapshots and fetches still in flight
// are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.epoch++
	if c.sub != nil {
		c.sub.Unsubscribe()
		c.sub = nil
	}
	c.groupID = 0
	c.loading = false
	c.messages = nil
	c.mu.Unlock()
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.mu.Lock()
	state := c.stateLocked()
	c.mu.Unlock()
	c.onChange(state)
}
