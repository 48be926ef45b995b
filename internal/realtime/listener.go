package realtime

import (
	"time"

	"github.com/lib/pq"

	"sporthub-service/internal/logger"
)

// Channel names the notify triggers publish on.
const (
	ChannelGroupMessages  = "group_messages_changed"
	ChannelDirectMessages = "direct_messages_changed"

	// ChannelWildcard is emitted after a listener reconnect; notifications
	// may have been lost, so every active room must refetch.
	ChannelWildcard = "*"
)

// Notification is a single store change event.
type Notification struct {
	Channel string
	Payload string
}

// Notifier is a stream of store change events.
type Notifier interface {
	Notifications() <-chan Notification
	Close() error
}

// PGListener adapts pq.Listener to the Notifier interface.
type PGListener struct {
	listener *pq.Listener
	out      chan Notification
}

// NewPGListener opens a LISTEN connection subscribed to the given channels.
func NewPGListener(dsn string, channels ...string) (*PGListener, error) {
	listener := pq.NewListener(dsn, 2*time.Second, time.Minute, func(event pq.ListenerEventType, err error) {
		if err != nil {
			logger.Error().Err(err).Int("event", int(event)).Msg("pg listener event")
		}
	})

	for _, channel := range channels {
		if err := listener.Listen(channel); err != nil {
			listener.Close()
			return nil, err
		}
	}

	l := &PGListener{listener: listener, out: make(chan Notification, 64)}
	go l.pump()
	return l, nil
}

func (l *PGListener) pump() {
	defer close(l.out)
	for notification := range l.listener.Notify {
		if notification == nil {
			// pq signals a reconnect with a nil notification
			l.out <- Notification{Channel: ChannelWildcard}
			continue
		}
		l.out <- Notification{Channel: notification.Channel, Payload: notification.Extra}
	}
}

// Notifications returns the change-event stream. The channel closes when the
// listener shuts down.
func (l *PGListener) Notifications() <-chan Notification {
	return l.out
}

// Close tears down the LISTEN connection.
func (l *PGListener) Close() error {
	return l.listener.Close()
}
