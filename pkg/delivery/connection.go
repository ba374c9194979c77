package delivery

import (
	"sync"

	"github.com/google/uuid"

	"github.com/platformkit/notifyhub/pkg/authz"
	"github.com/platformkit/notifyhub/pkg/notification"
)

// Connection is one live client attachment to the hub. Each connection
// owns a bounded outbound buffer drained by a single transport worker;
// when the buffer is full, sends are dropped rather than blocking the
// fan-out to other connections.
type Connection struct {
	id     string
	userID string
	role   authz.Role

	// namespace membership; guarded by the hub's mutex, like the hub's own
	// namespace maps.
	namespaces map[authz.Namespace]struct{}

	out  chan *notification.Message
	done chan struct{}

	closeOnce sync.Once
}

func newConnection(userID string, role authz.Role, namespaces []authz.Namespace, bufferSize int) *Connection {
	members := make(map[authz.Namespace]struct{}, len(namespaces))
	for _, ns := range namespaces {
		members[ns] = struct{}{}
	}
	return &Connection{
		id:         uuid.NewString(),
		userID:     userID,
		role:       role,
		namespaces: members,
		out:        make(chan *notification.Message, bufferSize),
		done:       make(chan struct{}),
	}
}

// ID returns the connection's unique id.
func (c *Connection) ID() string { return c.id }

// UserID returns the authenticated user behind the connection.
func (c *Connection) UserID() string { return c.userID }

// Role returns the connection's authenticated role.
func (c *Connection) Role() authz.Role { return c.role }

// Outbound is the channel the transport worker drains. It is never
// closed; workers select on Done to learn the connection is detached.
func (c *Connection) Outbound() <-chan *notification.Message { return c.out }

// Done is closed when the connection is detached, whichever side initiated
// it.
func (c *Connection) Done() <-chan struct{} { return c.done }

// send enqueues without blocking; false means the buffer was full (or the
// connection already closed) and the message was dropped for this
// connection.
func (c *Connection) send(msg *notification.Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.out <- msg:
		return true
	default:
		return false
	}
}

// close marks the connection detached. The outbound channel stays open:
// an in-flight fan-out may still hold a reference, and sending to a closed
// channel would panic, so detachment is signalled through done instead.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
