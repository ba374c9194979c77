package delivery

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/platformkit/notifyhub/pkg/authz"
	"github.com/platformkit/notifyhub/pkg/notification"
	"github.com/platformkit/notifyhub/pkg/offline"
)

var (
	ErrHubClosed       = errors.New("delivery hub is closed")
	ErrStorageRequired = errors.New("offline storage is required")
)

// Hub routes validated, authorized messages to live connections grouped by
// namespace, handing individually-addressed messages to offline storage
// when the recipient has no live connection.
//
// Fan-out never blocks: each connection has a bounded buffer, and a full
// buffer means that connection misses the message (logged, counted,
// delivery to everyone else proceeds).
type Hub struct {
	mu         sync.RWMutex
	namespaces map[authz.Namespace]map[*Connection]struct{}
	byUser     map[string]map[*Connection]struct{}
	closed     bool

	store      offline.Storage
	offlineTTL time.Duration
	bufferSize int

	log *slog.Logger
	now func() time.Time
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBufferSize sets the per-connection outbound buffer size.
func WithBufferSize(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithOfflineTTL sets how long queued entries survive unreplayed.
func WithOfflineTTL(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 {
			h.offlineTTL = d
		}
	}
}

// WithLogger sets the hub's logger.
func WithLogger(log *slog.Logger) HubOption {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// WithHubClock overrides the hub's time source. Intended for tests.
func WithHubClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// NewHub creates a hub over the given offline storage.
func NewHub(store offline.Storage, opts ...HubOption) (*Hub, error) {
	if store == nil {
		return nil, ErrStorageRequired
	}

	h := &Hub{
		namespaces: make(map[authz.Namespace]map[*Connection]struct{}),
		byUser:     make(map[string]map[*Connection]struct{}),
		store:      store,
		offlineTTL: 72 * time.Hour,
		bufferSize: 64,
		log:        slog.New(slog.DiscardHandler),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Attach registers a connection for the user in the given namespaces, then
// drains and replays the user's offline backlog in enqueue order. Replayed
// entries go only to the new connection, so each is delivered exactly once.
// A backlog larger than the connection buffer is replayed up to capacity
// and the remainder is requeued in order for the next handshake; entries
// are only gone once they reached a buffer or expired.
func (h *Hub) Attach(ctx context.Context, userID string, role authz.Role, namespaces []authz.Namespace) (*Connection, error) {
	if userID == "" {
		return nil, offline.ErrUserIDRequired
	}

	conn := newConnection(userID, role, namespaces, h.bufferSize)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	for _, ns := range namespaces {
		members, ok := h.namespaces[ns]
		if !ok {
			members = make(map[*Connection]struct{})
			h.namespaces[ns] = members
		}
		members[conn] = struct{}{}
	}
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[*Connection]struct{})
	}
	h.byUser[userID][conn] = struct{}{}
	h.mu.Unlock()

	backlog, err := h.store.Drain(ctx, userID)
	if err != nil {
		// The connection stays usable; the backlog stays for the next
		// handshake on storages where the drain failed before deletion.
		h.log.ErrorContext(ctx, "offline backlog drain failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return conn, nil
	}

	for i, entry := range backlog {
		if conn.send(entry.Message) {
			continue
		}

		// Buffer full: the drain already removed these entries, so put the
		// rest back in order for the next handshake instead of losing them.
		requeued := 0
		for _, rest := range backlog[i:] {
			if err := h.store.Enqueue(ctx, rest); err != nil {
				h.log.ErrorContext(ctx, "backlog requeue failed",
					slog.String("user_id", userID),
					slog.String("message_id", rest.Message.ID),
					slog.Any("error", err),
				)
				continue
			}
			requeued++
		}
		h.log.WarnContext(ctx, "replay paused on backpressure",
			slog.String("user_id", userID),
			slog.String("connection_id", conn.id),
			slog.Int("delivered", i),
			slog.Int("requeued", requeued),
		)
		break
	}

	return conn, nil
}

// Detach removes the connection from every namespace and signals Done.
// Safe to call for an already-detached connection.
func (h *Hub) Detach(conn *Connection) {
	if conn == nil {
		return
	}

	h.mu.Lock()
	removed := h.removeLocked(conn)
	h.mu.Unlock()

	if removed {
		conn.close()
	}
}

// removeLocked unregisters the connection; reports whether it was present.
func (h *Hub) removeLocked(conn *Connection) bool {
	present := false
	if members, ok := h.byUser[conn.userID]; ok {
		if _, ok := members[conn]; ok {
			present = true
			delete(members, conn)
			if len(members) == 0 {
				delete(h.byUser, conn.userID)
			}
		}
	}
	for ns := range conn.namespaces {
		if members, ok := h.namespaces[ns]; ok {
			delete(members, conn)
			if len(members) == 0 {
				delete(h.namespaces, ns)
			}
		}
	}
	return present
}

// Join adds the connection to one more namespace after the handshake.
func (h *Hub) Join(conn *Connection, ns authz.Namespace) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHubClosed
	}
	if _, ok := h.byUser[conn.userID][conn]; !ok {
		return ErrHubClosed
	}

	members, ok := h.namespaces[ns]
	if !ok {
		members = make(map[*Connection]struct{})
		h.namespaces[ns] = members
	}
	members[conn] = struct{}{}
	conn.namespaces[ns] = struct{}{}
	return nil
}

// Deliver fans the message out to the connections selected by its scope
// within the authorized namespaces. For user scope with zero live
// connections the message is queued offline; role and broadcast scopes are
// live-only. A slow connection only loses its own copy.
func (h *Hub) Deliver(ctx context.Context, msg *notification.Message, namespaces []authz.Namespace) error {
	targets := h.selectTargets(msg, namespaces)

	if len(targets) == 0 {
		if msg.Scope.Kind != notification.ScopeKindUser {
			return nil
		}
		now := h.now()
		entry := offline.NewEntry(msg.Scope.UserID, msg, now, h.offlineTTL)
		if err := h.store.Enqueue(ctx, entry); err != nil {
			return err
		}
		h.log.DebugContext(ctx, "message queued offline",
			slog.String("user_id", msg.Scope.UserID),
			slog.String("message_id", msg.ID),
		)
		return nil
	}

	for _, conn := range targets {
		if !conn.send(msg) {
			h.log.WarnContext(ctx, "delivery dropped on backpressure",
				slog.String("connection_id", conn.id),
				slog.String("user_id", conn.userID),
				slog.String("message_id", msg.ID),
			)
		}
	}
	return nil
}

// selectTargets snapshots the connections the message's scope addresses.
func (h *Hub) selectTargets(msg *notification.Message, namespaces []authz.Namespace) []*Connection {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil
	}

	var targets []*Connection
	seen := make(map[*Connection]struct{})

	for _, ns := range namespaces {
		for conn := range h.namespaces[ns] {
			if _, dup := seen[conn]; dup {
				continue
			}
			if msg.Scope.Kind == notification.ScopeKindRole && conn.role.String() != msg.Scope.Role {
				continue
			}
			seen[conn] = struct{}{}
			targets = append(targets, conn)
		}
	}
	return targets
}

// RevokeActor detaches every live connection belonging to the user. Used
// by the abuse response path to force session re-validation.
func (h *Hub) RevokeActor(userID string) int {
	h.mu.Lock()
	var conns []*Connection
	for conn := range h.byUser[userID] {
		conns = append(conns, conn)
	}
	for _, conn := range conns {
		h.removeLocked(conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}

	if len(conns) > 0 {
		h.log.Warn("actor connections revoked",
			slog.String("user_id", userID),
			slog.Int("connections", len(conns)),
		)
	}
	return len(conns)
}

// ConnectionCount reports the number of live connections for a user.
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// Close detaches every connection and rejects further attachments.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true

	var conns []*Connection
	for _, members := range h.byUser {
		for conn := range members {
			conns = append(conns, conn)
		}
	}
	h.namespaces = make(map[authz.Namespace]map[*Connection]struct{})
	h.byUser = make(map[string]map[*Connection]struct{})
	h.mu.Unlock()

	for _, conn := range conns {
		conn.close()
	}
}
