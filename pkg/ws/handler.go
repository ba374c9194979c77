package ws

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/platformkit/notifyhub/pkg/authz"
	"github.com/platformkit/notifyhub/pkg/clientip"
	"github.com/platformkit/notifyhub/pkg/delivery"
	"github.com/platformkit/notifyhub/pkg/fingerprint"
	"github.com/platformkit/notifyhub/pkg/logger"
)

// Identity is the authenticated caller behind a handshake.
type Identity struct {
	UserID    string
	Role      authz.Role
	SessionID string
}

// Authenticator resolves the caller's identity from the handshake request.
// Returning an error rejects the upgrade with 401.
type Authenticator func(r *http.Request) (Identity, error)

// AckFunc receives client receipt acknowledgements.
type AckFunc func(ctx context.Context, identity Identity, messageID string)

// Handler upgrades HTTP requests to websocket connections attached to the
// delivery hub. Each accepted connection gets a read pump enforcing the
// tiny client protocol and a write pump draining the hub's outbound buffer
// with bounded write deadlines, so a dead peer never stalls delivery.
type Handler struct {
	hub  *delivery.Hub
	auth Authenticator

	upgrader websocket.Upgrader
	log      *slog.Logger

	writeTimeout   time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
	maxMessageSize int64

	onAck AckFunc
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the handler's logger.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// WithWriteTimeout bounds each outbound frame write.
func WithWriteTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithPongWait sets how long a peer may stay silent before the read pump
// gives up; pings go out at a fraction of this.
func WithPongWait(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.pongWait = d
			h.pingPeriod = d * 9 / 10
		}
	}
}

// WithAckFunc sets the receipt acknowledgement callback.
func WithAckFunc(fn AckFunc) HandlerOption {
	return func(h *Handler) {
		h.onAck = fn
	}
}

// WithCheckOrigin overrides the upgrader's origin policy.
func WithCheckOrigin(check func(r *http.Request) bool) HandlerOption {
	return func(h *Handler) {
		if check != nil {
			h.upgrader.CheckOrigin = check
		}
	}
}

// NewHandler creates a websocket handler over the hub.
func NewHandler(hub *delivery.Hub, auth Authenticator, opts ...HandlerOption) (*Handler, error) {
	if hub == nil {
		return nil, ErrHubRequired
	}
	if auth == nil {
		return nil, ErrAuthenticatorRequired
	}

	h := &Handler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:            slog.New(slog.DiscardHandler),
		writeTimeout:   10 * time.Second,
		pongWait:       60 * time.Second,
		pingPeriod:     54 * time.Second,
		maxMessageSize: 4096,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Routes mounts the handshake endpoint. The client IP and request
// fingerprint middlewares run first so attach logging can correlate a
// connection with the producer-side abuse accounting.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(clientip.Middleware)
	r.Use(fingerprint.Middleware)
	r.Get("/", h.ServeHTTP)
	return r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auth(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if identity.UserID == "" || !identity.Role.Valid() {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.DebugContext(r.Context(), "websocket upgrade failed", slog.Any("error", err))
		return
	}

	// The connection joins its own user namespace plus every category
	// namespace its role allows.
	namespaces := append(
		[]authz.Namespace{authz.UserNamespace(identity.UserID)},
		authz.NamespacesForRole(identity.Role)...,
	)

	conn, err := h.hub.Attach(r.Context(), identity.UserID, identity.Role, namespaces)
	if err != nil {
		_ = sock.Close()
		return
	}

	h.log.InfoContext(r.Context(), "connection attached",
		logger.UserID(identity.UserID),
		logger.Role(identity.Role.String()),
		slog.String("connection_id", conn.ID()),
		logger.ClientIP(clientip.GetIPFromContext(r.Context())),
		slog.String("request_fingerprint", fingerprint.GetFingerprintFromContext(r.Context())),
	)

	go h.writePump(sock, conn)
	go h.readPump(sock, conn, identity)
}

// writePump drains the hub's outbound buffer to the socket and keeps the
// peer alive with pings. It owns all writes to the socket.
func (h *Handler) writePump(sock *websocket.Conn, conn *delivery.Connection) {
	ticker := time.NewTicker(h.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sock.Close()
	}()

	for {
		select {
		case msg := <-conn.Outbound():
			_ = sock.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := sock.WriteJSON(msg.Frame()); err != nil {
				h.hub.Detach(conn)
				return
			}

		case <-ticker.C:
			_ = sock.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.hub.Detach(conn)
				return
			}

		case <-conn.Done():
			_ = sock.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			_ = sock.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump enforces the client protocol: only join and ack frames are
// accepted, anything else closes the connection.
func (h *Handler) readPump(sock *websocket.Conn, conn *delivery.Connection, identity Identity) {
	defer func() {
		h.hub.Detach(conn)
		_ = sock.Close()
	}()

	sock.SetReadLimit(h.maxMessageSize)
	_ = sock.SetReadDeadline(time.Now().Add(h.pongWait))
	sock.SetPongHandler(func(string) error {
		return sock.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			return
		}

		frame, err := parseClientFrame(raw)
		if err != nil {
			h.log.Warn("client protocol violation",
				slog.String("user_id", identity.UserID),
				slog.String("connection_id", conn.ID()),
				slog.Any("error", err),
			)
			return
		}

		switch frame.Op {
		case OpJoin:
			if !h.allowedNamespace(identity, authz.Namespace(frame.Namespace)) {
				h.log.Warn("join refused",
					slog.String("user_id", identity.UserID),
					slog.String("namespace", frame.Namespace),
				)
				continue
			}
			if err := h.hub.Join(conn, authz.Namespace(frame.Namespace)); err != nil {
				return
			}

		case OpAck:
			if h.onAck != nil {
				h.onAck(context.Background(), identity, frame.MessageID)
			} else {
				h.log.Debug("message acknowledged",
					slog.String("user_id", identity.UserID),
					slog.String("message_id", frame.MessageID),
				)
			}
		}
	}
}

// allowedNamespace restricts joins to the caller's own user namespace and
// the category namespaces the role may see.
func (h *Handler) allowedNamespace(identity Identity, ns authz.Namespace) bool {
	if ns == authz.UserNamespace(identity.UserID) {
		return true
	}
	return slices.Contains(authz.NamespacesForRole(identity.Role), ns)
}
