package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/notifyhub/pkg/authz"
	"github.com/platformkit/notifyhub/pkg/delivery"
	"github.com/platformkit/notifyhub/pkg/notification"
	"github.com/platformkit/notifyhub/pkg/offline"
	"github.com/platformkit/notifyhub/pkg/ws"
)

func headerAuth(r *http.Request) (ws.Identity, error) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return ws.Identity{}, ws.ErrUnauthenticated
	}
	role, err := authz.ParseRole(r.Header.Get("X-Role"))
	if err != nil {
		return ws.Identity{}, err
	}
	return ws.Identity{UserID: userID, Role: role, SessionID: r.Header.Get("X-Session-ID")}, nil
}

func newTestServer(t *testing.T, opts ...ws.HandlerOption) (*httptest.Server, *delivery.Hub) {
	t.Helper()

	store := offline.NewMemoryStorage()
	t.Cleanup(store.Close)

	hub, err := delivery.NewHub(store)
	require.NoError(t, err)
	t.Cleanup(hub.Close)

	handler, err := ws.NewHandler(hub, headerAuth, opts...)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/ws", handler.Routes())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server, userID, role string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("X-User-ID", userID)
	header.Set("X-Role", role)

	sock, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = sock.Close() })

	return sock
}

func readFrame(t *testing.T, sock *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, sock.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := sock.ReadMessage()
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame
}

func liveMessage(userID string) *notification.Message {
	return &notification.Message{
		ID:        uuid.NewString(),
		Type:      notification.TypeSuccess,
		Category:  notification.CategoryUser,
		Priority:  notification.PriorityHigh,
		Title:     "Deploy finished",
		Body:      "Build 42 is live",
		Scope:     notification.UserScope(userID),
		CreatedAt: time.Now().UTC(),
	}
}

func TestHandler_RejectsUnauthenticated(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandler_DeliversFrames(t *testing.T) {
	t.Parallel()

	srv, hub := newTestServer(t)
	sock := dial(t, srv, "u1", "user")

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("u1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	msg := liveMessage("u1")
	require.NoError(t, hub.Deliver(context.Background(), msg, []authz.Namespace{authz.UserNamespace("u1")}))

	frame := readFrame(t, sock)
	assert.Equal(t, msg.ID, frame["id"])
	assert.Equal(t, "success", frame["type"])
	assert.Equal(t, "user", frame["category"])
	assert.Equal(t, "high", frame["priority"])
	assert.Equal(t, "Deploy finished", frame["title"])
	assert.Equal(t, "Build 42 is live", frame["message"])
}

func TestHandler_ReplaysOfflineBacklogOnHandshake(t *testing.T) {
	t.Parallel()

	srv, hub := newTestServer(t)

	// Queued while the user was away.
	msg := liveMessage("u1")
	require.NoError(t, hub.Deliver(context.Background(), msg, []authz.Namespace{authz.UserNamespace("u1")}))

	sock := dial(t, srv, "u1", "user")
	frame := readFrame(t, sock)
	assert.Equal(t, msg.ID, frame["id"])
}

func TestHandler_AckInvokesCallback(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var acked []string

	srv, hub := newTestServer(t, ws.WithAckFunc(func(_ context.Context, identity ws.Identity, messageID string) {
		mu.Lock()
		defer mu.Unlock()
		acked = append(acked, identity.UserID+":"+messageID)
	}))

	sock := dial(t, srv, "u1", "user")
	require.Eventually(t, func() bool {
		return hub.ConnectionCount("u1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sock.WriteJSON(map[string]string{"op": "ack", "message_id": "m-1"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(acked) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "u1:m-1", acked[0])
	mu.Unlock()
}

func TestHandler_ProtocolViolationClosesConnection(t *testing.T) {
	t.Parallel()

	srv, hub := newTestServer(t)
	sock := dial(t, srv, "u1", "user")

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("u1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Clients never author notification content.
	require.NoError(t, sock.WriteJSON(map[string]string{"op": "publish", "title": "evil"}))

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("u1") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandler_JoinRespectsRole(t *testing.T) {
	t.Parallel()

	srv, hub := newTestServer(t)
	sock := dial(t, srv, "u1", "user")

	require.Eventually(t, func() bool {
		return hub.ConnectionCount("u1") == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A plain user cannot join the admin namespace; the join is refused
	// but the connection survives.
	adminNS := string(authz.CategoryNamespace(notification.CategoryAdmin))
	require.NoError(t, sock.WriteJSON(map[string]string{"op": "join", "namespace": adminNS}))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, hub.ConnectionCount("u1"))

	// Admin-only traffic still bypasses the connection.
	msg := liveMessage("")
	msg.Category = notification.CategoryAdmin
	msg.Scope = notification.BroadcastScope()
	require.NoError(t, hub.Deliver(context.Background(), msg, []authz.Namespace{authz.CategoryNamespace(notification.CategoryAdmin)}))

	require.NoError(t, sock.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := sock.ReadMessage()
	assert.Error(t, err, "no admin frame should arrive for a user role")
}
