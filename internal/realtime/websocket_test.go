package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/internal/outbox"
)

type fakeWallets struct {
	owner  uuid.UUID
	wallet uuid.UUID
}

func (f fakeWallets) OwnsWallet(_ context.Context, userID, walletID uuid.UUID) (bool, error) {
	return userID == f.owner && walletID == f.wallet, nil
}

func newWSServer(t *testing.T, hub *Hub, userID uuid.UUID, wallets WalletOwnership) *httptest.Server {
	t.Helper()
	return newWSServerWithHandler(t, userID, NewHandler(hub, wallets, zap.NewNop()))
}

func newWSServerWithHandler(t *testing.T, userID uuid.UUID, h *Handler) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		identity := &auth.Identity{UserID: userID}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Next()
	})
	h.RegisterRoutes(api)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/realtime"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	return conn
}

func exchange(t *testing.T, conn *websocket.Conn, msg ClientMessage) ServerMessage {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
	return read(t, conn)
}

func read(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply ServerMessage
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func waitForSubscribers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	assert.Eventually(t, func() bool { return hub.SubscriberCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestRealtimeSubscribeAndReceive(t *testing.T) {
	hub := NewHub(8, zap.NewNop())
	defer hub.Close()

	userID, projectID := uuid.New(), uuid.New()
	srv := newWSServer(t, hub, userID, fakeWallets{})
	conn := dial(t, srv)

	reply := exchange(t, conn, ClientMessage{Action: ActionSubscribe, Topic: outbox.ProjectTopic(projectID)})
	assert.Equal(t, "subscribed", reply.Type)

	require.NoError(t, hub.Publish(context.Background(), message(outbox.ProjectTopic(projectID))))
	event := read(t, conn)
	assert.Equal(t, "event", event.Type)
	assert.Equal(t, outbox.EventProjectStatusChanged, event.Event)
	assert.JSONEq(t, `{"status":"verified"}`, string(event.Payload))

	reply = exchange(t, conn, ClientMessage{Action: ActionUnsubscribe, Topic: outbox.ProjectTopic(projectID)})
	assert.Equal(t, "unsubscribed", reply.Type)

	conn.Close()
	waitForSubscribers(t, hub, 0)
}

func TestRealtimeTopicAuthorization(t *testing.T) {
	hub := NewHub(8, zap.NewNop())
	defer hub.Close()

	userID, walletID := uuid.New(), uuid.New()
	srv := newWSServer(t, hub, userID, fakeWallets{owner: userID, wallet: walletID})
	conn := dial(t, srv)
	defer func() {
		conn.Close()
		waitForSubscribers(t, hub, 0)
	}()

	tests := []struct {
		topic string
		want  string
	}{
		{outbox.OwnerTopic(userID), "subscribed"},
		{outbox.OwnerTopic(uuid.New()), "error"},
		{outbox.WalletTopic(walletID), "subscribed"},
		{outbox.WalletTopic(uuid.New()), "error"},
		{"sensors", "error"},
	}

	for _, tt := range tests {
		reply := exchange(t, conn, ClientMessage{Action: ActionSubscribe, Topic: tt.topic})
		assert.Equal(t, tt.want, reply.Type, tt.topic)
	}

	reply := exchange(t, conn, ClientMessage{Action: "shout", Topic: "projects"})
	assert.Equal(t, "error", reply.Type)
}

func TestRealtimeRequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(8, zap.NewNop())
	defer hub.Close()

	r := gin.New()
	NewHandler(hub, fakeWallets{}, zap.NewNop()).RegisterRoutes(r.Group("/api/v1"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/realtime", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, hub.SubscriberCount())
}

func TestRealtimeStalledClientIsReleased(t *testing.T) {
	hub := NewHub(64, zap.NewNop())
	defer hub.Close()

	h := NewHandler(hub, fakeWallets{}, zap.NewNop())
	h.writeWait = 200 * time.Millisecond

	userID, projectID := uuid.New(), uuid.New()
	srv := newWSServerWithHandler(t, userID, h)
	conn := dial(t, srv)
	defer conn.Close()

	reply := exchange(t, conn, ClientMessage{Action: ActionSubscribe, Topic: outbox.ProjectTopic(projectID)})
	require.Equal(t, "subscribed", reply.Type)

	// The client stops reading: large events back up the socket until the
	// write deadline fails, while requests keep arriving and fill the reply
	// buffer.
	big := json.RawMessage(`"` + strings.Repeat("x", 1<<20) + `"`)
	for i := 0; i < 32; i++ {
		msg := message(outbox.ProjectTopic(projectID))
		msg.Payload = big
		require.NoError(t, hub.Publish(context.Background(), msg))
	}
	for i := 0; i < 200; i++ {
		if err := conn.WriteJSON(ClientMessage{Action: ActionUnsubscribe, Topic: outbox.ProjectTopic(uuid.New())}); err != nil {
			break
		}
	}

	assert.Eventually(t, func() bool { return hub.SubscriberCount() == 0 }, 5*time.Second, 20*time.Millisecond)
}
