package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/auth"
	"bluechain-mrv/backend/internal/httpapi"
	"bluechain-mrv/backend/internal/outbox"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// Client actions.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// ClientMessage is sent by websocket clients to manage subscriptions.
type ClientMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// ServerMessage is everything the server writes to a websocket client.
type ServerMessage struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic,omitempty"`
	Event     string          `json:"event,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
}

// WalletOwnership answers whether a wallet belongs to a user.
type WalletOwnership interface {
	OwnsWallet(ctx context.Context, userID, walletID uuid.UUID) (bool, error)
}

// Handler upgrades authenticated requests to websocket subscriptions on
// the hub.
type Handler struct {
	hub       *Hub
	wallets   WalletOwnership
	logger    *zap.Logger
	upgrader  websocket.Upgrader
	writeWait time.Duration
}

func NewHandler(hub *Hub, wallets WalletOwnership, logger *zap.Logger) *Handler {
	return &Handler{
		hub:       hub,
		wallets:   wallets,
		logger:    logger,
		writeWait: writeWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Clients authenticate with a bearer token, not cookies.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/realtime", h.serveWS)
}

type connection struct {
	identity *auth.Identity
	conn     *websocket.Conn
	sub      *Subscriber
	replies  chan ServerMessage
	// closed when writePump exits
	done chan struct{}
}

func (h *Handler) serveWS(c *gin.Context) {
	identity, err := auth.CurrentIdentity(c)
	if err != nil {
		httpapi.RespondError(c, h.logger, err)
		return
	}

	sub, err := h.hub.NewSubscriber()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.Remove(sub)
		h.logger.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &connection{
		identity: identity,
		conn:     ws,
		sub:      sub,
		replies:  make(chan ServerMessage, 16),
		done:     make(chan struct{}),
	}
	h.logger.Debug("Realtime client connected", zap.String("user_id", identity.UserID.String()))

	go h.writePump(conn)
	h.readPump(c.Request.Context(), conn)
}

// readPump handles subscription requests until the client goes away.
func (h *Handler) readPump(ctx context.Context, conn *connection) {
	defer func() {
		h.hub.Remove(conn.sub)
		close(conn.replies)
		conn.conn.Close()
	}()

	conn.conn.SetReadLimit(maxMessageSize)
	conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Realtime client read failed", zap.Error(err))
			}
			return
		}
		select {
		case conn.replies <- h.handleClientMessage(ctx, conn, &msg):
		case <-conn.done:
			return
		}
	}
}

func (h *Handler) handleClientMessage(ctx context.Context, conn *connection, msg *ClientMessage) ServerMessage {
	switch msg.Action {
	case ActionSubscribe:
		if reason := h.authorizeTopic(ctx, conn.identity, msg.Topic); reason != "" {
			return ServerMessage{Type: "error", Topic: msg.Topic, Error: reason}
		}
		if err := h.hub.Subscribe(conn.sub, msg.Topic); err != nil {
			return ServerMessage{Type: "error", Topic: msg.Topic, Error: err.Error()}
		}
		return ServerMessage{Type: "subscribed", Topic: msg.Topic}
	case ActionUnsubscribe:
		h.hub.Unsubscribe(conn.sub, msg.Topic)
		return ServerMessage{Type: "unsubscribed", Topic: msg.Topic}
	default:
		return ServerMessage{Type: "error", Error: "unknown action " + msg.Action}
	}
}

// authorizeTopic returns a non-empty reason when identity may not follow topic.
func (h *Handler) authorizeTopic(ctx context.Context, identity *auth.Identity, topic string) string {
	kind, scope := outbox.ParseTopic(topic)
	switch kind {
	case outbox.TopicAllProjects, outbox.TopicProject:
		return ""
	case outbox.TopicOwner:
		if scope != identity.UserID {
			return "cannot subscribe to another user's projects"
		}
		return ""
	case outbox.TopicWallet:
		owns, err := h.wallets.OwnsWallet(ctx, identity.UserID, scope)
		if err != nil {
			h.logger.Warn("Wallet ownership check failed", zap.Error(err))
			return "wallet lookup failed"
		}
		if !owns {
			return "cannot subscribe to another user's wallet"
		}
		return ""
	default:
		return "unknown topic"
	}
}

// writePump is the only writer on the socket.
func (h *Handler) writePump(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.conn.Close()
		close(conn.done)
	}()

	messages := conn.sub.Messages()
	for {
		select {
		case reply, ok := <-conn.replies:
			if !ok {
				return
			}
			if err := h.write(conn, reply); err != nil {
				return
			}

		case msg, ok := <-messages:
			if !ok {
				conn.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
				conn.conn.WriteMessage(websocket.CloseMessage, []byte{})
				// keep draining replies until readPump exits
				messages = nil
				continue
			}
			createdAt := msg.CreatedAt
			if err := h.write(conn, ServerMessage{
				Type:      "event",
				Topic:     msg.Topic,
				Event:     msg.Type,
				Payload:   msg.Payload,
				CreatedAt: &createdAt,
			}); err != nil {
				return
			}

		case <-ticker.C:
			conn.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := conn.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(conn *connection, msg ServerMessage) error {
	conn.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	return conn.conn.WriteJSON(msg)
}
