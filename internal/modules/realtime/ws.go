package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/core"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LocationReceiver accepts location samples sent over a connection.
type LocationReceiver interface {
	OnLocationUpdate(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID, sample LocationSample)
}

// HeartbeatReceiver accepts presence heartbeats sent over a connection.
type HeartbeatReceiver interface {
	Heartbeat(ctx context.Context, userID uuid.UUID, sessionID uuid.UUID) error
}

type WebSocketConfig struct {
	InboundRate  rate.Limit
	InboundBurst int
	SendBuffer   int

	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	ReadLimit    int64
}

func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		InboundRate:  20,
		InboundBurst: 40,
		SendBuffer:   64,
		PingInterval: 30 * time.Second,
		PongWait:     60 * time.Second,
		WriteWait:    10 * time.Second,
		ReadLimit:    64 << 10,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	coordinator *Coordinator
	conn        *Connection
	socket      *websocket.Conn
	limiter     *rate.Limiter
	locations   LocationReceiver
	heartbeats  HeartbeatReceiver
	cfg         WebSocketConfig
	logger      *zap.Logger
}

// HandleWebSocket upgrades an authenticated request and pumps frames
// between the socket and the coordinator until either side goes away.
func HandleWebSocket(
	coordinator *Coordinator,
	locations LocationReceiver,
	heartbeats HeartbeatReceiver,
	cfg WebSocketConfig,
) http.HandlerFunc {
	coordinator.ready()

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := core.Session(ctx).UserID
		if userID == uuid.Nil {
			core.WriteUnauthorized(w, r, core.NewCommandError(core.CodeUnauthorizedAction, "missing caller identity"))
			return
		}

		socket, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already replied to the client.
			core.Logger(ctx).Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		conn := NewConnection(userID, cfg.SendBuffer)
		c := &client{
			coordinator: coordinator,
			conn:        conn,
			socket:      socket,
			limiter:     rate.NewLimiter(cfg.InboundRate, cfg.InboundBurst),
			locations:   locations,
			heartbeats:  heartbeats,
			cfg:         cfg,
			logger: core.Logger(ctx).With(
				zap.Stringer("user_id", userID),
				zap.String("connection_id", conn.ID()),
			),
		}

		coordinator.Connect(ctx, conn)

		go c.writePump()
		c.readPump(ctx)
	}
}

func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.coordinator.Disconnect(c.conn)
		_ = c.socket.Close()
	}()

	c.socket.SetReadLimit(c.cfg.ReadLimit)
	_ = c.socket.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, data, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		if !c.limiter.Allow() {
			inboundLimitedTotal.Inc()
			continue
		}

		var in InboundMessage
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}

		c.dispatch(ctx, in)
	}
}

func (c *client) dispatch(ctx context.Context, in InboundMessage) {
	sessionID, inSession := c.conn.SessionID()

	switch in.Type {
	case InboundLocationUpdate:
		if c.locations == nil || !inSession {
			return
		}
		c.locations.OnLocationUpdate(ctx, c.conn.UserID(), sessionID, in.LocationSample)

	case InboundHeartbeat:
		if c.heartbeats == nil || !inSession {
			return
		}
		if err := c.heartbeats.Heartbeat(ctx, c.conn.UserID(), sessionID); err != nil {
			c.logger.Warn("failed to record heartbeat", zap.Error(err))
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case frame, ok := <-c.conn.Outbox():
			_ = c.socket.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.socket.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
