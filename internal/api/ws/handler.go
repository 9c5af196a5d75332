package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/KrishiMitra/backend/internal/domain/chat"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/KrishiMitra/backend/internal/shared/id"
)

const (
	maxFrameSize = 64 << 10
	writeWait    = 10 * time.Second
)

// Inbound is a client frame.
type Inbound struct {
	Type     string `json:"type,omitempty"`
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}

// Answer is the server frame for a resolved chat message.
type Answer struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	chat.Response
}

// Notice is a system, pong or error frame.
type Notice struct {
	Type         string `json:"type"`
	Message      string `json:"message,omitempty"`
	ConnectionID string `json:"connection_id,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// Handler manages WebSocket connections
type Handler struct {
	resolver *chat.Resolver
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[id.ConnectionID]*websocket.Conn
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(resolver *chat.Resolver, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Origin policy is enforced by the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[id.ConnectionID]*websocket.Conn),
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	connID := id.NewConnectionID()
	log := h.logger.With(zap.String("connection_id", connID.String()))
	h.track(connID, conn)
	defer h.untrack(connID)

	conn.SetReadLimit(maxFrameSize)
	ctx := c.Request.Context()

	h.send(conn, Notice{
		Type:         "system",
		Message:      "Connected to KrishiMitra",
		ConnectionID: connID.String(),
		Timestamp:    time.Now().Unix(),
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.record("inbound", "frame")

		var msg Inbound
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.sendError(conn, "malformed frame")
			continue
		}

		switch msg.Type {
		case "", "chat":
			h.handleChat(ctx, conn, msg)
		case "ping":
			h.send(conn, Notice{Type: "pong", Timestamp: time.Now().Unix()})
		default:
			h.sendError(conn, "unknown message type")
		}
	}
}

func (h *Handler) handleChat(ctx context.Context, conn *websocket.Conn, msg Inbound) {
	rid := id.NewRequestID()
	resp := h.resolver.Resolve(id.WithRequest(ctx, rid), chat.Request{
		Message:  msg.Message,
		Language: msg.Language,
	})

	h.send(conn, Answer{
		Type:      "answer",
		RequestID: rid.String(),
		Response:  resp,
	})
}

// Active returns the number of open connections.
func (h *Handler) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Shutdown closes every open connection with a going-away frame. The
// HTTP server does not track hijacked connections, so this must be called
// on shutdown.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for connID, conn := range h.conns {
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		_ = conn.Close()
		delete(h.conns, connID)
	}
}

func (h *Handler) track(connID id.ConnectionID, conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[connID] = conn
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
}

func (h *Handler) untrack(connID id.ConnectionID) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	delete(h.conns, connID)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
	if h.metrics != nil {
		h.metrics.DecWSConnections()
	}
}

// send writes one frame. Frames are only written from the connection's
// read loop, so writes never overlap.
func (h *Handler) send(conn *websocket.Conn, frame any) {
	data, err := sonic.Marshal(frame)
	if err != nil {
		h.logger.Error("Failed to encode WebSocket frame", zap.Error(err))
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
		return
	}
	h.record("outbound", frameType(frame))
}

func (h *Handler) sendError(conn *websocket.Conn, msg string) {
	h.send(conn, Notice{
		Type:      "error",
		Message:   msg,
		Timestamp: time.Now().Unix(),
	})
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}

func frameType(frame any) string {
	switch f := frame.(type) {
	case Answer:
		return f.Type
	case Notice:
		return f.Type
	default:
		return "unknown"
	}
}
