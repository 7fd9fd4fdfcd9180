package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/JRI98/widgetbridge/internal/envelope"
	"github.com/JRI98/widgetbridge/internal/navigation"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const writeWait = 5 * time.Second

const (
	EventAck               = "ack"
	EventError             = "error"
	EventProcessed         = "processed"
	EventNavigationRequest = "navigation_request"
)

type AckEvent struct {
	Type string `json:"type"`
	MessageResponse
}

type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type ProcessedEvent struct {
	Type    string `json:"type"`
	Kind    string `json:"kind"`
	Handled bool   `json:"handled"`
}

type NavigationEvent struct {
	Type    string             `json:"type"`
	Request navigation.Request `json:"request"`
}

// The embedding surface is a native web view host, not a browser page, so
// origins are not checked.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ConnectionPool tracks open websocket connections and serializes writes to
// them. A connection that cannot take a frame within writeTimeout is dropped.
type ConnectionPool struct {
	mu           sync.Mutex
	conns        map[*websocket.Conn]string
	writeTimeout time.Duration
	logger       *slog.Logger
}

func NewConnectionPool(logger *slog.Logger) *ConnectionPool {
	return &ConnectionPool{
		conns:        map[*websocket.Conn]string{},
		writeTimeout: writeWait,
		logger:       logger.With(slog.String("component", "ws")),
	}
}

func (cp *ConnectionPool) write(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(cp.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (cp *ConnectionPool) Add(conn *websocket.Conn) string {
	id := uuid.NewString()
	cp.mu.Lock()
	cp.conns[conn] = id
	cp.mu.Unlock()
	return id
}

func (cp *ConnectionPool) Remove(conn *websocket.Conn) {
	cp.mu.Lock()
	delete(cp.conns, conn)
	cp.mu.Unlock()
	_ = conn.Close()
}

func (cp *ConnectionPool) Count() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	return len(cp.conns)
}

func (cp *ConnectionPool) Broadcast(event any) {
	data, err := json.Marshal(event)
	if err != nil {
		cp.logger.Error("Could not marshal event", slog.Any("err", err))
		return
	}

	cp.mu.Lock()
	defer cp.mu.Unlock()
	for conn, id := range cp.conns {
		if err := cp.write(conn, data); err != nil {
			cp.logger.Warn("ws broadcast failed, dropping connection", slog.Any("err", err), slog.String("conn_id", id))
			delete(cp.conns, conn)
			_ = conn.Close()
		}
	}
}

func (cp *ConnectionPool) SendToOne(conn *websocket.Conn, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		cp.logger.Error("Could not marshal event", slog.Any("err", err))
		return
	}

	cp.mu.Lock()
	defer cp.mu.Unlock()
	id, ok := cp.conns[conn]
	if !ok {
		return
	}
	if err := cp.write(conn, data); err != nil {
		cp.logger.Warn("ws send failed, dropping connection", slog.Any("err", err), slog.String("conn_id", id))
		delete(cp.conns, conn)
		_ = conn.Close()
	}
}

func (cp *ConnectionPool) CloseAll() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	for conn := range cp.conns {
		_ = conn.Close()
		delete(cp.conns, conn)
	}
}

// WebSocket treats every inbound text frame as one widget event and answers
// each with an ack or error frame.
func (h *Handler) WebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	id := h.Pool.Add(conn)
	defer h.Pool.Remove(conn)

	logger := h.logger.With(slog.String("conn_id", id))
	logger.Info("Embedding surface connected")

	ctx := c.Request().Context()
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("ws read failed", slog.Any("err", err))
			}
			logger.Info("Embedding surface disconnected")
			return nil
		}

		if messageType != websocket.TextMessage {
			h.Pool.SendToOne(conn, ErrorEvent{Type: EventError, Error: "text frames only"})
			continue
		}

		res, err := h.process(ctx, data)
		if err != nil {
			message := "could not handle message"
			if errors.Is(err, envelope.ErrMalformedPayload) {
				message = "malformed message"
			}
			h.Pool.SendToOne(conn, ErrorEvent{Type: EventError, Error: message})
			continue
		}

		h.Pool.SendToOne(conn, AckEvent{Type: EventAck, MessageResponse: newMessageResponse(res)})
	}
}
