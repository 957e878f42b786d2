package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/okian/draftnexus/internal/domain/draft"
	"github.com/okian/draftnexus/pkg/logger"
	"github.com/okian/draftnexus/pkg/metrics"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second
	// pongWait is how long a client may stay silent.
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize caps inbound frames; clients only send control frames.
	maxMessageSize = 512

	defaultStreamBuffer = 8
)

// streamMessage is the frame pushed to WebSocket clients.
type streamMessage struct {
	Type    string    `json:"type"`
	Payload draftView `json:"payload"`
}

// StreamHandler pushes every draft snapshot to WebSocket clients.
type StreamHandler struct {
	deps     Dependencies
	upgrader websocket.Upgrader
	buffer   int
	baseCtx  context.Context
	log      logger.Logger
}

// NewStreamHandler creates a stream handler accepting the given origins.
func NewStreamHandler(deps Dependencies, origins []string, buffer int) *StreamHandler {
	if buffer <= 0 {
		buffer = defaultStreamBuffer
	}
	return &StreamHandler{
		deps:    deps,
		buffer:  buffer,
		baseCtx: context.Background(),
		log:     logger.Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}
}

func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

// HandleStream handles GET /ws. The first frame is the current snapshot.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		metrics.RecordHTTPRequest("ws", r.Method, "400")
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	metrics.RecordHTTPRequest("ws", r.Method, "101")

	// Streams outlive the upgrade request; bind them to the server instead.
	ctx, cancel := context.WithCancel(h.baseCtx)
	clientID := uuid.NewString()

	updates, unsubscribe, err := h.deps.Subscribe(ctx, h.buffer)
	if err != nil {
		cancel()
		h.log.Error(ctx, "subscribe failed", logger.String("client", clientID), logger.Error(err))
		metrics.RecordErrorByComponent("ws", "subscribe")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "draft unavailable"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	h.log.Info(ctx, "websocket client connected", logger.String("client", clientID))
	go h.readPump(conn, cancel, clientID)
	go h.writePump(ctx, conn, updates, func() {
		unsubscribe()
		cancel()
		h.log.Info(context.Background(), "websocket client disconnected", logger.String("client", clientID))
	})
}

// readPump drains control frames so pongs are processed. Any error, including
// a normal close from the peer, ends the stream.
func (h *StreamHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc, clientID string) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug(context.Background(), "websocket read ended",
					logger.String("client", clientID), logger.Error(err))
			}
			return
		}
	}
}

func (h *StreamHandler) writePump(ctx context.Context, conn *websocket.Conn, updates <-chan draft.Snapshot, done func()) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		done()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(writeWait))
			return

		case snap, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The store dropped this subscriber or shut down.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "stream ended"))
				return
			}
			if err := conn.WriteJSON(streamMessage{Type: "snapshot", Payload: newDraftView(snap)}); err != nil {
				metrics.RecordErrorByComponent("ws", "write")
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
