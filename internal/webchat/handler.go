// Package webchat serves the embeddable chat widget over a WebSocket. It is a
// thin adapter: every message is handed to the dialogue engine synchronously.
package webchat

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/leadchat/internal/chat"
	"github.com/wolfman30/leadchat/internal/contact"
	"github.com/wolfman30/leadchat/internal/dialogue"
	httpmiddleware "github.com/wolfman30/leadchat/internal/http/middleware"
	"github.com/wolfman30/leadchat/internal/observability/metrics"
	"github.com/wolfman30/leadchat/pkg/logging"
)

// Frame types.
const (
	FrameMessage = "message"
	FramePing    = "ping"
	FramePong    = "pong"
	FrameTyping  = "typing"
	FrameHistory = "history"
	FrameSession = "session"
	FrameError   = "error"
)

// InboundFrame is what the widget sends.
type InboundFrame struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// OutboundFrame is what the widget receives.
type OutboundFrame struct {
	Type            string             `json:"type"`
	Text            string             `json:"text,omitempty"`
	Role            string             `json:"role,omitempty"`
	SessionID       string             `json:"session_id,omitempty"`
	DetectedService string             `json:"detected_service,omitempty"`
	QuestionType    string             `json:"question_type,omitempty"`
	Timestamp       string             `json:"timestamp,omitempty"`
	Messages        []chat.MessageView `json:"messages,omitempty"`
}

// Handler manages widget connections.
type Handler struct {
	engine  chat.Engine
	guard   *contact.Guard
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
	origins func(string) bool
}

func NewHandler(engine chat.Engine, guard *contact.Guard, logger *logging.Logger) *Handler {
	if guard == nil {
		guard = contact.NewGuard(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, guard: guard, logger: logger, origins: httpmiddleware.OriginChecker(nil)}
}

// WithMetrics records turn latency under the "websocket" transport label.
func (h *Handler) WithMetrics(m *metrics.EngineMetrics) *Handler {
	h.metrics = m
	return h
}

// WithAllowedOrigins restricts which sites may open the socket. Entries use
// the CORS allowlist forms.
func (h *Handler) WithAllowedOrigins(origins []string) *Handler {
	h.origins = httpmiddleware.OriginChecker(origins)
	return h
}

var errOriginNotAllowed = errors.New("webchat: origin not allowed")

// HandleWebSocket upgrades GET /chat/ws?business=..&session=.. to a socket.
// Browsers always send Origin on the upgrade; it must pass the allowlist.
// Clients that send no Origin are not browsers and are let through.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	srv := websocket.Server{
		Handshake: func(_ *websocket.Config, req *http.Request) error {
			origin := strings.TrimSpace(req.Header.Get("Origin"))
			if origin != "" && !h.origins(origin) {
				h.logger.Warn("webchat origin rejected", "origin", origin)
				return errOriginNotAllowed
			}
			return nil
		},
		Handler: h.serve,
	}
	srv.ServeHTTP(w, r)
}

func (h *Handler) serve(conn *websocket.Conn) {
	defer conn.Close()
	req := conn.Request()
	ctx := req.Context()

	businessID := strings.TrimSpace(req.URL.Query().Get("business"))
	if businessID == "" {
		_ = websocket.JSON.Send(conn, errorFrame("missing business parameter"))
		return
	}
	sessionID := strings.TrimSpace(req.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := h.logger.With("session_id", sessionID, "business_id", businessID)

	if err := websocket.JSON.Send(conn, OutboundFrame{Type: FrameSession, SessionID: sessionID}); err != nil {
		return
	}
	if sess, err := h.engine.History(ctx, sessionID); err == nil && sess.BusinessID == businessID && len(sess.Messages) > 0 {
		_ = websocket.JSON.Send(conn, historyFrame(sess, h.guard))
	}

	log.Info("webchat: connection opened")
	for {
		var frame InboundFrame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			log.Debug("webchat: connection closed", "error", err)
			return
		}

		switch frame.Type {
		case FramePing:
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: FramePong})
			continue
		case FrameMessage:
		default:
			continue
		}
		if strings.TrimSpace(frame.Text) == "" {
			continue
		}

		_ = websocket.JSON.Send(conn, OutboundFrame{Type: FrameTyping})
		start := time.Now()
		reply, err := h.engine.Handle(ctx, dialogue.InboundMessage{
			SessionID:  sessionID,
			BusinessID: businessID,
			Message:    frame.Text,
		})
		h.metrics.ObserveTurnLatency("websocket", time.Since(start).Seconds())
		if err != nil {
			if chat.StatusFor(err) >= http.StatusInternalServerError {
				log.Error("webchat: turn failed", "error", err)
			}
			_ = websocket.JSON.Send(conn, errorFrame(chat.PublicMessage(err)))
			continue
		}
		if err := websocket.JSON.Send(conn, replyFrame(reply)); err != nil {
			log.Warn("webchat: reply not delivered", "error", err)
			return
		}
	}
}
