// Package chat exposes the dialogue engine over HTTP.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/leadchat/internal/contact"
	"github.com/wolfman30/leadchat/internal/dialogue"
	"github.com/wolfman30/leadchat/internal/observability/metrics"
	"github.com/wolfman30/leadchat/internal/session"
	"github.com/wolfman30/leadchat/pkg/logging"
)

const maxBodyBytes = 16 << 10

// Engine is the part of dialogue.Engine the transports need.
type Engine interface {
	Handle(ctx context.Context, in dialogue.InboundMessage) (dialogue.Reply, error)
	History(ctx context.Context, sessionID string) (*session.Session, error)
}

// Handler serves the chat endpoints.
type Handler struct {
	engine  Engine
	guard   *contact.Guard
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
}

func NewHandler(engine Engine, guard *contact.Guard, logger *logging.Logger) *Handler {
	if guard == nil {
		guard = contact.NewGuard(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, guard: guard, logger: logger}
}

// WithMetrics records turn latency under the "http" transport label.
func (h *Handler) WithMetrics(m *metrics.EngineMetrics) *Handler {
	h.metrics = m
	return h
}

// Routes mounts the chat endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/chat/message", h.PostMessage)
	r.Get("/chat/session/{sessionID}", h.GetSession)
}

type messageRequest struct {
	SessionID  string          `json:"sessionId"`
	BusinessID string          `json:"businessId"`
	Message    json.RawMessage `json:"message"`
}

// DecodeInbound parses a request body into an engine message. A message that
// is not a JSON string is a validation error.
func DecodeInbound(body []byte) (dialogue.InboundMessage, error) {
	var req messageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return dialogue.InboundMessage{}, fmt.Errorf("%w: malformed JSON", dialogue.ErrValidation)
	}
	in := dialogue.InboundMessage{SessionID: req.SessionID, BusinessID: req.BusinessID}
	if len(req.Message) > 0 {
		if err := json.Unmarshal(req.Message, &in.Message); err != nil {
			return dialogue.InboundMessage{}, fmt.Errorf("%w: message must be a string", dialogue.ErrValidation)
		}
	}
	if err := in.Validate(); err != nil {
		return dialogue.InboundMessage{}, err
	}
	return in, nil
}

// PostMessage handles POST /chat/message.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := DecodeInbound(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, PublicMessage(err))
		return
	}

	start := time.Now()
	reply, err := h.engine.Handle(r.Context(), in)
	h.metrics.ObserveTurnLatency("http", time.Since(start).Seconds())
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("chat turn failed", "session_id", in.SessionID, "business_id", in.BusinessID, "error", err)
		}
		writeError(w, status, PublicMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// GetSession handles GET /chat/session/{sessionID}. Message text is returned
// with contact details redacted.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.engine.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, StatusFor(err), PublicMessage(err))
		return
	}
	if biz := strings.TrimSpace(r.URL.Query().Get("businessId")); biz != "" && biz != sess.BusinessID {
		writeError(w, http.StatusNotFound, PublicMessage(session.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, NewSessionView(sess, h.guard))
}

// SessionView is the public shape of a stored session.
type SessionView struct {
	SessionID      string        `json:"sessionId"`
	BusinessID     string        `json:"businessId"`
	CurrentService string        `json:"currentService,omitempty"`
	LeadCaptured   bool          `json:"leadCaptured"`
	Messages       []MessageView `json:"messages"`
}

// MessageView is one redacted history entry.
type MessageView struct {
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	QuestionType string    `json:"questionType,omitempty"`
}

// NewSessionView builds the redacted view of sess.
func NewSessionView(sess *session.Session, guard *contact.Guard) SessionView {
	view := SessionView{
		SessionID:      sess.ID,
		BusinessID:     sess.BusinessID,
		CurrentService: sess.CurrentService,
		LeadCaptured:   sess.LeadCaptured(),
		Messages:       make([]MessageView, 0, len(sess.Messages)),
	}
	for _, m := range sess.Messages {
		qt := string(m.QuestionType)
		if m.QuestionType == session.QuestionNone {
			qt = ""
		}
		view.Messages = append(view.Messages, MessageView{
			Role:         string(m.Role),
			Content:      guard.Redact(m.Content, contact.RedactedPlaceholder),
			Timestamp:    m.Timestamp,
			QuestionType: qt,
		})
	}
	return view
}

// StatusFor maps engine errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dialogue.ErrValidation), errors.Is(err, session.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dialogue.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the client-safe text for err.
func PublicMessage(err error) string {
	switch StatusFor(err) {
	case http.StatusBadRequest:
		// Validation errors end with the field detail.
		msg := err.Error()
		if i := strings.LastIndex(msg, ": "); i >= 0 {
			msg = msg[i+2:]
		}
		return msg
	case http.StatusNotFound:
		return "session not found"
	case http.StatusServiceUnavailable:
		return "message could not be saved, please try again"
	default:
		return "internal error"
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
