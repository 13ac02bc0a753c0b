package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadchat/internal/catalog"
	"github.com/wolfman30/leadchat/internal/dialogue"
	"github.com/wolfman30/leadchat/internal/leads"
	"github.com/wolfman30/leadchat/internal/session"
	"github.com/wolfman30/leadchat/pkg/logging"
)

func newTestRouter(t *testing.T, engine Engine) *chi.Mux {
	t.Helper()
	logger := logging.NewWithOptions(logging.Options{Writer: io.Discard})
	if engine == nil {
		provider := catalog.NewStaticProvider(map[string]catalog.Business{
			"biz-1": {Services: []catalog.Service{{Name: "Veneers", Price: "800-2500"}}},
		})
		engine = dialogue.NewEngine(dialogue.EngineConfig{
			Store:   session.NewMemoryStore(session.Options{}),
			Catalog: provider,
			Leads:   leads.NewCapture(leads.NewInMemoryRepository(), nil, logger),
			Logger:  logger,
		})
	}
	r := chi.NewRouter()
	NewHandler(engine, nil, logger).Routes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPostMessage(t *testing.T) {
	r := newTestRouter(t, nil)

	rec := do(t, r, http.MethodPost, "/chat/message", `{"sessionId":"s1","businessId":"biz-1","message":"What's the price for Veneers?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var reply dialogue.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Equal(t, "Veneers", reply.DetectedService)
	assert.Equal(t, "price", reply.QuestionType)
	assert.Contains(t, reply.Response, "$800 - $2500")
}

func TestPostMessage_Validation(t *testing.T) {
	r := newTestRouter(t, nil)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{`, "invalid request body"},
		{"missing session", `{"businessId":"biz-1","message":"hi"}`, "sessionId is required"},
		{"missing business", `{"sessionId":"s1","message":"hi"}`, "businessId is required"},
		{"missing message", `{"sessionId":"s1","businessId":"biz-1"}`, "message is required"},
		{"message not a string", `{"sessionId":"s1","businessId":"biz-1","message":42}`, "message must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, "/chat/message", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestGetSession_Redacted(t *testing.T) {
	r := newTestRouter(t, nil)
	rec := do(t, r, http.MethodPost, "/chat/message", `{"sessionId":"s1","businessId":"biz-1","message":"name: John Doe, phone: 5551234567, email: j@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/chat/session/s1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var view SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "biz-1", view.BusinessID)
	assert.True(t, view.LeadCaptured)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, "name: John Doe, phone: [REDACTED], email: [REDACTED]", view.Messages[0].Content)
	assert.Equal(t, "contact", view.Messages[0].QuestionType)
	assert.NotContains(t, rec.Body.String(), "5551234567")
	assert.NotContains(t, rec.Body.String(), "j@x.com")
}

func TestGetSession_NotFound(t *testing.T) {
	r := newTestRouter(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/chat/session/missing", "").Code)

	do(t, r, http.MethodPost, "/chat/message", `{"sessionId":"s1","businessId":"biz-1","message":"hello"}`)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/chat/session/s1?businessId=biz-2", "").Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/chat/session/s1?businessId=biz-1", "").Code)
}

type erroringEngine struct{ err error }

func (e erroringEngine) Handle(context.Context, dialogue.InboundMessage) (dialogue.Reply, error) {
	return dialogue.Reply{}, e.err
}

func (e erroringEngine) History(context.Context, string) (*session.Session, error) {
	return nil, e.err
}

func TestPostMessage_EngineErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: apply patch: %w", dialogue.ErrPersistence, errors.New("timeout")), http.StatusServiceUnavailable},
		{fmt.Errorf("append turn: %w", session.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: session belongs to another business", dialogue.ErrValidation), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := newTestRouter(t, erroringEngine{err: tt.err})
			rec := do(t, r, http.MethodPost, "/chat/message", `{"sessionId":"s1","businessId":"biz-1","message":"hello"}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "timeout")
		})
	}
}
