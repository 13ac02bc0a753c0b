// Command chat-lambda serves the chat endpoints behind API Gateway (HTTP API,
// payload v2) using the same engine as the API server.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/leadchat/cmd/mainconfig"
	"github.com/wolfman30/leadchat/internal/chat"
	appconfig "github.com/wolfman30/leadchat/internal/config"
	"github.com/wolfman30/leadchat/internal/contact"
	"github.com/wolfman30/leadchat/internal/observability/metrics"
	"github.com/wolfman30/leadchat/internal/session"
	"github.com/wolfman30/leadchat/pkg/logging"
)

const sessionPathPrefix = "/chat/session/"

type handler struct {
	engine  chat.Engine
	guard   *contact.Guard
	metrics *metrics.EngineMetrics
	logger  *logging.Logger
}

func main() {
	cfg := appconfig.Load()
	lex, err := mainconfig.LoadLexicon(cfg)
	if err != nil {
		logging.Default().Error("failed to load lexicon", "error", err)
		os.Exit(1)
	}
	logger := mainconfig.NewLogger(cfg, lex)

	app, err := mainconfig.Build(context.Background(), cfg, lex, logger)
	if err != nil {
		logger.Error("failed to build app", "error", err)
		os.Exit(1)
	}
	if !cfg.UseRedisSessions() {
		logger.Warn("lambda instances do not share in-memory sessions; set SESSION_STORE=redis")
	}

	h := &handler{engine: app.Engine, guard: app.Guard, metrics: app.Metrics, logger: logger}
	lambda.Start(h.handle)
}

func (h *handler) handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}

	switch {
	case path == "/health":
		return jsonResponse(http.StatusOK, map[string]string{"status": "ok"}), nil
	case path == "/chat/message":
		if method != http.MethodPost {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
		}
		return h.postMessage(ctx, evt), nil
	case strings.HasPrefix(path, sessionPathPrefix):
		if method != http.MethodGet {
			return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusMethodNotAllowed}, nil
		}
		return h.getSession(ctx, strings.TrimPrefix(path, sessionPathPrefix)), nil
	default:
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusNotFound}, nil
	}
}

func (h *handler) postMessage(ctx context.Context, evt events.APIGatewayV2HTTPRequest) events.APIGatewayV2HTTPResponse {
	body, err := decodeBody(evt)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "invalid request body")
	}
	in, err := chat.DecodeInbound(body)
	if err != nil {
		return errorResponse(http.StatusBadRequest, chat.PublicMessage(err))
	}

	start := time.Now()
	reply, err := h.engine.Handle(ctx, in)
	h.metrics.ObserveTurnLatency("lambda", time.Since(start).Seconds())
	if err != nil {
		status := chat.StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("chat turn failed", "session_id", in.SessionID, "business_id", in.BusinessID, "error", err)
		}
		return errorResponse(status, chat.PublicMessage(err))
	}
	return jsonResponse(http.StatusOK, reply)
}

func (h *handler) getSession(ctx context.Context, sessionID string) events.APIGatewayV2HTTPResponse {
	if strings.TrimSpace(sessionID) == "" || strings.Contains(sessionID, "/") {
		return errorResponse(http.StatusNotFound, chat.PublicMessage(session.ErrNotFound))
	}
	sess, err := h.engine.History(ctx, sessionID)
	if err != nil {
		return errorResponse(chat.StatusFor(err), chat.PublicMessage(err))
	}
	return jsonResponse(http.StatusOK, chat.NewSessionView(sess, h.guard))
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	return base64.StdEncoding.DecodeString(evt.Body)
}

func jsonResponse(status int, v any) events.APIGatewayV2HTTPResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusInternalServerError}
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(body),
	}
}

func errorResponse(status int, message string) events.APIGatewayV2HTTPResponse {
	return jsonResponse(status, map[string]string{"error": message})
}
