package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/leadchat/internal/chat"
	httpmiddleware "github.com/wolfman30/leadchat/internal/http/middleware"
	"github.com/wolfman30/leadchat/internal/leads"
	"github.com/wolfman30/leadchat/internal/webchat"
	"github.com/wolfman30/leadchat/pkg/logging"
)

const (
	requestTimeout = 30 * time.Second
	healthTimeout  = 2 * time.Second
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	ChatHandler     *chat.Handler
	WebchatHandler  *webchat.Handler
	LeadsHandler    *leads.Handler
	AdminAuthSecret string
	MetricsHandler  http.Handler

	CORSAllowedOrigins []string
	// RateLimiter guards the chat endpoints when set.
	RateLimiter *httpmiddleware.RateLimiter
	// HealthChecks are run by /health; any failure reports 503.
	HealthChecks map[string]HealthCheck
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(public chi.Router) {
		if cfg.RateLimiter != nil {
			public.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		if cfg.ChatHandler != nil {
			public.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(requestTimeout))
				cfg.ChatHandler.Routes(r)
			})
		}
		if cfg.WebchatHandler != nil {
			public.Get("/chat/ws", cfg.WebchatHandler.HandleWebSocket)
		}
	})

	if cfg.AdminAuthSecret != "" && cfg.LeadsHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Route("/businesses/{businessID}", func(biz chi.Router) {
				biz.Use(httpmiddleware.BusinessScope("businessID"))
				biz.Get("/leads", cfg.LeadsHandler.ListLeads)
			})
		})
	}

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(ctx); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
