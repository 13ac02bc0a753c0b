// Package mainconfig builds the dependency graph shared by the API server and
// the Lambda handler.
package mainconfig

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/wolfman30/leadchat/internal/assistant"
	"github.com/wolfman30/leadchat/internal/catalog"
	appconfig "github.com/wolfman30/leadchat/internal/config"
	"github.com/wolfman30/leadchat/internal/contact"
	"github.com/wolfman30/leadchat/internal/dialogue"
	"github.com/wolfman30/leadchat/internal/leads"
	"github.com/wolfman30/leadchat/internal/lexicon"
	"github.com/wolfman30/leadchat/internal/notify"
	"github.com/wolfman30/leadchat/internal/observability/metrics"
	"github.com/wolfman30/leadchat/internal/session"
	"github.com/wolfman30/leadchat/pkg/logging"
)

// LoadAWSConfig centralizes AWS SDK initialization. Static credentials are
// used only when both halves are configured.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	return config.LoadDefaultConfig(ctx, loaders...)
}

// NewLogger builds the process logger. Free-text "message" attributes pass
// through the PII guard before they are written.
func NewLogger(cfg *appconfig.Config, lex *lexicon.Lexicon) *logging.Logger {
	guard := contact.NewGuard(lex)
	return logging.NewWithOptions(logging.Options{
		Level:     cfg.LogLevel,
		Scrub:     func(s string) string { return guard.Redact(s, "") },
		ScrubKeys: []string{"message"},
	})
}

// LoadLexicon returns the configured table or the built-in one.
func LoadLexicon(cfg *appconfig.Config) (*lexicon.Lexicon, error) {
	if strings.TrimSpace(cfg.LexiconPath) == "" {
		return lexicon.Default(), nil
	}
	return lexicon.Load(cfg.LexiconPath)
}

// App is the wired engine plus everything the binaries need to serve and
// shut it down.
type App struct {
	Lexicon  *lexicon.Lexicon
	Guard    *contact.Guard
	Engine   *dialogue.Engine
	Leads    leads.Repository
	Metrics  *metrics.EngineMetrics
	Registry *prometheus.Registry
	Reaper   *session.Reaper

	Pool  *pgxpool.Pool
	DB    *sql.DB
	Redis *redis.Client

	closers []func() error
}

// Close releases every connection opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires storage, the catalog, lead capture, the AI fallback and the
// engine from cfg. Optional collaborators are skipped when unconfigured.
func Build(ctx context.Context, cfg *appconfig.Config, lex *lexicon.Lexicon, logger *logging.Logger) (*App, error) {
	app := &App{
		Lexicon:  lex,
		Guard:    contact.NewGuard(lex),
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewEngineMetrics(app.Registry)

	if err := app.connect(ctx, cfg, logger); err != nil {
		_ = app.Close()
		return nil, err
	}

	store, err := app.sessionStore(cfg, logger)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	provider := app.catalogProvider(cfg, logger)

	app.Leads = leads.NewInMemoryRepository()
	if app.Pool != nil {
		app.Leads = leads.NewPostgresRepository(app.Pool)
	} else {
		logger.Warn("DATABASE_URL not set; leads are kept in memory")
	}

	var awsCfg *aws.Config
	if loaded, err := LoadAWSConfig(ctx, cfg); err != nil {
		logger.Warn("aws config unavailable; bedrock and ses disabled", "error", err)
	} else {
		awsCfg = &loaded
	}

	capture := leads.NewCapture(app.Leads, leadNotifier(cfg, awsCfg, provider, logger), logger)

	engineCfg := dialogue.EngineConfig{
		Store:   store,
		Catalog: provider,
		Lexicon: lex,
		Leads:   capture,
		Metrics: app.Metrics,
		Logger:  logger,
		Tracer:  otel.Tracer("leadchat.dialogue"),
	}
	if gen := app.fallbackGenerator(ctx, cfg, awsCfg, logger); gen != nil {
		engineCfg.Fallback = gen
	}
	app.Engine = dialogue.NewEngine(engineCfg)
	return app, nil
}

func (a *App) connect(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) error {
	if url := strings.TrimSpace(cfg.DatabaseURL); url != "" {
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return fmt.Errorf("mainconfig: postgres pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return fmt.Errorf("mainconfig: postgres ping: %w", err)
		}
		a.Pool = pool
		a.closers = append(a.closers, func() error { pool.Close(); return nil })

		db, err := sql.Open("pgx", url)
		if err != nil {
			return fmt.Errorf("mainconfig: open catalog db: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
		logger.Info("connected to postgres")
	}

	if cfg.UseRedisSessions() || cfg.CatalogCacheTTL > 0 {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			if cfg.UseRedisSessions() {
				return fmt.Errorf("mainconfig: redis ping: %w", err)
			}
			logger.Warn("redis unavailable; catalog cache disabled", "addr", cfg.RedisAddr, "error", err)
			return nil
		}
		a.Redis = client
		a.closers = append(a.closers, client.Close)
		logger.Info("connected to redis", "addr", cfg.RedisAddr)
	}
	return nil
}

func (a *App) sessionStore(cfg *appconfig.Config, logger *logging.Logger) (session.Store, error) {
	opts := session.Options{TTL: cfg.SessionTTL, MaxMessages: cfg.SessionMaxMessages}
	if cfg.UseRedisSessions() {
		if a.Redis == nil {
			return nil, errors.New("mainconfig: SESSION_STORE=redis requires a reachable redis")
		}
		logger.Info("using redis session store", "ttl", opts.TTL.String())
		return session.NewRedisStore(a.Redis, opts, otel.Tracer("leadchat.session")), nil
	}

	store := session.NewMemoryStore(opts)
	a.Reaper = session.NewReaper(store, cfg.SessionReapInterval, logger)
	logger.Info("using in-memory session store", "ttl", opts.TTL.String())
	return store, nil
}

func (a *App) catalogProvider(cfg *appconfig.Config, logger *logging.Logger) catalog.Provider {
	var provider catalog.Provider
	if a.DB != nil {
		provider = catalog.NewPostgresProvider(a.DB)
	} else {
		logger.Warn("DATABASE_URL not set; serving an empty catalog")
		provider = catalog.NewStaticProvider(nil)
	}
	if a.Redis != nil && cfg.CatalogCacheTTL > 0 {
		provider = catalog.NewCachedProvider(provider, a.Redis, cfg.CatalogCacheTTL, logger)
	}
	return provider
}

func (a *App) fallbackGenerator(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) *assistant.Generator {
	var clients []assistant.LLMClient
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := assistant.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			clients = append(clients, gemini)
			a.closers = append(a.closers, gemini.Close)
		}
	}
	if strings.TrimSpace(cfg.BedrockModelID) != "" && awsCfg != nil {
		clients = append(clients, assistant.NewBedrockLLMClient(bedrockruntime.NewFromConfig(*awsCfg), cfg.BedrockModelID))
	}

	switch len(clients) {
	case 0:
		logger.Info("ai fallback disabled")
		return nil
	case 1:
		return assistant.NewGenerator(clients[0], a.Guard, logger)
	default:
		return assistant.NewGenerator(assistant.NewFallbackLLMClient(clients[0], clients[1], logger), a.Guard, logger)
	}
}

func leadNotifier(cfg *appconfig.Config, awsCfg *aws.Config, provider catalog.Provider, logger *logging.Logger) leads.Notifier {
	var sender notify.EmailSender
	switch {
	case cfg.SendGridAPIKey != "":
		sender = notify.NewSendGridSender(cfg.SendGridAPIKey, notify.Sender{Name: cfg.SendGridFromName, Email: cfg.SendGridFromEmail}, logger)
	case cfg.SESFromEmail != "" && awsCfg != nil:
		sender = notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.Sender{Name: cfg.SendGridFromName, Email: cfg.SESFromEmail}, logger)
	default:
		sender = notify.NewLogSender(logger)
	}
	return notify.NewLeadNotifier(sender, provider, cfg.LeadNotifyEmail, logger)
}
