package dialogue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/leadchat/internal/catalog"
	"github.com/wolfman30/leadchat/internal/contact"
	"github.com/wolfman30/leadchat/internal/leads"
	"github.com/wolfman30/leadchat/internal/lexicon"
	"github.com/wolfman30/leadchat/internal/observability/metrics"
	"github.com/wolfman30/leadchat/internal/session"
	"github.com/wolfman30/leadchat/pkg/logging"
)

// MaxMessageLength bounds inbound message size in runes.
const MaxMessageLength = 2000

// InboundMessage is one chat message from any transport.
type InboundMessage struct {
	SessionID  string `json:"sessionId"`
	BusinessID string `json:"businessId"`
	Message    string `json:"message"`
}

// Validate rejects missing fields before any processing.
func (m InboundMessage) Validate() error {
	switch {
	case strings.TrimSpace(m.SessionID) == "":
		return fmt.Errorf("%w: sessionId is required", ErrValidation)
	case strings.TrimSpace(m.BusinessID) == "":
		return fmt.Errorf("%w: businessId is required", ErrValidation)
	case strings.TrimSpace(m.Message) == "":
		return fmt.Errorf("%w: message is required", ErrValidation)
	case utf8.RuneCountInString(m.Message) > MaxMessageLength:
		return fmt.Errorf("%w: message exceeds %d characters", ErrValidation, MaxMessageLength)
	}
	return nil
}

// Reply is the engine's answer to one inbound message.
type Reply struct {
	Response        string `json:"response"`
	DetectedService string `json:"detectedService,omitempty"`
	QuestionType    string `json:"questionType,omitempty"`
}

// LeadCommitter records complete contacts. Implemented by leads.Capture.
type LeadCommitter interface {
	Commit(ctx context.Context, businessID string, c contact.Contact, serviceInterest string) (leads.Outcome, error)
}

// FallbackGenerator writes a free-form reply when no template applies.
// Implemented by assistant.Generator.
type FallbackGenerator interface {
	Reply(ctx context.Context, message string, biz catalog.Snapshot) (string, error)
}

// EngineConfig wires the engine's collaborators. Leads and Fallback are
// optional.
type EngineConfig struct {
	Store    session.Store
	Catalog  catalog.Provider
	Lexicon  *lexicon.Lexicon
	Leads    LeadCommitter
	Fallback FallbackGenerator
	Metrics  *metrics.EngineMetrics
	Logger   *logging.Logger
	Tracer   trace.Tracer
}

// Engine runs the per-message control flow.
type Engine struct {
	store     session.Store
	catalog   catalog.Provider
	tracker   *Tracker
	responder *Responder
	leads     LeadCommitter
	fallback  FallbackGenerator
	metrics   *metrics.EngineMetrics
	logger    *logging.Logger
	tracer    trace.Tracer
	locks     *sessionLocks
	now       func() time.Time
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Store == nil {
		panic("dialogue: session store required")
	}
	if cfg.Catalog == nil {
		panic("dialogue: catalog provider required")
	}
	lex := cfg.Lexicon
	if lex == nil {
		lex = lexicon.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("leadchat.internal.dialogue")
	}
	classifier := NewClassifier(lex)
	matcher := NewMatcher(lex)
	return &Engine{
		store:     cfg.Store,
		catalog:   cfg.Catalog,
		tracker:   NewTracker(lex, classifier, matcher),
		responder: NewResponder(lex, matcher),
		leads:     cfg.Leads,
		fallback:  cfg.Fallback,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
		tracer:    cfg.Tracer,
		locks:     newSessionLocks(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes one message. Turns for the same session run one at a
// time; the reply is returned only after the turn is persisted.
func (e *Engine) Handle(ctx context.Context, in InboundMessage) (Reply, error) {
	if err := in.Validate(); err != nil {
		e.metrics.ObserveTurn("invalid")
		return Reply{}, err
	}
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.BusinessID = strings.TrimSpace(in.BusinessID)
	message := strings.TrimSpace(in.Message)

	ctx, span := e.tracer.Start(ctx, "dialogue.handle")
	defer span.End()
	span.SetAttributes(attribute.String("business.id", in.BusinessID))

	unlock := e.locks.lock(in.SessionID)
	defer unlock()

	log := e.logger.With("session_id", in.SessionID, "business_id", in.BusinessID)

	var sess *session.Session
	err := retryOnce(func() error {
		var err error
		sess, err = e.store.GetOrCreate(ctx, in.SessionID, in.BusinessID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		e.metrics.ObserveTurn("persistence_error")
		log.Error("session load failed", "error", err)
		return Reply{}, fmt.Errorf("%w: load session: %w", ErrPersistence, err)
	}
	if sess.BusinessID != in.BusinessID {
		e.metrics.ObserveTurn("invalid")
		return Reply{}, fmt.Errorf("%w: session belongs to another business", ErrValidation)
	}

	biz, err := catalog.Load(ctx, e.catalog, in.BusinessID)
	if err != nil {
		log.Warn("business data unavailable", "error", fmt.Errorf("%w: %w", ErrExternalService, err))
	}

	work := sess.Clone()
	turn := e.tracker.Process(work, message, biz.Services)
	e.metrics.ObserveIntent(string(turn.Intent))
	if turn.Match.Found() {
		e.metrics.ObserveServiceMatch(string(turn.Match.Tier))
	}

	extracted := false
	if !turn.Affirmative {
		if found, ok := contact.Extract(message); ok {
			if namesService(found.Name, biz.Services) {
				found.Name = ""
			}
			if !found.IsEmpty() {
				work.PartialContact = work.PartialContact.Merge(contact.Format(found, e.now()))
				extracted = true
			}
		}
	}

	resp := e.responder.Generate(work, biz, turn.Intent)

	var ack string
	if extracted && contact.HasComplete(work.PartialContact) {
		frozen := work.PartialContact
		if !work.LeadCaptured() {
			work.Contact = &frozen
		}
		resp.FollowUp = e.responder.BookingFollowUp(work)
		if resp.Kind == KindFallback {
			resp.Body = ""
		}

		if e.leads != nil {
			outcome, err := e.leads.Commit(ctx, in.BusinessID, frozen, work.CurrentService)
			if err != nil {
				span.RecordError(err)
				e.metrics.ObserveLead("error")
				e.metrics.ObserveTurn("persistence_error")
				log.Error("lead capture failed", "phone_last4", contact.Last4(frozen.Phone), "error", err)
				return Reply{}, fmt.Errorf("%w: capture lead: %w", ErrPersistence, err)
			}
			ack = outcome.Acknowledgement
			if outcome.Created {
				e.metrics.ObserveLead("created")
			} else {
				e.metrics.ObserveLead("duplicate")
			}
		}
	} else if resp.Kind == KindFallback && !extracted {
		resp.Body = e.generateFallback(ctx, log, message, biz, resp.Body)
	}

	text := joinSentences(resp.Body, ack, resp.FollowUp)
	bot := session.Message{
		Role:           session.RoleAssistant,
		Content:        text,
		Timestamp:      e.now(),
		ServiceContext: work.CurrentService,
		QuestionType:   turn.Intent,
	}

	if err := e.persist(ctx, in.SessionID, work, turn.Message, bot); err != nil {
		span.RecordError(err)
		e.metrics.ObserveTurn("persistence_error")
		log.Error("turn persistence failed", "error", err)
		if errors.Is(err, session.ErrNotFound) {
			return Reply{}, err
		}
		return Reply{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	e.metrics.ObserveTurn("ok")
	log.Info("turn processed",
		"intent", string(turn.Intent),
		"service", turn.Match.Service,
		"match_tier", string(turn.Match.Tier),
		"reply_kind", string(resp.Kind),
		"affirmative", turn.Affirmative,
		"lead_captured", work.LeadCaptured(),
	)

	reply := Reply{Response: text, DetectedService: turn.Match.Service}
	if turn.Intent != session.QuestionNone {
		reply.QuestionType = string(turn.Intent)
	}
	return reply, nil
}

// History returns the stored session.
func (e *Engine) History(ctx context.Context, sessionID string) (*session.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: sessionId is required", ErrValidation)
	}
	return e.store.Get(ctx, strings.TrimSpace(sessionID))
}

func (e *Engine) generateFallback(ctx context.Context, log *logging.Logger, message string, biz catalog.Snapshot, template string) string {
	if e.fallback == nil {
		return template
	}
	text, err := e.fallback.Reply(ctx, message, biz)
	if err != nil {
		e.metrics.ObserveFallback("error")
		log.Warn("ai fallback failed", "error", fmt.Errorf("%w: %w", ErrExternalService, err))
		return template
	}
	e.metrics.ObserveFallback("ok")
	return text
}

func (e *Engine) persist(ctx context.Context, sessionID string, work *session.Session, user, bot session.Message) error {
	patch := session.PatchFrom(work)
	if err := retryOnce(func() error { return e.store.SaveTurn(ctx, sessionID, patch, user, bot) }); err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

// retryOnce repeats fn a single time unless the session is gone.
func retryOnce(fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrInvalidID) {
		return err
	}
	return fn()
}

// namesService reports whether every word of name belongs to one catalog
// service name, as in "I'm Botox curious" or "Teeth Whitening".
func namesService(name string, services []catalog.Service) bool {
	words := strings.Fields(strings.ToLower(name))
	if len(words) == 0 {
		return false
	}
	for _, svc := range services {
		svcWords := strings.Fields(strings.ToLower(svc.Name))
		if slices.ContainsFunc(words, func(w string) bool { return !slices.Contains(svcWords, w) }) {
			continue
		}
		return true
	}
	return false
}
