package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxWatchRetries = 8

// ErrConflict is returned when optimistic writes keep losing to other writers.
var ErrConflict = errors.New("session: too many concurrent writers")

// RedisStore keeps sessions as JSON documents with a native TTL. Writes use
// WATCH/MULTI so two instances never clobber each other's turn.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
	opts   Options
}

// NewRedisStore wires a store around an existing client.
func NewRedisStore(client *redis.Client, opts Options, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("leadchat.internal.session.redis")
	}
	return &RedisStore{redis: client, tracer: tracer, opts: opts.withDefaults()}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// GetOrCreate loads the session or stores a fresh one.
func (r *RedisStore) GetOrCreate(ctx context.Context, sessionID, businessID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(businessID) == "" {
		return nil, ErrInvalidID
	}
	ctx, span := r.tracer.Start(ctx, "session.get_or_create")
	defer span.End()
	span.SetAttributes(attribute.String("session.business_id", businessID))

	var out *Session
	err := r.update(ctx, sessionID, true, func(s *Session) *Session {
		if s == nil {
			s = New(sessionID, businessID, r.opts.Now())
		}
		out = s
		return s
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out.Clone(), nil
}

// Get loads the session and refreshes its TTL.
func (r *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	ctx, span := r.tracer.Start(ctx, "session.get")
	defer span.End()

	var out *Session
	err := r.update(ctx, sessionID, false, func(s *Session) *Session {
		out = s
		return s
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
		}
		return nil, err
	}
	return out.Clone(), nil
}

// ApplyPatch merges patch into the stored session.
func (r *RedisStore) ApplyPatch(ctx context.Context, sessionID string, patch Patch) error {
	ctx, span := r.tracer.Start(ctx, "session.apply_patch")
	defer span.End()

	err := r.update(ctx, sessionID, false, func(s *Session) *Session {
		patch.Apply(s)
		return s
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// AppendTurn appends both messages and trims history.
func (r *RedisStore) AppendTurn(ctx context.Context, sessionID string, user, bot Message) error {
	ctx, span := r.tracer.Start(ctx, "session.append_turn")
	defer span.End()

	err := r.update(ctx, sessionID, false, func(s *Session) *Session {
		s.Messages = appendBounded(s.Messages, r.opts.MaxMessages, user, bot)
		return s
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// SaveTurn applies patch and appends the turn in one transaction.
func (r *RedisStore) SaveTurn(ctx context.Context, sessionID string, patch Patch, user, bot Message) error {
	ctx, span := r.tracer.Start(ctx, "session.save_turn")
	defer span.End()

	err := r.update(ctx, sessionID, false, func(s *Session) *Session {
		applyTurn(s, r.opts.MaxMessages, patch, user, bot)
		return s
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
	}
	return err
}

// Expire deletes the session key.
func (r *RedisStore) Expire(ctx context.Context, sessionID string) error {
	ctx, span := r.tracer.Start(ctx, "session.expire")
	defer span.End()

	if err := r.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete session: %w", err)
	}
	return nil
}

// ReapExpired is a no-op; Redis expires idle keys itself.
func (r *RedisStore) ReapExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

// update runs fn against the current document inside a WATCH transaction and
// writes the result back with a refreshed TTL. fn receives nil for a missing
// key only when create is true.
func (r *RedisStore) update(ctx context.Context, sessionID string, create bool, fn func(*Session) *Session) error {
	key := sessionKey(sessionID)
	txf := func(tx *redis.Tx) error {
		current, err := r.load(ctx, tx, key)
		if err != nil {
			return err
		}
		if current == nil && !create {
			return ErrNotFound
		}
		next := fn(current)
		next.LastInteraction = r.opts.Now()

		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("session: failed to marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.opts.TTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := r.redis.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("session: failed to persist session: %w", err)
	}
	return ErrConflict
}

func (r *RedisStore) load(ctx context.Context, tx *redis.Tx, key string) (*Session, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: failed to load session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("session: failed to decode session: %w", err)
	}
	if s.MentionedServices == nil {
		s.MentionedServices = map[string]bool{}
	}
	if s.ServiceContext == nil {
		s.ServiceContext = map[string]ServiceContext{}
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	return &s, nil
}
