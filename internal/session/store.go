package session

import (
	"context"
	"time"
)

// Store persists sessions keyed by session id. Every read or write refreshes
// the session's interaction time. Writes to one session id are serialized:
// concurrent ApplyPatch/AppendTurn calls never interleave.
type Store interface {
	// GetOrCreate returns the live session or creates an empty one.
	GetOrCreate(ctx context.Context, sessionID, businessID string) (*Session, error)
	// Get returns the live session or ErrNotFound.
	Get(ctx context.Context, sessionID string) (*Session, error)
	// ApplyPatch shallow-merges patch into the session or returns ErrNotFound.
	ApplyPatch(ctx context.Context, sessionID string, patch Patch) error
	// AppendTurn appends the user and bot messages and truncates history to
	// the newest MaxMessages entries, or returns ErrNotFound.
	AppendTurn(ctx context.Context, sessionID string, user, bot Message) error
	// SaveTurn applies patch and appends the turn in one write, or returns
	// ErrNotFound. Replaying a turn that is already the newest pair in history
	// only reapplies the patch.
	SaveTurn(ctx context.Context, sessionID string, patch Patch, user, bot Message) error
	// Expire deletes the session.
	Expire(ctx context.Context, sessionID string) error
}

// Reapable stores can drop idle sessions on demand.
type Reapable interface {
	ReapExpired(ctx context.Context, now time.Time) (int, error)
}

// Options configures store limits.
type Options struct {
	TTL         time.Duration
	MaxMessages int
	Now         func() time.Time
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.MaxMessages <= 0 {
		o.MaxMessages = DefaultMaxMessages
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}
