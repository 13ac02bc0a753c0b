package session

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	mu      sync.Mutex
	sess    *Session
	removed bool
}

// MemoryStore keeps sessions in process memory. Each session has its own lock
// so unrelated sessions never contend.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	opts    Options
}

// NewMemoryStore builds an empty store.
func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		opts:    opts.withDefaults(),
	}
}

func (m *MemoryStore) lookup(sessionID string) *memoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[sessionID]
}

// GetOrCreate returns a copy of the live session, replacing an idle one.
func (m *MemoryStore) GetOrCreate(ctx context.Context, sessionID, businessID string) (*Session, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(businessID) == "" {
		return nil, ErrInvalidID
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry := m.lookup(sessionID)
		if entry == nil {
			m.mu.Lock()
			entry = m.entries[sessionID]
			if entry == nil {
				entry = &memoryEntry{sess: New(sessionID, businessID, m.opts.Now())}
				m.entries[sessionID] = entry
			}
			m.mu.Unlock()
		}

		entry.mu.Lock()
		if entry.removed {
			entry.mu.Unlock()
			continue
		}
		now := m.opts.Now()
		if entry.sess.Expired(now, m.opts.TTL) {
			entry.sess = New(sessionID, businessID, now)
		}
		entry.sess.LastInteraction = now
		out := entry.sess.Clone()
		entry.mu.Unlock()
		return out, nil
	}
}

// Get returns a copy of the live session.
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	var out *Session
	err := m.withSession(ctx, sessionID, func(s *Session) {
		out = s.Clone()
	})
	return out, err
}

// ApplyPatch merges patch into the stored session.
func (m *MemoryStore) ApplyPatch(ctx context.Context, sessionID string, patch Patch) error {
	return m.withSession(ctx, sessionID, patch.Apply)
}

// AppendTurn appends both messages and trims history.
func (m *MemoryStore) AppendTurn(ctx context.Context, sessionID string, user, bot Message) error {
	return m.withSession(ctx, sessionID, func(s *Session) {
		s.Messages = appendBounded(s.Messages, m.opts.MaxMessages, user, bot)
	})
}

// SaveTurn applies patch and appends the turn under one lock.
func (m *MemoryStore) SaveTurn(ctx context.Context, sessionID string, patch Patch, user, bot Message) error {
	return m.withSession(ctx, sessionID, func(s *Session) {
		applyTurn(s, m.opts.MaxMessages, patch, user, bot)
	})
}

// Expire removes the session.
func (m *MemoryStore) Expire(_ context.Context, sessionID string) error {
	m.mu.Lock()
	entry := m.entries[sessionID]
	delete(m.entries, sessionID)
	m.mu.Unlock()
	if entry != nil {
		entry.mu.Lock()
		entry.removed = true
		entry.mu.Unlock()
	}
	return nil
}

// ReapExpired deletes every session idle longer than the TTL.
func (m *MemoryStore) ReapExpired(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reaped := 0
	for id, entry := range m.entries {
		entry.mu.Lock()
		if entry.sess.Expired(now, m.opts.TTL) {
			entry.removed = true
			delete(m.entries, id)
			reaped++
		}
		entry.mu.Unlock()
	}
	return reaped, nil
}

// Len returns the number of stored sessions, live or idle.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) withSession(ctx context.Context, sessionID string, fn func(*Session)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := m.lookup(sessionID)
	if entry == nil {
		return ErrNotFound
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := m.opts.Now()
	if entry.removed || entry.sess.Expired(now, m.opts.TTL) {
		return ErrNotFound
	}
	fn(entry.sess)
	entry.sess.LastInteraction = now
	return nil
}
