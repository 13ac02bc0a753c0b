package session

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/leadchat/pkg/logging"
)

// DefaultReapInterval is how often idle sessions are swept.
const DefaultReapInterval = 10 * time.Minute

// Reaper periodically removes idle sessions from a Reapable store.
type Reaper struct {
	store    Reapable
	interval time.Duration
	logger   *logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewReaper builds a reaper; a non-positive interval uses the default.
func NewReaper(store Reapable, interval time.Duration, logger *logging.Logger) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Reaper{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (r *Reaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true
	go r.run(loopCtx)
}

// Stop cancels the loop and waits for it to exit.
func (r *Reaper) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	cancel, done := r.cancel, r.done
	r.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the loop is active.
func (r *Reaper) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Sweep runs one reap pass.
func (r *Reaper) Sweep(ctx context.Context) int {
	removed, err := r.store.ReapExpired(ctx, r.now())
	if err != nil {
		r.logger.Warn("session reap failed", "error", err)
		return 0
	}
	if removed > 0 {
		r.logger.Info("reaped idle sessions", "removed", removed)
	}
	return removed
}

func (r *Reaper) run(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.running = false
		close(r.done)
		r.mu.Unlock()
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
