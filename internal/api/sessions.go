package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/coach/internal/dialogue"
)

const sweepInterval = time.Minute

type session struct {
	ctrl *dialogue.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry holds the live sessions in memory. Sessions idle for longer than
// the TTL are evicted by Sweep.
type Registry struct {
	client dialogue.Completer
	opts   []dialogue.Option
	sink   dialogue.EventSink
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewRegistry(client dialogue.Completer, sink dialogue.EventSink, ttl time.Duration, logger *slog.Logger, opts ...dialogue.Option) *Registry {
	return &Registry{
		client:   client,
		opts:     opts,
		sink:     sink,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create starts a new session in the exploration phase.
func (r *Registry) Create() *dialogue.Controller {
	opts := append([]dialogue.Option{
		dialogue.WithLogger(r.logger),
		dialogue.WithSink(r.sink),
	}, r.opts...)
	ctrl := dialogue.New(r.client, opts...)

	r.mu.Lock()
	r.sessions[ctrl.ID()] = &session{ctrl: ctrl, lastSeen: r.now()}
	r.mu.Unlock()

	r.logger.Info("session created", "session_id", ctrl.ID())
	return ctrl
}

// Get returns the session and marks it as active.
func (r *Registry) Get(id string) (*dialogue.Controller, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(r.now())
	return s.ctrl, true
}

// Delete removes a session. It reports whether the session existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		r.logger.Info("session deleted", "session_id", id)
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed. A zero TTL disables eviction.
func (r *Registry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []string
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, id)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, id := range expired {
		r.logger.Info("session expired", "session_id", id, "ttl", r.ttl)
	}
	return len(expired)
}

// StartSweeper runs Sweep periodically until ctx is done.
func (r *Registry) StartSweeper(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		r.logger.Info("session sweeper started", "interval", sweepInterval, "ttl", r.ttl)

		for {
			select {
			case <-ticker.C:
				if n := r.Sweep(); n > 0 {
					r.logger.Info("session sweep completed", "expired", n, "remaining", r.Len())
				}
			case <-ctx.Done():
				r.logger.Info("session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
