package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	wizarderrors "slotbook/internal/wizard/errors"
	"slotbook/pkg/model"
)

const DefaultSessionTTL = 30 * time.Minute

type session struct {
	wizard   *Wizard
	lastSeen time.Time
}

// Registry owns the open wizard sessions. Every session has its own draft;
// opening a session for another target never reuses an existing one.
type Registry struct {
	deps Deps
	ttl  time.Duration

	mu       sync.RWMutex
	sessions map[string]*session

	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewRegistry(deps Deps, ttl time.Duration) (*Registry, error) {
	if err := deps.check(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	r := &Registry{
		deps:     deps.withDefaults(),
		ttl:      ttl,
		sessions: make(map[string]*session),
		stopCh:   make(chan struct{}),
	}

	go r.cleanup()

	return r, nil
}

func (r *Registry) Open(target model.Target) (string, *Wizard, error) {
	id := uuid.NewString()

	deps := r.deps
	deps.Log = deps.Log.With("session_id", id)
	w, err := New(target, deps)
	if err != nil {
		return "", nil, err
	}

	r.mu.Lock()
	r.sessions[id] = &session{wizard: w, lastSeen: r.deps.Clock()}
	r.mu.Unlock()

	r.deps.Log.Info("Booking wizard opened",
		"session_id", id,
		"vendor_id", target.VendorID,
		"service_id", target.ServiceID,
	)
	return id, w, nil
}

func (r *Registry) Get(id string) (*Wizard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, wizarderrors.ErrSessionNotFound
	}
	s.lastSeen = r.deps.Clock()
	return s.wizard, nil
}

// Close forgets the session. Dismissal rules are the wizard's business;
// Close is for sessions that are already dismissed or expired.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.wizard.resolver.Reset()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// evictExpired drops sessions idle for longer than the TTL. A wizard with a
// submission in flight is kept until the submission settles.
func (r *Registry) evictExpired(now time.Time) int {
	r.mu.Lock()
	var expired []*session
	for id, s := range r.sessions {
		if now.Sub(s.lastSeen) <= r.ttl {
			continue
		}
		if s.wizard.State() == StateSubmitting {
			continue
		}
		expired = append(expired, s)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.wizard.resolver.Reset()
	}
	if len(expired) > 0 {
		r.deps.Log.Info("Evicted idle booking wizard sessions", "count", len(expired))
	}
	return len(expired)
}

func (r *Registry) cleanup() {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictExpired(r.deps.Clock())
		case <-r.stopCh:
			return
		}
	}
}

func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
}
