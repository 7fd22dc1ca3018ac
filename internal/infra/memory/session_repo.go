package memory

import (
	"context"
	"sync"
	"time"

	"telegram-marketplace-bot/internal/domain"
	"telegram-marketplace-bot/internal/domain/model"
	"telegram-marketplace-bot/internal/domain/ports/repository"
	"telegram-marketplace-bot/internal/infra/metrics"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo keeps flow sessions in process memory. Suitable for a single
// bot instance and for tests; sessions vanish on restart, which matches the
// transient nature of an in-progress form.
type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[int64]*model.Session
	ttl      time.Duration
}

// NewSessionRepo constructs the store. A positive ttl makes abandoned
// sessions expire lazily: an expired entry is dropped on next access.
func NewSessionRepo(ttl time.Duration) *SessionRepo {
	return &SessionRepo{
		sessions: make(map[int64]*model.Session),
		ttl:      ttl,
	}
}

func (r *SessionRepo) Get(_ context.Context, userID int64) (*model.Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if r.expired(s) {
		r.mu.Lock()
		delete(r.sessions, userID)
		r.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *SessionRepo) Save(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.UserID] = s.Clone()
	return nil
}

func (r *SessionRepo) Delete(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

// Count reports how many unexpired sessions are currently held.
func (r *SessionRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, s := range r.sessions {
		if !r.expired(s) {
			n++
		}
	}
	return n, nil
}

// Sweep removes every expired session and returns how many were dropped.
// The caller decides the cadence; nothing runs in the background here.
func (r *SessionRepo) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if time.Since(s.UpdatedAt) > r.ttl {
			delete(r.sessions, id)
			metrics.IncFlowFinished(string(s.Flow), metrics.OutcomeExpired)
			n++
		}
	}
	return n
}

func (r *SessionRepo) expired(s *model.Session) bool {
	return r.ttl > 0 && time.Since(s.UpdatedAt) > r.ttl
}
