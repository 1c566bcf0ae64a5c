package service

import (
	"sort"
	"sync"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
)

// Registry holds at most one tracking session per job id.
//
// The registry never cancels watches: a caller replacing or removing a session owns
// the returned value and must cancel its WatchHandle.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.TrackingSession
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*domain.TrackingSession)}
}

// Add inserts s or replaces the session already stored for s.JobID.
// The replaced session, if any, is returned.
func (r *Registry) Add(s *domain.TrackingSession) *domain.TrackingSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.sessions[s.JobID]
	r.sessions[s.JobID] = s
	return prev
}

// Remove deletes the session for jobID and returns it; nil when absent.
func (r *Registry) Remove(jobID string) *domain.TrackingSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.sessions[jobID]
	if !ok {
		return nil
	}
	delete(r.sessions, jobID)
	return prev
}

// Get returns a copy of the session for jobID.
func (r *Registry) Get(jobID string) (*domain.TrackingSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[jobID]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Update runs fn against the stored session while holding the write lock.
// It reports false when no session exists for jobID.
func (r *Registry) Update(jobID string, fn func(s *domain.TrackingSession)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[jobID]
	if !ok {
		return false
	}
	fn(s)
	return true
}

// ListActive returns copies of all active sessions ordered by job id.
func (r *Registry) ListActive() []domain.TrackingSession {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.TrackingSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.IsActive() {
			out = append(out, *s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}

// ActiveCount returns the number of active sessions.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.sessions {
		if s.IsActive() {
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, active or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// jobIDs returns the ids of every stored session.
func (r *Registry) jobIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}
