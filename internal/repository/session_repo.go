package repository

import (
	"sync"
	"time"

	"github.com/abdoulousseini2028-droid/interview-prep-ai/internal/models"
)

// SessionRepository owns every interview session for the lifetime of the process.
// Sessions are created lazily and never evicted.
type SessionRepository interface {
	GetOrCreate(id string) *models.InterviewSession
	Get(id string) (*models.InterviewSession, bool)
	// Renew returns the stored session, replacing it with a fresh one when stale reports true.
	Renew(id string, stale func(*models.InterviewSession) bool) *models.InterviewSession
	Count() int
}

type sessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.InterviewSession
	now      func() time.Time
}

// NewSessionRepository constructs an in-memory session repository.
func NewSessionRepository() SessionRepository {
	return NewSessionRepositoryWithClock(time.Now)
}

// NewSessionRepositoryWithClock constructs a repository stamping new sessions with the given clock.
func NewSessionRepositoryWithClock(now func() time.Time) SessionRepository {
	if now == nil {
		now = time.Now
	}
	return &sessionRepository{
		sessions: make(map[string]*models.InterviewSession),
		now:      now,
	}
}

func (r *sessionRepository) GetOrCreate(id string) *models.InterviewSession {
	if session, ok := r.Get(id); ok {
		return session
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		return session
	}
	session := models.NewInterviewSession(id, r.now().UTC())
	r.sessions[id] = session
	return session
}

func (r *sessionRepository) Get(id string) (*models.InterviewSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	return session, ok
}

func (r *sessionRepository) Renew(id string, stale func(*models.InterviewSession) bool) *models.InterviewSession {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok && (stale == nil || !stale(session)) {
		return session
	}
	session := models.NewInterviewSession(id, r.now().UTC())
	r.sessions[id] = session
	return session
}

func (r *sessionRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}
