package memory

import (
	"sync"

	"github.com/Wyydra/ya-signal/internal/core/domain"
)

// SessionRepository never deduplicates and never deletes.
type SessionRepository struct {
	mu       sync.Mutex
	sessions []domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make([]domain.Session, 0),
	}
}

func (r *SessionRepository) Create(session domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, session)
}

func (r *SessionRepository) FindByID(id domain.Optional[domain.SessionID]) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID.Equal(id) {
			return s, true
		}
	}
	return domain.Session{}, false
}

func (r *SessionRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
