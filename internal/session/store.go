package session

import (
	"sync"
	"time"

	"github.com/alanyoungcy/vexorbot/internal/domain"
)

// Store keeps one Session per user in memory. Sessions are lost on restart.
// Get returns copies, so a caller must Put a modified session back.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]domain.Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]domain.Session)}
}

// Get returns the session for userID.
func (s *Store) Get(userID int64) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// GetOrCreate returns the session for userID, creating one in
// StateChooseService when none exists.
func (s *Store) GetOrCreate(userID, chatID int64, username string, now time.Time) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	sess := domain.Session{
		UserID:    userID,
		ChatID:    chatID,
		Username:  username,
		State:     domain.StateChooseService,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[userID] = sess
	return sess
}

// Put stores sess, or deletes it when it has ended.
func (s *Store) Put(sess domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess.State == domain.StateEnded {
		delete(s.sessions, sess.UserID)
		return
	}
	s.sessions[sess.UserID] = sess
}

// Delete removes the session for userID.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
