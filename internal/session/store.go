// Package session holds the in-flight exam state. Sessions live only in
// memory: a restart loses every open exam by design, the attempt ledger alone
// decides whether a student may start again.
package session

import (
	"sync"
	"time"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/models"
)

// Session is one student's in-progress exam between start and submit.
type Session struct {
	StudentLogin string
	Subject      string
	Questions    []models.Question
	StartedAt    time.Time
	Duration     time.Duration
}

// Elapsed returns the time since the exam started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// Overtime reports whether the nominal duration has passed. Informational
// only; submission is never rejected for being late.
func (s *Session) Overtime(now time.Time) bool {
	return s.Elapsed(now) > s.Duration
}

// Store keeps at most one session per identity. Starting a new exam for the
// same login replaces the previous session, last writer wins.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Put stores the session for its owning login, replacing any open one.
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.StudentLogin] = s
}

// Get returns the open session for the login, or nil.
func (st *Store) Get(login string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[login]
}

// Take removes and returns the open session for the login, or nil. Submit
// uses it so a session is consumed exactly once.
func (st *Store) Take(login string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.sessions[login]
	delete(st.sessions, login)
	return s
}

// Restore puts a session back after a failed submit so the student can retry.
func (st *Store) Restore(s *Session) {
	st.Put(s)
}

// Len returns the number of open sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
