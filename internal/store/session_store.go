package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"dashgen-backend/internal/session"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

const DefaultOwner = "anonymous"

type SessionStore interface {
	Create(ctx context.Context, owner string) (*session.Session, error)
	Get(ctx context.Context, sessionID string) (*session.Session, error)
	Delete(ctx context.Context, sessionID string) error
	// Sweep drops sessions not seen for idleFor and returns how many went.
	Sweep(ctx context.Context, idleFor time.Duration) int
	// ReferencedFiles lists the upload paths held by live sessions.
	ReferencedFiles(ctx context.Context) map[string]bool
	All(ctx context.Context) []*session.Session
}

type inMemorySessionStore struct {
	store map[string]*session.Session // map[sessionID]*Session
	mu    sync.RWMutex
	now   func() time.Time
}

func NewInMemorySessionStore() SessionStore {
	return &inMemorySessionStore{
		store: make(map[string]*session.Session),
		now:   time.Now,
	}
}

func (s *inMemorySessionStore) Create(ctx context.Context, owner string) (*session.Session, error) {
	if owner == "" {
		owner = DefaultOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := session.New(uuid.NewString(), owner, s.now())
	s.store[sess.ID] = sess
	return sess, nil
}

func (s *inMemorySessionStore) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.store[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Touch(s.now())
	return sess, nil
}

func (s *inMemorySessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.store[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.store, sessionID)
	return nil
}

func (s *inMemorySessionStore) Sweep(ctx context.Context, idleFor time.Duration) int {
	cutoff := s.now().Add(-idleFor)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.store {
		if sess.LastSeen().Before(cutoff) {
			delete(s.store, id)
			removed++
		}
	}
	return removed
}

func (s *inMemorySessionStore) ReferencedFiles(ctx context.Context) map[string]bool {
	files := make(map[string]bool)
	for _, sess := range s.All(ctx) {
		for _, f := range sess.Files() {
			files[f] = true
		}
	}
	return files
}

func (s *inMemorySessionStore) All(ctx context.Context) []*session.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*session.Session, 0, len(s.store))
	for _, sess := range s.store {
		out = append(out, sess)
	}
	return out
}
