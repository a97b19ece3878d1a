package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scoutdig/scout/models"
)

type entry struct {
	turns   []models.Turn
	expires time.Time
}

// Store keeps session history in process memory. Sessions lapse after
// the TTL and are dropped lazily on access.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *Store) Ensure(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if e, ok := s.sessions[id]; ok && e.expires.After(s.now()) {
			e.expires = s.now().Add(s.ttl)
			return id, nil
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	s.sessions[id] = &entry{expires: s.now().Add(s.ttl)}
	return id, nil
}

func (s *Store) History(_ context.Context, id string) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok || !e.expires.After(s.now()) {
		return nil, nil
	}
	out := make([]models.Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

func (s *Store) Append(_ context.Context, id string, turns ...models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok || !e.expires.After(s.now()) {
		e = &entry{}
		s.sessions[id] = e
	}
	e.turns = append(e.turns, turns...)
	e.expires = s.now().Add(s.ttl)
	return nil
}

func (s *Store) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
