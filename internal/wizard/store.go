package wizard

import (
	"context"
	"sync"
	"time"

	"t4studio/internal/domain"
)

// Store persists sessions between requests. Load returns domain.ErrNotFound
// for unknown ids.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
}

type memoryEntry struct {
	sess    *Session
	expires time.Time
}

// MemoryStore keeps sessions in process. Entries expire after ttl of
// inactivity; a zero ttl keeps them forever. Save drops expired entries at
// most once per ttl.
type MemoryStore struct {
	mu    sync.Mutex
	m     map[string]memoryEntry
	ttl   time.Duration
	swept time.Time
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{m: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.m[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.m, id)
		return nil, domain.ErrNotFound
	}
	return e.sess.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	e := memoryEntry{sess: sess.Clone()}
	if s.ttl > 0 {
		e.expires = now.Add(s.ttl)
	}
	s.m[sess.ID] = e
	return nil
}

// sweep must be called with mu held.
func (s *MemoryStore) sweep(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.swept) < s.ttl {
		return
	}
	s.swept = now
	for id, e := range s.m {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(s.m, id)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
