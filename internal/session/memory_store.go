package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"prompt-studio/internal/viewmodel"
	"prompt-studio/shared/models"
)

var _ Store = (*MemoryStore)(nil)

type memoryEntry struct {
	mu      sync.Mutex
	users   int
	data    []byte
	expires time.Time
}

// MemoryStore хранит сессии в памяти процесса. У каждой сессии свой мьютекс.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	logger  *zap.Logger
}

func NewMemoryStore(ttl time.Duration, logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		logger:  logger.Named("MemorySessionStore"),
	}
}

// acquire возвращает запись сессии и помечает ее занятой до release.
// Занятые записи не удаляются по истечении TTL.
func (s *MemoryStore) acquire(id string, create bool) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if ok && e.users == 0 && s.expired(e, time.Now()) {
		delete(s.entries, id)
		ok = false
	}
	if !ok {
		if !create {
			return nil
		}
		e = &memoryEntry{}
		s.entries[id] = e
	}
	e.users++
	return e
}

func (s *MemoryStore) release(e *memoryEntry) {
	s.mu.Lock()
	e.users--
	s.mu.Unlock()
}

func (s *MemoryStore) expired(e *memoryEntry, now time.Time) bool {
	return s.ttl > 0 && !e.expires.IsZero() && now.After(e.expires)
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*viewmodel.Workspace, error) {
	e := s.acquire(id, false)
	if e == nil {
		return nil, models.ErrSessionNotFound
	}
	defer s.release(e)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.data == nil {
		return nil, models.ErrSessionNotFound
	}
	return decode(e.data)
}

func (s *MemoryStore) Update(ctx context.Context, id string, fn UpdateFunc) error {
	e := s.acquire(id, true)
	defer s.release(e)
	e.mu.Lock()
	defer e.mu.Unlock()

	ws := &viewmodel.Workspace{}
	if e.data != nil {
		decoded, err := decode(e.data)
		if err != nil {
			s.logger.Warn("Dropping corrupted session state", zap.String("session_id", id), zap.Error(err))
		} else {
			ws = decoded
		}
	}

	fnErr := fn(ws)

	data, err := encode(ws)
	if err != nil {
		return err
	}
	e.data = data
	if s.ttl > 0 {
		e.expires = time.Now().Add(s.ttl)
	}
	return fnErr
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Cleanup удаляет истекшие незанятые сессии и возвращает их число.
func (s *MemoryStore) Cleanup() int {
	if s.ttl <= 0 {
		return 0
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.users == 0 && s.expired(e, now) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// RunJanitor периодически вызывает Cleanup, пока ctx не отменен.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 {
				s.logger.Debug("Expired sessions removed", zap.Int("count", n))
			}
		}
	}
}
