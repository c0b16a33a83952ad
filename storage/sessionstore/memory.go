package sessionstore

import (
	"context"
	"sync"

	"github.com/academyos/console/core/session"
)

type memoryStore struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemory returns a Persister that lives as long as the process.
func NewMemory() session.Persister {
	return &memoryStore{}
}

func (s *memoryStore) Load(context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, session.ErrNoSnapshot
	}
	data := make([]byte, len(s.data))
	copy(data, s.data)
	return data, nil
}

func (s *memoryStore) Save(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *memoryStore) Delete(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	return nil
}

func (s *memoryStore) Close(context.Context) error { return nil }
