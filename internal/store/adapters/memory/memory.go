// Package memory is an in-process UserStore for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/vaweTech/authgate/internal/store/core"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]core.User
}

func New() *Store {
	return &Store{users: make(map[string]core.User)}
}

// Put inserts or replaces a user record.
func (s *Store) Put(u core.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) GetUserByID(ctx context.Context, uid string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := u
	return &cp, nil
}

func (s *Store) Close(ctx context.Context) error { return nil }
