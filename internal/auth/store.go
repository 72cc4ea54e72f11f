package auth

import (
	"context"
	"sync"

	"github.com/fivetwenty-io/libadmin/pkg/libadmin"
)

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mutex   sync.RWMutex
	session *libadmin.Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns a copy of the stored session, or nil.
func (s *MemoryStore) Get(_ context.Context) (*libadmin.Session, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.session == nil {
		return nil, nil //nolint:nilnil // absence of a session is not an error
	}

	session := *s.session

	return &session, nil
}

// Set replaces the stored session.
func (s *MemoryStore) Set(_ context.Context, session libadmin.Session) error {
	err := session.Validate()
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.session = &session

	return nil
}

// Clear removes the stored session.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.session = nil

	return nil
}
