package memkv

import (
	"context"
	"sync"

	"fxportal/internal/application"
)

// Store keeps pending quote slots in process memory. Slots are lost on
// restart.
type Store struct {
	mu     sync.Mutex
	values map[string]string
}

var _ application.SlotProvider = (*Store)(nil)

func New() *Store { return &Store{values: map[string]string{}} }

func (s *Store) Slot(sessionID string) application.SessionSlot {
	return slot{store: s, key: sessionID}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

type slot struct {
	store *Store
	key   string
}

func (s slot) Get(context.Context) (string, bool, error) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	v, ok := s.store.values[s.key]
	return v, ok, nil
}

func (s slot) Set(_ context.Context, value string) error {
	s.store.mu.Lock()
	s.store.values[s.key] = value
	s.store.mu.Unlock()
	return nil
}

func (s slot) Delete(context.Context) error {
	s.store.mu.Lock()
	delete(s.store.values, s.key)
	s.store.mu.Unlock()
	return nil
}
