package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/meeting-reservation/internal/model"
)

// MemoryStore keeps reservations in process memory.  Records are kept in
// insertion order so listings are stable between calls.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]int
	items []model.Reservation
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int), now: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) List(_ context.Context, f model.Filter) ([]model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Reservation, 0, len(s.items))
	for _, r := range s.items {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (model.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	return s.items[i], nil
}

func (s *MemoryStore) Insert(_ context.Context, r model.Reservation) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.NewString()
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	s.byID[r.ID] = len(s.items)
	s.items = append(s.items, r)
	return r, nil
}

func (s *MemoryStore) Update(_ context.Context, r model.Reservation) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[r.ID]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	r.CreatedAt = s.items[i].CreatedAt
	r.UpdatedAt = s.now()
	s.items[i] = r
	return r, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.byID, id)
	// shift indexes of everything after the removed record
	for j := i; j < len(s.items); j++ {
		s.byID[s.items[j].ID] = j
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
