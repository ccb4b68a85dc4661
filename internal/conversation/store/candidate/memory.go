package candidate

import (
	"context"
	"sync"

	"recruitline/internal/conversation/models"
	"recruitline/pkg/platform/sentinel"
)

// InMemory keeps candidate profiles in a map. Profiles are write-once.
type InMemory struct {
	mu         sync.RWMutex
	candidates map[string]models.Candidate
}

func NewInMemory() *InMemory {
	return &InMemory{candidates: make(map[string]models.Candidate)}
}

// CreateIfAbsent inserts the candidate unless one with the same ID exists.
// It reports whether a new record was written.
func (s *InMemory) CreateIfAbsent(_ context.Context, c models.Candidate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[c.ID]; ok {
		return false, nil
	}
	s.candidates[c.ID] = c
	return true, nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}
