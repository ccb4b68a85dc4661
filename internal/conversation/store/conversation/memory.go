package conversation

import (
	"context"
	"slices"
	"sync"
	"time"

	"recruitline/internal/conversation/models"
	"recruitline/pkg/platform/sentinel"
)

// InMemory stores conversations in insertion order. Create enforces the same
// uniqueness rules as the PostgreSQL schema, under one lock, so the invariants
// hold even for callers that skip the service-level checks.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[string]*models.Conversation
	order []string
}

func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]*models.Conversation)}
}

func (s *InMemory) Create(_ context.Context, c *models.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[c.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	duplicate := false
	for _, existing := range s.byID {
		if existing.CandidateID != c.CandidateID {
			continue
		}
		if c.Status.IsActive() && existing.Status.IsActive() {
			return sentinel.ErrActiveConversation
		}
		if existing.JobID == c.JobID {
			duplicate = true
		}
	}
	if duplicate {
		return sentinel.ErrDuplicateApplication
	}

	stored := *c
	s.byID[c.ID] = &stored
	s.order = append(s.order, c.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *InMemory) FindActiveByCandidate(_ context.Context, candidateID string) (*models.Conversation, error) {
	return s.findFirst(func(c *models.Conversation) bool {
		return c.CandidateID == candidateID && c.Status.IsActive()
	})
}

func (s *InMemory) FindByCandidateAndJob(_ context.Context, candidateID, jobID string) (*models.Conversation, error) {
	return s.findFirst(func(c *models.Conversation) bool {
		return c.CandidateID == candidateID && c.JobID == jobID
	})
}

func (s *InMemory) findFirst(match func(*models.Conversation) bool) (*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if c := s.byID[id]; match(c) {
			out := *c
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns conversations newest first, optionally filtered by status.
// Equal timestamps keep insertion order.
func (s *InMemory) List(_ context.Context, status *models.Status) ([]*models.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Conversation, 0, len(s.order))
	for _, id := range s.order {
		c := s.byID[id]
		if status != nil && c.Status != *status {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, func(a, b *models.Conversation) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// UpdateStatus moves a conversation from one status to another. It fails with
// ErrInvalidState when the stored status is no longer from.
func (s *InMemory) UpdateStatus(_ context.Context, id string, from, to models.Status, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if c.Status != from {
		return sentinel.ErrInvalidState
	}
	if to.IsActive() && !from.IsActive() {
		for _, other := range s.byID {
			if other.ID != id && other.CandidateID == c.CandidateID && other.Status.IsActive() {
				return sentinel.ErrActiveConversation
			}
		}
	}
	c.Status = to
	c.UpdatedAt = now
	return nil
}
