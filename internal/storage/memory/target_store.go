package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/talentscout/compscout/internal/pipeline"
)

// ErrTargetNotFound is returned when removing an unknown target.
var ErrTargetNotFound = fmt.Errorf("target not found")

// TargetStore keeps target companies in memory, insertion-ordered.
type TargetStore struct {
	mu      sync.RWMutex
	order   []string
	targets map[string]pipeline.TargetCompany
}

// NewTargetStore creates an empty in-memory target store.
func NewTargetStore() *TargetStore {
	return &TargetStore{targets: make(map[string]pipeline.TargetCompany)}
}

// Add stores a target company. Re-adding an ID overwrites the entry but
// keeps its original position.
func (s *TargetStore) Add(_ context.Context, target pipeline.TargetCompany) error {
	if target.ID == "" {
		return fmt.Errorf("target id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.targets[target.ID]; !ok {
		s.order = append(s.order, target.ID)
	}
	s.targets[target.ID] = target
	return nil
}

// Remove deletes a target by ID.
func (s *TargetStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.targets[id]; !ok {
		return ErrTargetNotFound
	}
	delete(s.targets, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// ListTargets returns every target in insertion order.
func (s *TargetStore) ListTargets(_ context.Context) ([]pipeline.TargetCompany, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pipeline.TargetCompany, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.targets[id])
	}
	return out, nil
}
