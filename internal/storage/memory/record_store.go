// Package memory provides in-memory store implementations for development
// and testing.
package memory

import (
	"context"
	"sync"

	"github.com/talentscout/compscout/internal/pipeline"
)

// RecordStore keeps compensation records in memory, insertion-ordered.
type RecordStore struct {
	mu      sync.RWMutex
	records []pipeline.CompRecord
}

// NewRecordStore creates an empty in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// Insert appends a record.
func (s *RecordStore) Insert(_ context.Context, record pipeline.CompRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// ListAll returns a copy of every stored record in insertion order.
func (s *RecordStore) ListAll(_ context.Context) ([]pipeline.CompRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pipeline.CompRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}
