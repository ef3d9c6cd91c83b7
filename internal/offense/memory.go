package offense

import (
	"context"
	"sync"
)

// MemoryStore keeps records in a map. It is for tests and single-process
// development; everything is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, userID string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return Record{UserID: userID}, nil
	}
	return rec, nil
}

func (s *MemoryStore) Update(_ context.Context, userID string, fn func(*Record)) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		rec = Record{UserID: userID}
	}
	fn(&rec)
	rec.UserID = userID
	s.records[userID] = rec
	return rec, nil
}

func (s *MemoryStore) Put(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UserID] = rec
	return nil
}

func (s *MemoryStore) Close() error { return nil }
