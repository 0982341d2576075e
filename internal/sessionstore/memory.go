package sessionstore

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is the in-process GuestClaimStore used in tests and in
// single-instance deployments without Redis.
type MemoryStore struct {
	mu     sync.Mutex
	claims map[string]GuestClaim
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{claims: make(map[string]GuestClaim)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*GuestClaim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[sessionID]
	if !ok {
		return nil, nil
	}
	copied := claim
	return &copied, nil
}

func (s *MemoryStore) Claim(ctx context.Context, sessionID string, claim *GuestClaim) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.claims[sessionID]; ok {
		return false, nil
	}
	s.claims[sessionID] = *claim
	return true, nil
}

func (s *MemoryStore) MarkCompleted(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[sessionID]
	if !ok {
		return fmt.Errorf("no guest claim for session")
	}
	claim.Completed = true
	s.claims[sessionID] = claim
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, sessionID)
	return nil
}
