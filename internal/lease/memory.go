package lease

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vevevedk/vvv-invest-sub000/internal/model"
)

// MemoryStore is an in-memory lease store with the same semantics as
// Store. Used by tests and single-process tooling.
type MemoryStore struct {
	mu     sync.Mutex
	leases map[model.StreamKind]model.RunLease

	// now is swappable so expiry can be tested without sleeping.
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		leases: make(map[model.StreamKind]model.RunLease),
		now:    time.Now,
	}
}

func (s *MemoryStore) Acquire(_ context.Context, stream model.StreamKind, holder uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if cur, ok := s.leases[stream]; ok && cur.ExpiresAt.After(now) {
		return ErrHeld
	}

	s.leases[stream] = model.RunLease{
		Stream:     stream,
		HolderID:   holder,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Heartbeat(_ context.Context, stream model.StreamKind, holder uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.leases[stream]
	if !ok || cur.HolderID != holder {
		return ErrLost
	}

	cur.ExpiresAt = s.now().Add(ttl)
	s.leases[stream] = cur
	return nil
}

func (s *MemoryStore) Release(_ context.Context, stream model.StreamKind, holder uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.leases[stream]; ok && cur.HolderID == holder {
		delete(s.leases, stream)
	}
	return nil
}
