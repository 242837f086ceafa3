package profile

import (
	"context"
	"sync"

	"github.com/google/uuid"

	dErrors "craftgate/pkg/domain-errors"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]map[Provider]Profile
	external map[Provider]map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[uuid.UUID]map[Provider]Profile),
		external: make(map[Provider]map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Create(ctx context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[profile.PlayerID][profile.Provider]; ok {
		return dErrors.New(dErrors.CodeConflict, "profile already linked")
	}
	if _, ok := s.external[profile.Provider][profile.ExternalID]; ok {
		return dErrors.New(dErrors.CodeConflict, "profile already linked")
	}

	if s.profiles[profile.PlayerID] == nil {
		s.profiles[profile.PlayerID] = make(map[Provider]Profile)
	}
	s.profiles[profile.PlayerID][profile.Provider] = profile

	if s.external[profile.Provider] == nil {
		s.external[profile.Provider] = make(map[string]uuid.UUID)
	}
	s.external[profile.Provider][profile.ExternalID] = profile.PlayerID
	return nil
}

func (s *MemoryStore) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	linked := make([]Profile, 0, len(s.profiles[playerID]))
	for _, p := range s.profiles[playerID] {
		linked = append(linked, p)
	}
	return linked, nil
}

func (s *MemoryStore) Delete(ctx context.Context, playerID uuid.UUID, provider Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.profiles[playerID][provider]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "profile not linked")
	}
	delete(s.profiles[playerID], provider)
	delete(s.external[provider], profile.ExternalID)
	return nil
}
