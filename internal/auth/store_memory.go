package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"

	dErrors "craftgate/pkg/domain-errors"
)

// MemoryStore is an in-memory Store used in tests and local
// development.
type MemoryStore struct {
	mu      sync.RWMutex
	players map[uuid.UUID]Player
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{players: make(map[uuid.UUID]Player)}
}

func (s *MemoryStore) Create(ctx context.Context, player Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players {
		if existing.Username == player.Username {
			return dErrors.New(dErrors.CodeConflict, "username already exists")
		}
		if existing.ChatID == player.ChatID {
			return dErrors.New(dErrors.CodeConflict, "chat id already exists")
		}
	}
	s.players[player.ID] = player
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return Player{}, dErrors.New(dErrors.CodeNotFound, "player not found")
	}
	return player, nil
}

func (s *MemoryStore) FindByUsername(ctx context.Context, username string) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, player := range s.players {
		if player.Username == username {
			return player, nil
		}
	}
	return Player{}, dErrors.New(dErrors.CodeNotFound, "player not found")
}

func (s *MemoryStore) FindByChatID(ctx context.Context, chatID string) (Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, player := range s.players {
		if player.ChatID == chatID {
			return player, nil
		}
	}
	return Player{}, dErrors.New(dErrors.CodeNotFound, "player not found")
}
