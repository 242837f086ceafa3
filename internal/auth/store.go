package auth

import (
	"context"

	"github.com/google/uuid"
)

// Store persists players. Implementations return coded domain errors:
// conflict for duplicate username/chat id, not_found for misses.
type Store interface {
	Create(ctx context.Context, player Player) error
	FindByID(ctx context.Context, id uuid.UUID) (Player, error)
	FindByUsername(ctx context.Context, username string) (Player, error)
	FindByChatID(ctx context.Context, chatID string) (Player, error)
}
