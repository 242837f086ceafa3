package profile

import (
	"context"

	"github.com/google/uuid"
)

// Store persists linked profiles.
//
// Implementations return domain errors: CodeConflict when the (player,
// provider) pair or the external id is already linked, CodeNotFound
// when an unlink targets a link that does not exist.
type Store interface {
	Create(ctx context.Context, profile Profile) error
	ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]Profile, error)
	Delete(ctx context.Context, playerID uuid.UUID, provider Provider) error
}
