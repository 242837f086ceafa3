package auth

import (
	"time"

	"github.com/google/uuid"
)

// Player is a local site account. Passwords are stored as bcrypt hashes
// only; linked game profiles live in the profile package.
type Player struct {
	ID           uuid.UUID
	Username     string
	ChatID       string
	PasswordHash string
	IsSiteAdmin  bool
	CreatedAt    time.Time
}
