package profile

import (
	"time"

	"github.com/google/uuid"
)

// Provider identifies the external account system a profile belongs to.
type Provider string

const (
	// ProviderJavaMicrosoft is a Minecraft (Java) profile bound through
	// the Microsoft device-code chain.
	ProviderJavaMicrosoft Provider = "java_microsoft"
	// ProviderXbox is an Xbox Live profile.
	ProviderXbox Provider = "xbox"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	return p == ProviderJavaMicrosoft || p == ProviderXbox
}

// Profile links a local player to one external account. A player holds
// at most one profile per provider.
type Profile struct {
	PlayerID    uuid.UUID `json:"player_id"`
	Provider    Provider  `json:"provider"`
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name"`
	LinkedAt    time.Time `json:"linked_at"`
}
