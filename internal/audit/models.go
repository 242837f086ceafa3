package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action identifies what happened.
type Action string

const (
	ActionPlayerRegistered Action = "player.registered"
	ActionPlayerLogin      Action = "player.login"
	ActionProfileBind      Action = "profile.bind"
	ActionProfileUnlink    Action = "profile.unlink"
)

// Event is one append-only audit record.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	PlayerID  uuid.UUID         `json:"player_id"`
	Action    Action            `json:"action"`
	Outcome   string            `json:"outcome"`
	Meta      map[string]string `json:"meta,omitempty"`
}
