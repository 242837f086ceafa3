package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Sink receives audit events. Implementations must be safe for
// concurrent use.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// MemorySink keeps events in memory; the default sink for tests and for
// deployments without Kafka.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Append(ctx context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByPlayer returns the recorded events for one player, oldest
// first.
func (s *MemorySink) ListByPlayer(playerID uuid.UUID) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, event := range s.events {
		if event.PlayerID == playerID {
			out = append(out, event)
		}
	}
	return out
}
