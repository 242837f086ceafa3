package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherWorkerRoundTrip(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	publisher := NewPublisher(logger)
	sink := NewMemorySink()
	worker := NewWorker(publisher, sink, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	playerID := uuid.New()
	publisher.Emit(ctx, Event{
		PlayerID: playerID,
		Action:   ActionProfileBind,
		Outcome:  "Success",
		Meta:     map[string]string{"provider": "java_microsoft"},
	})

	require.Eventually(t, func() bool {
		return len(sink.ListByPlayer(playerID)) == 1
	}, time.Second, 10*time.Millisecond)

	got := sink.ListByPlayer(playerID)[0]
	assert.NotEqual(t, uuid.Nil, got.ID, "events are stamped with an id")
	assert.False(t, got.Timestamp.IsZero(), "events are stamped with a timestamp")
	assert.Equal(t, ActionProfileBind, got.Action)
	assert.Equal(t, "Success", got.Outcome)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPublisherDropsWhenInboxFull(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	publisher := NewPublisher(logger)

	// No worker draining: overfill the inbox and make sure Emit never
	// blocks the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			publisher.Emit(context.Background(), Event{Action: ActionPlayerLogin})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full inbox")
	}
}
