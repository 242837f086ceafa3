// Package audit captures structured audit events. Services emit through
// a Publisher; a Worker drains the inbox into whatever Sink is
// configured so request paths never block on the audit backend.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher buffers events for background persistence. Emit never
// blocks the caller: when the inbox is full the event is dropped and
// logged.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{
		inbox:  make(chan Event, 256),
		logger: logger,
	}
}

// Emit stamps and enqueues an event.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"player_id", event.PlayerID,
		)
	}
}

// Worker consumes events from a Publisher and persists them.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(publisher *Publisher, sink Sink, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: publisher.inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled. Sink failures are logged
// and skipped; one bad event must not wedge the stream.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
