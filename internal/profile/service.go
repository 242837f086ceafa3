// Package profile links local players to external game accounts. The
// interesting path is Bind, which drives a full device-code
// authentication attempt and persists the resulting profile.
package profile

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"craftgate/internal/audit"
	"craftgate/internal/platform/metrics"
	"craftgate/internal/xbl"
	dErrors "craftgate/pkg/domain-errors"
)

// Service owns profile linking.
type Service struct {
	store    Store
	flow     *xbl.Flow
	auditlog *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger

	now func() time.Time
}

func NewService(
	store Store,
	flow *xbl.Flow,
	auditlog *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		flow:     flow,
		auditlog: auditlog,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Bind starts a device-code bind attempt for the player and returns its
// event stream: at most one DeviceCode event, then one terminal event,
// then the channel closes. Cancelling ctx cancels the attempt; the
// stream then closes without a terminal event.
//
// A Success event means the profile has already been persisted. A
// profile that is linked elsewhere surfaces as InternalError on the
// stream; the collision is logged and audited with its real reason.
func (s *Service) Bind(ctx context.Context, playerID uuid.UUID, provider Provider, alivePeriod time.Duration) (<-chan xbl.Event, error) {
	if provider != ProviderJavaMicrosoft {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider does not support device-code binding")
	}

	session, err := xbl.NewSession(alivePeriod)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create bind session")
	}

	s.metrics.BindsStarted.Inc()
	started := s.now()

	// Cancellation is cooperative: flipping the session flag stops the
	// flow at its next step boundary without tearing down an in-flight
	// remote call.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			session.Cancel()
		case <-watchDone:
		}
	}()

	// The flow and the final persistence outlive a departed caller; a
	// profile fetched moments before the disconnect still gets linked.
	bindCtx := context.WithoutCancel(ctx)
	events := s.flow.Run(bindCtx, session)
	out := make(chan xbl.Event, 2)
	go func() {
		defer close(watchDone)
		defer close(out)
		terminal := false
		for event := range events {
			if event.Terminal() {
				terminal = true
				event = s.finishBind(bindCtx, playerID, provider, event)
			}
			out <- event
		}
		s.metrics.BindDuration.Observe(s.now().Sub(started).Seconds())
		if !terminal {
			s.auditBind(playerID, provider, "Cancelled", nil)
		}
	}()
	return out, nil
}

// finishBind records the terminal outcome and, on success, persists the
// profile. Returns the event to forward to the caller.
func (s *Service) finishBind(ctx context.Context, playerID uuid.UUID, provider Provider, event xbl.Event) xbl.Event {
	if event.State == xbl.StateSuccess {
		err := s.store.Create(ctx, Profile{
			PlayerID:    playerID,
			Provider:    provider,
			ExternalID:  event.ID,
			DisplayName: event.Name,
			LinkedAt:    s.now(),
		})
		if err != nil {
			outcome := "InternalError"
			if dErrors.Is(err, dErrors.CodeConflict) {
				outcome = "Conflict"
			}
			s.logger.ErrorContext(ctx, "bind persistence failed",
				"player_id", playerID,
				"provider", provider,
				"error", err,
			)
			s.metrics.ObserveBindOutcome(outcome)
			s.auditBind(playerID, provider, outcome, map[string]string{"name": event.Name})
			return xbl.Event{State: xbl.StateInternalError}
		}
	}

	s.metrics.ObserveBindOutcome(string(event.State))
	var meta map[string]string
	if event.State == xbl.StateSuccess {
		meta = map[string]string{"name": event.Name}
	}
	s.auditBind(playerID, provider, string(event.State), meta)
	return event
}

func (s *Service) auditBind(playerID uuid.UUID, provider Provider, outcome string, meta map[string]string) {
	if meta == nil {
		meta = map[string]string{}
	}
	meta["provider"] = string(provider)
	s.auditlog.Emit(context.Background(), audit.Event{
		PlayerID: playerID,
		Action:   audit.ActionProfileBind,
		Outcome:  outcome,
		Meta:     meta,
	})
}

// List returns the player's linked profiles.
func (s *Service) List(ctx context.Context, playerID uuid.UUID) ([]Profile, error) {
	return s.store.ListByPlayer(ctx, playerID)
}

// LinkedProviders reports which providers the player has linked a
// profile for; the directory join path checks edition eligibility
// against it.
func (s *Service) LinkedProviders(ctx context.Context, playerID uuid.UUID) ([]string, error) {
	profiles, err := s.store.ListByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	providers := make([]string, 0, len(profiles))
	for _, p := range profiles {
		providers = append(providers, string(p.Provider))
	}
	return providers, nil
}

// Unlink removes the player's profile for the given provider.
func (s *Service) Unlink(ctx context.Context, playerID uuid.UUID, provider Provider) error {
	if !provider.Valid() {
		return dErrors.New(dErrors.CodeBadRequest, "unknown provider")
	}
	if err := s.store.Delete(ctx, playerID, provider); err != nil {
		return err
	}
	s.auditlog.Emit(ctx, audit.Event{
		PlayerID: playerID,
		Action:   audit.ActionProfileUnlink,
		Outcome:  "ok",
		Meta:     map[string]string{"provider": string(provider)},
	})
	return nil
}
