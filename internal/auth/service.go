// Package auth implements local site accounts: registration, login, and
// the JWT session tokens the rest of the API trusts.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"craftgate/internal/audit"
	"craftgate/internal/jwttoken"
	"craftgate/internal/platform/metrics"
	dErrors "craftgate/pkg/domain-errors"
)

// chatIDPattern matches numeric chat ids so players can log in with
// either their username or their chat id.
var chatIDPattern = regexp.MustCompile(`^[1-9][0-9]{4,9}$`)

// OperatedServersLister reports the server ids a player operates, for
// the authorized_servers token claim.
type OperatedServersLister interface {
	OperatedServerIDs(ctx context.Context, playerID uuid.UUID) ([]int64, error)
}

// Service adapts account operations into a callable façade, keeping
// transport concerns out of business logic.
type Service struct {
	store    Store
	tokens   *jwttoken.Service
	throttle *LoginThrottle
	servers  OperatedServersLister
	auditlog *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewService(
	store Store,
	tokens *jwttoken.Service,
	throttle *LoginThrottle,
	servers OperatedServersLister,
	auditlog *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		tokens:   tokens,
		throttle: throttle,
		servers:  servers,
		auditlog: auditlog,
		metrics:  m,
		logger:   logger,
	}
}

// UsernameExists reports whether a username is taken, for live
// validation during registration.
func (s *Service) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.store.FindByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	if dErrors.Is(err, dErrors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

// ChatIDExists reports whether a chat id is taken.
func (s *Service) ChatIDExists(ctx context.Context, chatID string) (bool, error) {
	_, err := s.store.FindByChatID(ctx, chatID)
	if err == nil {
		return true, nil
	}
	if dErrors.Is(err, dErrors.CodeNotFound) {
		return false, nil
	}
	return false, err
}

// Register creates a new player account.
func (s *Service) Register(ctx context.Context, username, chatID, password string) (Player, error) {
	if taken, err := s.UsernameExists(ctx, username); err != nil {
		return Player{}, err
	} else if taken {
		return Player{}, dErrors.New(dErrors.CodeConflict, "username already exists")
	}
	if taken, err := s.ChatIDExists(ctx, chatID); err != nil {
		return Player{}, err
	} else if taken {
		return Player{}, dErrors.New(dErrors.CodeConflict, "chat id already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return Player{}, dErrors.New(dErrors.CodeBadRequest, "password is too long")
		}
		return Player{}, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	player := Player{
		ID:           uuid.New(),
		Username:     username,
		ChatID:       chatID,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.store.Create(ctx, player); err != nil {
		return Player{}, err
	}

	s.metrics.PlayersRegistered.Inc()
	s.auditlog.Emit(ctx, audit.Event{
		PlayerID: player.ID,
		Action:   audit.ActionPlayerRegistered,
		Outcome:  "ok",
	})
	return player, nil
}

// Login verifies credentials and issues a session token. The login
// name may be a username or a numeric chat id.
func (s *Service) Login(ctx context.Context, login, password, remoteAddr, userAgent string) (string, Player, error) {
	allowed, err := s.throttle.Allow(ctx, login, remoteAddr)
	if err != nil {
		// Fail open but leave a trace; a degraded Redis must not lock
		// every player out.
		s.logger.WarnContext(ctx, "login throttle unavailable", "error", err)
	}
	if !allowed {
		s.metrics.ObserveLogin("throttled")
		return "", Player{}, dErrors.New(dErrors.CodeRateLimited, "too many login attempts")
	}

	player, err := s.findForLogin(ctx, login)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			s.metrics.ObserveLogin("failure")
			return "", Player{}, dErrors.New(dErrors.CodeUnauthorized, "username or password is incorrect")
		}
		return "", Player{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(player.PasswordHash), []byte(password)); err != nil {
		s.metrics.ObserveLogin("failure")
		return "", Player{}, dErrors.New(dErrors.CodeUnauthorized, "username or password is incorrect")
	}

	operated, err := s.servers.OperatedServerIDs(ctx, player.ID)
	if err != nil {
		return "", Player{}, dErrors.Wrap(err, dErrors.CodeInternal, "list operated servers")
	}

	token, err := s.tokens.GenerateAccessToken(player.ID, player.IsSiteAdmin, operated)
	if err != nil {
		return "", Player{}, dErrors.Wrap(err, dErrors.CodeInternal, "generate access token")
	}

	s.metrics.ObserveLogin("success")
	s.auditlog.Emit(ctx, audit.Event{
		PlayerID: player.ID,
		Action:   audit.ActionPlayerLogin,
		Outcome:  "ok",
		Meta: map[string]string{
			"device": DeviceName(userAgent),
		},
	})
	return token, player, nil
}

func (s *Service) findForLogin(ctx context.Context, login string) (Player, error) {
	if chatIDPattern.MatchString(login) {
		return s.store.FindByChatID(ctx, login)
	}
	return s.store.FindByUsername(ctx, login)
}
