// Package directory exposes the server directory: which game servers
// exist, which ones a player has joined, and where to connect. It also
// runs the join paths, via invitation codes and apply forms, and the
// access applications that propose new servers for listing.
package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "craftgate/pkg/domain-errors"
)

// applicationsPageSize is the page size of the operator review view.
const applicationsPageSize = 50

// LinkedProvidersLister reports which account providers a player has
// linked; the join path uses it to check edition eligibility.
type LinkedProvidersLister interface {
	LinkedProviders(ctx context.Context, playerID uuid.UUID) ([]string, error)
}

// Service answers directory queries and runs the membership flows.
type Service struct {
	store    Store
	profiles LinkedProvidersLister
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, profiles LinkedProvidersLister, logger *slog.Logger) *Service {
	return &Service{store: store, profiles: profiles, logger: logger, now: time.Now}
}

// ListJoined returns the player's servers. Remotes are included only
// when withRemotes is set; the listing view does not need them.
func (s *Service) ListJoined(ctx context.Context, playerID uuid.UUID, withRemotes bool) ([]Server, error) {
	servers, err := s.store.ListServersByPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if !withRemotes {
		for i := range servers {
			servers[i] = servers[i].PublicInfo()
		}
	}
	return servers, nil
}

// Discover returns servers the player has not joined, without remotes.
func (s *Service) Discover(ctx context.Context, playerID uuid.UUID) ([]Server, error) {
	servers, err := s.store.ListServersNotJoined(ctx, playerID)
	if err != nil {
		return nil, err
	}
	for i := range servers {
		servers[i] = servers[i].PublicInfo()
	}
	return servers, nil
}

// Info returns one server. Members see the remotes, everyone else gets
// the public view.
func (s *Service) Info(ctx context.Context, playerID uuid.UUID, serverID int64) (Server, error) {
	server, err := s.store.FindServer(ctx, serverID)
	if err != nil {
		return Server{}, err
	}
	member, err := s.store.IsMember(ctx, playerID, serverID)
	if err != nil {
		return Server{}, err
	}
	if !member {
		server = server.PublicInfo()
	}
	return server, nil
}

// OperatedServerIDs reports the servers the player operates; the auth
// service embeds them in session tokens.
func (s *Service) OperatedServerIDs(ctx context.Context, playerID uuid.UUID) ([]int64, error) {
	return s.store.OperatedServerIDs(ctx, playerID)
}

// LatestForm returns the server's current apply form.
func (s *Service) LatestForm(ctx context.Context, serverID int64) (Form, error) {
	if _, err := s.store.FindServer(ctx, serverID); err != nil {
		return Form{}, err
	}
	return s.store.LatestForm(ctx, serverID)
}

// SubmitApplication records an apply-form submission. The referenced
// form must belong to the server and still be its latest revision, and
// the answers must satisfy every question's constraints.
func (s *Service) SubmitApplication(ctx context.Context, playerID uuid.UUID, serverID int64, formID uuid.UUID, answers []Answer) error {
	form, err := s.store.FormByID(ctx, formID)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "invalid form")
		}
		return err
	}
	if form.ServerID != serverID {
		return dErrors.New(dErrors.CodeBadRequest, "invalid form")
	}
	if !form.IsLatest {
		return dErrors.New(dErrors.CodeBadRequest, "form is outdated")
	}
	if !ValidateAnswers(form.Body.Questions, answers) {
		return dErrors.New(dErrors.CodeBadRequest, "invalid answers")
	}

	app := Application{
		ID:        uuid.New(),
		PlayerID:  playerID,
		ServerID:  serverID,
		FormID:    formID,
		Answers:   answers,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "application submitted",
		"player_id", playerID, "server_id", serverID, "form_id", formID)
	return nil
}

// JoinByInvitation redeems an invitation code. Most failure modes are
// ordinary outcomes reported through the JoinResult; the error return
// is reserved for storage trouble.
func (s *Service) JoinByInvitation(ctx context.Context, playerID uuid.UUID, code string) (JoinResult, error) {
	inv, err := s.store.FindInvitation(ctx, code)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeNotFound) {
			return JoinInvalidCode, nil
		}
		return "", err
	}
	if inv.Expired(s.now()) {
		// Reap the spent code so the table does not accumulate them.
		if err := s.store.DeleteInvitation(ctx, code); err != nil {
			return "", err
		}
		return JoinCodeExpired, nil
	}

	server, err := s.store.FindServer(ctx, inv.ServerID)
	if err != nil {
		return "", err
	}
	eligible, err := s.eligibleFor(ctx, playerID, server)
	if err != nil {
		return "", err
	}
	if !eligible {
		return JoinNotBound, nil
	}

	// Membership is checked before the code is consumed so a repeat
	// join does not burn a use.
	member, err := s.store.IsMember(ctx, playerID, inv.ServerID)
	if err != nil {
		return "", err
	}
	if member {
		return JoinAlreadyJoined, nil
	}

	if inv.ReusableTimes > 0 {
		if err := s.store.UpdateInvitationUses(ctx, code, inv.ReusableTimes-1); err != nil {
			return "", err
		}
	}
	if err := s.store.CreateMembership(ctx, Membership{PlayerID: playerID, ServerID: inv.ServerID}); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "player joined server",
		"player_id", playerID, "server_id", inv.ServerID)
	return JoinSuccess, nil
}

// eligibleFor reports whether the player has a linked account for at
// least one of the server's configured editions.
func (s *Service) eligibleFor(ctx context.Context, playerID uuid.UUID, server Server) (bool, error) {
	providers, err := s.profiles.LinkedProviders(ctx, playerID)
	if err != nil {
		return false, err
	}
	linked := make(map[string]bool, len(providers))
	for _, p := range providers {
		linked[p] = true
	}
	if server.JavaRemote.Address != "" && linked["java_microsoft"] {
		return true, nil
	}
	if server.BedrockRemote.Address != "" && linked["xbox"] {
		return true, nil
	}
	return false, nil
}

// Leave removes the player from a server. The owner cannot leave their
// own server.
func (s *Service) Leave(ctx context.Context, playerID uuid.UUID, serverID int64) error {
	server, err := s.store.FindServer(ctx, serverID)
	if err != nil {
		return err
	}
	member, err := s.store.IsMember(ctx, playerID, serverID)
	if err != nil {
		return err
	}
	if !member {
		return dErrors.New(dErrors.CodeNotFound, "not a member of this server")
	}
	if server.OwnerID == playerID {
		return dErrors.New(dErrors.CodeBadRequest, "the owner cannot leave the server")
	}
	if err := s.store.DeleteMembership(ctx, playerID, serverID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "player left server",
		"player_id", playerID, "server_id", serverID)
	return nil
}

// ReceivedApplications returns one page of a server's apply-form
// submissions, newest first, for its operators. Pages are numbered
// from one.
func (s *Service) ReceivedApplications(ctx context.Context, operatorID uuid.UUID, serverID int64, page int) ([]Application, error) {
	if page < 1 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "page must be positive")
	}
	operator, err := s.store.IsOperator(ctx, operatorID, serverID)
	if err != nil {
		return nil, err
	}
	if !operator {
		return nil, dErrors.New(dErrors.CodeForbidden, "not an operator of this server")
	}
	return s.store.ListApplicationsByServer(ctx, serverID, (page-1)*applicationsPageSize, applicationsPageSize)
}

// ApplicationForm returns a form revision for an operator reviewing
// submissions against it. Forms of other servers stay hidden.
func (s *Service) ApplicationForm(ctx context.Context, operatorID uuid.UUID, serverID int64, formID uuid.UUID) (Form, error) {
	operator, err := s.store.IsOperator(ctx, operatorID, serverID)
	if err != nil {
		return Form{}, err
	}
	if !operator {
		return Form{}, dErrors.New(dErrors.CodeForbidden, "not an operator of this server")
	}
	form, err := s.store.FormByID(ctx, formID)
	if err != nil {
		return Form{}, err
	}
	if form.ServerID != serverID {
		return Form{}, dErrors.New(dErrors.CodeNotFound, "form not found")
	}
	return form, nil
}

// SubmitAccessApplication records a request to list a new server. At
// least one edition remote is required, and a by-form policy must ship
// a valid apply form.
func (s *Service) SubmitAccessApplication(ctx context.Context, playerID uuid.UUID, req AccessRequest) (AccessApplication, error) {
	if req.Remote.Java == nil && req.Remote.Bedrock == nil {
		return AccessApplication{}, dErrors.New(dErrors.CodeBadRequest, "at least one remote is required")
	}
	switch req.Policy {
	case PolicyOpen:
		if req.Form != nil {
			return AccessApplication{}, dErrors.New(dErrors.CodeBadRequest, "an open server has no apply form")
		}
	case PolicyByForm:
		if req.Form == nil || !ValidateForm(*req.Form) {
			return AccessApplication{}, dErrors.New(dErrors.CodeBadRequest, "invalid apply form")
		}
	default:
		return AccessApplication{}, dErrors.New(dErrors.CodeBadRequest, "unknown applying policy")
	}

	app := AccessApplication{
		ID:          uuid.New(),
		SubmittedBy: playerID,
		State:       AccessReviewing,
		Request:     req,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateAccessApplication(ctx, app); err != nil {
		return AccessApplication{}, err
	}
	s.logger.InfoContext(ctx, "access application submitted",
		"player_id", playerID, "application_id", app.ID)
	return app, nil
}

// AccessApplications lists the player's own access applications,
// newest first, optionally narrowed to the still-reviewing ones or to
// the reviewed ones whose verdict is unread.
func (s *Service) AccessApplications(ctx context.Context, playerID uuid.UUID, filter AccessFilter) ([]AccessApplication, error) {
	var states []AccessState
	switch filter {
	case AccessFilterAll:
	case AccessFilterReviewing:
		states = []AccessState{AccessReviewing}
	case AccessFilterReviewedUnread:
		states = []AccessState{AccessAcceptedPending, AccessRejectedUnread}
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown filter")
	}
	return s.store.ListAccessApplicationsBySubmitter(ctx, playerID, states)
}
