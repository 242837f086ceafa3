package directory

import (
	"context"

	"github.com/google/uuid"
)

// Store persists the server directory, its memberships, apply forms
// and applications.
type Store interface {
	FindServer(ctx context.Context, id int64) (Server, error)
	ListServersByPlayer(ctx context.Context, playerID uuid.UUID) ([]Server, error)
	ListServersNotJoined(ctx context.Context, playerID uuid.UUID) ([]Server, error)
	IsMember(ctx context.Context, playerID uuid.UUID, serverID int64) (bool, error)
	IsOperator(ctx context.Context, playerID uuid.UUID, serverID int64) (bool, error)
	OperatedServerIDs(ctx context.Context, playerID uuid.UUID) ([]int64, error)

	CreateMembership(ctx context.Context, m Membership) error
	DeleteMembership(ctx context.Context, playerID uuid.UUID, serverID int64) error

	LatestForm(ctx context.Context, serverID int64) (Form, error)
	FormByID(ctx context.Context, formID uuid.UUID) (Form, error)
	CreateApplication(ctx context.Context, app Application) error
	ListApplicationsByServer(ctx context.Context, serverID int64, offset, limit int) ([]Application, error)

	FindInvitation(ctx context.Context, code string) (Invitation, error)
	UpdateInvitationUses(ctx context.Context, code string, remaining int) error
	DeleteInvitation(ctx context.Context, code string) error

	CreateAccessApplication(ctx context.Context, app AccessApplication) error
	ListAccessApplicationsBySubmitter(ctx context.Context, playerID uuid.UUID, states []AccessState) ([]AccessApplication, error)
}
