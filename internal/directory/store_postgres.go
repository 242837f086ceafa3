package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dErrors "craftgate/pkg/domain-errors"
)

// PostgresStore persists the directory in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE servers (
//	    id              BIGSERIAL PRIMARY KEY,
//	    owner_id        UUID NOT NULL REFERENCES players (id),
//	    name            TEXT NOT NULL,
//	    logo_link       TEXT NOT NULL DEFAULT '',
//	    cover_link      TEXT NOT NULL DEFAULT '',
//	    applying_policy TEXT NOT NULL DEFAULT '',
//	    java_address    TEXT NOT NULL DEFAULT '',
//	    java_port       INT  NOT NULL DEFAULT 0,
//	    bedrock_address TEXT NOT NULL DEFAULT '',
//	    bedrock_port    INT  NOT NULL DEFAULT 0
//	);
//
//	CREATE TABLE memberships (
//	    player_id   UUID   NOT NULL REFERENCES players (id),
//	    server_id   BIGINT NOT NULL REFERENCES servers (id),
//	    is_operator BOOLEAN NOT NULL DEFAULT FALSE,
//	    PRIMARY KEY (player_id, server_id)
//	);
//
//	CREATE TABLE server_forms (
//	    id        UUID PRIMARY KEY,
//	    server_id BIGINT NOT NULL REFERENCES servers (id),
//	    is_latest BOOLEAN NOT NULL,
//	    body      JSONB NOT NULL
//	);
//
//	CREATE TABLE applications (
//	    id         UUID PRIMARY KEY,
//	    player_id  UUID   NOT NULL REFERENCES players (id),
//	    server_id  BIGINT NOT NULL REFERENCES servers (id),
//	    form_id    UUID   NOT NULL REFERENCES server_forms (id),
//	    answers    JSONB NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE invitation_codes (
//	    code             TEXT PRIMARY KEY,
//	    server_id        BIGINT NOT NULL REFERENCES servers (id),
//	    issued_at        TIMESTAMPTZ NOT NULL,
//	    lifetime_seconds BIGINT NOT NULL,
//	    reusable_times   INT NOT NULL
//	);
//
//	CREATE TABLE access_applications (
//	    id           UUID PRIMARY KEY,
//	    submitted_by UUID NOT NULL REFERENCES players (id),
//	    state        TEXT NOT NULL,
//	    request      JSONB NOT NULL,
//	    created_at   TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

const uniqueViolation = "23505"

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const serverColumns = `id, owner_id, name, logo_link, cover_link, applying_policy,
	java_address, java_port, bedrock_address, bedrock_port`

func (s *PostgresStore) FindServer(ctx context.Context, id int64) (Server, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+serverColumns+` FROM servers WHERE id = $1`, id)
	server, err := scanServer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Server{}, dErrors.New(dErrors.CodeNotFound, "server not found")
		}
		return Server{}, fmt.Errorf("find server: %w", err)
	}
	return server, nil
}

func (s *PostgresStore) ListServersByPlayer(ctx context.Context, playerID uuid.UUID) ([]Server, error) {
	query := `
		SELECT ` + serverColumns + `
		FROM servers
		JOIN memberships ON memberships.server_id = servers.id
		WHERE memberships.player_id = $1
		ORDER BY servers.id
	`
	return s.listServers(ctx, query, playerID)
}

func (s *PostgresStore) ListServersNotJoined(ctx context.Context, playerID uuid.UUID) ([]Server, error) {
	query := `
		SELECT ` + serverColumns + `
		FROM servers
		WHERE id NOT IN (SELECT server_id FROM memberships WHERE player_id = $1)
		ORDER BY id
	`
	return s.listServers(ctx, query, playerID)
}

func (s *PostgresStore) IsMember(ctx context.Context, playerID uuid.UUID, serverID int64) (bool, error) {
	var member bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM memberships WHERE player_id = $1 AND server_id = $2)`,
		playerID, serverID).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("membership check: %w", err)
	}
	return member, nil
}

func (s *PostgresStore) IsOperator(ctx context.Context, playerID uuid.UUID, serverID int64) (bool, error) {
	var operator bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM memberships
			WHERE player_id = $1 AND server_id = $2 AND is_operator
		)`,
		playerID, serverID).Scan(&operator)
	if err != nil {
		return false, fmt.Errorf("operator check: %w", err)
	}
	return operator, nil
}

func (s *PostgresStore) OperatedServerIDs(ctx context.Context, playerID uuid.UUID) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT server_id FROM memberships WHERE player_id = $1 AND is_operator ORDER BY server_id`,
		playerID)
	if err != nil {
		return nil, fmt.Errorf("operated servers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan server id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("operated servers: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) CreateMembership(ctx context.Context, m Membership) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memberships (player_id, server_id, is_operator) VALUES ($1, $2, $3)`,
		m.PlayerID, m.ServerID, m.IsOperator)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return dErrors.New(dErrors.CodeConflict, "already a member")
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteMembership(ctx context.Context, playerID uuid.UUID, serverID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memberships WHERE player_id = $1 AND server_id = $2`,
		playerID, serverID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "membership not found")
	}
	return nil
}

func (s *PostgresStore) LatestForm(ctx context.Context, serverID int64) (Form, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, server_id, is_latest, body FROM server_forms WHERE server_id = $1 AND is_latest`,
		serverID)
	return scanForm(row)
}

func (s *PostgresStore) FormByID(ctx context.Context, formID uuid.UUID) (Form, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, server_id, is_latest, body FROM server_forms WHERE id = $1`, formID)
	return scanForm(row)
}

func scanForm(row rowScanner) (Form, error) {
	var (
		form Form
		body []byte
	)
	if err := row.Scan(&form.ID, &form.ServerID, &form.IsLatest, &body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Form{}, dErrors.New(dErrors.CodeNotFound, "form not found")
		}
		return Form{}, fmt.Errorf("scan form: %w", err)
	}
	if err := json.Unmarshal(body, &form.Body); err != nil {
		return Form{}, fmt.Errorf("decode form body: %w", err)
	}
	return form, nil
}

func (s *PostgresStore) CreateApplication(ctx context.Context, app Application) error {
	answers, err := json.Marshal(app.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applications (id, player_id, server_id, form_id, answers, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		app.ID, app.PlayerID, app.ServerID, app.FormID, answers, app.CreatedAt)
	if err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListApplicationsByServer(ctx context.Context, serverID int64, offset, limit int) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player_id, server_id, form_id, answers, created_at
		 FROM applications
		 WHERE server_id = $1
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		serverID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var (
			app     Application
			answers []byte
		)
		if err := rows.Scan(&app.ID, &app.PlayerID, &app.ServerID, &app.FormID, &answers, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		if err := json.Unmarshal(answers, &app.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

func (s *PostgresStore) FindInvitation(ctx context.Context, code string) (Invitation, error) {
	var (
		inv     Invitation
		seconds int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT code, server_id, issued_at, lifetime_seconds, reusable_times
		 FROM invitation_codes WHERE code = $1`, code).
		Scan(&inv.Code, &inv.ServerID, &inv.IssuedAt, &seconds, &inv.ReusableTimes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Invitation{}, dErrors.New(dErrors.CodeNotFound, "invitation not found")
		}
		return Invitation{}, fmt.Errorf("find invitation: %w", err)
	}
	inv.Lifetime = time.Duration(seconds) * time.Second
	return inv, nil
}

func (s *PostgresStore) UpdateInvitationUses(ctx context.Context, code string, remaining int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE invitation_codes SET reusable_times = $2 WHERE code = $1`, code, remaining)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "invitation not found")
	}
	return nil
}

func (s *PostgresStore) DeleteInvitation(ctx context.Context, code string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM invitation_codes WHERE code = $1`, code); err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAccessApplication(ctx context.Context, app AccessApplication) error {
	request, err := json.Marshal(app.Request)
	if err != nil {
		return fmt.Errorf("encode access request: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO access_applications (id, submitted_by, state, request, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		app.ID, app.SubmittedBy, app.State, request, app.CreatedAt)
	if err != nil {
		return fmt.Errorf("create access application: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAccessApplicationsBySubmitter(ctx context.Context, playerID uuid.UUID, states []AccessState) ([]AccessApplication, error) {
	query := `
		SELECT id, submitted_by, state, request, created_at
		FROM access_applications
		WHERE submitted_by = $1
	`
	args := []any{playerID}
	if len(states) > 0 {
		stateValues := make([]string, len(states))
		for i, state := range states {
			stateValues[i] = string(state)
		}
		query += ` AND state = ANY($2)`
		args = append(args, pq.Array(stateValues))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list access applications: %w", err)
	}
	defer rows.Close()

	var apps []AccessApplication
	for rows.Next() {
		var (
			app     AccessApplication
			request []byte
		)
		if err := rows.Scan(&app.ID, &app.SubmittedBy, &app.State, &request, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan access application: %w", err)
		}
		if err := json.Unmarshal(request, &app.Request); err != nil {
			return nil, fmt.Errorf("decode access request: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list access applications: %w", err)
	}
	return apps, nil
}

func (s *PostgresStore) listServers(ctx context.Context, query string, playerID uuid.UUID) ([]Server, error) {
	rows, err := s.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	defer rows.Close()

	var servers []Server
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan server: %w", err)
		}
		servers = append(servers, server)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	return servers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanServer(row rowScanner) (Server, error) {
	var s Server
	err := row.Scan(&s.ID, &s.OwnerID, &s.Name, &s.LogoLink, &s.CoverLink, &s.ApplyingPolicy,
		&s.JavaRemote.Address, &s.JavaRemote.Port, &s.BedrockRemote.Address, &s.BedrockRemote.Port)
	return s, err
}
