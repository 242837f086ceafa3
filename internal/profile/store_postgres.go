package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dErrors "craftgate/pkg/domain-errors"
)

const uniqueViolation = "23505"

// PostgresStore persists linked profiles in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE profiles (
//	    player_id    UUID NOT NULL REFERENCES players (id),
//	    provider     TEXT NOT NULL,
//	    external_id  TEXT NOT NULL,
//	    display_name TEXT NOT NULL,
//	    linked_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
//	    PRIMARY KEY (player_id, provider),
//	    UNIQUE (provider, external_id)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, profile Profile) error {
	query := `
		INSERT INTO profiles (player_id, provider, external_id, display_name, linked_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		profile.PlayerID, profile.Provider, profile.ExternalID, profile.DisplayName, profile.LinkedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return dErrors.New(dErrors.CodeConflict, "profile already linked")
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByPlayer(ctx context.Context, playerID uuid.UUID) ([]Profile, error) {
	query := `
		SELECT player_id, provider, external_id, display_name, linked_at
		FROM profiles WHERE player_id = $1 ORDER BY linked_at
	`
	rows, err := s.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var linked []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.PlayerID, &p.Provider, &p.ExternalID, &p.DisplayName, &p.LinkedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		linked = append(linked, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return linked, nil
}

func (s *PostgresStore) Delete(ctx context.Context, playerID uuid.UUID, provider Provider) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM profiles WHERE player_id = $1 AND provider = $2`, playerID, provider)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "profile not linked")
	}
	return nil
}
