package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dErrors "craftgate/pkg/domain-errors"
)

// uniqueViolation is the Postgres error code for unique constraint
// violations.
const uniqueViolation = "23505"

// PostgresStore persists players in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE players (
//	    id            UUID PRIMARY KEY,
//	    username      TEXT NOT NULL UNIQUE,
//	    chat_id       TEXT NOT NULL UNIQUE,
//	    password_hash TEXT NOT NULL,
//	    is_site_admin BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, player Player) error {
	query := `
		INSERT INTO players (id, username, chat_id, password_hash, is_site_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		player.ID, player.Username, player.ChatID, player.PasswordHash, player.IsSiteAdmin, player.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return dErrors.New(dErrors.CodeConflict, "username or chat id already exists")
		}
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (Player, error) {
	return s.findOne(ctx, `SELECT id, username, chat_id, password_hash, is_site_admin, created_at
		FROM players WHERE id = $1`, id)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (Player, error) {
	return s.findOne(ctx, `SELECT id, username, chat_id, password_hash, is_site_admin, created_at
		FROM players WHERE username = $1`, username)
}

func (s *PostgresStore) FindByChatID(ctx context.Context, chatID string) (Player, error) {
	return s.findOne(ctx, `SELECT id, username, chat_id, password_hash, is_site_admin, created_at
		FROM players WHERE chat_id = $1`, chatID)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (Player, error) {
	var player Player
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&player.ID, &player.Username, &player.ChatID, &player.PasswordHash, &player.IsSiteAdmin, &player.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, dErrors.New(dErrors.CodeNotFound, "player not found")
		}
		return Player{}, fmt.Errorf("find player: %w", err)
	}
	return player, nil
}
