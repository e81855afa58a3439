package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the preference tables. Execute it via
// [PostgresRepository.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS user_profiles (
    user_id    TEXT PRIMARY KEY,
    profile_id TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS guild_profiles (
    guild_id   TEXT PRIMARY KEY,
    profile_id TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// DB is the database interface used by [PostgresRepository]. Both
// *pgxpool.Pool and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository is a [Repository] backed by PostgreSQL.
type PostgresRepository struct {
	db DB
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a PostgresRepository using the given
// connection or pool. The caller is responsible for calling Migrate to
// ensure the schema exists before issuing queries.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("profile: migrate: %w", err)
	}
	return nil
}

// FindByUser implements [Repository].
func (r *PostgresRepository) FindByUser(ctx context.Context, userID string) (string, bool, error) {
	return r.find(ctx, `SELECT profile_id FROM user_profiles WHERE user_id = $1`, userID)
}

// FindByGuild implements [Repository].
func (r *PostgresRepository) FindByGuild(ctx context.Context, guildID string) (string, bool, error) {
	return r.find(ctx, `SELECT profile_id FROM guild_profiles WHERE guild_id = $1`, guildID)
}

func (r *PostgresRepository) find(ctx context.Context, query, key string) (string, bool, error) {
	var profileID string
	err := r.db.QueryRow(ctx, query, key).Scan(&profileID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("profile: find: %w", err)
	}
	return profileID, true, nil
}

// SaveUser implements [Repository].
func (r *PostgresRepository) SaveUser(ctx context.Context, userID, profileID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_profiles (user_id, profile_id) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET profile_id = $2, updated_at = now()`,
		userID, profileID)
	if err != nil {
		return fmt.Errorf("profile: save user: %w", err)
	}
	return nil
}

// SaveGuild implements [Repository].
func (r *PostgresRepository) SaveGuild(ctx context.Context, guildID, profileID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO guild_profiles (guild_id, profile_id) VALUES ($1, $2)
		ON CONFLICT (guild_id) DO UPDATE SET profile_id = $2, updated_at = now()`,
		guildID, profileID)
	if err != nil {
		return fmt.Errorf("profile: save guild: %w", err)
	}
	return nil
}

// DeleteUser implements [Repository].
func (r *PostgresRepository) DeleteUser(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("profile: delete user: %w", err)
	}
	return nil
}

// DeleteGuild implements [Repository].
func (r *PostgresRepository) DeleteGuild(ctx context.Context, guildID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM guild_profiles WHERE guild_id = $1`, guildID); err != nil {
		return fmt.Errorf("profile: delete guild: %w", err)
	}
	return nil
}
