package offense

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore keeps records in the user_offenses table. Update locks the
// user's row for the duration of one transaction.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects, applies pending migrations and returns the
// store. dsn must be in URL form so the migrator can reuse it.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if err := Migrate(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("offense: postgres open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("offense: postgres ping: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate applies the embedded schema migrations to the database at dsn.
func Migrate(dsn string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("offense: migrations source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("offense: migrate init: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("offense: migrate up: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (Record, error) {
	const query = `
		SELECT offense_count, timeout_until
		FROM user_offenses
		WHERE user_id = $1`

	rec := Record{UserID: userID}
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&rec.OffenseCount, &rec.TimeoutUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, nil
	}
	if err != nil {
		return Record{}, storageErr("get", userID, err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, userID string, fn func(*Record)) (Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, storageErr("update", userID, err)
	}
	defer tx.Rollback()

	const ensure = `
		INSERT INTO user_offenses (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, ensure, userID); err != nil {
		return Record{}, storageErr("update", userID, err)
	}

	const lock = `
		SELECT offense_count, timeout_until
		FROM user_offenses
		WHERE user_id = $1
		FOR UPDATE`
	rec := Record{UserID: userID}
	if err := tx.QueryRowContext(ctx, lock, userID).Scan(&rec.OffenseCount, &rec.TimeoutUntil); err != nil {
		return Record{}, storageErr("update", userID, err)
	}

	fn(&rec)
	rec.UserID = userID

	const write = `
		UPDATE user_offenses
		SET offense_count = $2, timeout_until = $3, updated_at = NOW()
		WHERE user_id = $1`
	if _, err := tx.ExecContext(ctx, write, userID, rec.OffenseCount, rec.TimeoutUntil); err != nil {
		return Record{}, storageErr("update", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return Record{}, storageErr("update", userID, err)
	}
	return rec, nil
}

func (s *PostgresStore) Put(ctx context.Context, rec Record) error {
	const query = `
		INSERT INTO user_offenses (user_id, offense_count, timeout_until)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET offense_count = EXCLUDED.offense_count,
		    timeout_until = EXCLUDED.timeout_until,
		    updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, rec.UserID, rec.OffenseCount, rec.TimeoutUntil); err != nil {
		return storageErr("put", rec.UserID, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
