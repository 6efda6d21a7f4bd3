package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

// Repo stores the settings document in a shared Postgres database, keyed by
// profile so several widgets can share one table.
type Repo struct {
	db      *sql.DB
	profile string
}

func New(dsn, profile string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "open", Err: err}
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if profile == "" {
		profile = "default"
	}
	r := &Repo{db: db, profile: profile}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, &domain.PersistenceError{Op: "migrate", Err: err}
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS widget_settings (
  profile TEXT PRIMARY KEY,
  payload JSONB NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`)
	return err
}

func (r *Repo) Load(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM widget_settings WHERE profile=$1`, r.profile).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return s, &domain.PersistenceError{Op: "load", Path: r.profile, Err: fmt.Errorf("no settings row: %w", os.ErrNotExist)}
	}
	if err != nil {
		return s, &domain.PersistenceError{Op: "load", Path: r.profile, Err: err}
	}
	if err := json.Unmarshal(payload, &s); err != nil {
		return s, &domain.PersistenceError{Op: "decode", Path: r.profile, Err: err}
	}
	return s, nil
}

func (r *Repo) Save(ctx context.Context, s domain.Settings) error {
	if s.Version == "" {
		s.Version = domain.SettingsVersion
	}
	b, err := json.Marshal(s)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Path: r.profile, Err: err}
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO widget_settings(profile, payload, updated_at)
		VALUES($1, $2, now())
		ON CONFLICT(profile) DO UPDATE SET
		payload=excluded.payload, updated_at=excluded.updated_at
	`, r.profile, string(b))
	if err != nil {
		return &domain.PersistenceError{Op: "save", Path: r.profile, Err: err}
	}
	return nil
}

var _ port.SettingsRepository = (*Repo)(nil)
