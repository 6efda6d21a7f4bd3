package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

const settingsKey = "settings"

// Repo keeps the settings document and the latest tick per symbol in one
// SQLite file.
type Repo struct {
	db   *sql.DB
	path string
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "open", Path: path, Err: err}
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db, path: path}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, &domain.PersistenceError{Op: "migrate", Path: path, Err: err}
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) DB() *sql.DB { return r.db }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS latest_ticks (
  symbol TEXT PRIMARY KEY,
  last_price TEXT NOT NULL,
  price_change TEXT NOT NULL,
  change_percent TEXT NOT NULL,
  ts_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_latest_ticks_ts ON latest_ticks(ts_ms);
`)
	return err
}

func (r *Repo) Load(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, settingsKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return s, &domain.PersistenceError{Op: "load", Path: r.path, Err: fmt.Errorf("no settings row: %w", os.ErrNotExist)}
	}
	if err != nil {
		return s, &domain.PersistenceError{Op: "load", Path: r.path, Err: err}
	}
	if err := json.Unmarshal([]byte(payload), &s); err != nil {
		return s, &domain.PersistenceError{Op: "decode", Path: r.path, Err: err}
	}
	return s, nil
}

func (r *Repo) Save(ctx context.Context, s domain.Settings) error {
	if s.Version == "" {
		s.Version = domain.SettingsVersion
	}
	b, err := json.Marshal(s)
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Path: r.path, Err: err}
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings(key, value, updated_at)
		VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
		value=excluded.value, updated_at=excluded.updated_at
	`, settingsKey, string(b), time.Now().UnixMilli())
	if err != nil {
		return &domain.PersistenceError{Op: "save", Path: r.path, Err: err}
	}
	return nil
}

// PublishTick upserts the newest tick of a symbol. Decimals are stored as text
// to keep the exchange's precision.
func (r *Repo) PublishTick(ctx context.Context, t domain.Tick) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO latest_ticks(symbol, last_price, price_change, change_percent, ts_ms)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
		last_price=excluded.last_price, price_change=excluded.price_change,
		change_percent=excluded.change_percent, ts_ms=excluded.ts_ms
	`, t.Symbol, t.LastPrice.String(), t.PriceChange.String(), t.ChangePercent.String(), t.ReceivedAt.UnixMilli())
	return err
}

// LatestTick reads back what PublishTick stored.
func (r *Repo) LatestTick(ctx context.Context, symbol string) (domain.Tick, error) {
	var t domain.Tick
	var last, change, pct string
	var ts int64
	err := r.db.QueryRowContext(ctx,
		`SELECT symbol, last_price, price_change, change_percent, ts_ms FROM latest_ticks WHERE symbol=?`, symbol).
		Scan(&t.Symbol, &last, &change, &pct, &ts)
	if err != nil {
		return t, err
	}
	if t.LastPrice, err = decimal.NewFromString(last); err != nil {
		return t, err
	}
	if t.PriceChange, err = decimal.NewFromString(change); err != nil {
		return t, err
	}
	if t.ChangePercent, err = decimal.NewFromString(pct); err != nil {
		return t, err
	}
	t.ReceivedAt = time.UnixMilli(ts)
	return t, nil
}

var (
	_ port.SettingsRepository = (*Repo)(nil)
	_ port.TickPublisher      = (*Repo)(nil)
)
