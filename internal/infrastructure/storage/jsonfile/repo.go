package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

// Repo stores settings as a single JSON document with two-space indentation.
type Repo struct {
	path string
}

func New(path string) *Repo {
	return &Repo{path: path}
}

func (r *Repo) Path() string { return r.path }

func (r *Repo) Load(ctx context.Context) (domain.Settings, error) {
	var s domain.Settings
	b, err := os.ReadFile(r.path)
	if err != nil {
		return s, &domain.PersistenceError{Op: "load", Path: r.path, Err: err}
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return s, &domain.PersistenceError{Op: "load", Path: r.path, Err: fmt.Errorf("empty file: %w", os.ErrNotExist)}
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, &domain.PersistenceError{Op: "decode", Path: r.path, Err: err}
	}
	return s, nil
}

// Save writes through a temp file and rename so a crash never leaves a
// truncated document behind.
func (r *Repo) Save(ctx context.Context, s domain.Settings) error {
	if s.Version == "" {
		s.Version = domain.SettingsVersion
	}
	if s.SelectedCurrencies == nil {
		s.SelectedCurrencies = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return &domain.PersistenceError{Op: "encode", Path: r.path, Err: err}
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &domain.PersistenceError{Op: "save", Path: r.path, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return &domain.PersistenceError{Op: "save", Path: r.path, Err: err}
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(buf.Bytes())
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmpName)
		return &domain.PersistenceError{Op: "save", Path: r.path, Err: err}
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return &domain.PersistenceError{Op: "save", Path: r.path, Err: err}
	}
	return nil
}

func (r *Repo) Close() error { return nil }

var _ port.SettingsRepository = (*Repo)(nil)
