package monitor

import (
	"context"
	"errors"
	"io/fs"
	"sync"

	"github.com/rs/zerolog/log"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

// SelectionStore validates, persists and restores the active symbols.
// The in-memory selection is authoritative for the session.
type SelectionStore struct {
	catalog *domain.Catalog
	repo    port.SettingsRepository

	mu      sync.RWMutex
	current []string
}

func NewSelectionStore(catalog *domain.Catalog, repo port.SettingsRepository) *SelectionStore {
	return &SelectionStore{
		catalog: catalog,
		repo:    repo,
		current: DefaultSelection(),
	}
}

func DefaultSelection() []string {
	return []string{domain.PrimaryCode}
}

// Load restores the persisted selection. Any failure falls back to the default
// selection with a warning; it never returns an error.
func (s *SelectionStore) Load(ctx context.Context) []string {
	sel := s.load(ctx)
	s.mu.Lock()
	s.current = sel
	s.mu.Unlock()
	return clone(sel)
}

func (s *SelectionStore) load(ctx context.Context) []string {
	settings, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info().Msg("no saved selection, using default")
		} else {
			log.Warn().Err(err).Msg("settings unreadable, using default selection")
		}
		return DefaultSelection()
	}

	sel, err := s.Validate(settings.SelectedCurrencies)
	if err != nil {
		log.Warn().Err(err).Strs("saved", settings.SelectedCurrencies).Msg("saved selection rejected, using default")
		return DefaultSelection()
	}
	log.Info().Strs("selection", sel).Str("version", settings.Version).Msg("selection restored")
	return sel
}

func (s *SelectionStore) Current() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

// Validate normalizes codes and checks the selection invariants:
// 1..3 entries, all in the catalog, no duplicates.
func (s *SelectionStore) Validate(codes []string) ([]string, error) {
	if len(codes) < domain.MinSelection || len(codes) > domain.MaxSelection {
		return nil, &domain.ValidationError{Reason: "select between 1 and 3 symbols", Codes: codes}
	}

	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	var unknown, dups []string
	for _, raw := range codes {
		code := domain.NormalizeCode(raw)
		if !s.catalog.Contains(code) {
			unknown = append(unknown, raw)
			continue
		}
		if _, ok := seen[code]; ok {
			dups = append(dups, code)
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	if len(unknown) > 0 {
		return nil, &domain.ValidationError{Reason: "unknown symbols", Codes: unknown}
	}
	if len(dups) > 0 {
		return nil, &domain.ValidationError{Reason: "duplicate symbols", Codes: dups}
	}
	return out, nil
}

// Apply validates and activates a new selection, then persists it.
// A *domain.ValidationError leaves the current selection untouched. A
// *domain.PersistenceError is returned together with the new selection, which
// stays active even though it was not saved.
func (s *SelectionStore) Apply(ctx context.Context, codes []string) ([]string, error) {
	sel, err := s.Validate(codes)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = sel
	s.mu.Unlock()

	if err := s.repo.Save(ctx, domain.NewSettings(sel)); err != nil {
		var perr *domain.PersistenceError
		if !errors.As(err, &perr) {
			perr = &domain.PersistenceError{Op: "save", Err: err}
		}
		log.Error().Err(perr).Strs("selection", sel).Msg("selection active but not saved")
		return clone(sel), perr
	}
	return clone(sel), nil
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
