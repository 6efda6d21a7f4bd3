package composite

import (
	"context"
	"errors"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

// Settings writes to every backend and reads from the first one that has a
// document. The first repo is the primary.
type Settings struct {
	repos []port.SettingsRepository
}

func NewSettings(repos ...port.SettingsRepository) *Settings {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.SettingsRepository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Settings{repos: out}
}

func (c *Settings) Load(ctx context.Context) (domain.Settings, error) {
	var errs []error
	for _, repo := range c.repos {
		s, err := repo.Load(ctx)
		if err == nil {
			return s, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return domain.Settings{}, &domain.PersistenceError{Op: "load", Err: errors.New("no settings backend")}
	}
	// report the primary's failure, so a missing primary still reads as not-exist
	return domain.Settings{}, errs[0]
}

func (c *Settings) Save(ctx context.Context, s domain.Settings) error {
	var firstErr error
	for _, repo := range c.repos {
		if err := repo.Save(ctx, s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Settings) Close() error {
	var errs []error
	for _, repo := range c.repos {
		errs = append(errs, repo.Close())
	}
	return errors.Join(errs...)
}

// Publisher fans a tick out to every publisher and returns the first error.
type Publisher struct {
	pubs []port.TickPublisher
}

func NewPublisher(pubs ...port.TickPublisher) *Publisher {
	out := make([]port.TickPublisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			out = append(out, p)
		}
	}
	return &Publisher{pubs: out}
}

func (c *Publisher) Len() int { return len(c.pubs) }

func (c *Publisher) PublishTick(ctx context.Context, t domain.Tick) error {
	var firstErr error
	for _, p := range c.pubs {
		if err := p.PublishTick(ctx, t); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (c *Publisher) Close() error {
	var errs []error
	for _, p := range c.pubs {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}

var (
	_ port.SettingsRepository = (*Settings)(nil)
	_ port.TickPublisher      = (*Publisher)(nil)
)
