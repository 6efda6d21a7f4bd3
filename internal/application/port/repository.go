package port

import (
	"context"

	"cryptowidget/internal/domain"
)

// SettingsRepository persists the selected symbols.
// Load returns os.ErrNotExist (wrapped) when nothing was saved yet.
type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
	Save(ctx context.Context, s domain.Settings) error
	Close() error
}

// TickPublisher exports the latest tick per symbol to other consumers.
type TickPublisher interface {
	PublishTick(ctx context.Context, t domain.Tick) error
	Close() error
}
