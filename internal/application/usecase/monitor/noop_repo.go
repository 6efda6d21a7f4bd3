package monitor

import (
	"context"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

type noopPublisher struct{}

func NewNoopPublisher() port.TickPublisher { return &noopPublisher{} }

func (n *noopPublisher) PublishTick(ctx context.Context, t domain.Tick) error {
	return nil
}

func (n *noopPublisher) Close() error { return nil }
