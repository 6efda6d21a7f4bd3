package monitor

import (
	"sync/atomic"
	"time"

	"cryptowidget/internal/domain"
)

// Snapshot is the published view of one symbol.
// Tick is the last decoded tick and survives reconnects and terminal failure.
type Snapshot struct {
	Coin         domain.Coin
	State        domain.ConnState
	Attempt      int
	Tick         *domain.Tick
	Errored      bool
	DecodeErrors int
	LastError    string
	UpdatedAt    time.Time
}

func (s Snapshot) Streaming() bool {
	return s.State == domain.StateStreaming && s.Tick != nil
}

// PriceText is the formatted last price, "Error" after terminal failure, "--" before the first tick.
func (s Snapshot) PriceText() string {
	if s.State == domain.StateFailed || s.Errored {
		return "Error"
	}
	if s.Tick == nil {
		return "--"
	}
	return domain.FormatPrice(s.Tick.LastPrice)
}

func (s Snapshot) ChangeText() string {
	if s.Tick == nil {
		return "--"
	}
	return domain.FormatChange(s.Tick.ChangePercent)
}

func (s Snapshot) Direction() domain.Direction {
	if s.Tick == nil {
		return domain.DirectionSame
	}
	return s.Tick.Direction()
}

// slot holds one symbol's snapshot. Writers copy, modify and swap,
// so readers always see a complete value.
type slot struct {
	p atomic.Pointer[Snapshot]
}

func newSlot(coin domain.Coin) *slot {
	s := &slot{}
	s.p.Store(&Snapshot{Coin: coin, State: domain.StateIdle})
	return s
}

func (s *slot) load() Snapshot {
	return *s.p.Load()
}

func (s *slot) update(now time.Time, fn func(*Snapshot)) {
	next := *s.p.Load()
	fn(&next)
	next.UpdatedAt = now
	s.p.Store(&next)
}
