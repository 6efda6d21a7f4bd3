package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

type ServiceDeps struct {
	Catalog       *domain.Catalog
	Supervisor    *Supervisor
	Selection     *SelectionStore
	Sink          port.Sink
	Publisher     port.TickPublisher
	PrintEveryMin int
	Color         bool
	// ShutdownGrace bounds Shutdown when Run exits on its own.
	ShutdownGrace time.Duration
}

// Service is the control surface. Run is the only goroutine that writes to the
// sink; connection goroutines reach it through the supervisor's event channel.
type Service struct {
	deps ServiceDeps
	fmt  *Formatter
	// command output waiting for Run to print it
	notes chan string

	ctlMu sync.Mutex
	once  sync.Once
}

func NewService(deps ServiceDeps) *Service {
	if deps.Catalog == nil {
		deps.Catalog = domain.DefaultCatalog()
	}
	if deps.Publisher == nil {
		deps.Publisher = NewNoopPublisher()
	}
	if deps.PrintEveryMin <= 0 {
		deps.PrintEveryMin = 5
	}
	if deps.ShutdownGrace <= 0 {
		deps.ShutdownGrace = 3 * time.Second
	}
	return &Service{
		deps:  deps,
		fmt:   NewFormatter(deps.Color),
		notes: make(chan string, 64),
	}
}

// Start restores the saved selection and opens its streams.
func (s *Service) Start(ctx context.Context) []string {
	s.ctlMu.Lock()
	defer s.ctlMu.Unlock()

	sel := s.deps.Selection.Load(ctx)
	s.deps.Supervisor.Reconcile(sel)
	return sel
}

func (s *Service) Run(ctx context.Context) error {
	if s.deps.Supervisor == nil || s.deps.Selection == nil || s.deps.Sink == nil {
		return errors.New("monitor: supervisor, selection and sink are required")
	}

	sel := s.Start(ctx)
	log.Info().Strs("selection", sel).Msg("monitor started")

	snapTicker := time.NewTicker(time.Duration(s.deps.PrintEveryMin) * time.Minute)
	defer snapTicker.Stop()

	_ = s.deps.Sink.WriteLive(s.Line(RenderLive))

	events := s.deps.Supervisor.Events()
	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.deps.ShutdownGrace)
			err := s.Shutdown(shutdownCtx)
			cancel()
			return err

		case now := <-snapTicker.C:
			_ = s.deps.Sink.WriteSnapshot(now, s.Line(RenderSnapshot))

		case msg := <-s.notes:
			_ = s.deps.Sink.WriteMessage(msg)
			_ = s.deps.Sink.WriteLive(s.Line(RenderLive))

		case ev := <-events:
			s.handle(ctx, ev)
			_ = s.deps.Sink.WriteLive(s.Line(RenderLive))
		}
	}
}

func (s *Service) handle(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventTick:
		pctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		if err := s.deps.Publisher.PublishTick(pctx, ev.Tick); err != nil {
			log.Debug().Err(err).Str("symbol", ev.Symbol).Msg("publish tick failed")
		}
		cancel()
	case EventFailed:
		_ = s.deps.Sink.NewLine()
		log.Error().Str("symbol", ev.Symbol).Err(ev.Err).Msg("stream failed, use reconnect to retry")
	}
}

// Notify queues text for Run to print between live redraws. It never blocks;
// messages beyond the queue size are dropped.
func (s *Service) Notify(text string) {
	select {
	case s.notes <- text:
	default:
		log.Warn().Int("len", len(text)).Msg("console message dropped")
	}
}

func (s *Service) Line(mode RenderMode) string {
	return s.fmt.Render(s.deps.Supervisor.Snapshots(), mode)
}

func (s *Service) Catalog() []domain.Coin {
	return s.deps.Catalog.Coins()
}

func (s *Service) Selection() []string {
	return s.deps.Selection.Current()
}

// RequestSelectionChange applies a new selection and reconciles streams.
// Validation errors leave everything untouched. A persistence error is
// returned after the streams were already switched.
func (s *Service) RequestSelectionChange(ctx context.Context, codes []string) error {
	s.ctlMu.Lock()
	defer s.ctlMu.Unlock()

	sel, err := s.deps.Selection.Apply(ctx, codes)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		log.Warn().Err(err).Msg("selection change rejected")
		return err
	}
	s.deps.Supervisor.Reconcile(sel)
	return err
}

func (s *Service) RequestManualReconnect() {
	s.ctlMu.Lock()
	defer s.ctlMu.Unlock()
	s.deps.Supervisor.ForceReconnectAll()
}

func (s *Service) Snapshot(symbol string) (Snapshot, bool) {
	return s.deps.Supervisor.Snapshot(symbol)
}

// Shutdown stops all streams. Safe to call more than once.
func (s *Service) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		err = s.deps.Supervisor.Shutdown(ctx)
		log.Info().Msg("monitor stopped")
	})
	return err
}
