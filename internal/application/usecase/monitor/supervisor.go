package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

type SupervisorDeps struct {
	Catalog     *domain.Catalog
	Feed        port.PriceFeed
	Transport   port.Transport
	Retry       RetryPolicy
	StopGrace   time.Duration
	EventBuffer int
}

// Supervisor owns one StreamConnection per selected symbol.
// The map lock only guards membership; each connection writes its own snapshot slot.
type Supervisor struct {
	deps   SupervisorDeps
	events chan Event

	reconcileMu sync.Mutex

	mu     sync.RWMutex
	order  []string
	conns  map[string]*StreamConnection
	closed bool
}

func NewSupervisor(deps SupervisorDeps) *Supervisor {
	if deps.EventBuffer <= 0 {
		deps.EventBuffer = 1024
	}
	if deps.Catalog == nil {
		deps.Catalog = domain.DefaultCatalog()
	}
	return &Supervisor{
		deps:   deps,
		events: make(chan Event, deps.EventBuffer),
		conns:  make(map[string]*StreamConnection),
	}
}

// Events is drained by the control surface; connections never touch the display directly.
func (s *Supervisor) Events() <-chan Event {
	return s.events
}

// Reconcile stops streams for symbols leaving the selection and starts streams
// for symbols joining it. Symbols in both are not touched.
func (s *Supervisor) Reconcile(next []string) (stopped, started []string) {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	want := make([]string, 0, len(next))
	wantSet := make(map[string]struct{}, len(next))
	for _, code := range next {
		code = domain.NormalizeCode(code)
		if _, dup := wantSet[code]; dup {
			continue
		}
		if !s.deps.Catalog.Contains(code) {
			log.Warn().Str("symbol", code).Msg("reconcile: unknown symbol ignored")
			continue
		}
		wantSet[code] = struct{}{}
		want = append(want, code)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil
	}
	var toStop []*StreamConnection
	for _, code := range s.order {
		if _, keep := wantSet[code]; keep {
			continue
		}
		toStop = append(toStop, s.conns[code])
		delete(s.conns, code)
		stopped = append(stopped, code)
	}
	var toStart []*StreamConnection
	for _, code := range want {
		if _, exists := s.conns[code]; exists {
			continue
		}
		coin, _ := s.deps.Catalog.Lookup(code)
		conn := NewStreamConnection(coin, StreamConfig{
			Feed:      s.deps.Feed,
			Transport: s.deps.Transport,
			Retry:     s.deps.Retry,
			StopGrace: s.deps.StopGrace,
			Events:    s.events,
		})
		s.conns[code] = conn
		toStart = append(toStart, conn)
		started = append(started, code)
	}
	s.order = want
	s.mu.Unlock()

	stopAll(toStop)
	for _, conn := range toStart {
		conn.Start()
	}

	if len(stopped) > 0 || len(started) > 0 {
		log.Info().Strs("stopped", stopped).Strs("started", started).Strs("selection", want).Msg("streams reconciled")
	}
	return stopped, started
}

// ForceReconnectAll restarts every selected stream with a fresh attempt counter.
func (s *Supervisor) ForceReconnectAll() {
	s.reconcileMu.Lock()
	defer s.reconcileMu.Unlock()

	conns := s.connections()
	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(c *StreamConnection) {
			defer wg.Done()
			c.Restart()
		}(conn)
	}
	wg.Wait()
	log.Info().Int("streams", len(conns)).Msg("manual reconnect")
}

// Snapshot returns the published state of a selected symbol. For a symbol
// outside the selection it reports Idle and false.
func (s *Supervisor) Snapshot(symbol string) (Snapshot, bool) {
	code := domain.NormalizeCode(symbol)
	s.mu.RLock()
	conn, ok := s.conns[code]
	s.mu.RUnlock()
	if !ok {
		coin, _ := s.deps.Catalog.Lookup(code)
		return Snapshot{Coin: coin, State: domain.StateIdle}, false
	}
	return conn.Snapshot(), true
}

// Snapshots returns every selected symbol in selection order.
func (s *Supervisor) Snapshots() []Snapshot {
	conns := s.connections()
	out := make([]Snapshot, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.Snapshot())
	}
	return out
}

func (s *Supervisor) Selection() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Shutdown stops every stream. Streams still running when ctx ends are abandoned.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*StreamConnection, 0, len(s.order))
	for _, code := range s.order {
		conns = append(conns, s.conns[code])
	}
	s.conns = make(map[string]*StreamConnection)
	s.order = nil
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		stopAll(conns)
	}()

	select {
	case <-done:
		log.Info().Int("streams", len(conns)).Msg("supervisor stopped")
		return nil
	case <-ctx.Done():
		log.Warn().Int("streams", len(conns)).Msg("supervisor shutdown timed out, abandoning streams")
		return ctx.Err()
	}
}

func (s *Supervisor) connections() []*StreamConnection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*StreamConnection, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.conns[code])
	}
	return out
}

func stopAll(conns []*StreamConnection) {
	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(c *StreamConnection) {
			defer wg.Done()
			c.Stop()
		}(conn)
	}
	wg.Wait()
}
