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

// DefaultStopGrace is used when StreamConfig.StopGrace is unset.
const DefaultStopGrace = 2 * time.Second

var errSuperseded = errors.New("stream superseded")

type StreamConfig struct {
	Feed      port.PriceFeed
	Transport port.Transport
	Retry     RetryPolicy
	// StopGrace bounds how long Stop waits for the receive loop to exit.
	StopGrace time.Duration
	Events    chan<- Event
	Now       func() time.Time
}

// StreamConnection keeps one symbol subscribed to its ticker stream.
//
// Every Start and Stop bumps gen; a receive loop carries the gen it was started
// with and may only write state while it still matches, so a stopped loop can
// never overwrite its successor.
type StreamConnection struct {
	coin domain.Coin
	url  string
	cfg  StreamConfig
	slot *slot

	mu      sync.Mutex
	gen     uint64
	state   domain.ConnState
	attempt int
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewStreamConnection(coin domain.Coin, cfg StreamConfig) *StreamConnection {
	cfg.Retry = cfg.Retry.normalized()
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = DefaultStopGrace
	}
	return &StreamConnection{
		coin:  coin,
		url:   cfg.Feed.Endpoint(coin.FeedID),
		cfg:   cfg,
		slot:  newSlot(coin),
		state: domain.StateIdle,
	}
}

func (c *StreamConnection) Symbol() string { return c.coin.Code }

func (c *StreamConnection) URL() string { return c.url }

func (c *StreamConnection) State() (domain.ConnState, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.attempt
}

func (c *StreamConnection) Snapshot() Snapshot {
	return c.slot.load()
}

// Start opens the stream. It is a no-op while Connecting or Streaming and
// returns whether a new receive loop was launched. A pending retry wait is
// abandoned in favour of an immediate connect with a fresh attempt counter.
func (c *StreamConnection) Start() bool {
	c.mu.Lock()
	if c.state == domain.StateConnecting || c.state == domain.StateStreaming {
		c.mu.Unlock()
		return false
	}
	prev := c.cancel

	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	c.state, c.attempt = domain.StateConnecting, 0
	c.slot.update(c.cfg.Now(), func(s *Snapshot) {
		s.State = domain.StateConnecting
		s.Attempt = 0
		s.Errored = false
	})
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
	go c.run(ctx, gen, done)
	return true
}

// Stop forces Idle, cancels any retry wait and releases the transport.
// It waits at most StopGrace for the receive loop to exit.
func (c *StreamConnection) Stop() {
	c.mu.Lock()
	c.gen++
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.state, c.attempt = domain.StateIdle, 0
	c.slot.update(c.cfg.Now(), func(s *Snapshot) {
		s.State = domain.StateIdle
		s.Attempt = 0
	})
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if !waitDone(done, c.cfg.StopGrace) {
		log.Warn().Str("symbol", c.coin.Code).Dur("grace", c.cfg.StopGrace).Msg("stream did not stop in time, abandoning")
	}
}

// Restart drops the current stream, whatever its state, and connects again.
func (c *StreamConnection) Restart() {
	c.Stop()
	c.Start()
}

func (c *StreamConnection) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	c.emit(ctx, Event{Kind: EventState, State: domain.StateConnecting})
	for {
		log.Info().Str("symbol", c.coin.Code).Str("url", c.url).Msg("ws connecting")
		conn, err := c.cfg.Transport.Dial(ctx, c.url)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !c.retry(ctx, gen, err) {
				return
			}
			continue
		}

		if err := c.subscribe(conn); err != nil {
			_ = conn.Close()
			if ctx.Err() != nil || !c.retry(ctx, gen, err) {
				return
			}
			continue
		}
		if !c.connected(gen) {
			_ = conn.Close()
			return
		}
		log.Info().Str("symbol", c.coin.Code).Msg("ws connected")
		c.emit(ctx, Event{Kind: EventState, State: domain.StateStreaming})

		err = c.receive(ctx, gen, conn)
		_ = conn.Close()
		if ctx.Err() != nil || errors.Is(err, errSuperseded) {
			return
		}
		if !c.retry(ctx, gen, err) {
			return
		}
	}
}

func (c *StreamConnection) receive(ctx context.Context, gen uint64, conn port.Conn) error {
	for {
		raw, err := conn.Receive()
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		tick, err := c.cfg.Feed.Decode(c.coin.Code, raw, c.cfg.Now())
		if errors.Is(err, domain.ErrNotTicker) {
			continue
		}
		if err != nil {
			if !c.decodeFailed(gen, err) {
				return errSuperseded
			}
			log.Warn().Str("symbol", c.coin.Code).Err(err).Str("payload", truncate(raw, 120)).Msg("dropping malformed tick")
			c.emit(ctx, Event{Kind: EventDecodeError, State: domain.StateStreaming, Err: err})
			continue
		}

		if !c.publish(gen, tick) {
			return errSuperseded
		}
		c.emit(ctx, Event{Kind: EventTick, State: domain.StateStreaming, Tick: tick})
	}
}

func (c *StreamConnection) subscribe(conn port.Conn) error {
	sub, ok := c.cfg.Feed.(port.Subscriber)
	if !ok {
		return nil
	}
	msg, err := sub.SubscribeMessage(c.coin.FeedID)
	if err != nil {
		return err
	}
	return conn.Send(msg)
}

func (c *StreamConnection) connected(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.state, c.attempt = domain.StateStreaming, 0
	c.slot.update(c.cfg.Now(), func(s *Snapshot) {
		s.State = domain.StateStreaming
		s.Attempt = 0
		s.Errored = false
		s.LastError = ""
	})
	return true
}

func (c *StreamConnection) publish(gen uint64, tick domain.Tick) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	t := tick
	c.slot.update(c.cfg.Now(), func(s *Snapshot) {
		s.Tick = &t
	})
	return true
}

func (c *StreamConnection) decodeFailed(gen uint64, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.slot.update(c.cfg.Now(), func(s *Snapshot) {
		s.DecodeErrors++
		s.LastError = err.Error()
	})
	return true
}

// retry counts a transport failure. It returns true once the retry delay has
// elapsed and the loop should dial again, false when the loop must exit.
func (c *StreamConnection) retry(ctx context.Context, gen uint64, cause error) bool {
	if cause == nil {
		cause = domain.ErrStreamClosed
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	c.attempt++
	attempt := c.attempt
	if attempt >= c.cfg.Retry.MaxAttempts {
		c.state = domain.StateFailed
		c.slot.update(c.cfg.Now(), func(s *Snapshot) {
			s.State = domain.StateFailed
			s.Attempt = attempt
			s.Errored = true
			s.LastError = cause.Error()
		})
		c.mu.Unlock()

		log.Error().Str("symbol", c.coin.Code).Int("attempt", attempt).Err(cause).Msg("ws reconnect attempts exhausted")
		c.emit(ctx, Event{Kind: EventFailed, State: domain.StateFailed, Attempt: attempt, Err: cause})
		return false
	}
	c.state = domain.StateRetrying
	c.slot.update(c.cfg.Now(), func(s *Snapshot) {
		s.State = domain.StateRetrying
		s.Attempt = attempt
		s.LastError = cause.Error()
	})
	c.mu.Unlock()

	delay := c.cfg.Retry.Delay(attempt)
	log.Warn().
		Str("symbol", c.coin.Code).
		Err(cause).
		Int("attempt", attempt).
		Int64("delay_ms", delay.Milliseconds()).
		Msg("ws disconnected, retrying")
	c.emit(ctx, Event{Kind: EventState, State: domain.StateRetrying, Attempt: attempt, Err: cause})

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return false
	}
	c.state = domain.StateConnecting
	c.slot.update(c.cfg.Now(), func(s *Snapshot) {
		s.State = domain.StateConnecting
	})
	c.mu.Unlock()
	c.emit(ctx, Event{Kind: EventState, State: domain.StateConnecting, Attempt: attempt})
	return true
}

func (c *StreamConnection) emit(ctx context.Context, ev Event) {
	if c.cfg.Events == nil || ctx.Err() != nil {
		return
	}
	ev.Symbol = c.coin.Code
	select {
	case c.cfg.Events <- ev:
	case <-ctx.Done():
	}
}

func waitDone(done <-chan struct{}, grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
