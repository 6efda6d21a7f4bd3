package monitor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
	"cryptowidget/internal/infrastructure/exchange/binance"
)

const testWsURL = "wss://test"

var testFeed = binance.NewTickerFeed(testWsURL)

func testURL(code string) string {
	coin, _ := domain.DefaultCatalog().Lookup(code)
	return testFeed.Endpoint(coin.FeedID)
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, InitialDelay: 5 * time.Millisecond, Multiplier: 1}
}

func tickPayload(price, pct string) []byte {
	return []byte(fmt.Sprintf(`{"e":"24hrTicker","s":"X","p":"12.5","c":"%s","P":"%s","C":1700000000000}`, price, pct))
}

type fakeConn struct {
	msgs   chan []byte
	closed chan struct{}
	once   sync.Once

	mu   sync.Mutex
	sent [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) Receive() ([]byte, error) {
	select {
	case m := <-c.msgs:
		return m, nil
	case <-c.closed:
		return nil, domain.ErrStreamClosed
	}
}

func (c *fakeConn) Send(msg []byte) error {
	if c.isClosed() {
		return domain.ErrStreamClosed
	}
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) sentMessages() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// fakeTransport hands out in-memory connections and counts dials per URL.
type fakeTransport struct {
	mu      sync.Mutex
	dials   map[string]int
	conns   map[string]*fakeConn
	failAll bool
	fail    map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		dials: make(map[string]int),
		conns: make(map[string]*fakeConn),
		fail:  make(map[string]bool),
	}
}

func (t *fakeTransport) Dial(ctx context.Context, url string) (port.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials[url]++
	if t.failAll || t.fail[url] {
		return nil, &domain.ConnectionError{URL: url, Err: errors.New("connection refused")}
	}
	c := newFakeConn()
	t.conns[url] = c
	context.AfterFunc(ctx, func() { _ = c.Close() })
	return c, nil
}

func (t *fakeTransport) setFailAll(v bool) {
	t.mu.Lock()
	t.failAll = v
	t.mu.Unlock()
}

func (t *fakeTransport) dialCount(url string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials[url]
}

func (t *fakeTransport) conn(url string) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[url]
}

// send delivers raw to the current connection of url.
func (t *fakeTransport) send(url string, raw []byte) bool {
	c := t.conn(url)
	if c == nil || c.isClosed() {
		return false
	}
	c.msgs <- raw
	return true
}

// drop simulates the server closing the current connection of url.
func (t *fakeTransport) drop(url string) {
	if c := t.conn(url); c != nil {
		_ = c.Close()
	}
}

type memRepo struct {
	mu      sync.Mutex
	saved   *domain.Settings
	loadErr error
	saveErr error
	saves   int
}

func (m *memRepo) Load(ctx context.Context) (domain.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.Settings{}, m.loadErr
	}
	if m.saved == nil {
		return domain.Settings{}, &domain.PersistenceError{Op: "load", Err: fs.ErrNotExist}
	}
	return *m.saved, nil
}

func (m *memRepo) Save(ctx context.Context, s domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = &s
	return nil
}

func (m *memRepo) Close() error { return nil }

func (m *memRepo) savedSelection() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return nil
	}
	return m.saved.SelectedCurrencies
}

func (m *memRepo) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

type recordingSink struct {
	mu        sync.Mutex
	live      []string
	snapshots []string
	newlines  int
	// write order, "live" or "msg:<text>"
	ops []string
}

func (s *recordingSink) WriteLive(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = append(s.live, line)
	s.ops = append(s.ops, "live")
	return nil
}

func (s *recordingSink) WriteMessage(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, "msg:"+text)
	return nil
}

// opsAfter returns the writes that followed the first message equal to text.
func (s *recordingSink) opsAfter(text string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, op := range s.ops {
		if op == "msg:"+text {
			return append([]string(nil), s.ops[i+1:]...), true
		}
	}
	return nil, false
}

func (s *recordingSink) WriteSnapshot(ts time.Time, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, line)
	return nil
}

func (s *recordingSink) NewLine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newlines++
	return nil
}

func (s *recordingSink) lastLive() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.live) == 0 {
		return ""
	}
	return s.live[len(s.live)-1]
}

func (s *recordingSink) liveContains(sub string) bool {
	return strings.Contains(s.lastLive(), sub)
}

type recordingPublisher struct {
	mu    sync.Mutex
	ticks []domain.Tick
}

func (p *recordingPublisher) PublishTick(ctx context.Context, t domain.Tick) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ticks = append(p.ticks, t)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ticks)
}
