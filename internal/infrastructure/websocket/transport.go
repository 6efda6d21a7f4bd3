package websocket

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

// Options WebSocket 连接参数
type Options struct {
	HandshakeTimeout time.Duration // 握手超时
	ReadTimeout      time.Duration // 读超时，收到消息或 pong 时续期
	PingInterval     time.Duration // 心跳间隔，0 表示不主动 ping
	Header           http.Header
}

// DefaultOptions 默认连接参数
var DefaultOptions = Options{
	HandshakeTimeout: 10 * time.Second,
	ReadTimeout:      60 * time.Second,
	PingInterval:     25 * time.Second,
}

// Transport dials gorilla WebSocket connections.
type Transport struct {
	opts   Options
	dialer *websocket.Dialer
}

func NewTransport(opts Options) *Transport {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = DefaultOptions.HandshakeTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultOptions.ReadTimeout
	}
	return &Transport{
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
	}
}

// Dial opens a stream. The returned connection is closed when ctx is done.
func (t *Transport) Dial(ctx context.Context, url string) (port.Conn, error) {
	dctx, cancel := context.WithTimeout(ctx, t.opts.HandshakeTimeout)
	ws, resp, err := t.dialer.DialContext(dctx, url, t.opts.Header)
	cancel()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, &domain.ConnectionError{URL: url, Err: err}
	}

	c := &Conn{
		ws:          ws,
		url:         url,
		readTimeout: t.opts.ReadTimeout,
		done:        make(chan struct{}),
	}
	_ = ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	})
	c.stopAfter = context.AfterFunc(ctx, func() { _ = c.Close() })

	if t.opts.PingInterval > 0 {
		go c.pingLoop(t.opts.PingInterval)
	}
	return c, nil
}

type Conn struct {
	ws          *websocket.Conn
	url         string
	readTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
	stopAfter func() bool
}

func (c *Conn) Receive() ([]byte, error) {
	_, b, err := c.ws.ReadMessage()
	if err != nil {
		select {
		case <-c.done:
			return nil, domain.ErrStreamClosed
		default:
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStreamClosed, err)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
	return b, nil
}

// Send writes one text frame.
func (c *Conn) Send(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStreamClosed, err)
	}
	return nil
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.stopAfter != nil {
			c.stopAfter()
		}
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

func (c *Conn) pingLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				log.Debug().Str("url", c.url).Err(err).Msg("ws ping failed")
				return
			}
		}
	}
}
