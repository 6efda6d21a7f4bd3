package port

import (
	"context"
	"time"

	"cryptowidget/internal/domain"
)

// PriceFeed knows one exchange's endpoint layout and wire format.
type PriceFeed interface {
	Name() string
	// Endpoint builds the stream URL for a catalog feed id (e.g. "btcusdt").
	Endpoint(feedID string) string
	// Decode turns one raw message into a tick; failures are *domain.DecodeError.
	Decode(symbol string, raw []byte, receivedAt time.Time) (domain.Tick, error)
}

// Subscriber is implemented by feeds that share one endpoint and pick the
// stream with a subscribe frame sent right after connect.
type Subscriber interface {
	SubscribeMessage(feedID string) ([]byte, error)
}

// Transport opens duplex streams. A Conn lives until Close or until ctx is done.
type Transport interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

type Conn interface {
	// Receive blocks for the next message; it fails with domain.ErrStreamClosed once the stream ends.
	Receive() ([]byte, error)
	Send(msg []byte) error
	Close() error
}
