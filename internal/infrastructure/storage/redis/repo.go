package redis

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

// Repo mirrors the latest tick per symbol into a hash and announces it on a
// pub/sub channel for other local consumers.
type Repo struct {
	rdb       *redis.Client
	prefix    string
	ttl       time.Duration
	keyLatest string // prefix + ":latest"
	channel   string
}

type LatestTick struct {
	Symbol        string `json:"symbol"`
	LastPrice     string `json:"last_price"`
	PriceChange   string `json:"price_change"`
	ChangePercent string `json:"change_percent"`
	Direction     string `json:"direction"`
	Ts            int64  `json:"ts"`
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, channel string) *Repo {
	if strings.TrimSpace(prefix) == "" {
		prefix = "cryptowidget"
	}
	if strings.TrimSpace(channel) == "" {
		channel = prefix + ":ticks"
	}
	return &Repo{
		rdb:       rdb,
		prefix:    prefix,
		ttl:       ttl,
		keyLatest: prefix + ":latest",
		channel:   channel,
	}
}

func (r *Repo) KeyLatest() string { return r.keyLatest }

func (r *Repo) Channel() string { return r.channel }

func (r *Repo) PublishTick(ctx context.Context, t domain.Tick) error {
	if !t.LastPrice.IsPositive() {
		return nil
	}
	lt := LatestTick{
		Symbol:        t.Symbol,
		LastPrice:     t.LastPrice.String(),
		PriceChange:   t.PriceChange.String(),
		ChangePercent: t.ChangePercent.String(),
		Direction:     t.Direction().String(),
		Ts:            t.ReceivedAt.UnixMilli(),
	}
	b, err := json.Marshal(lt)
	if err != nil {
		return err
	}

	// Hash: field = "BTC" -> json
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, t.Symbol, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	pipe.Publish(ctx, r.channel, string(b))
	_, err = pipe.Exec(ctx)
	return err
}

// Close leaves the client open; the container owns it.
func (r *Repo) Close() error { return nil }

var _ port.TickPublisher = (*Repo)(nil)
