package binance

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptowidget/internal/domain"
)

// ExchangeName is the registry key of this feed.
const ExchangeName = "binance"

// DefaultWsURL is the USDT-margined futures stream host.
const DefaultWsURL = "wss://fstream.binance.com"

const streamSuffix = "@ticker"

type TickerFeed struct {
	wsURL string // e.g. wss://fstream.binance.com
}

func NewTickerFeed(wsURL string) *TickerFeed {
	wsURL = strings.TrimRight(strings.TrimSpace(wsURL), "/")
	if wsURL == "" {
		wsURL = DefaultWsURL
	}
	return &TickerFeed{wsURL: wsURL}
}

func (f *TickerFeed) Name() string { return ExchangeName }

// Endpoint returns the single-stream URL, e.g. wss://fstream.binance.com/ws/btcusdt@ticker.
func (f *TickerFeed) Endpoint(feedID string) string {
	return f.wsURL + "/ws/" + strings.ToLower(strings.TrimSpace(feedID)) + streamSuffix
}

// Decode reads the 24h ticker payload. Only "c" (last price) and "P" (change
// percent) are required. Keys are matched exactly because the payload also
// carries "C" and "p" with different meanings.
func (f *TickerFeed) Decode(symbol string, raw []byte, receivedAt time.Time) (domain.Tick, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: fmt.Errorf("malformed payload: %w", err)}
	}

	price, err := decimalField(fields, "c")
	if err != nil {
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: err}
	}
	if price.IsNegative() {
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: fmt.Errorf("field \"c\": negative price %s", price)}
	}
	pct, err := decimalField(fields, "P")
	if err != nil {
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: err}
	}

	return domain.Tick{
		Symbol:        symbol,
		LastPrice:     price,
		PriceChange:   pct,
		ChangePercent: pct,
		ReceivedAt:    receivedAt,
	}, nil
}

var errMissingField = errors.New("missing field")

func decimalField(fields map[string]json.RawMessage, key string) (decimal.Decimal, error) {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return decimal.Decimal{}, fmt.Errorf("%w %q", errMissingField, key)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// tolerate bare JSON numbers
		s = string(raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("field %q: not numeric: %q", key, s)
	}
	return d, nil
}
