package okx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptowidget/internal/domain"
)

// ExchangeName is the registry key of this feed.
const ExchangeName = "okx"

// DefaultWsURL is the public v5 endpoint; every symbol shares it.
const DefaultWsURL = "wss://ws.okx.com:8443/ws/v5/public"

const (
	channelTickers = "tickers"
	quote          = "USDT"
)

// TickerFeed reads the perpetual swap "tickers" channel.
type TickerFeed struct {
	wsURL string
}

func NewTickerFeed(wsURL string) *TickerFeed {
	wsURL = strings.TrimSpace(wsURL)
	if wsURL == "" {
		wsURL = DefaultWsURL
	}
	return &TickerFeed{wsURL: wsURL}
}

func (f *TickerFeed) Name() string { return ExchangeName }

// Endpoint is the same for every feed id; the stream is picked by SubscribeMessage.
func (f *TickerFeed) Endpoint(feedID string) string { return f.wsURL }

// InstID 将 catalog feed id 转换为 OKX 永续合约格式
// 例: btcusdt -> BTC-USDT-SWAP
func InstID(feedID string) string {
	s := strings.ToUpper(strings.TrimSpace(feedID))
	base := strings.TrimSuffix(s, quote)
	if base == "" || base == s {
		return s
	}
	return base + "-" + quote + "-SWAP"
}

type subReq struct {
	Op   string   `json:"op"`
	Args []subArg `json:"args"`
}

type subArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

func (f *TickerFeed) SubscribeMessage(feedID string) ([]byte, error) {
	return json.Marshal(subReq{
		Op:   "subscribe",
		Args: []subArg{{Channel: channelTickers, InstID: InstID(feedID)}},
	})
}

type tickerMsg struct {
	Event string          `json:"event"`
	Code  string          `json:"code"`
	Msg   string          `json:"msg"`
	Arg   subArg          `json:"arg"`
	Data  []tickerPayload `json:"data"`
}

type tickerPayload struct {
	InstID  string `json:"instId"`
	Last    string `json:"last"`
	Open24h string `json:"open24h"`
}

// Decode reads a tickers push. The 24h change is derived from last and
// open24h; like the binance feed, both change fields carry the percentage.
func (f *TickerFeed) Decode(symbol string, raw []byte, receivedAt time.Time) (domain.Tick, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("pong")) {
		return domain.Tick{}, domain.ErrNotTicker
	}

	var msg tickerMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: fmt.Errorf("malformed payload: %w", err)}
	}
	switch msg.Event {
	case "":
	case "error":
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: fmt.Errorf("okx error %s: %s", msg.Code, msg.Msg)}
	default:
		// subscribe ack and similar
		return domain.Tick{}, domain.ErrNotTicker
	}
	if len(msg.Data) == 0 {
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: fmt.Errorf("empty data")}
	}

	d := msg.Data[len(msg.Data)-1]
	last, err := decimal.NewFromString(strings.TrimSpace(d.Last))
	if err != nil {
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: fmt.Errorf("field \"last\": not numeric: %q", d.Last)}
	}
	if last.IsNegative() {
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: fmt.Errorf("field \"last\": negative price %s", last)}
	}
	open, err := decimal.NewFromString(strings.TrimSpace(d.Open24h))
	if err != nil {
		return domain.Tick{}, &domain.DecodeError{Symbol: symbol, Err: fmt.Errorf("field \"open24h\": not numeric: %q", d.Open24h)}
	}

	pct := decimal.Zero
	if open.IsPositive() {
		pct = last.Sub(open).Div(open).Mul(decimal.NewFromInt(100)).Round(4)
	}
	return domain.Tick{
		Symbol:        symbol,
		LastPrice:     last,
		PriceChange:   pct,
		ChangePercent: pct,
		ReceivedAt:    receivedAt,
	}, nil
}
