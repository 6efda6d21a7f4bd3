package binance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptowidget/internal/domain"
)

func TestEndpoint(t *testing.T) {
	f := NewTickerFeed("wss://fstream.binance.com/")
	assert.Equal(t, "wss://fstream.binance.com/ws/btcusdt@ticker", f.Endpoint("BTCUSDT"))

	def := NewTickerFeed("  ")
	assert.Equal(t, DefaultWsURL+"/ws/ethusdt@ticker", def.Endpoint("ethusdt"))
}

func TestDecodeTicker(t *testing.T) {
	f := NewTickerFeed("")
	at := time.Unix(1700000000, 0)

	raw := []byte(`{"e":"24hrTicker","E":123456789,"s":"BTCUSDT","p":"1001.10","P":"1.50","c":"67890.12","C":1700000000000}`)
	tick, err := f.Decode("BTC", raw, at)
	require.NoError(t, err)

	assert.Equal(t, "BTC", tick.Symbol)
	assert.Equal(t, "67890.12", tick.LastPrice.String())
	assert.Equal(t, "1.5", tick.ChangePercent.String())
	assert.True(t, tick.PriceChange.Equal(tick.ChangePercent))
	assert.Equal(t, domain.DirectionUp, tick.Direction())
	assert.Equal(t, at, tick.ReceivedAt)
}

func TestDecodeTickerNumericFields(t *testing.T) {
	f := NewTickerFeed("")
	tick, err := f.Decode("ETH", []byte(`{"c":3456.789,"P":-0.25}`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "3456.789", tick.LastPrice.String())
	assert.Equal(t, domain.DirectionDown, tick.Direction())
}

func TestDecodeTickerErrors(t *testing.T) {
	f := NewTickerFeed("")
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `hello`},
		{"array", `[1,2,3]`},
		{"missing c", `{"P":"1.0"}`},
		{"missing P", `{"c":"1.0"}`},
		{"lowercase p only", `{"c":"1.0","p":"0.1"}`},
		{"null price", `{"c":null,"P":"1.0"}`},
		{"non numeric price", `{"c":"abc","P":"1.0"}`},
		{"non numeric change", `{"c":"1.0","P":"n/a"}`},
		{"negative price", `{"c":"-1","P":"1.0"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Decode("BTC", []byte(tt.raw), time.Now())
			require.Error(t, err)
			var derr *domain.DecodeError
			require.True(t, errors.As(err, &derr), "want DecodeError, got %T", err)
			assert.Equal(t, "BTC", derr.Symbol)
		})
	}
}
