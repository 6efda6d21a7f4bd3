package monitor

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cryptowidget/internal/domain"
)

func snapFor(code string, state domain.ConnState, price, pct string) Snapshot {
	coin, _ := domain.DefaultCatalog().Lookup(code)
	s := Snapshot{Coin: coin, State: state}
	if price != "" {
		p := decimal.RequireFromString(pct)
		s.Tick = &domain.Tick{
			Symbol:        code,
			LastPrice:     decimal.RequireFromString(price),
			PriceChange:   p,
			ChangePercent: p,
		}
	}
	return s
}

func TestFormatterRenderPlain(t *testing.T) {
	f := NewFormatter(false)
	snaps := []Snapshot{
		snapFor("BTC", domain.StateStreaming, "67890.12", "1.5"),
		snapFor("ETH", domain.StateConnecting, "", ""),
		snapFor("SOL", domain.StateRetrying, "145.678", "-0.25"),
	}
	snaps[2].Attempt = 2

	got := f.Render(snaps, RenderSnapshot)
	want := "[CRYPTO] ₿ BTC $67,890.1 +1.50%  ||  Ξ ETH connecting  ||  ◎ SOL $145.68 -0.25% (retry 2)"
	assert.Equal(t, want, got)

	live := f.Render(snaps[:1], RenderLive)
	assert.True(t, strings.HasPrefix(live, "\r[CRYPTO] "))
}

func TestFormatterErrorCell(t *testing.T) {
	f := NewFormatter(false)
	failed := snapFor("BTC", domain.StateFailed, "67890.12", "1.5")
	failed.Errored = true
	assert.Equal(t, "₿ BTC Error", f.Cell(failed))
}

func TestFormatterColors(t *testing.T) {
	f := NewFormatter(true)

	up := f.Cell(snapFor("BTC", domain.StateStreaming, "100", "2"))
	assert.Contains(t, up, ansiGreen)

	down := f.Cell(snapFor("BTC", domain.StateStreaming, "100", "-2"))
	assert.Contains(t, down, ansiRed)

	flat := f.Cell(snapFor("BTC", domain.StateStreaming, "100", "0"))
	assert.Contains(t, flat, ansiYellow)

	live := f.Render([]Snapshot{snapFor("BTC", domain.StateStreaming, "100", "0")}, RenderLive)
	assert.True(t, strings.HasSuffix(live, ansiClearEOL))
}

func TestFormatterEmptySelection(t *testing.T) {
	assert.Equal(t, "[CRYPTO] ", NewFormatter(false).Render(nil, RenderSnapshot))
}
