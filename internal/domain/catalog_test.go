package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	coin, ok := c.Lookup(" btc ")
	require.True(t, ok)
	assert.Equal(t, "BTC", coin.Code)
	assert.Equal(t, "btcusdt", coin.FeedID)

	assert.True(t, c.Contains(PrimaryCode))
	assert.False(t, c.Contains("LUNA"))
	assert.Equal(t, "BTC", c.Coins()[0].Code)
}

func TestNewCatalogSkipsDuplicatesAndBlanks(t *testing.T) {
	c := NewCatalog(
		Coin{Code: "btc", FeedID: "btcusdt"},
		Coin{Code: "BTC", FeedID: "other"},
		Coin{Code: "  "},
	)
	coins := c.Coins()
	require.Len(t, coins, 1)
	assert.Equal(t, "btcusdt", coins[0].FeedID)
}

func TestTickDirection(t *testing.T) {
	up := Tick{PriceChange: decimal.RequireFromString("1.5")}
	down := Tick{PriceChange: decimal.RequireFromString("-0.1")}
	flat := Tick{PriceChange: decimal.Zero}

	assert.Equal(t, DirectionUp, up.Direction())
	assert.Equal(t, DirectionDown, down.Direction())
	assert.Equal(t, DirectionSame, flat.Direction())
}
