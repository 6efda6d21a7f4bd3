package binance

import (
	"cryptowidget/internal/application/port"
	"cryptowidget/internal/infrastructure/pricefeed"
)

// init() registers the Binance ticker feed factory
func init() {
	pricefeed.Register(ExchangeName, func(wsURL string) port.PriceFeed {
		return NewTickerFeed(wsURL)
	})
}
