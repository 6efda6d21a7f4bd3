package pricefeed

import (
	"sort"
	"strings"

	"cryptowidget/internal/application/port"

	"github.com/rs/zerolog/log"
)

// Factory builds a feed for the given WebSocket base URL.
type Factory func(wsURL string) port.PriceFeed

// registry maps exchange names to their respective price feed factories
var registry = make(map[string]Factory)

// Register 注册一个 price feed factory，由各交易所包的 init() 调用
func Register(exchangeName string, factory Factory) {
	name := normalize(exchangeName)
	if factory == nil || name == "" {
		log.Warn().Str("exchange", exchangeName).Msg("invalid price feed factory")
		return
	}
	if _, exists := registry[name]; exists {
		log.Warn().Str("exchange", name).Msg("price feed factory already registered, overwriting")
	}
	registry[name] = factory
}

// Get 获取已注册的 price feed factory
func Get(exchangeName string) (Factory, bool) {
	factory, ok := registry[normalize(exchangeName)]
	return factory, ok
}

// Names lists registered exchanges, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
