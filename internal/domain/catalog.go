package domain

import "strings"

// PrimaryCode is the default selection when nothing valid is persisted.
const PrimaryCode = "BTC"

const (
	MinSelection = 1
	MaxSelection = 3
)

// Coin is a catalog entry. FeedID is the exchange pair used to build the stream endpoint.
type Coin struct {
	Code        string
	FeedID      string
	DisplayName string
	Icon        string
}

// Catalog is the fixed, ordered set of symbols the widget knows about.
type Catalog struct {
	coins []Coin
	index map[string]int
}

func NewCatalog(coins ...Coin) *Catalog {
	c := &Catalog{
		coins: make([]Coin, 0, len(coins)),
		index: make(map[string]int, len(coins)),
	}
	for _, coin := range coins {
		code := NormalizeCode(coin.Code)
		if code == "" {
			continue
		}
		if _, dup := c.index[code]; dup {
			continue
		}
		coin.Code = code
		c.index[code] = len(c.coins)
		c.coins = append(c.coins, coin)
	}
	return c
}

// DefaultCatalog returns the built-in USDT-margined futures symbols.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		Coin{Code: "BTC", FeedID: "btcusdt", DisplayName: "Bitcoin", Icon: "₿"},
		Coin{Code: "ETH", FeedID: "ethusdt", DisplayName: "Ethereum", Icon: "Ξ"},
		Coin{Code: "BNB", FeedID: "bnbusdt", DisplayName: "BNB", Icon: "◆"},
		Coin{Code: "SOL", FeedID: "solusdt", DisplayName: "Solana", Icon: "◎"},
		Coin{Code: "XRP", FeedID: "xrpusdt", DisplayName: "XRP", Icon: "✕"},
		Coin{Code: "DOGE", FeedID: "dogeusdt", DisplayName: "Dogecoin", Icon: "Ð"},
		Coin{Code: "ADA", FeedID: "adausdt", DisplayName: "Cardano", Icon: "₳"},
	)
}

func (c *Catalog) Coins() []Coin {
	out := make([]Coin, len(c.coins))
	copy(out, c.coins)
	return out
}

func (c *Catalog) Lookup(code string) (Coin, bool) {
	i, ok := c.index[NormalizeCode(code)]
	if !ok {
		return Coin{}, false
	}
	return c.coins[i], true
}

func (c *Catalog) Contains(code string) bool {
	_, ok := c.index[NormalizeCode(code)]
	return ok
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
