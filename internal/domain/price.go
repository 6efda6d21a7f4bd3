package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the sign of a tick's 24h change.
type Direction int

const (
	DirectionSame Direction = 0
	DirectionUp   Direction = +1
	DirectionDown Direction = -1
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "same"
	}
}

// Tick is one decoded price update for a symbol.
// PriceChange and ChangePercent are both taken from the feed's 24h percent field.
type Tick struct {
	Symbol        string
	LastPrice     decimal.Decimal
	PriceChange   decimal.Decimal
	ChangePercent decimal.Decimal
	ReceivedAt    time.Time
}

// Direction reports the 24h movement of the tick.
func (t Tick) Direction() Direction {
	switch t.PriceChange.Sign() {
	case 1:
		return DirectionUp
	case -1:
		return DirectionDown
	default:
		return DirectionSame
	}
}
