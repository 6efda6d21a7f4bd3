package monitor

import (
	"cryptowidget/internal/application/port"
	"cryptowidget/internal/domain"
)

type PriceFeed = port.PriceFeed

type EventKind int

const (
	EventState EventKind = iota
	EventTick
	EventDecodeError
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventTick:
		return "tick"
	case EventDecodeError:
		return "decode_error"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is handed from a connection goroutine to the control surface.
// The snapshot slot is already updated when the event is sent.
type Event struct {
	Symbol  string
	Kind    EventKind
	State   domain.ConnState
	Attempt int
	Tick    domain.Tick
	Err     error
}
