package domain

import "fmt"

// ConnState is the lifecycle state of one symbol's stream.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateStreaming
	StateRetrying
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateRetrying:
		return "retrying"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Active reports whether a receive loop owns the stream in this state.
func (s ConnState) Active() bool {
	return s == StateConnecting || s == StateStreaming || s == StateRetrying
}
