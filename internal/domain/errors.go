package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStreamClosed is returned by a transport connection once the stream ends.
var ErrStreamClosed = errors.New("stream closed")

// ErrNotTicker marks a well-formed control message (subscribe ack, pong)
// that carries no price. It is skipped, not counted as a decode failure.
var ErrNotTicker = errors.New("not a ticker message")

// ValidationError rejects a selection candidate. No state is mutated.
type ValidationError struct {
	Reason string
	Codes  []string
}

func (e *ValidationError) Error() string {
	if len(e.Codes) == 0 {
		return "invalid selection: " + e.Reason
	}
	return fmt.Sprintf("invalid selection: %s: %s", e.Reason, strings.Join(e.Codes, ","))
}

// DecodeError is a per-message failure; the connection stays up.
type DecodeError struct {
	Symbol string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s tick: %v", e.Symbol, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ConnectionError is a failed dial.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// PersistenceError wraps settings I/O failures.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("settings %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("settings %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
