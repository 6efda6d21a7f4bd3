package monitor

import (
	"fmt"
	"strings"

	"cryptowidget/internal/domain"
)

const (
	ansiReset    = "\033[0m"
	ansiRed      = "\033[31m"
	ansiGreen    = "\033[32m"
	ansiYellow   = "\033[33m"
	ansiDim      = "\033[2m"
	ansiClearEOL = "\033[K"
)

func colorize(s, c string) string { return c + s + ansiReset }

type Formatter struct {
	Color bool
}

func NewFormatter(color bool) *Formatter {
	return &Formatter{Color: color}
}

type RenderMode int

const (
	RenderLive RenderMode = iota
	RenderSnapshot
)

func (f *Formatter) paint(s, c string) string {
	if !f.Color {
		return s
	}
	return colorize(s, c)
}

func (f *Formatter) Render(snaps []Snapshot, mode RenderMode) string {
	var sb strings.Builder
	if mode == RenderLive {
		sb.WriteString("\r")
	}

	sb.WriteString(f.paint("[CRYPTO] ", ansiDim))

	for i, snap := range snaps {
		if i > 0 {
			sb.WriteString(f.paint("  ||  ", ansiDim))
		}
		sb.WriteString(f.Cell(snap))
	}

	if mode == RenderLive && f.Color {
		sb.WriteString(ansiClearEOL)
	}
	return sb.String()
}

// Cell renders one symbol, e.g. "₿ BTC $67,890.1 +1.50%".
func (f *Formatter) Cell(snap Snapshot) string {
	label := snap.Coin.Code
	if snap.Coin.Icon != "" {
		label = snap.Coin.Icon + " " + label
	}

	switch {
	case snap.State == domain.StateFailed || snap.Errored:
		return label + " " + f.paint("Error", ansiRed)
	case snap.Tick == nil:
		return label + " " + f.paint(stateText(snap), ansiDim)
	}

	col := ansiYellow
	switch snap.Direction() {
	case domain.DirectionUp:
		col = ansiGreen
	case domain.DirectionDown:
		col = ansiRed
	}
	out := label + " " + f.paint("$"+snap.PriceText()+" "+snap.ChangeText(), col)
	if snap.State != domain.StateStreaming {
		out += " " + f.paint("("+stateText(snap)+")", ansiDim)
	}
	return out
}

func stateText(snap Snapshot) string {
	switch snap.State {
	case domain.StateConnecting:
		return "connecting"
	case domain.StateRetrying:
		return fmt.Sprintf("retry %d", snap.Attempt)
	case domain.StateStreaming:
		return "waiting"
	default:
		return "--"
	}
}
