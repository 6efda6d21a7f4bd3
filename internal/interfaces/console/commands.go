package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"cryptowidget/internal/application/usecase/monitor"
	"cryptowidget/internal/domain"
)

// Controller is the part of the monitor service the console drives.
type Controller interface {
	Catalog() []domain.Coin
	Selection() []string
	RequestSelectionChange(ctx context.Context, codes []string) error
	RequestManualReconnect()
	Snapshot(symbol string) (monitor.Snapshot, bool)
	// Notify prints command output without tearing the live line.
	Notify(text string)
}

// Commands reads one command per line:
//
//	select BTC ETH   switch the active symbols (1 to 3)
//	reconnect        restart every stream
//	list             show the catalog
//	status           show per-symbol connection state
//	quit             stop the widget
type Commands struct {
	ctl  Controller
	in   io.Reader
	quit func()

	// output of the command being executed, flushed by Exec
	out strings.Builder
}

func NewCommands(ctl Controller, in io.Reader, quit func()) *Commands {
	if quit == nil {
		quit = func() {}
	}
	return &Commands{ctl: ctl, in: in, quit: quit}
}

// Run returns when input ends, ctx is done or quit was entered.
func (c *Commands) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			if !c.Exec(ctx, line) {
				c.quit()
				return nil
			}
		}
	}
}

// Exec runs a single command line and reports whether to keep reading.
// Its output reaches the controller as one Notify call.
func (c *Commands) Exec(ctx context.Context, line string) bool {
	defer c.flush()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch strings.ToLower(fields[0]) {
	case "select", "s":
		c.sel(ctx, fields[1:])
	case "reconnect", "r":
		c.ctl.RequestManualReconnect()
		c.printf("reconnecting %s\n", strings.Join(c.ctl.Selection(), ","))
	case "list", "l":
		c.list()
	case "status":
		c.status()
	case "quit", "q", "exit":
		return false
	case "help", "h", "?":
		c.printf("commands: select <CODE...>, reconnect, list, status, quit\n")
	default:
		c.printf("unknown command %q, try help\n", fields[0])
	}
	return true
}

func (c *Commands) sel(ctx context.Context, codes []string) {
	err := c.ctl.RequestSelectionChange(ctx, codes)
	var verr *domain.ValidationError
	var perr *domain.PersistenceError
	switch {
	case err == nil:
		c.printf("selected %s\n", strings.Join(c.ctl.Selection(), ","))
	case errors.As(err, &verr):
		c.printf("rejected: %v\n", verr)
	case errors.As(err, &perr):
		c.printf("selected %s (not saved: %v)\n", strings.Join(c.ctl.Selection(), ","), perr.Err)
	default:
		log.Error().Err(err).Msg("selection change failed")
		c.printf("error: %v\n", err)
	}
}

func (c *Commands) list() {
	active := make(map[string]bool)
	for _, code := range c.ctl.Selection() {
		active[code] = true
	}
	for _, coin := range c.ctl.Catalog() {
		mark := " "
		if active[coin.Code] {
			mark = "*"
		}
		c.printf("%s %-5s %s %s\n", mark, coin.Code, coin.Icon, coin.DisplayName)
	}
}

func (c *Commands) status() {
	for _, code := range c.ctl.Selection() {
		snap, _ := c.ctl.Snapshot(code)
		c.printf("%-5s %-10s attempt=%d price=%s change=%s decode_errors=%d\n",
			code, snap.State, snap.Attempt, snap.PriceText(), snap.ChangeText(), snap.DecodeErrors)
	}
}

func (c *Commands) printf(format string, args ...any) {
	fmt.Fprintf(&c.out, format, args...)
}

func (c *Commands) flush() {
	if c.out.Len() == 0 {
		return
	}
	c.ctl.Notify(c.out.String())
	c.out.Reset()
}
