package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"cryptowidget/internal/application/usecase/monitor"
	"cryptowidget/internal/domain"
	"cryptowidget/internal/infrastructure/config"
	"cryptowidget/internal/infrastructure/container"
	_ "cryptowidget/internal/infrastructure/exchange/binance"
	_ "cryptowidget/internal/infrastructure/exchange/okx"
	"cryptowidget/internal/infrastructure/logger"
	"cryptowidget/internal/infrastructure/pricefeed"
	"cryptowidget/internal/infrastructure/websocket"
	"cryptowidget/internal/interfaces/console"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml or config.yaml")
	noInput := flag.Bool("no-input", false, "do not read commands from stdin")
	flag.Parse()

	logger.Setup("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctr, err := container.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init container failed")
	}
	defer ctr.Close()

	// feed (infrastructure -> application ports)
	newFeed, ok := pricefeed.Get(cfg.Feed.Exchange)
	if !ok {
		log.Fatal().
			Str("exchange", cfg.Feed.Exchange).
			Str("available", strings.Join(pricefeed.Names(), ",")).
			Msg("unknown exchange")
	}
	feed := newFeed(cfg.Feed.WsURL)

	transport := websocket.NewTransport(websocket.Options{
		HandshakeTimeout: time.Duration(cfg.Stream.HandshakeTimeoutSec) * time.Second,
		ReadTimeout:      time.Duration(cfg.Stream.ReadTimeoutSec) * time.Second,
		PingInterval:     time.Duration(cfg.Stream.PingIntervalSec) * time.Second,
	})

	catalog := domain.DefaultCatalog()
	supervisor := monitor.NewSupervisor(monitor.SupervisorDeps{
		Catalog:   catalog,
		Feed:      feed,
		Transport: transport,
		Retry: monitor.RetryPolicy{
			MaxAttempts:  cfg.Stream.MaxReconnectAttempts,
			InitialDelay: cfg.RetryDelay(),
			MaxDelay:     cfg.MaxRetryDelay(),
			Multiplier:   cfg.Stream.BackoffMultiplier,
		},
		StopGrace: cfg.ShutdownGrace(),
	})

	svc := monitor.NewService(monitor.ServiceDeps{
		Catalog:       catalog,
		Supervisor:    supervisor,
		Selection:     monitor.NewSelectionStore(catalog, ctr.Settings()),
		Sink:          console.NewSink(),
		Publisher:     ctr.Publisher(),
		PrintEveryMin: cfg.App.PrintEveryMin,
		Color:         !cfg.App.NoColor,
		ShutdownGrace: cfg.ShutdownGrace() + time.Second,
	})

	if !*noInput {
		cmds := console.NewCommands(svc, os.Stdin, stop)
		go func() {
			if err := cmds.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("command input closed")
			}
		}()
	}

	log.Info().
		Str("config", *configPath).
		Str("exchange", feed.Name()).
		Str("settings_backend", cfg.Settings.Backend).
		Int("print_every_min", cfg.App.PrintEveryMin).
		Msg("cryptowidget started")

	if err := svc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("monitor service exited")
	}
}
