package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"matchbook/internal/config"
	"matchbook/internal/manager"
	"matchbook/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load configuration")
	}

	mgr := manager.New()
	for symbol, tickSize := range cfg.TickSizes() {
		if err := mgr.CreateOrderBook(symbol, tickSize); err != nil {
			log.Fatal().Err(err).Str("symbol", symbol).Msg("unable to bootstrap instrument")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	srv := server.New(cfg.ListenAddress, cfg.ListenPort, cfg.WorkerPool, mgr)
	go func() {
		if err := srv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
}
