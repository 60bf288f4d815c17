package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	_ "botcore/internal/extension/calc"
	_ "botcore/internal/extension/hello"
	_ "botcore/internal/extension/help"
	_ "botcore/internal/extension/roll"
	_ "botcore/internal/extension/whoami"

	"botcore/internal/bot"
	"botcore/internal/command"
	"botcore/internal/config"
	"botcore/internal/extension"
	"botcore/internal/extension/ping"
	"botcore/internal/gateway"
	"botcore/internal/logging"
	v "botcore/internal/version"
)

func main() { os.Exit(run()) }

func run() int {
	cfg, err := config.New()
	if err != nil {
		fallback := logging.Setup("info", "")
		fallback.Error().Err(err).Msg("configuration error")
		return 1
	}

	log := logging.Setup(cfg.LogLevel, cfg.LogFile)
	log.Info().Str("version", v.Version).Msgf("starting %s", v.AppName)

	registry := command.NewRegistry()
	b := bot.New(cfg, registry, log)

	// ping needs a live latency source, so it joins the table here rather
	// than from an init()
	extension.Add(ping.New(b))

	report := extension.LoadAll(registry)
	report.Log(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- b.Run(ctx) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutdown signal received")
		cancel()
		if err := <-errCh; err != nil {
			log.Error().Err(err).Msg("error during shutdown")
			return 1
		}
		return 0
	case err := <-errCh:
		if err == nil {
			return 0
		}
		if errors.Is(err, gateway.ErrHandshakeRejected) {
			log.Error().Err(err).Msg("gateway refused our credential; check BOT_TOKEN")
		} else {
			log.Error().Err(err).Msg("bot stopped with error")
		}
		return 1
	}
}
