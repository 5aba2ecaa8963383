package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/gowol/internal/metrics"
	"github.com/fgeck/gowol/internal/services/httpapi"
	"github.com/fgeck/gowol/internal/services/runner"
	"github.com/fgeck/gowol/internal/services/telegram"
	"github.com/fgeck/gowol/internal/services/wol"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as a Wake-on-LAN node",
	Long: `Run until interrupted, sending a magic packet for every command received from
the configured sources:
  - stdin.enabled: one MAC per line on standard input
  - http.listen:   POST the MAC to /wol (or /<namespace>/wol)
  - telegram:      "/wol <mac>" messages in the configured chat

A malformed command or failed send is logged and never stops the node.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !cfg.HasSources() {
		err := errors.New("no command source configured: enable stdin, http or telegram")
		log.Error().Err(err).Msg("nothing to serve")
		return err
	}

	log.Info().
		Str("config", configFile).
		Str("target", cfg.Target().String()).
		Str("topic", cfg.Topic()).
		Str("mode", cfg.Sender.Mode).
		Msg("configuration loaded")

	m := metrics.New()

	handler, err := wol.New(log.Logger, *cfg, m)
	if err != nil {
		log.Error().Err(err).Msg("failed to create sender")
		return err
	}

	var sources []runner.Source
	if cfg.Stdin.Enabled {
		sources = append(sources, runner.NewReaderSource("stdin", os.Stdin, log.Logger))
	}
	if cfg.HTTP != nil {
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		sources = append(sources, httpapi.New(log.Logger, *cfg.HTTP, cfg.Topic(), m))
	}
	if cfg.Telegram != nil {
		sources = append(sources, telegram.New(log.Logger, *cfg.Telegram))
	}

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
		cancel()
	}()

	runnerSvc := runner.New(log.Logger, handler, m, sources...)
	if err := runnerSvc.Run(ctx); err != nil {
		log.Error().Err(err).Msg("node stopped with error")
		return err
	}

	log.Info().Msg("node stopped")
	return nil
}
