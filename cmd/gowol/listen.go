package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/gowol/internal/models"
	"github.com/fgeck/gowol/internal/services/monitor"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	listenAddr  string
	listenCount int
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print the MAC address of every magic packet received",
	Long: `Listen for Wake-on-LAN magic packets on UDP and print the MAC address each one
targets. Useful to check that packets from "gowol wake" reach a host.

Binding the default port 9 usually requires elevated privileges.`,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringVarP(&listenAddr, "addr", "a", fmt.Sprintf(":%d", models.WOLPort), "UDP address to listen on")
	listenCmd.Flags().IntVarP(&listenCount, "count", "n", 0, "exit after this many packets (0 = run until interrupted)")
}

func runListen(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	received := 0
	l := monitor.New(log.Logger, listenAddr)
	err := l.Run(ctx, func(p models.ReceivedPacket) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p.MAC, p.From)

		received++
		if listenCount > 0 && received >= listenCount {
			cancel()
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("listener failed")
		return err
	}

	return nil
}
