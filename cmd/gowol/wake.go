package main

import (
	"fmt"

	"github.com/fgeck/gowol/internal/services/wol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var wakeNetwork string

var wakeCmd = &cobra.Command{
	Use:   "wake <mac>...",
	Short: "Send a magic packet to each MAC address",
	Long: `Send one Wake-on-LAN magic packet per MAC address and exit.

MAC addresses are six hex pairs separated by ':' or '-', e.g. AA:BB:CC:DD:EE:FF.
Every address is handled independently; the command fails if any of them failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWake,
}

func init() {
	wakeCmd.Flags().StringVarP(&wakeNetwork, "network", "n", "", "broadcast or unicast target address (overrides config)")
}

func runWake(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("network") {
		cfg.Network = wakeNetwork
	}

	handler, err := wol.New(log.Logger, *cfg, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to create sender")
		return err
	}

	ctx := cmd.Context()
	failed := 0
	for _, mac := range args {
		if _, err := handler.Wake(ctx, mac); err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to wake %d of %d targets", failed, len(args))
	}
	return nil
}
