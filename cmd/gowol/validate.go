package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fgeck/gowol/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long:  `Validate the configuration file without sending any packets.`,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		log.Error().Msg("config file is required")
		return cmd.Help()
	}

	// Check if file exists
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Error().Str("file", configFile).Msg("config file not found")
		return fmt.Errorf("config file not found: %s", configFile)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("configuration validation failed")
		return err
	}

	out := cmd.OutOrStdout()

	// Print configuration summary
	fmt.Fprintln(out, "Configuration is valid!")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Summary:")
	fmt.Fprintf(out, "  Target: %s\n", cfg.Target())
	fmt.Fprintf(out, "  Topic: %s\n", cfg.Topic())
	fmt.Fprintf(out, "  Sender mode: %s\n", cfg.Sender.Mode)
	if cfg.Sender.Interface != "" {
		fmt.Fprintf(out, "  Interface: %s\n", cfg.Sender.Interface)
	}
	fmt.Fprintf(out, "  Send timeout: %s\n", cfg.Sender.SendTimeout)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Command Sources:")
	fmt.Fprintf(out, "  Stdin: %v\n", cfg.Stdin.Enabled)
	fmt.Fprintf(out, "  HTTP: %v\n", cfg.HTTP != nil)
	fmt.Fprintf(out, "  Telegram: %v\n", cfg.Telegram != nil)

	if cfg.HTTP != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "HTTP Configuration:")
		fmt.Fprintf(out, "  Listen: %s\n", cfg.HTTP.Listen)
		fmt.Fprintf(out, "  Route: POST /%s\n", strings.TrimPrefix(cfg.Topic(), "/"))
	}

	if cfg.Telegram != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Telegram Configuration:")
		fmt.Fprintf(out, "  Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Fprintf(out, "  Bot Token: (configured)\n")
		fmt.Fprintf(out, "  Poll timeout: %s\n", cfg.Telegram.PollTimeout)
	}

	if !cfg.HasSources() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Warning: no command source enabled, \"gowol serve\" will refuse to start.")
	}

	return nil
}
