// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fgeck/gowol/internal/models"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override config keys,
// e.g. GOWOL_NETWORK or GOWOL_SENDER_MODE.
const EnvPrefix = "GOWOL"

const (
	defaultSendTimeout   = 5 * time.Second
	defaultHTTPListen    = ":8080"
	defaultPollTimeout   = 30 * time.Second
	defaultRetryInterval = 5 * time.Second
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.Config, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.Config, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

// LoadDefaults builds a configuration from defaults and environment overrides only.
func (p *Parser) LoadDefaults() (*models.Config, error) {
	return p.parse()
}

func (p *Parser) parse() (*models.Config, error) {
	cfg := &models.Config{
		Network:   strings.TrimSpace(p.expandEnv(p.v.GetString("network"))),
		Namespace: strings.Trim(p.v.GetString("namespace"), "/ "),
	}

	if cfg.Network == "" {
		cfg.Network = models.DefaultNetwork
	}

	// Parse sender settings.
	cfg.Sender = models.SenderConfig{
		Mode:        strings.ToLower(p.v.GetString("sender.mode")),
		Interface:   p.v.GetString("sender.interface"),
		SendTimeout: p.v.GetDuration("sender.send_timeout"),
	}

	if cfg.Sender.Mode == "" {
		cfg.Sender.Mode = models.SenderModeUDP
	}
	if cfg.Sender.SendTimeout == 0 {
		cfg.Sender.SendTimeout = defaultSendTimeout
	}

	cfg.Stdin = models.StdinConfig{
		Enabled: p.v.GetBool("stdin.enabled"),
	}

	// Parse optional HTTP endpoint.
	if p.v.IsSet("http") || p.v.IsSet("http.listen") {
		cfg.HTTP = &models.HTTPConfig{
			Listen: p.v.GetString("http.listen"),
		}

		if cfg.HTTP.Listen == "" {
			cfg.HTTP.Listen = defaultHTTPListen
		}
	}

	// Parse optional Telegram bot.
	if p.v.IsSet("telegram") || p.v.IsSet("telegram.bot_token") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken:      p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:        p.expandEnv(p.v.GetString("telegram.chat_id")),
			PollTimeout:   p.v.GetDuration("telegram.poll_timeout"),
			RetryInterval: p.v.GetDuration("telegram.retry_interval"),
		}

		if cfg.Telegram.PollTimeout == 0 {
			cfg.Telegram.PollTimeout = defaultPollTimeout
		}
		if cfg.Telegram.RetryInterval == 0 {
			cfg.Telegram.RetryInterval = defaultRetryInterval
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if cfg.Network == "" {
		return fmt.Errorf("network is required")
	}

	switch cfg.Sender.Mode {
	case models.SenderModeUDP:
	case models.SenderModeEthernet:
		if cfg.Sender.Interface == "" {
			return fmt.Errorf("sender.interface is required when sender.mode is %s", models.SenderModeEthernet)
		}
	default:
		return fmt.Errorf("sender.mode must be one of: %s, %s", models.SenderModeUDP, models.SenderModeEthernet)
	}

	if cfg.Sender.SendTimeout < 0 {
		return fmt.Errorf("sender.send_timeout must not be negative")
	}

	if cfg.HTTP != nil && cfg.HTTP.Listen == "" {
		return fmt.Errorf("http.listen is required when http is configured")
	}

	if cfg.Telegram != nil {
		if cfg.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
		if cfg.Telegram.PollTimeout < 0 || cfg.Telegram.RetryInterval < 0 {
			return fmt.Errorf("telegram durations must not be negative")
		}
	}

	return nil
}
