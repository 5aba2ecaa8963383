// Package models contains the data structures used throughout gowol.
package models

import (
	"fmt"
	"strings"
)

// TopicName is the name under which wake commands are delivered.
const TopicName = "wol"

// Config holds the complete configuration for a gowol process.
type Config struct {
	Network   string // broadcast or unicast target address
	Namespace string // optional topic prefix, used by transports only
	Sender    SenderConfig
	Stdin     StdinConfig
	HTTP      *HTTPConfig     // nil if not configured
	Telegram  *TelegramConfig // nil if not configured
}

// Target returns the broadcast target the configuration points at.
func (c Config) Target() BroadcastTarget {
	return BroadcastTarget{Address: c.Network, Port: WOLPort}
}

// Topic returns the command topic: "wol" without a namespace, "/<namespace>/wol" with one.
func (c Config) Topic() string {
	ns := strings.Trim(c.Namespace, "/")
	if ns == "" {
		return TopicName
	}
	return fmt.Sprintf("/%s/%s", ns, TopicName)
}

// HasSources reports whether at least one command source is configured.
func (c Config) HasSources() bool {
	return c.Stdin.Enabled || c.HTTP != nil || c.Telegram != nil
}

// StdinConfig controls reading commands from standard input.
type StdinConfig struct {
	Enabled bool
}

// HTTPConfig holds the HTTP command endpoint configuration.
type HTTPConfig struct {
	Listen string // e.g. ":8080"
}
