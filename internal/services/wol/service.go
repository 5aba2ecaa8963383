// Package wol builds and sends Wake-on-LAN magic packets.
package wol

import (
	"context"
	"time"

	"github.com/fgeck/gowol/internal/metrics"
	"github.com/fgeck/gowol/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for handling wake commands.
type Service interface {
	Wake(ctx context.Context, mac string) (*models.WakeResult, error)
}

// Handler implements Service: parse, build and send, one packet per call.
type Handler struct {
	sender  Sender
	target  models.BroadcastTarget
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates a handler for the configured target and sender mode.
func New(logger zerolog.Logger, cfg models.Config, m *metrics.Metrics) (*Handler, error) {
	sender, err := NewSender(cfg.Sender)
	if err != nil {
		return nil, err
	}
	return NewWithSender(logger, cfg.Target(), sender, m), nil
}

// NewWithSender creates a handler with a custom sender (for testing).
func NewWithSender(logger zerolog.Logger, target models.BroadcastTarget, sender Sender, m *metrics.Metrics) *Handler {
	return &Handler{
		sender:  sender,
		target:  target,
		metrics: m,
		logger:  logger,
	}
}

// Target returns the configured broadcast target.
func (h *Handler) Target() models.BroadcastTarget {
	return h.target
}

// Wake sends one magic packet for mac. Errors are *WakeError and are already logged.
func (h *Handler) Wake(ctx context.Context, mac string) (*models.WakeResult, error) {
	start := time.Now()

	addr, err := ParseMAC(mac)
	if err != nil {
		return nil, h.fail(mac, err)
	}

	packet := BuildPacket(addr)

	h.logger.Debug().
		Str("mac", addr.String()).
		Str("target", h.target.String()).
		Msg("sending magic packet")

	if err := h.sender.Send(ctx, packet, h.target); err != nil {
		return nil, h.fail(mac, err)
	}

	h.metrics.PacketSent()
	result := &models.WakeResult{
		MAC:       addr.String(),
		Target:    h.target.String(),
		BytesSent: PacketSize,
		Duration:  time.Since(start),
	}

	h.logger.Info().
		Str("target", result.Target).
		Dur("duration", result.Duration).
		Msgf("Wake-on-LAN packet sent. For: %s", mac)

	return result, nil
}

func (h *Handler) fail(mac string, err error) error {
	h.metrics.Failure(FailureReason(err))
	h.logger.Error().
		Str("mac", mac).
		Msgf("Failed to send Wake-on-LAN packet: %v", err)
	return &WakeError{MAC: mac, Err: err}
}
