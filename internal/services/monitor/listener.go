// Package monitor listens for magic packets and reports the MAC they target.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/fgeck/gowol/internal/models"
	"github.com/fgeck/gowol/internal/services/wol"
	"github.com/rs/zerolog"
)

// PacketFunc is called once for every valid magic packet.
type PacketFunc func(p models.ReceivedPacket)

// Listener receives UDP datagrams and decodes magic packets.
type Listener struct {
	addr     string
	listener wol.PacketListener
	logger   zerolog.Logger
}

// New creates a listener bound to addr, e.g. ":9".
func New(logger zerolog.Logger, addr string) *Listener {
	return NewWithListener(logger, addr, &net.ListenConfig{})
}

// NewWithListener creates a listener with a custom socket factory (for testing).
func NewWithListener(logger zerolog.Logger, addr string, listener wol.PacketListener) *Listener {
	return &Listener{
		addr:     addr,
		listener: listener,
		logger:   logger,
	}
}

// Run binds the socket and serves until ctx is cancelled.
func (l *Listener) Run(ctx context.Context, fn PacketFunc) error {
	conn, err := l.Listen(ctx)
	if err != nil {
		return err
	}
	return l.Serve(ctx, conn, fn)
}

// Listen binds the UDP socket.
func (l *Listener) Listen(ctx context.Context) (net.PacketConn, error) {
	conn, err := l.listener.ListenPacket(ctx, "udp", l.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP %s: %w", l.addr, err)
	}

	l.logger.Info().Str("addr", conn.LocalAddr().String()).Msg("listening for magic packets")
	return conn, nil
}

// Serve reads datagrams from conn until ctx is cancelled. conn is closed on return.
func (l *Listener) Serve(ctx context.Context, conn net.PacketConn, fn PacketFunc) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer func() {
		stop()
		_ = conn.Close()
	}()

	// Larger than any magic packet so oversized datagrams are seen, not truncated.
	buf := make([]byte, 1500)

	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.logger.Warn().Err(err).Msg("failed to read UDP packet")
			continue
		}

		mac, err := wol.ParsePacket(buf[:n])
		if err != nil {
			l.logger.Debug().
				Err(err).
				Str("from", from.String()).
				Int("size", n).
				Msg("ignoring datagram that is not a magic packet")
			continue
		}

		p := models.ReceivedPacket{
			MAC:  mac.String(),
			From: from.String(),
			Size: n,
		}

		l.logger.Info().
			Str("mac", p.MAC).
			Str("from", p.From).
			Int("size", p.Size).
			Msg("magic packet received")

		if fn != nil {
			fn(p)
		}
	}
}
