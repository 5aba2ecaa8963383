package wol

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/fgeck/gowol/internal/models"
	"github.com/mdlayher/wol"
)

// Sender transmits a magic packet. Implementations make at most one attempt.
type Sender interface {
	Send(ctx context.Context, packet MagicPacket, target models.BroadcastTarget) error
}

// Resolver allows mocking DNS lookups.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// PacketListener opens datagram sockets. *net.ListenConfig satisfies it.
type PacketListener interface {
	ListenPacket(ctx context.Context, network, address string) (net.PacketConn, error)
}

// UDPSender sends magic packets as UDP datagrams from a transient socket.
type UDPSender struct {
	resolver Resolver
	listener PacketListener
	timeout  time.Duration
}

// NewUDPSender creates a UDP sender. A zero timeout disables the guard.
func NewUDPSender(timeout time.Duration) *UDPSender {
	return &UDPSender{
		resolver: net.DefaultResolver,
		listener: &net.ListenConfig{},
		timeout:  timeout,
	}
}

// NewUDPSenderWith creates a UDP sender with custom network primitives (for testing).
func NewUDPSenderWith(resolver Resolver, listener PacketListener, timeout time.Duration) *UDPSender {
	return &UDPSender{
		resolver: resolver,
		listener: listener,
		timeout:  timeout,
	}
}

// Send resolves target and writes packet to it as a single datagram.
func (s *UDPSender) Send(ctx context.Context, packet MagicPacket, target models.BroadcastTarget) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	addr, err := s.resolve(ctx, target)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransmission, err)
	}

	network := "udp4"
	if addr.IP.To4() == nil {
		network = "udp6"
	}

	conn, err := s.listener.ListenPacket(ctx, network, ":0")
	if err != nil {
		return fmt.Errorf("%w: open socket: %w", ErrTransmission, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("%w: set deadline: %w", ErrTransmission, err)
		}
	}

	n, err := conn.WriteTo(packet.Bytes(), addr)
	if err != nil {
		return fmt.Errorf("%w: write to %s: %w", ErrTransmission, addr, err)
	}
	if n != PacketSize {
		return fmt.Errorf("%w: short write to %s: %d of %d bytes", ErrTransmission, addr, n, PacketSize)
	}

	return nil
}

func (s *UDPSender) resolve(ctx context.Context, target models.BroadcastTarget) (*net.UDPAddr, error) {
	if target.Port <= 0 || target.Port > 65535 {
		return nil, fmt.Errorf("%w: invalid port %d", ErrAddressResolution, target.Port)
	}
	if target.Address == "" {
		return nil, fmt.Errorf("%w: empty address", ErrAddressResolution)
	}

	if ip := net.ParseIP(target.Address); ip != nil {
		return &net.UDPAddr{IP: ip, Port: target.Port}, nil
	}

	addrs, err := s.resolver.LookupIPAddr(ctx, target.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAddressResolution, target.Address, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s has no addresses", ErrAddressResolution, target.Address)
	}

	// Broadcast only exists on IPv4, so prefer it.
	chosen := addrs[0]
	for _, a := range addrs {
		if a.IP.To4() != nil {
			chosen = a
			break
		}
	}

	return &net.UDPAddr{IP: chosen.IP, Port: target.Port, Zone: chosen.Zone}, nil
}

// RawClient wraps the wol raw ethernet client for mocking.
type RawClient interface {
	Wake(target net.HardwareAddr) error
	Close() error
}

// InterfaceLookup finds a network interface by name.
type InterfaceLookup func(name string) (*net.Interface, error)

// RawClientFactory creates raw clients bound to an interface.
type RawClientFactory func(ifi *net.Interface) (RawClient, error)

// RawSender sends magic packets as Ethernet frames (EtherType 0x0842).
type RawSender struct {
	iface     string
	lookup    InterfaceLookup
	newClient RawClientFactory
}

// NewRawSender creates a raw ethernet sender bound to the named interface.
func NewRawSender(iface string) *RawSender {
	return &RawSender{
		iface:  iface,
		lookup: net.InterfaceByName,
		newClient: func(ifi *net.Interface) (RawClient, error) {
			c, err := wol.NewRawClient(ifi)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// NewRawSenderWith creates a raw sender with custom primitives (for testing).
func NewRawSenderWith(iface string, lookup InterfaceLookup, newClient RawClientFactory) *RawSender {
	return &RawSender{
		iface:     iface,
		lookup:    lookup,
		newClient: newClient,
	}
}

// Send broadcasts the packet on the link. The IP target is not used.
func (s *RawSender) Send(ctx context.Context, packet MagicPacket, _ models.BroadcastTarget) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTransmission, err)
	}

	ifi, err := s.lookup(s.iface)
	if err != nil {
		return fmt.Errorf("%w: interface %s: %w", ErrAddressResolution, s.iface, err)
	}

	client, err := s.newClient(ifi)
	if err != nil {
		return fmt.Errorf("%w: open raw socket on %s: %w", ErrTransmission, s.iface, err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Wake(packet.MAC().HardwareAddr()); err != nil {
		return fmt.Errorf("%w: send on %s: %w", ErrTransmission, s.iface, err)
	}

	return nil
}

// NewSender builds the sender selected by cfg.
func NewSender(cfg models.SenderConfig) (Sender, error) {
	switch cfg.Mode {
	case "", models.SenderModeUDP:
		return NewUDPSender(cfg.SendTimeout), nil
	case models.SenderModeEthernet:
		if cfg.Interface == "" {
			return nil, fmt.Errorf("ethernet mode requires an interface")
		}
		return NewRawSender(cfg.Interface), nil
	default:
		return nil, fmt.Errorf("unknown sender mode %q", cfg.Mode)
	}
}
