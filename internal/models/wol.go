package models

import (
	"net"
	"strconv"
	"time"
)

// WOLPort is the well-known Wake-on-LAN UDP port.
const WOLPort = 9

// DefaultNetwork is the limited broadcast address.
const DefaultNetwork = "255.255.255.255"

// Sender modes.
const (
	SenderModeUDP      = "udp"
	SenderModeEthernet = "ethernet"
)

// BroadcastTarget is where magic packets are sent.
type BroadcastTarget struct {
	Address string
	Port    int
}

// String returns the target in host:port form.
func (t BroadcastTarget) String() string {
	return net.JoinHostPort(t.Address, strconv.Itoa(t.Port))
}

// SenderConfig holds packet transmission settings.
type SenderConfig struct {
	Mode        string        // "udp" (default) or "ethernet"
	Interface   string        // network interface, required for ethernet mode
	SendTimeout time.Duration // upper bound for socket setup and write
}

// WakeResult holds the result of a successful wake request.
type WakeResult struct {
	MAC       string
	Target    string
	BytesSent int
	Duration  time.Duration
}

// ReceivedPacket describes a magic packet seen by the monitor.
type ReceivedPacket struct {
	MAC  string
	From string
	Size int
}
