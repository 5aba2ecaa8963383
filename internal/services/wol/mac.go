package wol

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// MACLength is the byte length of a MAC address.
const MACLength = 6

// MacAddress is a parsed 6-byte hardware address.
type MacAddress [MACLength]byte

// ParseMAC parses six 2-digit hex groups separated by ':' or '-'.
func ParseMAC(s string) (MacAddress, error) {
	var mac MacAddress

	groups := strings.Split(strings.ReplaceAll(strings.TrimSpace(s), "-", ":"), ":")
	if len(groups) != MACLength {
		return mac, fmt.Errorf("%w: %q has %d groups, want %d", ErrInvalidFormat, s, len(groups), MACLength)
	}

	for i, g := range groups {
		if len(g) != 2 {
			return mac, fmt.Errorf("%w: group %q in %q", ErrInvalidHexDigit, g, s)
		}
		b, err := strconv.ParseUint(g, 16, 8)
		if err != nil {
			return mac, fmt.Errorf("%w: group %q in %q", ErrInvalidHexDigit, g, s)
		}
		mac[i] = byte(b)
	}

	return mac, nil
}

// String renders the address as lowercase colon-separated hex.
func (m MacAddress) String() string {
	return m.HardwareAddr().String()
}

// HardwareAddr returns a copy of the address as net.HardwareAddr.
func (m MacAddress) HardwareAddr() net.HardwareAddr {
	hw := make(net.HardwareAddr, MACLength)
	copy(hw, m[:])
	return hw
}
