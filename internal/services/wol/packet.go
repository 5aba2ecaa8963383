package wol

import (
	"bytes"
	"fmt"

	"github.com/mdlayher/wol"
)

const (
	syncStreamLength = 6
	macRepetitions   = 16

	// PacketSize is the length of a magic packet: 6x0xFF + 16 repetitions of the MAC.
	PacketSize = syncStreamLength + macRepetitions*MACLength
)

// MagicPacket is a Wake-on-LAN payload.
type MagicPacket [PacketSize]byte

// BuildPacket assembles the magic packet for mac.
func BuildPacket(mac MacAddress) MagicPacket {
	var p MagicPacket
	for i := 0; i < syncStreamLength; i++ {
		p[i] = 0xFF
	}
	for off := syncStreamLength; off < PacketSize; off += MACLength {
		copy(p[off:], mac[:])
	}
	return p
}

// Bytes returns the payload as a new slice.
func (p MagicPacket) Bytes() []byte {
	b := make([]byte, PacketSize)
	copy(b, p[:])
	return b
}

// MAC returns the target address embedded in the packet.
func (p MagicPacket) MAC() MacAddress {
	var mac MacAddress
	copy(mac[:], p[syncStreamLength:])
	return mac
}

// ParsePacket validates a received payload and returns its target address.
func ParsePacket(b []byte) (MacAddress, error) {
	var mac MacAddress

	var mp wol.MagicPacket
	if err := mp.UnmarshalBinary(b); err != nil {
		return mac, fmt.Errorf("invalid magic packet: %w", err)
	}
	if len(mp.Target) != MACLength {
		return mac, fmt.Errorf("invalid magic packet: target has %d bytes", len(mp.Target))
	}

	copy(mac[:], mp.Target)
	for off := syncStreamLength; off < PacketSize; off += MACLength {
		if !bytes.Equal(b[off:off+MACLength], mac[:]) {
			return MacAddress{}, fmt.Errorf("invalid magic packet: repetition at offset %d differs", off)
		}
	}
	return mac, nil
}
