package domain

import (
	"fmt"
	"net"
)

// MACSize is the length in bytes of an Ethernet hardware address.
const MACSize = 6

// MAC is a 6-byte Ethernet hardware address. The overlay identifies peers by
// MAC rather than by IP, since an edge's overlay IP may be reassigned by a
// supernode at any registration.
type MAC [MACSize]byte

// BroadcastMAC is the Ethernet broadcast address.
var BroadcastMAC = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ipv4MulticastPrefix and ipv6MulticastPrefix are the first bytes of the
// IANA-assigned multicast MAC ranges.
var (
	ipv4MulticastPrefix = [3]byte{0x01, 0x00, 0x5E}
	ipv6MulticastPrefix = [2]byte{0x33, 0x33}
)

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// IsZero reports whether m is the zero MAC (no address assigned yet).
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// IsMultiBroadcast reports whether m is the Ethernet broadcast address or
// falls within an IPv4/IPv6 multicast MAC prefix, per spec.md §3.
func (m MAC) IsMultiBroadcast() bool {
	if m == BroadcastMAC {
		return true
	}
	if m[0] == ipv4MulticastPrefix[0] && m[1] == ipv4MulticastPrefix[1] && m[2] == ipv4MulticastPrefix[2] {
		return true
	}
	if m[0] == ipv6MulticastPrefix[0] && m[1] == ipv6MulticastPrefix[1] {
		return true
	}
	return false
}

// ParseMAC parses a 6-byte slice into a MAC. It does not accept the
// colon-separated textual form; callers that read from net.Interface get raw
// bytes already.
func ParseMAC(b []byte) (MAC, error) {
	var m MAC
	if len(b) != MACSize {
		return m, fmt.Errorf("invalid MAC length: %d", len(b))
	}
	copy(m[:], b)
	return m, nil
}

// ParseMACString parses a colon-separated textual MAC address (e.g. the -m
// flag of spec.md §6), delegating to net.ParseMAC for the textual grammar.
func ParseMACString(s string) (MAC, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MAC{}, fmt.Errorf("invalid MAC %q: %w", s, err)
	}
	return ParseMAC(hw)
}
