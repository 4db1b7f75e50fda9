package domain

import (
	"fmt"
	"net"
	"net/netip"
)

// Family identifies the address family carried by a Socket.
type Family uint8

const (
	FamilyNone Family = 0
	FamilyIPv4 Family = 1
	FamilyIPv6 Family = 2
)

// Socket is the tagged {IPv4, IPv6} address variant from spec.md §3. On the
// wire it is carried as a 16-bit family+flags field followed by the address
// bytes and a 16-bit port; see infrastructure/wire for the exact layout.
type Socket struct {
	Family Family
	Addr   [16]byte // low 4 bytes significant when Family == FamilyIPv4
	Port   uint16
}

// IsSet reports whether the socket carries a real address (Family != 0).
func (s Socket) IsSet() bool {
	return s.Family != FamilyNone
}

// SocketFromAddrPort builds a Socket from a netip.AddrPort, selecting the
// family from the address itself.
func SocketFromAddrPort(ap netip.AddrPort) Socket {
	addr := ap.Addr()
	var s Socket
	s.Port = ap.Port()
	if addr.Is4() || addr.Is4In6() {
		s.Family = FamilyIPv4
		a4 := addr.As4()
		copy(s.Addr[:4], a4[:])
	} else {
		s.Family = FamilyIPv6
		a16 := addr.As16()
		copy(s.Addr[:], a16[:])
	}
	return s
}

// AddrPort converts the Socket back into a netip.AddrPort. Returns an error
// for a Socket with no family set.
func (s Socket) AddrPort() (netip.AddrPort, error) {
	switch s.Family {
	case FamilyIPv4:
		var a4 [4]byte
		copy(a4[:], s.Addr[:4])
		return netip.AddrPortFrom(netip.AddrFrom4(a4), s.Port), nil
	case FamilyIPv6:
		return netip.AddrPortFrom(netip.AddrFrom16(s.Addr), s.Port), nil
	default:
		return netip.AddrPort{}, fmt.Errorf("socket has no address family set")
	}
}

// UDPAddr converts the Socket into a *net.UDPAddr for use with net.ListenUDP.
func (s Socket) UDPAddr() (*net.UDPAddr, error) {
	ap, err := s.AddrPort()
	if err != nil {
		return nil, err
	}
	return net.UDPAddrFromAddrPort(ap), nil
}

func (s Socket) String() string {
	ap, err := s.AddrPort()
	if err != nil {
		return "<unset>"
	}
	return ap.String()
}
