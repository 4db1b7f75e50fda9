// Package udpsocket wraps a Linux UDP socket as the small Read/Write/Fd
// surface the event loop (C7) polls: a net.UDPConn plus
// ReadFromUDPAddrPort/WriteToUDPAddrPort, addressed with net/netip, as a
// single listening socket shared across all peers — this overlay
// multiplexes every peer over one UDP port rather than opening one
// connection per peer.
package udpsocket

import (
	"fmt"
	"net"
	"net/netip"

	"golang.org/x/net/ipv4"
)

// Socket is a UDP listening socket addressed with netip.AddrPort, exposing
// the raw file descriptor for the event loop's unix.Poll wait.
type Socket struct {
	conn *net.UDPConn
}

// Listen opens a UDP socket on port (0 = ephemeral), per spec.md §6's -p
// flag.
func Listen(port int) (*Socket, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("udpsocket: listen: %w", err)
	}
	return &Socket{conn: conn}, nil
}

// LocalAddrPort returns the bound local address, useful after an ephemeral
// (-p 0) bind to learn the assigned port.
func (s *Socket) LocalAddrPort() netip.AddrPort {
	return s.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// ReadFrom reads one datagram into buf, returning its sender.
func (s *Socket) ReadFrom(buf []byte) (int, netip.AddrPort, error) {
	n, addr, err := s.conn.ReadFromUDPAddrPort(buf)
	if err != nil {
		return 0, netip.AddrPort{}, err
	}
	return n, addr, nil
}

// WriteTo sends buf to the given peer address.
func (s *Socket) WriteTo(buf []byte, to netip.AddrPort) (int, error) {
	return s.conn.WriteToUDPAddrPort(buf, to)
}

// Fd returns the underlying file descriptor for use with the event loop's
// readiness multiplexer. SyscallConn's blocking-free Control call is the
// standard way to obtain a pollable fd from a net.UDPConn without defeating
// Go's runtime-integrated netpoller for ordinary use elsewhere.
func (s *Socket) Fd() int {
	raw, err := s.conn.SyscallConn()
	if err != nil {
		return -1
	}
	var fd int
	_ = raw.Control(func(f uintptr) { fd = int(f) })
	return fd
}

// Close closes the socket.
func (s *Socket) Close() error {
	return s.conn.Close()
}

// SetTTL sets the socket's outbound IP TTL, the same ipv4.Conn pattern
// xtaci/kcp-go uses for its DSCP/TOS sockopt, so a registration datagram
// expires inside the originating NAT rather than escaping past it when
// register_ttl is configured (spec.md §4.5, §6's -L flag). ttl <= 0 leaves
// the platform default in place.
func (s *Socket) SetTTL(ttl int) error {
	if ttl <= 0 {
		return nil
	}
	if err := ipv4.NewConn(s.conn).SetTTL(ttl); err != nil {
		return fmt.Errorf("udpsocket: set TTL: %w", err)
	}
	return nil
}

// SetTOS sets the socket's outbound IP TOS/DSCP byte (spec.md §6's -T flag).
// tos <= 0 leaves the platform default in place.
func (s *Socket) SetTOS(tos int) error {
	if tos <= 0 {
		return nil
	}
	if err := ipv4.NewConn(s.conn).SetTOS(tos); err != nil {
		return fmt.Errorf("udpsocket: set TOS: %w", err)
	}
	return nil
}
