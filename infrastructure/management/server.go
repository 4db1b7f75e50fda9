// Package management implements the edge's local-only management channel
// (C8): a line-oriented ASCII UDP request/response protocol exposing STATS,
// PEERS, and VERBOSE <n>, per spec.md §4.6. Package named to match the
// one-package-per-concern layout used across infrastructure/logging,
// infrastructure/settings, and the rest of this tree; the request/response
// loop follows this module's own udpsocket.Socket collaborator, documented
// in DESIGN.md.
package management

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"overlink/domain"
	"overlink/infrastructure/registry"
)

// VerbosityLevel is shared, mutable tracing level the management channel is
// allowed to change; it is the one piece of "long-lived state" the channel
// may mutate, per spec.md §4.6: "Never mutates long-lived state beyond
// tracing level."
type VerbosityLevel struct {
	level int
}

func (v *VerbosityLevel) Get() int  { return v.level }
func (v *VerbosityLevel) Set(n int) { v.level = n }

// Server answers management queries over a socket-like collaborator; the
// event loop is the only caller, handing it each datagram received on the
// management fd.
type Server struct {
	peers      *registry.PeerTable
	supernodes *registry.SupernodeList
	verbosity  *VerbosityLevel
	community  domain.Community
}

// NewServer builds a management Server reading from peers/supernodes and
// able to mutate verbosity.
func NewServer(peers *registry.PeerTable, supernodes *registry.SupernodeList, verbosity *VerbosityLevel, community domain.Community) *Server {
	return &Server{peers: peers, supernodes: supernodes, verbosity: verbosity, community: community}
}

// Handle processes one request line and returns the ASCII reply to send
// back to the requester, terminated by a blank line per SPEC_FULL.md §6.
func (s *Server) Handle(request string) string {
	request = strings.TrimSpace(request)
	fields := strings.Fields(request)
	if len(fields) == 0 {
		return "ERROR empty request\n\n"
	}

	switch strings.ToUpper(fields[0]) {
	case "STATS":
		return s.handleStats()
	case "PEERS":
		return s.handlePeers()
	case "VERBOSE":
		return s.handleVerbose(fields)
	default:
		return fmt.Sprintf("ERROR unknown command %q\n\n", fields[0])
	}
}

func (s *Server) handleStats() string {
	var b strings.Builder
	fmt.Fprintf(&b, "community %s\n", s.community)
	fmt.Fprintf(&b, "peers %d\n", s.peers.Len())
	fmt.Fprintf(&b, "supernodes %d\n", s.supernodes.Len())
	fmt.Fprintf(&b, "verbosity %d\n", s.verbosity.Get())
	b.WriteString("\n")
	return b.String()
}

func (s *Server) handlePeers() string {
	var b strings.Builder
	s.peers.Range(func(p *domain.Peer) {
		fmt.Fprintf(&b, "%s %s %s in=%d/%d out=%d/%d\n",
			p.MAC, p.Socket, p.State,
			p.Counters.PacketsIn, p.Counters.BytesIn,
			p.Counters.PacketsOut, p.Counters.BytesOut)
	})
	b.WriteString("\n")
	return b.String()
}

func (s *Server) handleVerbose(fields []string) string {
	if len(fields) < 2 {
		return "ERROR VERBOSE requires a level\n\n"
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Sprintf("ERROR invalid verbosity %q\n\n", fields[1])
	}
	s.verbosity.Set(n)
	return fmt.Sprintf("OK verbosity=%d\n\n", n)
}

// IsLocal reports whether from originates from the loopback interface, the
// enforcement point for "local-only" in spec.md §4.6.
func IsLocal(from netip.AddrPort) bool {
	return from.Addr().IsLoopback()
}
