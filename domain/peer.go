package domain

import "time"

// PeerState is the registration state of a remote peer, per spec.md §4.5.
type PeerState int

const (
	PeerUnknown PeerState = iota
	PeerPending
	PeerDirect
	PeerViaSupernode
)

func (s PeerState) String() string {
	switch s {
	case PeerUnknown:
		return "UNKNOWN"
	case PeerPending:
		return "PENDING"
	case PeerDirect:
		return "DIRECT"
	case PeerViaSupernode:
		return "VIA_SUPERNODE"
	default:
		return "INVALID"
	}
}

// Counters tracks per-peer traffic for management-channel stats reporting.
// Not part of the distilled spec; supplements it per SPEC_FULL.md §3.
type Counters struct {
	PacketsIn  uint64
	PacketsOut uint64
	BytesIn    uint64
	BytesOut   uint64
}

// Peer is a single remote endpoint record: {MAC, last known socket, last_seen
// timestamp, optional selection metric}, per spec.md §3.
type Peer struct {
	MAC       MAC
	Socket    Socket
	LastSeen  time.Time
	Metric    uint32
	State     PeerState
	Cookie    uint32 // outstanding REGISTER cookie while PENDING
	PingTries int    // REGISTER attempts sent without an ACK
	Counters  Counters
}

// Touch refreshes the peer's last-seen timestamp to now.
func (p *Peer) Touch(now time.Time) {
	p.LastSeen = now
}
