// Package registration implements the edge's registration state machine
// (C5): per-peer UNKNOWN/PENDING/DIRECT/VIA_SUPERNODE transitions and
// self-registration with the current supernode, per spec.md §4.5.
package registration

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	"overlink/domain"
	"overlink/infrastructure/registry"
)

// Config bundles the tunable timers and counts that drive the state
// machine, per spec.md §4.5 and §6.
type Config struct {
	NPing               int           // REGISTER attempts before falling back to VIA_SUPERNODE
	RegistrationTimeout time.Duration // DIRECT -> UNKNOWN with no seen traffic
	RegisterInterval    time.Duration // self-registration period with the supernode
	RegisterTimeout     time.Duration // multiple of RegisterInterval with no ACK before rotating supernode
}

// DefaultConfig matches the reference defaults named in spec.md §6.
func DefaultConfig() Config {
	return Config{
		NPing:               3,
		RegistrationTimeout: 60 * time.Second,
		RegisterInterval:    20 * time.Second,
		RegisterTimeout:     60 * time.Second,
	}
}

// Engine drives peer registration transitions and self-registration with
// the supernode list. It holds no network state of its own — callers
// (the forwarding/event-loop layers) perform the actual sends the Engine
// decides on.
type Engine struct {
	cfg        Config
	peers      *registry.PeerTable
	supernodes *registry.SupernodeList

	selfWait       bool // sn_wait: true while awaiting our own REGISTER_SUPER_ACK
	selfCookie     uint32
	nextSelfDeadline time.Time
}

// NewEngine builds a registration engine over the given peer/supernode
// tables.
func NewEngine(cfg Config, peers *registry.PeerTable, supernodes *registry.SupernodeList) *Engine {
	return &Engine{cfg: cfg, peers: peers, supernodes: supernodes}
}

// Action is an outbound side effect the caller must perform; the Engine
// itself never touches the network.
type Action int

const (
	ActionNone Action = iota
	ActionSendRegister
	ActionSendRegisterAck
	ActionSendRegisterSuper
	ActionSendQueryPeer
)

// NewCookie generates a fresh 4-byte registration cookie.
func NewCookie() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint32(b[:])
}

// BeginDirectAttempt transitions mac from UNKNOWN to PENDING, per spec.md
// §4.5 ("when traffic to this MAC first appears and direct mode is
// allowed"). Returns the peer and the cookie to place in the outgoing
// REGISTER. If mac is already PENDING/DIRECT/VIA_SUPERNODE, it is returned
// unmodified with ok=false.
func (e *Engine) BeginDirectAttempt(mac domain.MAC, now time.Time) (peer *domain.Peer, cookie uint32, ok bool) {
	if p, exists := e.peers.Get(mac); exists && p.State != domain.PeerUnknown {
		return p, p.Cookie, false
	}
	cookie = NewCookie()
	p, _ := e.peers.FindOrInsert(mac, domain.Socket{}, now)
	p.State = domain.PeerPending
	p.Cookie = cookie
	p.PingTries = 0
	return p, cookie, true
}

// OnRegisterAck processes a REGISTER_ACK, promoting the matching PENDING
// peer to DIRECT (spec.md §4.5: "PENDING -> DIRECT: on matching
// REGISTER_ACK whose cookie and srcMAC match").
func (e *Engine) OnRegisterAck(mac domain.MAC, cookie uint32, from domain.Socket, now time.Time) bool {
	p, ok := e.peers.Get(mac)
	if !ok || p.State != domain.PeerPending || p.Cookie != cookie {
		return false
	}
	p.Socket = from
	p.State = domain.PeerDirect
	p.Touch(now)
	return true
}

// TickPingTimeout increments a PENDING peer's attempt counter; once it
// reaches NPing, the peer falls back to VIA_SUPERNODE (spec.md §4.5:
// "PENDING -> VIA_SUPERNODE: after N_PING attempts without ACK").
// Returns true if the peer should be re-sent a REGISTER (still PENDING, not
// yet exhausted).
func (e *Engine) TickPingTimeout(mac domain.MAC) (retry bool) {
	p, ok := e.peers.Get(mac)
	if !ok || p.State != domain.PeerPending {
		return false
	}
	p.PingTries++
	if p.PingTries >= e.cfg.NPing {
		p.State = domain.PeerViaSupernode
		return false
	}
	return true
}

// ExpireIdleDirectPeers demotes any DIRECT peer untouched for longer than
// RegistrationTimeout back to UNKNOWN (spec.md §4.5: "DIRECT -> UNKNOWN on
// REGISTRATION_TIMEOUT"), returning the MACs demoted.
func (e *Engine) ExpireIdleDirectPeers(now time.Time) []domain.MAC {
	var expired []domain.MAC
	cutoff := now.Add(-e.cfg.RegistrationTimeout)
	e.peers.Range(func(p *domain.Peer) {
		if p.State == domain.PeerDirect && p.LastSeen.Before(cutoff) {
			p.State = domain.PeerUnknown
			expired = append(expired, p.MAC)
		}
	})
	return expired
}

// Unregister forces mac back to UNKNOWN and drops its entry, per spec.md
// §4.5 ("Any -> UNKNOWN: on UNREGISTER or explicit purge").
func (e *Engine) Unregister(mac domain.MAC) {
	e.peers.Remove(mac)
}
