package forwarding

import (
	"fmt"
	"net/netip"
	"time"

	"overlink/application"
	"overlink/domain"
	"overlink/infrastructure/compression"
	"overlink/infrastructure/crypto"
	"overlink/infrastructure/registration"
	"overlink/infrastructure/registry"
	"overlink/infrastructure/wire"
)

// Pipeline implements the edge's egress (TAP→UDP) and ingress (UDP→TAP)
// dataplane, per spec.md §4.6. It is not safe for concurrent use — the
// event loop (C7) is its sole caller, matching the single-threaded
// ownership rule of spec.md §3.
type Pipeline struct {
	cfg Config

	peers      *registry.PeerTable
	supernodes *registry.SupernodeList
	engine     *registration.Engine

	ciphers        *CipherSuite
	compressPolicy *compression.Policy
	compressSet    *compression.Set
	headerCipher   *crypto.HeaderCipher // nil when HeaderEncryption is disabled
	filters        *FilterSet
	clock          application.Clock
	logger         application.Logger

	frameTolerance  time.Duration
	jitterTolerance time.Duration
	replay          map[domain.MAC]*crypto.ReplayWindow

	// selfSocket is this edge's public socket as last reported by a
	// supernode's REGISTER_SUPER_ACK (spec.md §4.5: "record the supernode's
	// view of this edge's public socket"). Zero/unset until the first
	// successful self-registration round completes.
	selfSocket domain.Socket
}

// NewPipeline wires every C6 collaborator together. headerCipher may be nil
// iff cfg.HeaderEncryption is false.
func NewPipeline(
	cfg Config,
	peers *registry.PeerTable,
	supernodes *registry.SupernodeList,
	engine *registration.Engine,
	ciphers *CipherSuite,
	compressPolicy *compression.Policy,
	compressSet *compression.Set,
	headerCipher *crypto.HeaderCipher,
	filters *FilterSet,
	clock application.Clock,
	frameTolerance, jitterTolerance time.Duration,
	logger application.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:             cfg,
		peers:           peers,
		supernodes:      supernodes,
		engine:          engine,
		ciphers:         ciphers,
		compressPolicy:  compressPolicy,
		compressSet:     compressSet,
		headerCipher:    headerCipher,
		filters:         filters,
		clock:           clock,
		logger:          logger,
		frameTolerance:  frameTolerance,
		jitterTolerance: jitterTolerance,
		replay:          make(map[domain.MAC]*crypto.ReplayWindow),
	}
}

// SetSelfSocket records this edge's public socket, as last learned from a
// supernode's REGISTER_SUPER_ACK. Subsequent REGISTER frames carry it with
// the SOCKET flag set so the far edge can reply directly instead of only
// through the relaying supernode (spec.md §4.4/§4.5).
func (p *Pipeline) SetSelfSocket(s domain.Socket) {
	p.selfSocket = s
}

// SetOverlaySubnet updates the overlay-subnet routing restriction (spec.md
// §4.6 step 5), used when a supernode grants this edge's address via
// sn_assign after startup.
func (p *Pipeline) SetOverlaySubnet(prefix netip.Prefix) {
	p.cfg.OverlaySubnet = prefix
}

// replayWindowFor returns (creating if needed) the per-sender replay window
// used to reject stale or duplicate PACKETs, per spec.md §4.2.
func (p *Pipeline) replayWindowFor(mac domain.MAC) *crypto.ReplayWindow {
	w, ok := p.replay[mac]
	if !ok {
		w = crypto.NewReplayWindow(p.frameTolerance, p.jitterTolerance)
		p.replay[mac] = w
	}
	return w
}

// Frame is a fully assembled wire frame ready for sendto, paired with its
// destination.
type Frame struct {
	Target domain.Socket
	Bytes  []byte
}

// assembleControlFrame encodes a CommonHeader for typ followed by a
// caller-supplied body, optionally header-encrypting the result.
func (p *Pipeline) assembleControlFrame(typ wire.PacketType, hasSocket bool, encodeBody func(*wire.Buffer) error) ([]byte, error) {
	header := wire.NewCommonHeader(typ, p.cfg.TTL, p.cfg.Community).WithSocket(hasSocket)
	buf := wire.NewBuffer(make([]byte, maxFrameSize))
	if _, err := header.Encode(buf); err != nil {
		return nil, fmt.Errorf("forwarding: encode header: %w", err)
	}
	if err := encodeBody(buf); err != nil {
		return nil, fmt.Errorf("forwarding: encode body: %w", err)
	}
	return p.maybeEncryptHeader(buf.Written())
}

// maybeEncryptHeader applies header encryption to the leading
// crypto.HeaderPlainSize bytes of frame when enabled, leaving the remainder
// (the tail of the community field onward) untouched, per spec.md §4.2.
func (p *Pipeline) maybeEncryptHeader(frame []byte) ([]byte, error) {
	if p.headerCipher == nil {
		return frame, nil
	}
	if len(frame) < crypto.HeaderPlainSize {
		return nil, fmt.Errorf("forwarding: frame shorter than header-encryption prefix")
	}
	encHeader, err := p.headerCipher.Encrypt(frame[:crypto.HeaderPlainSize])
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(encHeader)+len(frame)-crypto.HeaderPlainSize)
	out = append(out, encHeader...)
	out = append(out, frame[crypto.HeaderPlainSize:]...)
	return out, nil
}
