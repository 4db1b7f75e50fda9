package forwarding

import (
	"errors"
	"fmt"
	"time"

	"overlink/domain"
	"overlink/infrastructure/wire"
)

// ErrFrameTooShort is returned when a frame read from TAP is too small to
// hold an Ethernet header.
var ErrFrameTooShort = errors.New("forwarding: frame shorter than an Ethernet header")

// EgressOutput is the result of running one Ethernet frame through the
// egress pipeline. Packet is nil if the frame was dropped. Register carries
// an additional REGISTER control frame the caller must also send, when
// egress just initiated a direct-registration attempt against a
// newly-unknown destination (spec.md §4.6 step 4).
type EgressOutput struct {
	Packet   *Frame
	Register *Frame
	Dropped  bool
}

// Egress runs frame (an Ethernet frame read from the TAP device) through the
// ten-step pipeline of spec.md §4.6, returning the wire frame(s) to send.
func (p *Pipeline) Egress(frame []byte, now time.Time) (*EgressOutput, error) {
	if len(frame) < ethHeaderLen {
		return nil, ErrFrameTooShort
	}
	dst, err := domain.ParseMAC(frame[0:6])
	if err != nil {
		return nil, err
	}

	// Step 2: multicast/broadcast policy.
	if dst.IsMultiBroadcast() && p.cfg.DropMulticast {
		return &EgressOutput{Dropped: true}, nil
	}

	// Step 3: filter rules.
	if !p.filters.Allow(frame) {
		return &EgressOutput{Dropped: true}, nil
	}

	target, registerOut, err := p.resolveEgressTarget(dst, now)
	if err != nil {
		return nil, err
	}

	// Step 5: overlay-subnet routing restriction.
	if !p.cfg.AllowRouting && !destinationIn(frame, p.cfg.OverlaySubnet) {
		return &EgressOutput{Dropped: true}, nil
	}

	packetFrame, err := p.encodePacket(dst, frame)
	if err != nil {
		return nil, err
	}

	if peer, exists := p.peers.Get(dst); exists {
		peer.Counters.PacketsOut++
		peer.Counters.BytesOut += uint64(len(frame))
	}

	return &EgressOutput{
		Packet:   &Frame{Target: target, Bytes: packetFrame},
		Register: registerOut,
	}, nil
}

// resolveEgressTarget implements step 4: direct peer if DIRECT, otherwise
// the current supernode, initiating a registration attempt along the way if
// dst is UNKNOWN and direct peering is allowed.
func (p *Pipeline) resolveEgressTarget(dst domain.MAC, now time.Time) (domain.Socket, *Frame, error) {
	if dst.IsMultiBroadcast() {
		sn, err := p.supernodes.Current()
		if err != nil {
			return domain.Socket{}, nil, err
		}
		return sn.Socket, nil, nil
	}

	peer, exists := p.peers.Get(dst)
	if exists && peer.State == domain.PeerDirect {
		return peer.Socket, nil, nil
	}

	var registerOut *Frame
	unknown := !exists || peer.State == domain.PeerUnknown
	if p.cfg.AllowP2P && unknown {
		_, cookie, began := p.engine.BeginDirectAttempt(dst, now)
		if began {
			f, err := p.buildRegisterFrame(dst, cookie)
			if err != nil {
				return domain.Socket{}, nil, err
			}
			registerOut = f
		}
	}

	sn, err := p.supernodes.Current()
	if err != nil {
		return domain.Socket{}, nil, err
	}
	return sn.Socket, registerOut, nil
}

// buildRegisterFrame encodes a REGISTER relayed via the current supernode,
// the initial hole-punch probe toward dst (spec.md §4.5). Per spec.md §4.4
// line 88 ("a REGISTER with SOCKET flag is sent through the current
// supernode"), it carries this edge's own public socket — once known from a
// prior REGISTER_SUPER_ACK — so the far edge's REGISTER_ACK can be sent
// directly back instead of only through the relaying supernode.
func (p *Pipeline) buildRegisterFrame(dst domain.MAC, cookie uint32) (*Frame, error) {
	sn, err := p.supernodes.Current()
	if err != nil {
		return nil, err
	}
	hasSocket := p.selfSocket.IsSet()
	body := wire.Register{
		Cookie:  cookie,
		SrcMAC:  p.cfg.SelfMAC,
		DstMAC:  dst,
		Socket:  p.selfSocket,
		DevAddr: p.cfg.DevAddr,
		DevDesc: p.cfg.DevDesc,
	}
	bytes, err := p.assembleControlFrame(wire.PacketRegister, hasSocket, func(buf *wire.Buffer) error {
		return body.Encode(buf, hasSocket)
	})
	if err != nil {
		return nil, err
	}
	return &Frame{Target: sn.Socket, Bytes: bytes}, nil
}

// BuildDirectRegisterFrame encodes a REGISTER addressed straight to target
// (a socket learned from a supernode's PEER_INFO reply), rather than relayed
// via the current supernode, per spec.md §4.5: "on receipt, initiate
// REGISTER punch." It carries this edge's own public socket under the same
// SOCKET-flag rule as buildRegisterFrame.
func (p *Pipeline) BuildDirectRegisterFrame(dst domain.MAC, cookie uint32, target domain.Socket) (*Frame, error) {
	hasSocket := p.selfSocket.IsSet()
	body := wire.Register{
		Cookie:  cookie,
		SrcMAC:  p.cfg.SelfMAC,
		DstMAC:  dst,
		Socket:  p.selfSocket,
		DevAddr: p.cfg.DevAddr,
		DevDesc: p.cfg.DevDesc,
	}
	bytes, err := p.assembleControlFrame(wire.PacketRegister, hasSocket, func(buf *wire.Buffer) error {
		return body.Encode(buf, hasSocket)
	})
	if err != nil {
		return nil, err
	}
	return &Frame{Target: target, Bytes: bytes}, nil
}

// BuildRegisterAckFrame encodes a REGISTER_ACK confirming a received
// REGISTER, addressed to target (the sender's advertised socket, or the
// envelope's source socket if none was advertised), per spec.md §4.5:
// "a REGISTER_ACK reply may be sent to confirm."
func (p *Pipeline) BuildRegisterAckFrame(cookie uint32, dst domain.MAC, target domain.Socket) (*Frame, error) {
	body := wire.RegisterAck{
		Cookie: cookie,
		DstMAC: dst,
		SrcMAC: p.cfg.SelfMAC,
	}
	bytes, err := p.assembleControlFrame(wire.PacketRegisterAck, false, func(buf *wire.Buffer) error {
		return body.Encode(buf, false)
	})
	if err != nil {
		return nil, err
	}
	return &Frame{Target: target, Bytes: bytes}, nil
}

// BuildQueryPeerFrame encodes a QUERY_PEER addressed to the current
// supernode, asking for target's known socket, per spec.md §4.5: "if target
// MAC not in tables, send QUERY_PEER to supernode."
func (p *Pipeline) BuildQueryPeerFrame(target domain.MAC) (*Frame, error) {
	sn, err := p.supernodes.Current()
	if err != nil {
		return nil, err
	}
	body := wire.QueryPeer{SrcMAC: p.cfg.SelfMAC, TargetMAC: target}
	bytes, err := p.assembleControlFrame(wire.PacketQueryPeer, false, func(buf *wire.Buffer) error {
		return body.Encode(buf)
	})
	if err != nil {
		return nil, err
	}
	return &Frame{Target: sn.Socket, Bytes: bytes}, nil
}

// BuildRegisterSuperFrame encodes a REGISTER_SUPER addressed to target, the
// self-registration request the registration engine's maintenance timer
// fires every register_interval seconds (spec.md §4.5).
func (p *Pipeline) BuildRegisterSuperFrame(cookie uint32, target domain.Socket) (*Frame, error) {
	body := wire.RegisterSuper{
		Cookie:  cookie,
		SrcMAC:  p.cfg.SelfMAC,
		DevAddr: p.cfg.DevAddr,
		DevDesc: p.cfg.DevDesc,
		Auth:    p.cfg.Auth,
	}
	bytes, err := p.assembleControlFrame(wire.PacketRegisterSuper, false, func(buf *wire.Buffer) error {
		return body.Encode(buf, false)
	})
	if err != nil {
		return nil, err
	}
	return &Frame{Target: target, Bytes: bytes}, nil
}

// BuildDeregisterFrame encodes a DEREGISTER addressed to target, sent best
// effort to supernodes and known peers on orderly shutdown (spec.md §5:
// "send DEREGISTER to supernodes and known peers (best effort, ignore
// errors)").
func (p *Pipeline) BuildDeregisterFrame(target domain.Socket) (*Frame, error) {
	body := wire.Deregister{SrcMAC: p.cfg.SelfMAC}
	bytes, err := p.assembleControlFrame(wire.PacketDeregister, false, func(buf *wire.Buffer) error {
		return body.Encode(buf)
	})
	if err != nil {
		return nil, err
	}
	return &Frame{Target: target, Bytes: bytes}, nil
}

// encodePacket implements steps 6-9: build the PACKET body, compress, then
// encrypt the Ethernet frame, then optionally header-encrypt the result.
func (p *Pipeline) encodePacket(dst domain.MAC, ethFrame []byte) ([]byte, error) {
	compressionID, compressed, err := p.compressPolicy.CompressForEgress(ethFrame)
	if err != nil {
		return nil, fmt.Errorf("forwarding: compress: %w", err)
	}

	overhead, err := p.ciphers.Overhead(p.cfg.Transform)
	if err != nil {
		return nil, err
	}
	ciphertext := make([]byte, len(compressed)+overhead)
	n, err := p.ciphers.Encode(p.cfg.Transform, compressed, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("forwarding: encrypt: %w", err)
	}
	ciphertext = ciphertext[:n]

	body := wire.Packet{
		SrcMAC:      p.cfg.SelfMAC,
		DstMAC:      dst,
		Compression: uint8(compressionID),
		Transform:   uint8(p.cfg.Transform),
		Payload:     ciphertext,
	}
	return p.assembleControlFrame(wire.PacketData, false, func(buf *wire.Buffer) error {
		return body.Encode(buf, false)
	})
}
