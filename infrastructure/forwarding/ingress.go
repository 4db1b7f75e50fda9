package forwarding

import (
	"fmt"
	"time"

	"overlink/application"
	"overlink/domain"
	"overlink/infrastructure/crypto"
	"overlink/infrastructure/wire"
)

// ControlPacket is a decoded non-PACKET body, handed off to the
// registration engine (C5) rather than the TAP device, per spec.md §4.6
// step 5. Exactly one of the typed fields is non-nil, matching Type.
type ControlPacket struct {
	Type PacketKind
	From domain.Socket

	Register         *wire.Register
	RegisterAck      *wire.RegisterAck
	Deregister       *wire.Deregister
	RegisterSuper    *wire.RegisterSuper
	RegisterSuperAck *wire.RegisterSuperAck
	RegisterSuperNak *wire.RegisterSuperNak
	UnregisterSuper  *wire.UnregisterSuper
	PeerInfo         *wire.PeerInfo
	QueryPeer        *wire.QueryPeer
	Federation       *wire.Federation
}

// PacketKind aliases wire.PacketType for readability at call sites that
// don't otherwise touch the wire package.
type PacketKind = wire.PacketType

// IngressOutput is the result of running one received UDP datagram through
// the ingress pipeline. Exactly one of TAPFrame/Control is non-nil unless
// Dropped is true.
type IngressOutput struct {
	TAPFrame []byte
	Control  *ControlPacket
	Dropped  bool
}

// Ingress runs datagram, received from peer, through the five-step pipeline
// of spec.md §4.6.
func (p *Pipeline) Ingress(datagram []byte, from domain.Socket, now time.Time) (*IngressOutput, error) {
	header, buf, err := p.decodeIncomingHeader(datagram)
	if err != nil {
		return &IngressOutput{Dropped: true}, nil //nolint:nilerr // malformed/undecryptable frames are silently dropped, not surfaced as pipeline errors
	}
	if header.Community != p.cfg.Community {
		return &IngressOutput{Dropped: true}, nil
	}

	switch header.Type() {
	case wire.PacketData:
		return p.ingressData(header, buf, from, now)
	case wire.PacketRegister:
		body, err := wire.DecodeRegister(buf, header.HasSocket())
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, Register: &body}}, nil
	case wire.PacketRegisterAck:
		body, err := wire.DecodeRegisterAck(buf, header.HasSocket())
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, RegisterAck: &body}}, nil
	case wire.PacketDeregister:
		body, err := wire.DecodeDeregister(buf)
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, Deregister: &body}}, nil
	case wire.PacketRegisterSuper:
		body, err := wire.DecodeRegisterSuper(buf, header.HasSocket())
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, RegisterSuper: &body}}, nil
	case wire.PacketRegisterSuperAck:
		body, err := wire.DecodeRegisterSuperAck(buf)
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, RegisterSuperAck: &body}}, nil
	case wire.PacketRegisterSuperNak:
		body, err := wire.DecodeRegisterSuperNak(buf)
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, RegisterSuperNak: &body}}, nil
	case wire.PacketUnregisterSuper:
		body, err := wire.DecodeUnregisterSuper(buf)
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, UnregisterSuper: &body}}, nil
	case wire.PacketPeerInfo:
		body, err := wire.DecodePeerInfo(buf)
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, PeerInfo: &body}}, nil
	case wire.PacketQueryPeer:
		body, err := wire.DecodeQueryPeer(buf)
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, QueryPeer: &body}}, nil
	case wire.PacketFederation:
		body, err := wire.DecodeFederation(buf)
		if err != nil {
			return &IngressOutput{Dropped: true}, nil
		}
		return &IngressOutput{Control: &ControlPacket{Type: header.Type(), From: from, Federation: &body}}, nil
	default:
		return &IngressOutput{Dropped: true}, nil
	}
}

// decodeIncomingHeader reverses header encryption (if enabled) and decodes
// the CommonHeader, returning a Buffer positioned at the start of the body
// for the caller to continue decoding from.
func (p *Pipeline) decodeIncomingHeader(datagram []byte) (wire.CommonHeader, *wire.Buffer, error) {
	if p.headerCipher == nil {
		buf := wire.NewBuffer(datagram)
		h, err := wire.DecodeCommonHeader(buf)
		return h, buf, err
	}

	encSize := p.headerCipher.EncryptedSize()
	communityTailSize := domain.CommunitySize - (crypto.HeaderPlainSize - 4) // header prefix minus version/ttl/flags
	if len(datagram) < encSize+communityTailSize {
		return wire.CommonHeader{}, nil, fmt.Errorf("forwarding: datagram shorter than encrypted header")
	}
	plainHeader, err := p.headerCipher.Decrypt(datagram[:encSize])
	if err != nil {
		return wire.CommonHeader{}, nil, err
	}

	full := make([]byte, 0, len(plainHeader)+len(datagram)-encSize)
	full = append(full, plainHeader...)
	full = append(full, datagram[encSize:]...)

	buf := wire.NewBuffer(full)
	h, err := wire.DecodeCommonHeader(buf)
	return h, buf, err
}

// ingressData implements step 4: replay check, decrypt, decompress, loop
// protection, peer learning, ingress filter, and handoff to TAP.
func (p *Pipeline) ingressData(header wire.CommonHeader, buf *wire.Buffer, from domain.Socket, now time.Time) (*IngressOutput, error) {
	pkt, err := wire.DecodePacket(buf, header.HasSocket())
	if err != nil {
		return &IngressOutput{Dropped: true}, nil
	}

	ts, err := crypto.PeekTimestamp(pkt.Payload)
	if err != nil {
		return &IngressOutput{Dropped: true}, nil
	}
	window := p.replayWindowFor(pkt.SrcMAC)
	if err := window.Check(ts, now); err != nil {
		return &IngressOutput{Dropped: true}, nil
	}

	plain := make([]byte, len(pkt.Payload))
	n, err := p.ciphers.Decode(application.TransformID(pkt.Transform), pkt.Payload, plain)
	if err != nil {
		return &IngressOutput{Dropped: true}, nil
	}
	window.Accept(ts)

	compressor, ok := p.compressSet.Get(application.CompressionID(pkt.Compression))
	if !ok {
		return &IngressOutput{Dropped: true}, nil
	}
	ethFrame, err := compressor.Decompress(plain[:n], maxFrameSize)
	if err != nil {
		return &IngressOutput{Dropped: true}, nil
	}

	if pkt.SrcMAC == p.cfg.SelfMAC {
		return &IngressOutput{Dropped: true}, nil
	}

	peer, _ := p.peers.FindOrInsert(pkt.SrcMAC, from, now)
	peer.Touch(now)

	if !p.filters.Allow(ethFrame) {
		return &IngressOutput{Dropped: true}, nil
	}

	peer.Counters.PacketsIn++
	peer.Counters.BytesIn += uint64(len(ethFrame))

	return &IngressOutput{TAPFrame: ethFrame}, nil
}
