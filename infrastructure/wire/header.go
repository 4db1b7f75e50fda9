package wire

import (
	"errors"
	"fmt"

	"overlink/domain"
)

// ProtocolVersion is the single supported wire version; decoding any other
// value fails (spec.md §4.1, §8 scenario 1: "version byte 3").
const ProtocolVersion uint8 = 3

// ErrVersionMismatch is returned when the decoded version byte does not
// equal ProtocolVersion.
var ErrVersionMismatch = errors.New("wire: protocol version mismatch")

// ErrUnknownPacketType is returned when the flags field's type bits do not
// name a known PacketType.
var ErrUnknownPacketType = errors.New("wire: unknown packet type")

// Flags bit layout: low 5 bits carry the packet type (MaskType, up to 32
// values); the remaining high bits carry option flags (MaskBits), including
// FlagSocket.
const (
	MaskType uint16 = 0x001F
	MaskBits uint16 = ^MaskType

	// FlagSocket means "an explicit source/return socket follows" in the
	// packet body, per spec.md §4.1.
	FlagSocket uint16 = 0x0020
)

// PacketType is the low-bits packet-type discriminant of the flags field.
type PacketType uint16

const (
	PacketRegister         PacketType = 0
	PacketDeregister       PacketType = 1
	PacketData             PacketType = 2 // "PACKET" in spec.md
	PacketRegisterAck      PacketType = 3
	PacketRegisterSuper    PacketType = 4
	PacketRegisterSuperAck PacketType = 5
	PacketRegisterSuperNak PacketType = 6
	PacketFederation       PacketType = 7
	PacketPeerInfo         PacketType = 8
	PacketQueryPeer        PacketType = 9
	PacketUnregisterSuper  PacketType = 10
)

func (t PacketType) String() string {
	switch t {
	case PacketRegister:
		return "REGISTER"
	case PacketDeregister:
		return "DEREGISTER"
	case PacketData:
		return "PACKET"
	case PacketRegisterAck:
		return "REGISTER_ACK"
	case PacketRegisterSuper:
		return "REGISTER_SUPER"
	case PacketRegisterSuperAck:
		return "REGISTER_SUPER_ACK"
	case PacketRegisterSuperNak:
		return "REGISTER_SUPER_NAK"
	case PacketFederation:
		return "FEDERATION"
	case PacketPeerInfo:
		return "PEER_INFO"
	case PacketQueryPeer:
		return "QUERY_PEER"
	case PacketUnregisterSuper:
		return "UNREGISTER_SUPER"
	default:
		return fmt.Sprintf("PacketType(%d)", uint16(t))
	}
}

func isKnownPacketType(t PacketType) bool {
	return t <= PacketUnregisterSuper
}

// CommonHeader is the fixed prefix of every control and data packet, per
// spec.md §4.1.
type CommonHeader struct {
	Version   uint8
	TTL       uint8
	Flags     uint16
	Community domain.Community
}

// Type extracts the packet type from Flags.
func (h CommonHeader) Type() PacketType { return PacketType(h.Flags & MaskType) }

// HasSocket reports whether FlagSocket is set.
func (h CommonHeader) HasSocket() bool { return h.Flags&FlagSocket != 0 }

// NewCommonHeader builds a header for typ with TTL ttl in community c; the
// SOCKET bit is set by the caller via WithSocket, matching the encoding rule
// that the bit must be set iff the body carries a socket.
func NewCommonHeader(typ PacketType, ttl uint8, c domain.Community) CommonHeader {
	return CommonHeader{Version: ProtocolVersion, TTL: ttl, Flags: uint16(typ), Community: c}
}

// WithSocket returns a copy of h with FlagSocket set according to present.
func (h CommonHeader) WithSocket(present bool) CommonHeader {
	if present {
		h.Flags |= FlagSocket
	} else {
		h.Flags &^= FlagSocket
	}
	return h
}

// Encode writes the common header at the buffer's cursor and returns the
// number of bytes written (spec.md §9, Open Question 2: encode functions
// return a usable non-negative byte count, not a sentinel -1).
func (h CommonHeader) Encode(buf *Buffer) (int, error) {
	start := buf.Pos()
	if err := buf.PutUint8(h.Version); err != nil {
		return 0, err
	}
	if err := buf.PutUint8(h.TTL); err != nil {
		return 0, err
	}
	if err := buf.PutUint16(h.Flags); err != nil {
		return 0, err
	}
	cb := h.Community.Bytes()
	if err := buf.PutBytes(cb[:]); err != nil {
		return 0, err
	}
	return buf.Pos() - start, nil
}

// DecodeCommonHeader reads a CommonHeader from buf, rejecting a version
// mismatch before any other validation.
func DecodeCommonHeader(buf *Buffer) (CommonHeader, error) {
	var h CommonHeader

	v, err := buf.GetUint8()
	if err != nil {
		return h, err
	}
	if v != ProtocolVersion {
		return h, ErrVersionMismatch
	}
	h.Version = v

	ttl, err := buf.GetUint8()
	if err != nil {
		return h, err
	}
	h.TTL = ttl

	flags, err := buf.GetUint16()
	if err != nil {
		return h, err
	}
	h.Flags = flags

	cb, err := buf.GetBytes(domain.CommunitySize)
	if err != nil {
		return h, err
	}
	var arr [domain.CommunitySize]byte
	copy(arr[:], cb)
	h.Community = domain.CommunityFromBytes(arr)

	return h, nil
}

// encodeSocket writes s iff present is true; present is the caller's
// SOCKET flag, and the body's socket field follows it.
func encodeSocket(buf *Buffer, s domain.Socket, present bool) error {
	if !present {
		return nil
	}
	if err := buf.PutUint16(uint16(s.Family) | familyFlagBits(s)); err != nil {
		return err
	}
	switch s.Family {
	case domain.FamilyIPv4:
		if err := buf.PutBytes(s.Addr[:4]); err != nil {
			return err
		}
	case domain.FamilyIPv6:
		if err := buf.PutBytes(s.Addr[:16]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("wire: cannot encode socket with no family set")
	}
	return buf.PutUint16(s.Port)
}

// familyFlagBits marks IPv6 in the top bit of the 16-bit family+flags wire
// field, per spec.md §3 ("top bit = IPv6").
func familyFlagBits(s domain.Socket) uint16 {
	if s.Family == domain.FamilyIPv6 {
		return 0x8000
	}
	return 0
}

// decodeSocket reads a socket iff present is true.
func decodeSocket(buf *Buffer, present bool) (domain.Socket, error) {
	var s domain.Socket
	if !present {
		return s, nil
	}
	famField, err := buf.GetUint16()
	if err != nil {
		return s, err
	}
	isV6 := famField&0x8000 != 0
	if isV6 {
		s.Family = domain.FamilyIPv6
		b, err := buf.GetBytes(16)
		if err != nil {
			return s, err
		}
		copy(s.Addr[:], b)
	} else {
		s.Family = domain.FamilyIPv4
		b, err := buf.GetBytes(4)
		if err != nil {
			return s, err
		}
		copy(s.Addr[:4], b)
	}
	port, err := buf.GetUint16()
	if err != nil {
		return s, err
	}
	s.Port = port
	return s, nil
}
