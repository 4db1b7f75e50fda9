package wire

import "overlink/domain"

// Packet is the PACKET (data) body: an encapsulated Ethernet frame traveling
// edge-to-edge or edge-to-supernode-to-edge, per spec.md §4.1. Payload is the
// transform-encoded ciphertext (which itself wraps the compressed Ethernet
// frame); the codec here never touches compression or encryption, it only
// frames the metadata that precedes the ciphertext.
type Packet struct {
	SrcMAC      domain.MAC
	DstMAC      domain.MAC
	Socket      domain.Socket // optional return socket, for supernode relay learning
	Compression uint8
	Transform   uint8
	Payload     []byte
}

func (p Packet) Encode(buf *Buffer, hasSocket bool) error {
	if err := encodeMAC(buf, p.SrcMAC); err != nil {
		return err
	}
	if err := encodeMAC(buf, p.DstMAC); err != nil {
		return err
	}
	if err := encodeSocket(buf, p.Socket, hasSocket); err != nil {
		return err
	}
	if err := buf.PutUint8(p.Compression); err != nil {
		return err
	}
	if err := buf.PutUint8(p.Transform); err != nil {
		return err
	}
	return buf.PutBytes(p.Payload)
}

// DecodePacket reads a Packet, taking the remainder of buf as Payload
// (aliased, not copied — the caller owns the lifetime of the decode buffer).
func DecodePacket(buf *Buffer, hasSocket bool) (Packet, error) {
	var p Packet
	var err error
	if p.SrcMAC, err = decodeMAC(buf); err != nil {
		return p, err
	}
	if p.DstMAC, err = decodeMAC(buf); err != nil {
		return p, err
	}
	if p.Socket, err = decodeSocket(buf, hasSocket); err != nil {
		return p, err
	}
	if p.Compression, err = buf.GetUint8(); err != nil {
		return p, err
	}
	if p.Transform, err = buf.GetUint8(); err != nil {
		return p, err
	}
	p.Payload = buf.Rest()
	_ = buf.Skip(buf.Remaining())
	return p, nil
}
