package wire

import "overlink/domain"

// Federation carries a PACKET body between supernodes that federate to
// extend reachability across communities they each serve, per spec.md §4.1.
// The payload is an opaque, already-encoded inner packet (typically a
// Packet or PeerInfo body) relayed unmodified.
type Federation struct {
	SrcMAC  domain.MAC
	Payload []byte
}

func (f Federation) Encode(buf *Buffer) error {
	if err := encodeMAC(buf, f.SrcMAC); err != nil {
		return err
	}
	return buf.PutBytes(f.Payload)
}

func DecodeFederation(buf *Buffer) (Federation, error) {
	var f Federation
	var err error
	if f.SrcMAC, err = decodeMAC(buf); err != nil {
		return f, err
	}
	f.Payload = buf.Rest()
	buf.Skip(buf.Remaining())
	return f, nil
}
