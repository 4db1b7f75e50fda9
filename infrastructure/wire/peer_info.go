package wire

import "overlink/domain"

// QueryPeer is sent to a supernode to ask for a target edge's current
// socket, when a direct P2P attempt has stalled or a peer entry is unknown.
type QueryPeer struct {
	SrcMAC    domain.MAC
	TargetMAC domain.MAC
}

func (q QueryPeer) Encode(buf *Buffer) error {
	if err := encodeMAC(buf, q.SrcMAC); err != nil {
		return err
	}
	return encodeMAC(buf, q.TargetMAC)
}

func DecodeQueryPeer(buf *Buffer) (QueryPeer, error) {
	var q QueryPeer
	var err error
	if q.SrcMAC, err = decodeMAC(buf); err != nil {
		return q, err
	}
	if q.TargetMAC, err = decodeMAC(buf); err != nil {
		return q, err
	}
	return q, nil
}

// PeerInfo is the supernode's (or edge's) answer to a QueryPeer, or an
// unsolicited announcement of a newly learned peer socket, per spec.md §4.1:
// {aflags u16, srcMAC, queried MAC, socket, selection metric}.
type PeerInfo struct {
	AFlags    uint16
	SrcMAC    domain.MAC
	TargetMAC domain.MAC
	Socket    domain.Socket
	Metric    uint32
}

func (p PeerInfo) Encode(buf *Buffer) error {
	if err := buf.PutUint16(p.AFlags); err != nil {
		return err
	}
	if err := encodeMAC(buf, p.SrcMAC); err != nil {
		return err
	}
	if err := encodeMAC(buf, p.TargetMAC); err != nil {
		return err
	}
	if err := encodeSocket(buf, p.Socket, true); err != nil {
		return err
	}
	return buf.PutUint32(p.Metric)
}

func DecodePeerInfo(buf *Buffer) (PeerInfo, error) {
	var p PeerInfo
	var err error
	if p.AFlags, err = buf.GetUint16(); err != nil {
		return p, err
	}
	if p.SrcMAC, err = decodeMAC(buf); err != nil {
		return p, err
	}
	if p.TargetMAC, err = decodeMAC(buf); err != nil {
		return p, err
	}
	if p.Socket, err = decodeSocket(buf, true); err != nil {
		return p, err
	}
	if p.Metric, err = buf.GetUint32(); err != nil {
		return p, err
	}
	return p, nil
}
