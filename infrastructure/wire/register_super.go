package wire

import "overlink/domain"

// RegisterSuper is the REGISTER_SUPER packet body: an edge's request to join
// a community via a supernode, per spec.md §4.1.
type RegisterSuper struct {
	Cookie  uint32
	SrcMAC  domain.MAC
	Socket  domain.Socket // optional
	DevAddr DeviceAddr
	DevDesc DevDesc
	Auth    Auth
}

func (r RegisterSuper) Encode(buf *Buffer, hasSocket bool) error {
	if err := buf.PutUint32(r.Cookie); err != nil {
		return err
	}
	if err := encodeMAC(buf, r.SrcMAC); err != nil {
		return err
	}
	if err := encodeSocket(buf, r.Socket, hasSocket); err != nil {
		return err
	}
	if err := r.DevAddr.Encode(buf); err != nil {
		return err
	}
	if err := r.DevDesc.Encode(buf); err != nil {
		return err
	}
	return r.Auth.Encode(buf)
}

func DecodeRegisterSuper(buf *Buffer, hasSocket bool) (RegisterSuper, error) {
	var r RegisterSuper
	var err error
	if r.Cookie, err = buf.GetUint32(); err != nil {
		return r, err
	}
	if r.SrcMAC, err = decodeMAC(buf); err != nil {
		return r, err
	}
	if r.Socket, err = decodeSocket(buf, hasSocket); err != nil {
		return r, err
	}
	if r.DevAddr, err = DecodeDeviceAddr(buf); err != nil {
		return r, err
	}
	if r.DevDesc, err = DecodeDevDesc(buf); err != nil {
		return r, err
	}
	if r.Auth, err = DecodeAuth(buf); err != nil {
		return r, err
	}
	return r, nil
}

// SupernodeInfo is one entry of a REGISTER_SUPER_ACK's federation list: a
// peer supernode this supernode knows of, offered so the edge can fail over
// without a fresh DNS/config resolution.
type SupernodeInfo struct {
	Socket domain.Socket
	MAC    domain.MAC
	Metric uint32
}

// RegisterSuperAck is the supernode's affirmative reply to REGISTER_SUPER,
// granting an overlay address, a registration lifetime, and the socket the
// supernode observed the request arrive from (always present, regardless of
// the SOCKET flag — spec.md §4.1: "mandatory socket").
type RegisterSuperAck struct {
	Cookie     uint32
	SrcMAC     domain.MAC
	DevAddr    DeviceAddr
	Lifetime   uint16
	Socket     domain.Socket
	Supernodes []SupernodeInfo
}

func (r RegisterSuperAck) Encode(buf *Buffer) error {
	if err := buf.PutUint32(r.Cookie); err != nil {
		return err
	}
	if err := encodeMAC(buf, r.SrcMAC); err != nil {
		return err
	}
	if err := r.DevAddr.Encode(buf); err != nil {
		return err
	}
	if err := buf.PutUint16(r.Lifetime); err != nil {
		return err
	}
	if err := encodeSocket(buf, r.Socket, true); err != nil {
		return err
	}
	if err := buf.PutUint8(uint8(len(r.Supernodes))); err != nil {
		return err
	}
	for _, sn := range r.Supernodes {
		if err := encodeSocket(buf, sn.Socket, true); err != nil {
			return err
		}
		if err := encodeMAC(buf, sn.MAC); err != nil {
			return err
		}
		if err := buf.PutUint32(sn.Metric); err != nil {
			return err
		}
	}
	return nil
}

func DecodeRegisterSuperAck(buf *Buffer) (RegisterSuperAck, error) {
	var r RegisterSuperAck
	var err error
	if r.Cookie, err = buf.GetUint32(); err != nil {
		return r, err
	}
	if r.SrcMAC, err = decodeMAC(buf); err != nil {
		return r, err
	}
	if r.DevAddr, err = DecodeDeviceAddr(buf); err != nil {
		return r, err
	}
	if r.Lifetime, err = buf.GetUint16(); err != nil {
		return r, err
	}
	if r.Socket, err = decodeSocket(buf, true); err != nil {
		return r, err
	}
	numSN, err := buf.GetUint8()
	if err != nil {
		return r, err
	}
	r.Supernodes = make([]SupernodeInfo, 0, numSN)
	for i := uint8(0); i < numSN; i++ {
		var sn SupernodeInfo
		if sn.Socket, err = decodeSocket(buf, true); err != nil {
			return r, err
		}
		if sn.MAC, err = decodeMAC(buf); err != nil {
			return r, err
		}
		if sn.Metric, err = buf.GetUint32(); err != nil {
			return r, err
		}
		r.Supernodes = append(r.Supernodes, sn)
	}
	return r, nil
}

// RegisterSuperNak is the supernode's refusal to admit an edge into the
// community.
type RegisterSuperNak struct {
	Cookie uint32
	SrcMAC domain.MAC
}

func (r RegisterSuperNak) Encode(buf *Buffer) error {
	if err := buf.PutUint32(r.Cookie); err != nil {
		return err
	}
	return encodeMAC(buf, r.SrcMAC)
}

func DecodeRegisterSuperNak(buf *Buffer) (RegisterSuperNak, error) {
	var r RegisterSuperNak
	var err error
	if r.Cookie, err = buf.GetUint32(); err != nil {
		return r, err
	}
	if r.SrcMAC, err = decodeMAC(buf); err != nil {
		return r, err
	}
	return r, nil
}

// UnregisterSuper is sent by an edge leaving a community so the supernode can
// purge its registry entry immediately rather than waiting on a timeout.
// Field order follows spec.md §4.1: {auth, srcMAC}.
type UnregisterSuper struct {
	Auth   Auth
	SrcMAC domain.MAC
}

func (u UnregisterSuper) Encode(buf *Buffer) error {
	if err := u.Auth.Encode(buf); err != nil {
		return err
	}
	return encodeMAC(buf, u.SrcMAC)
}

func DecodeUnregisterSuper(buf *Buffer) (UnregisterSuper, error) {
	var u UnregisterSuper
	var err error
	if u.Auth, err = DecodeAuth(buf); err != nil {
		return u, err
	}
	if u.SrcMAC, err = decodeMAC(buf); err != nil {
		return u, err
	}
	return u, nil
}
