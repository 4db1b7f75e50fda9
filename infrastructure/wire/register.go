package wire

import "overlink/domain"

// Register is the REGISTER packet body: a hole-punch request sent (possibly
// via a supernode) from one edge to another.
type Register struct {
	Cookie  uint32
	SrcMAC  domain.MAC
	DstMAC  domain.MAC
	Socket  domain.Socket // optional; HasSocket flag governs presence
	DevAddr DeviceAddr
	DevDesc DevDesc
}

func (r Register) Encode(buf *Buffer, hasSocket bool) error {
	if err := buf.PutUint32(r.Cookie); err != nil {
		return err
	}
	if err := encodeMAC(buf, r.SrcMAC); err != nil {
		return err
	}
	if err := encodeMAC(buf, r.DstMAC); err != nil {
		return err
	}
	if err := encodeSocket(buf, r.Socket, hasSocket); err != nil {
		return err
	}
	if err := r.DevAddr.Encode(buf); err != nil {
		return err
	}
	return r.DevDesc.Encode(buf)
}

func DecodeRegister(buf *Buffer, hasSocket bool) (Register, error) {
	var r Register
	var err error
	if r.Cookie, err = buf.GetUint32(); err != nil {
		return r, err
	}
	if r.SrcMAC, err = decodeMAC(buf); err != nil {
		return r, err
	}
	if r.DstMAC, err = decodeMAC(buf); err != nil {
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
	return r, nil
}

// RegisterAck is the REGISTER_ACK packet body, confirming a REGISTER.
type RegisterAck struct {
	Cookie uint32
	DstMAC domain.MAC
	SrcMAC domain.MAC
	Socket domain.Socket // optional
}

func (r RegisterAck) Encode(buf *Buffer, hasSocket bool) error {
	if err := buf.PutUint32(r.Cookie); err != nil {
		return err
	}
	if err := encodeMAC(buf, r.DstMAC); err != nil {
		return err
	}
	if err := encodeMAC(buf, r.SrcMAC); err != nil {
		return err
	}
	return encodeSocket(buf, r.Socket, hasSocket)
}

func DecodeRegisterAck(buf *Buffer, hasSocket bool) (RegisterAck, error) {
	var r RegisterAck
	var err error
	if r.Cookie, err = buf.GetUint32(); err != nil {
		return r, err
	}
	if r.DstMAC, err = decodeMAC(buf); err != nil {
		return r, err
	}
	if r.SrcMAC, err = decodeMAC(buf); err != nil {
		return r, err
	}
	if r.Socket, err = decodeSocket(buf, hasSocket); err != nil {
		return r, err
	}
	return r, nil
}

// Deregister carries just the sender's MAC, the DEREGISTER body.
type Deregister struct {
	SrcMAC domain.MAC
}

func (d Deregister) Encode(buf *Buffer) error {
	return encodeMAC(buf, d.SrcMAC)
}

func DecodeDeregister(buf *Buffer) (Deregister, error) {
	mac, err := decodeMAC(buf)
	return Deregister{SrcMAC: mac}, err
}
