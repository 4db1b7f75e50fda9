package wire

import (
	"net/netip"

	"overlink/domain"
)

// DevDescSize is the fixed width of a device description hint field.
const DevDescSize = 16

// DeviceAddr is the overlay IPv4 address a peer advertises or is granted:
// {net_addr u32, bitlen u8}, per spec.md §4.1.
type DeviceAddr struct {
	NetAddr uint32
	BitLen  uint8
}

func (d DeviceAddr) Encode(buf *Buffer) error {
	if err := buf.PutUint32(d.NetAddr); err != nil {
		return err
	}
	return buf.PutUint8(d.BitLen)
}

// Prefix converts a DeviceAddr to its netip.Prefix form, used to apply a
// granted sn_assign address to the TAP device (spec.md §4.5).
func (d DeviceAddr) Prefix() netip.Prefix {
	b := [4]byte{byte(d.NetAddr >> 24), byte(d.NetAddr >> 16), byte(d.NetAddr >> 8), byte(d.NetAddr)}
	return netip.PrefixFrom(netip.AddrFrom4(b), int(d.BitLen))
}

func DecodeDeviceAddr(buf *Buffer) (DeviceAddr, error) {
	var d DeviceAddr
	v, err := buf.GetUint32()
	if err != nil {
		return d, err
	}
	d.NetAddr = v
	b, err := buf.GetUint8()
	if err != nil {
		return d, err
	}
	d.BitLen = b
	return d, nil
}

// DevDesc is a fixed-width, NUL-padded device description hint (CLI -I).
type DevDesc [DevDescSize]byte

func NewDevDesc(s string) DevDesc {
	var d DevDesc
	copy(d[:], s)
	return d
}

func (d DevDesc) String() string {
	n := 0
	for n < len(d) && d[n] != 0 {
		n++
	}
	return string(d[:n])
}

func (d DevDesc) Encode(buf *Buffer) error {
	return buf.PutBytes(d[:])
}

func DecodeDevDesc(buf *Buffer) (DevDesc, error) {
	var d DevDesc
	b, err := buf.GetBytes(DevDescSize)
	if err != nil {
		return d, err
	}
	copy(d[:], b)
	return d, nil
}

// Auth carries the supernode registration credential: {scheme u16, toksize
// u16, token[toksize]}.
type Auth struct {
	Scheme uint16
	Token  []byte
}

func (a Auth) Encode(buf *Buffer) error {
	if err := buf.PutUint16(a.Scheme); err != nil {
		return err
	}
	if err := buf.PutUint16(uint16(len(a.Token))); err != nil {
		return err
	}
	return buf.PutBytes(a.Token)
}

func DecodeAuth(buf *Buffer) (Auth, error) {
	var a Auth
	scheme, err := buf.GetUint16()
	if err != nil {
		return a, err
	}
	a.Scheme = scheme
	toksize, err := buf.GetUint16()
	if err != nil {
		return a, err
	}
	tok, err := buf.GetBytes(int(toksize))
	if err != nil {
		return a, err
	}
	a.Token = append([]byte(nil), tok...)
	return a, nil
}

func encodeMAC(buf *Buffer, m domain.MAC) error {
	return buf.PutBytes(m[:])
}

func decodeMAC(buf *Buffer) (domain.MAC, error) {
	b, err := buf.GetBytes(domain.MACSize)
	if err != nil {
		return domain.MAC{}, err
	}
	return domain.ParseMAC(b)
}
