// Package tap implements application.TapDevice (A3) on Linux via the
// /dev/net/tun character device and a TUNSETIFF ioctl: an ifreq-via-raw-
// ioctl approach built on golang.org/x/sys/unix, using IFF_TAP|IFF_NO_PI
// (L2, this overlay forwards whole Ethernet frames, per spec.md §3/§6's
// TAP device collaborator) rather than IFF_TUN (L3, single IP packets).
package tap

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	ifNameSize = 16 // IFNAMSIZ
	tunSetIff  = 0x400454ca
	iffTap     = 0x0002
	iffNoPI    = 0x1000
)

// ifreq mirrors struct ifreq's ifr_name/ifr_flags prefix; the kernel only
// reads/writes these two fields for TUNSETIFF.
type ifreq struct {
	Name  [ifNameSize]byte
	Flags uint16
	_     [22]byte // pad to sizeof(struct ifreq)
}

// Device is a Linux TAP device, opened against a fixed interface name.
type Device struct {
	file *os.File
	name string
}

// Open creates (or attaches to) the named TAP interface and returns a ready
// Device. Address, MTU, and MAC are applied afterward via
// infrastructure/pal/route.InterfaceManager's "ip addr"/"ip link" calls —
// Open itself only performs the character-device attach.
func Open(name string) (*Device, error) {
	file, err := os.OpenFile("/dev/net/tun", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("tap: open /dev/net/tun: %w", err)
	}

	var req ifreq
	copy(req.Name[:], name)
	req.Flags = iffTap | iffNoPI

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, file.Fd(), uintptr(tunSetIff), uintptr(unsafe.Pointer(&req)))
	if errno != 0 {
		_ = file.Close()
		return nil, fmt.Errorf("tap: TUNSETIFF: %w", errno)
	}

	actualName := strings.Trim(string(req.Name[:]), "\x00")
	return &Device{file: file, name: actualName}, nil
}

// Name returns the kernel-assigned interface name (may differ from the
// requested name if it ended in "%d").
func (d *Device) Name() string { return d.name }

func (d *Device) Read(frame []byte) (int, error) {
	return d.file.Read(frame)
}

func (d *Device) Write(frame []byte) (int, error) {
	return d.file.Write(frame)
}

func (d *Device) Close() error {
	return d.file.Close()
}

func (d *Device) Fd() int {
	return int(d.file.Fd())
}
