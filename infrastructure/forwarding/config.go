package forwarding

import (
	"net/netip"

	"overlink/application"
	"overlink/domain"
	"overlink/infrastructure/wire"
)

// maxFrameSize bounds the scratch buffers the pipeline encodes into. It
// comfortably covers a max-MTU Ethernet frame plus every layer of wire
// overhead (PACKET header, compression worst case, transform overhead,
// header encryption expansion).
const maxFrameSize = 9216

// Config is the per-community, mostly-static configuration the forwarding
// pipeline needs, assembled from CLI/config-file settings (spec.md §6).
type Config struct {
	Community domain.Community
	SelfMAC   domain.MAC
	TTL       uint8

	DropMulticast    bool
	AllowP2P         bool
	AllowRouting     bool
	OverlaySubnet    netip.Prefix
	HeaderEncryption bool

	// Transform is the transform id selected for outbound PACKETs; ingress
	// decodes whichever id the wire frame carries, regardless of this value.
	Transform application.TransformID

	DevAddr wire.DeviceAddr
	DevDesc wire.DevDesc

	// Auth is the credential attached to every REGISTER_SUPER, per spec.md
	// §4.1's auth{scheme, toksize, token}. Scheme 0 (no token) is valid when
	// the community has no shared secret to present beyond its name.
	Auth wire.Auth
}
