// Package settings centralizes the typed configuration surface of the edge
// (A1): a Settings struct carrying everything spec.md §6's CLI table and
// defaults (spec.md §4.5, §4.6) describe, plus the constants those defaults
// are built from — a plain struct with JSON tags for config-file
// round-tripping, rather than a flag-only, untyped config map.
package settings

import (
	"net/netip"
	"time"

	"overlink/application"
	"overlink/domain"
)

// Settings is the fully-resolved, validated configuration the edge runtime
// is constructed from, after CLI flags and config file have been merged
// (infrastructure/pal/config owns that merge; this package owns the shape
// and the defaults).
type Settings struct {
	InterfaceName string       `json:"InterfaceName"`
	InterfaceMode AddressMode  `json:"InterfaceMode"`
	InterfaceCIDR netip.Prefix `json:"InterfaceCIDR"`
	MAC           domain.MAC   `json:"MAC"`
	MTU           int          `json:"MTU"`
	PMTUDiscovery bool         `json:"PMTUDiscovery"`

	Community     domain.Community          `json:"Community"`
	EncryptionKey string                    `json:"-"` // never round-tripped to a config file
	Transform     application.TransformID   `json:"Transform"`
	Compression   application.CompressionID `json:"Compression"`
	HeaderEncrypt bool                      `json:"HeaderEncrypt"`

	Supernodes []string `json:"Supernodes"`

	LocalPort      int   `json:"LocalPort"`
	ManagementPort int   `json:"ManagementPort"`
	TTL            uint8 `json:"TTL"`
	TOS            uint8 `json:"TOS"`

	AllowRouting  bool                `json:"AllowRouting"`
	DropMulticast bool                `json:"DropMulticast"`
	DisableP2P    bool                `json:"DisableP2P"`
	Routes        []domain.Route      `json:"Routes"`
	FilterRules   []domain.FilterRule `json:"-"`
	DeviceDesc    string              `json:"DeviceDesc"`

	RegisterInterval time.Duration `json:"RegisterIntervalMs"`

	Foreground bool `json:"-"`
	DropUID    int  `json:"-"` // -1 means "do not drop"
	DropGID    int  `json:"-"`
	Verbosity  int  `json:"-"`
}

// AddressMode selects how the TAP interface address is obtained, per
// spec.md §6 flag -a.
type AddressMode int

const (
	AddressStatic AddressMode = iota
	AddressDHCP
	AddressSNAssign
)

// Default returns the reference defaults named across spec.md §4.5/§4.6/§6.
func Default() Settings {
	return Settings{
		InterfaceMode:    AddressStatic,
		DropMulticast:    true,
		MTU:              DefaultMTU,
		Transform:        application.TransformNull,
		Compression:      application.CompressionNone,
		LocalPort:        0, // 0 == let the OS pick an ephemeral port
		ManagementPort:   DefaultManagementPort,
		RegisterInterval: DefaultRegisterInterval,
		DropUID:          -1,
		DropGID:          -1,
	}
}
