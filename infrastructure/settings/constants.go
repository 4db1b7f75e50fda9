package settings

import "time"

// MTU bounds, extended with the overlay's own encapsulation overhead
// budget.
const (
	DefaultMTU = 1400 // leaves headroom for the largest transform+compression overhead under a 1500-byte path MTU
	MinimumMTU = 576
	MaximumMTU = 9000
)

// Defaults named in spec.md §6/§4.5.
const (
	DefaultRegisterInterval = 20 * time.Second
	DefaultRegisterTimeout  = 60 * time.Second
	DefaultManagementPort   = 5645
	DefaultInterfaceCIDR    = 24 // default CIDR for -a when no /nn is given
)

// DefaultFrameTolerance/DefaultJitterTolerance bound the replay window's
// timestamp acceptance, per spec.md §3/§4.2.
const (
	DefaultFrameTolerance  = 60 * time.Second
	DefaultJitterTolerance = 5 * time.Second
)
