package domain

import "fmt"

// CommunitySize is the fixed on-wire width of a community name, including its
// NUL terminator/padding.
const CommunitySize = 20

// Community is a bounded ASCII name identifying one overlay group. All peers
// sharing a community name form one overlay; it also salts header encryption
// key derivation.
type Community string

// MaxCommunityLen is the largest community name (excluding the terminator)
// that fits in CommunitySize bytes on the wire.
const MaxCommunityLen = CommunitySize - 1

// Validate checks the community name is non-empty ASCII and fits the wire
// field.
func (c Community) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("community name must not be empty")
	}
	if len(c) > MaxCommunityLen {
		return fmt.Errorf("community name %q exceeds %d bytes", string(c), MaxCommunityLen)
	}
	for i := 0; i < len(c); i++ {
		if c[i] == 0 || c[i] > 0x7F {
			return fmt.Errorf("community name %q must be printable ASCII", string(c))
		}
	}
	return nil
}

// Bytes encodes the community into its fixed, NUL-padded wire representation.
func (c Community) Bytes() [CommunitySize]byte {
	var out [CommunitySize]byte
	copy(out[:], c)
	return out
}

// CommunityFromBytes decodes a fixed-width, NUL-padded wire field back into a
// Community, truncating at the first NUL.
func CommunityFromBytes(b [CommunitySize]byte) Community {
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return Community(b[:n])
}
