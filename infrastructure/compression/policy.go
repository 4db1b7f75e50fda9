package compression

import "overlink/application"

// Policy selects a compressor for egress PACKET payloads and enforces the
// "compress but skip if the result would not be smaller" rule (spec.md
// §4.3). Ingress decompression does not go through Policy: it is driven
// directly by the wire-carried CompressionID via Set.Get.
type Policy struct {
	candidate application.Compressor
	none      application.Compressor
}

// NewPolicy builds a Policy that tries candidate on egress, falling back to
// NONE when candidate doesn't shrink the payload. candidate may be nil to
// disable compression for a community entirely.
func NewPolicy(candidate application.Compressor) *Policy {
	return &Policy{candidate: candidate, none: NoneCompressor{}}
}

// CompressForEgress returns the chosen CompressionID and payload bytes.
func (p *Policy) CompressForEgress(plain []byte) (application.CompressionID, []byte, error) {
	if p.candidate == nil {
		return p.none.ID(), plain, nil
	}
	compressed, err := p.candidate.Compress(plain)
	if err != nil {
		return application.CompressionInvalid, nil, err
	}
	if len(compressed) >= len(plain) {
		return p.none.ID(), plain, nil
	}
	return p.candidate.ID(), compressed, nil
}

// Set resolves a wire-carried CompressionID to its Compressor for ingress
// decompression.
type Set struct {
	byID map[application.CompressionID]application.Compressor
}

// NewSet builds the standard compressor set. zstd may be nil if the
// community has it disabled.
func NewSet(lzo, zstd application.Compressor) *Set {
	s := &Set{byID: make(map[application.CompressionID]application.Compressor, 3)}
	none := NoneCompressor{}
	s.byID[none.ID()] = none
	if lzo != nil {
		s.byID[lzo.ID()] = lzo
	}
	if zstd != nil {
		s.byID[zstd.ID()] = zstd
	}
	return s
}

func (s *Set) Get(id application.CompressionID) (application.Compressor, bool) {
	c, ok := s.byID[id]
	return c, ok
}
