// Package compression implements the edge's compression codecs (C3): the
// NONE passthrough, the required LZO-equivalent speed-oriented codec, and
// the optional ZSTD codec, plus the "compress but skip if not smaller"
// egress policy, per spec.md §4.3.
package compression

import "overlink/application"

// NoneCompressor is the identity codec, selected when compression is
// disabled for a community or when neither candidate codec shrank a frame.
type NoneCompressor struct{}

func (NoneCompressor) ID() application.CompressionID { return application.CompressionNone }

func (NoneCompressor) Compress(plain []byte) ([]byte, error) {
	return plain, nil
}

func (NoneCompressor) Decompress(compressed []byte, _ int) ([]byte, error) {
	return compressed, nil
}
