package compression

import (
	"github.com/klauspost/compress/zstd"

	"overlink/application"
)

// ZSTDCompressor fills the optional ZSTD codec slot (spec.md §4.3: ID=3),
// for communities that trade CPU for a materially better ratio than the
// LZO-equivalent default.
type ZSTDCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZSTDCompressor builds a reusable encoder/decoder pair. Both are safe
// for concurrent use, but the edge's single-threaded event loop never calls
// them concurrently in practice.
func NewZSTDCompressor() (*ZSTDCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &ZSTDCompressor{encoder: enc, decoder: dec}, nil
}

func (ZSTDCompressor) ID() application.CompressionID { return application.CompressionZSTD }

func (z *ZSTDCompressor) Compress(plain []byte) ([]byte, error) {
	return z.encoder.EncodeAll(plain, make([]byte, 0, len(plain))), nil
}

func (z *ZSTDCompressor) Decompress(compressed []byte, expectedMax int) ([]byte, error) {
	return z.decoder.DecodeAll(compressed, make([]byte, 0, expectedMax))
}

// Close releases the encoder/decoder's background resources.
func (z *ZSTDCompressor) Close() {
	z.encoder.Close()
	z.decoder.Close()
}
