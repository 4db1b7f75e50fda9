package application

// CompressionID identifies a payload compression codec, per spec.md §4.3.
type CompressionID uint8

const (
	CompressionInvalid CompressionID = 0
	CompressionNone    CompressionID = 1
	CompressionLZO     CompressionID = 2
	CompressionZSTD    CompressionID = 3
)

// Compressor compresses/decompresses PACKET payloads. Compression is
// attempted on egress but skipped if the result would not be smaller;
// decompression is driven entirely by the wire-carried CompressionID.
type Compressor interface {
	ID() CompressionID
	Compress(plain []byte) ([]byte, error)
	Decompress(compressed []byte, expectedMax int) ([]byte, error)
}
