package compression

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v4"

	"overlink/application"
)

// LZOCompressor fills the required "LZO" codec slot (spec.md §4.3: ID=2).
// No pure-Go LZO implementation appears anywhere in the retrieval pack;
// lz4 targets the same point on the speed/ratio curve (fast,
// streaming-friendly, modest ratio) and is a dependency several pack repos
// already carry, so it stands in for the design intent rather than the
// specific byte format (see DESIGN.md).
type LZOCompressor struct{}

func (LZOCompressor) ID() application.CompressionID { return application.CompressionLZO }

func (LZOCompressor) Compress(plain []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(plain); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (LZOCompressor) Decompress(compressed []byte, expectedMax int) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(compressed))
	out := make([]byte, 0, expectedMax)
	buf := bytes.NewBuffer(out)
	if _, err := io.Copy(buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
