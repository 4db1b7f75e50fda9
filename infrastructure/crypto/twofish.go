package crypto

import (
	"crypto/cipher"
	"time"

	"golang.org/x/crypto/twofish"

	"overlink/application"
)

// TwofishTransform implements the TWOFISH transform: Twofish in CTR mode.
type TwofishTransform struct {
	Clock application.Clock
}

type twofishContext struct {
	key []byte
}

func (TwofishTransform) ID() application.TransformID { return application.TransformTwofish }

func (TwofishTransform) Init(key []byte) (application.TransformContext, error) {
	if _, err := twofish.NewCipher(key); err != nil {
		return nil, err
	}
	return twofishContext{key: key}, nil
}

func (tf TwofishTransform) Encode(ctx application.TransformContext, plain, out []byte) (int, error) {
	c := ctx.(twofishContext)
	block, err := twofish.NewCipher(c.key)
	if err != nil {
		return 0, err
	}
	if len(out) < len(plain)+tf.Overhead() {
		return 0, ErrShortOutput
	}
	ts := tf.now()
	n := putTimestamp(out, ts)
	iv := deriveIV(ts, twofish.BlockSize)
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out[n:n+len(plain)], plain)
	return n + len(plain), nil
}

func (TwofishTransform) Decode(ctx application.TransformContext, cipherText, out []byte) (int, error) {
	c := ctx.(twofishContext)
	ts, rest, err := getTimestamp(cipherText)
	if err != nil {
		return 0, err
	}
	if len(out) < len(rest) {
		return 0, ErrShortOutput
	}
	block, err := twofish.NewCipher(c.key)
	if err != nil {
		return 0, err
	}
	iv := deriveIV(ts, twofish.BlockSize)
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out[:len(rest)], rest)
	return len(rest), nil
}

func (TwofishTransform) Overhead() int { return TimestampFieldSize }

func (tf TwofishTransform) now() time.Time {
	if tf.Clock == nil {
		return time.Now()
	}
	return tf.Clock.Now()
}
