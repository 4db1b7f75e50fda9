package crypto

import (
	"crypto/cipher"
	"time"

	"overlink/application"
	"overlink/infrastructure/crypto/speck"
)

// SpeckTransform implements the SPECK transform: Speck128/128 in CTR mode.
type SpeckTransform struct {
	Clock application.Clock
}

type speckContext struct {
	key []byte
}

func (SpeckTransform) ID() application.TransformID { return application.TransformSpeck }

func (SpeckTransform) Init(key []byte) (application.TransformContext, error) {
	if _, err := speck.NewCipher(key); err != nil {
		return nil, err
	}
	return speckContext{key: key}, nil
}

func (s SpeckTransform) Encode(ctx application.TransformContext, plain, out []byte) (int, error) {
	c := ctx.(speckContext)
	block, err := speck.NewCipher(c.key)
	if err != nil {
		return 0, err
	}
	if len(out) < len(plain)+s.Overhead() {
		return 0, ErrShortOutput
	}
	ts := s.now()
	n := putTimestamp(out, ts)
	iv := deriveIV(ts, speck.BlockSize)
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out[n:n+len(plain)], plain)
	return n + len(plain), nil
}

func (SpeckTransform) Decode(ctx application.TransformContext, cipherText, out []byte) (int, error) {
	c := ctx.(speckContext)
	ts, rest, err := getTimestamp(cipherText)
	if err != nil {
		return 0, err
	}
	if len(out) < len(rest) {
		return 0, ErrShortOutput
	}
	block, err := speck.NewCipher(c.key)
	if err != nil {
		return 0, err
	}
	iv := deriveIV(ts, speck.BlockSize)
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out[:len(rest)], rest)
	return len(rest), nil
}

func (SpeckTransform) Overhead() int { return TimestampFieldSize }

func (s SpeckTransform) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}
