package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"time"

	"overlink/application"
)

// AESTransform implements the AES transform: AES-128 in CTR mode, the
// default cipher when a key is provided but no explicit transform is
// selected (spec.md §4.2).
type AESTransform struct {
	Clock application.Clock
}

type aesContext struct {
	key []byte
}

func (AESTransform) ID() application.TransformID { return application.TransformAES }

func (AESTransform) Init(key []byte) (application.TransformContext, error) {
	if _, err := aes.NewCipher(key); err != nil {
		return nil, err
	}
	return aesContext{key: key}, nil
}

func (a AESTransform) Encode(ctx application.TransformContext, plain, out []byte) (int, error) {
	c := ctx.(aesContext)
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return 0, err
	}
	if len(out) < len(plain)+a.Overhead() {
		return 0, ErrShortOutput
	}
	ts := a.now()
	n := putTimestamp(out, ts)
	iv := deriveIV(ts, aes.BlockSize)
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out[n:n+len(plain)], plain)
	return n + len(plain), nil
}

func (AESTransform) Decode(ctx application.TransformContext, cipherText, out []byte) (int, error) {
	c := ctx.(aesContext)
	ts, rest, err := getTimestamp(cipherText)
	if err != nil {
		return 0, err
	}
	if len(out) < len(rest) {
		return 0, ErrShortOutput
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return 0, err
	}
	iv := deriveIV(ts, aes.BlockSize)
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out[:len(rest)], rest)
	return len(rest), nil
}

func (AESTransform) Overhead() int { return TimestampFieldSize }

func (a AESTransform) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock.Now()
}
