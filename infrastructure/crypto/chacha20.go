package crypto

import (
	"time"

	"golang.org/x/crypto/chacha20"

	"overlink/application"
)

// ChaCha20Transform implements the CHACHA20 transform: the raw ChaCha20
// keystream (unauthenticated, matching the other CTR-mode transforms'
// integrity model — spec.md §4.2 relies on the replay window plus
// header/link integrity, not per-frame AEAD tags).
type ChaCha20Transform struct {
	Clock application.Clock
}

type chacha20Context struct {
	key []byte
}

func (ChaCha20Transform) ID() application.TransformID { return application.TransformChaCha20 }

func (ChaCha20Transform) Init(key []byte) (application.TransformContext, error) {
	if len(key) != chacha20.KeySize {
		return nil, ErrInvalidKeySize
	}
	return chacha20Context{key: key}, nil
}

func (cc ChaCha20Transform) Encode(ctx application.TransformContext, plain, out []byte) (int, error) {
	c := ctx.(chacha20Context)
	if len(out) < len(plain)+cc.Overhead() {
		return 0, ErrShortOutput
	}
	ts := cc.now()
	n := putTimestamp(out, ts)
	stream, err := chacha20.NewUnauthenticatedCipher(c.key, deriveIV(ts, chacha20.NonceSize))
	if err != nil {
		return 0, err
	}
	stream.XORKeyStream(out[n:n+len(plain)], plain)
	return n + len(plain), nil
}

func (ChaCha20Transform) Decode(ctx application.TransformContext, cipherText, out []byte) (int, error) {
	c := ctx.(chacha20Context)
	ts, rest, err := getTimestamp(cipherText)
	if err != nil {
		return 0, err
	}
	if len(out) < len(rest) {
		return 0, ErrShortOutput
	}
	stream, err := chacha20.NewUnauthenticatedCipher(c.key, deriveIV(ts, chacha20.NonceSize))
	if err != nil {
		return 0, err
	}
	stream.XORKeyStream(out[:len(rest)], rest)
	return len(rest), nil
}

func (ChaCha20Transform) Overhead() int { return TimestampFieldSize }

func (cc ChaCha20Transform) now() time.Time {
	if cc.Clock == nil {
		return time.Now()
	}
	return cc.Clock.Now()
}
