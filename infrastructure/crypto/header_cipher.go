package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
)

// HeaderPlainSize is the size of the common-header prefix that header
// encryption covers: version(1) + ttl(1) + flags(2) + first 12 bytes of
// community (spec.md §4.2).
const HeaderPlainSize = 16

// headerMagic lets a receiver recognize a successfully decrypted header
// before committing to dispatch on it.
const headerMagic = uint64(0x6F766572_6C696E6B) // "overlink" ASCII, as a sentinel value

const headerMagicSize = 8
const headerNonceSize = 16

// ErrHeaderNotEncrypted is returned by HeaderCipher.Decrypt when the magic
// marker does not match, meaning either the wrong key was used or the frame
// was never header-encrypted.
var ErrHeaderNotEncrypted = errors.New("crypto: header magic marker mismatch")

// HeaderCipher encrypts/decrypts the fixed 16-byte common-header prefix,
// per spec.md §4.2. Encryption is per-community (a single key shared by
// every edge and supernode in that community) and is orthogonal to the
// per-packet payload transform.
type HeaderCipher struct {
	block cipher.Block
}

// NewHeaderCipher builds a cipher from a key derived via DeriveHeaderKey.
func NewHeaderCipher(key []byte) (*HeaderCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &HeaderCipher{block: block}, nil
}

// Encrypt encrypts the HeaderPlainSize-byte plaintext header, returning
// headerNonceSize (random IV) + headerMagicSize + HeaderPlainSize bytes of
// output.
func (h *HeaderCipher) Encrypt(header []byte) ([]byte, error) {
	if len(header) != HeaderPlainSize {
		return nil, errHeaderWrongSize
	}
	out := make([]byte, headerNonceSize+headerMagicSize+HeaderPlainSize)
	nonce := out[:headerNonceSize]
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	plain := make([]byte, headerMagicSize+HeaderPlainSize)
	binary.BigEndian.PutUint64(plain[:headerMagicSize], headerMagic)
	copy(plain[headerMagicSize:], header)

	stream := cipher.NewCTR(h.block, nonce)
	stream.XORKeyStream(out[headerNonceSize:], plain)
	return out, nil
}

// Decrypt reverses Encrypt, returning the plaintext header, or
// ErrHeaderNotEncrypted if the magic marker doesn't match (wrong key, or
// this frame was never header-encrypted).
func (h *HeaderCipher) Decrypt(frame []byte) ([]byte, error) {
	if len(frame) < headerNonceSize+headerMagicSize+HeaderPlainSize {
		return nil, errHeaderWrongSize
	}
	nonce := frame[:headerNonceSize]
	ciphertext := frame[headerNonceSize : headerNonceSize+headerMagicSize+HeaderPlainSize]

	plain := make([]byte, len(ciphertext))
	stream := cipher.NewCTR(h.block, nonce)
	stream.XORKeyStream(plain, ciphertext)

	if binary.BigEndian.Uint64(plain[:headerMagicSize]) != headerMagic {
		return nil, ErrHeaderNotEncrypted
	}
	return plain[headerMagicSize:], nil
}

// EncryptedSize is the total wire size of an encrypted header frame.
func (h *HeaderCipher) EncryptedSize() int {
	return headerNonceSize + headerMagicSize + HeaderPlainSize
}

var errHeaderWrongSize = errors.New("crypto: header frame wrong size")
