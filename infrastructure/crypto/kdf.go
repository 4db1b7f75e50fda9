// Package crypto implements the edge's payload transform plugins (C2):
// key derivation, the NULL/Twofish/AES/ChaCha20/Speck transforms, the
// replay window, and header encryption, per spec.md §4.2.
package crypto

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"overlink/domain"
)

// DeriveKey expands the community name and an ASCII encryption key into size
// bytes of session key material via HKDF-SHA256, per spec.md §4.2 ("the key
// schedule derives symmetric keys from the community and the ASCII
// encryption key via a KDF"). The community salts the derivation so two
// communities sharing an encryption key never reuse a transform key.
func DeriveKey(community domain.Community, encryptionKey string, size int) ([]byte, error) {
	salt := community.Bytes()
	r := hkdf.New(sha256.New, []byte(encryptionKey), salt[:], []byte("overlink edge transform key"))
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeriveHeaderKey expands a header-encryption key, independent from the
// payload transform key so the two never share a keystream.
func DeriveHeaderKey(community domain.Community, encryptionKey string, size int) ([]byte, error) {
	salt := community.Bytes()
	r := hkdf.New(sha256.New, []byte(encryptionKey), salt[:], []byte("overlink edge header key"))
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
