package crypto

import "errors"

// ErrShortOutput is returned when a caller-supplied output buffer is too
// small to hold an Encode/Decode result.
var ErrShortOutput = errors.New("crypto: output buffer too small")

// ErrInvalidKeySize is returned when Init receives key material of the
// wrong length for the transform.
var ErrInvalidKeySize = errors.New("crypto: invalid key size")
