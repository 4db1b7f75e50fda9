package speck

import "errors"

var errInvalidKeySize = errors.New("speck: invalid key size, must be 16 bytes")
