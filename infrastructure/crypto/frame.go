package crypto

import (
	"encoding/binary"
	"errors"
	"time"
)

// ErrReservedBitsSet is returned when a decoded replay timestamp's reserved
// bits are non-zero, per spec.md §4.2 condition (1).
var ErrReservedBitsSet = errors.New("crypto: replay timestamp reserved bits set")

// TimestampFieldSize is the width in bytes of the replay timestamp every
// cipher frame carries ahead of its ciphertext.
const TimestampFieldSize = 8

// encodeTimestampField packs ts into the 64-bit wire layout: bits [12:64) the
// timestamp value, bits [4:12) zero padding, bits [0:4) reserved flag bits
// (always zero; no flags are defined yet), per spec.md §4.2.
func encodeTimestampField(ts time.Time) uint64 {
	units := uint64(ts.UnixMicro())
	return units << 12
}

// decodeTimestampField unpacks a wire timestamp field, rejecting any frame
// whose low 12 bits (reserved flag bits plus zero padding) are non-zero.
func decodeTimestampField(field uint64) (time.Time, error) {
	if field&0xFFF != 0 {
		return time.Time{}, ErrReservedBitsSet
	}
	units := field >> 12
	return time.UnixMicro(int64(units)), nil
}

// putTimestamp writes ts's wire field to the front of out (which must be at
// least TimestampFieldSize bytes) and returns the number of bytes written.
func putTimestamp(out []byte, ts time.Time) int {
	binary.BigEndian.PutUint64(out, encodeTimestampField(ts))
	return TimestampFieldSize
}

// getTimestamp reads a timestamp field from the front of in, returning the
// decoded time and the remaining slice.
func getTimestamp(in []byte) (time.Time, []byte, error) {
	if len(in) < TimestampFieldSize {
		return time.Time{}, nil, errShortFrame
	}
	ts, err := decodeTimestampField(binary.BigEndian.Uint64(in[:TimestampFieldSize]))
	if err != nil {
		return time.Time{}, nil, err
	}
	return ts, in[TimestampFieldSize:], nil
}

var errShortFrame = errors.New("crypto: cipher frame shorter than timestamp field")

// PeekTimestamp reads the replay timestamp from the front of a cipher frame
// without decrypting it, so the dataplane can run the replay check (spec.md
// §4.2, step "verify replay timestamp") before spending a decrypt on a frame
// that is going to be rejected anyway.
func PeekTimestamp(cipherFrame []byte) (time.Time, error) {
	ts, _, err := getTimestamp(cipherFrame)
	return ts, err
}

// deriveIV expands a timestamp into a size-byte IV/nonce by placing its
// 8-byte wire field first and zero-padding the remainder. Reusing the
// per-frame timestamp as IV material ties replay protection and keystream
// uniqueness to the same value: two frames sharing a timestamp would reuse a
// keystream, a simplification accepted for the microsecond-resolution
// timestamp's collision probability within JITTER.
func deriveIV(ts time.Time, size int) []byte {
	iv := make([]byte, size)
	binary.BigEndian.PutUint64(iv, encodeTimestampField(ts))
	return iv
}
