// Package wire implements the edge wire codec: encoding and decoding of all
// control and data packet types over a caller-supplied byte buffer, per
// spec.md §4.1. Every Encode/Decode call operates on a buffer the caller
// owns; the only allocations are decode-side copies of variable-length
// fields (auth tokens, the REGISTER_SUPER_ACK supernode list).
package wire

import "errors"

// ErrShortBuffer is returned by any Get/Put call that would read or write
// past the end of the underlying buffer.
var ErrShortBuffer = errors.New("wire: short buffer")

// Buffer is a cursor over a caller-owned byte slice. Each Put advances the
// cursor by the number of bytes written; each Get advances the cursor by the
// number of bytes read. Both fail cleanly (returning ErrShortBuffer) instead
// of panicking when the remaining space is insufficient.
type Buffer struct {
	buf []byte
	pos int
}

// NewBuffer wraps buf for encoding or decoding, starting at offset 0.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{buf: buf}
}

// Pos returns the current cursor offset.
func (b *Buffer) Pos() int { return b.pos }

// Remaining returns the number of unconsumed bytes.
func (b *Buffer) Remaining() int { return len(b.buf) - b.pos }

// Bytes returns the full underlying buffer, regardless of cursor position.
func (b *Buffer) Bytes() []byte { return b.buf }

// Written returns the bytes consumed so far, i.e. buf[:pos]. Meaningful after
// a sequence of Put calls.
func (b *Buffer) Written() []byte { return b.buf[:b.pos] }

// Rest returns the unconsumed tail of the buffer without advancing the
// cursor. Used by decoders that hand the remainder off to another layer
// (e.g. ciphertext payload).
func (b *Buffer) Rest() []byte { return b.buf[b.pos:] }

// Skip advances the cursor by n bytes without reading them.
func (b *Buffer) Skip(n int) error {
	if b.Remaining() < n {
		return ErrShortBuffer
	}
	b.pos += n
	return nil
}

func (b *Buffer) PutUint8(v uint8) error {
	if b.Remaining() < 1 {
		return ErrShortBuffer
	}
	b.buf[b.pos] = v
	b.pos++
	return nil
}

func (b *Buffer) GetUint8() (uint8, error) {
	if b.Remaining() < 1 {
		return 0, ErrShortBuffer
	}
	v := b.buf[b.pos]
	b.pos++
	return v, nil
}

func (b *Buffer) PutUint16(v uint16) error {
	if b.Remaining() < 2 {
		return ErrShortBuffer
	}
	b.buf[b.pos] = byte(v >> 8)
	b.buf[b.pos+1] = byte(v)
	b.pos += 2
	return nil
}

func (b *Buffer) GetUint16() (uint16, error) {
	if b.Remaining() < 2 {
		return 0, ErrShortBuffer
	}
	v := uint16(b.buf[b.pos])<<8 | uint16(b.buf[b.pos+1])
	b.pos += 2
	return v, nil
}

func (b *Buffer) PutUint32(v uint32) error {
	if b.Remaining() < 4 {
		return ErrShortBuffer
	}
	b.buf[b.pos] = byte(v >> 24)
	b.buf[b.pos+1] = byte(v >> 16)
	b.buf[b.pos+2] = byte(v >> 8)
	b.buf[b.pos+3] = byte(v)
	b.pos += 4
	return nil
}

func (b *Buffer) GetUint32() (uint32, error) {
	if b.Remaining() < 4 {
		return 0, ErrShortBuffer
	}
	v := uint32(b.buf[b.pos])<<24 | uint32(b.buf[b.pos+1])<<16 |
		uint32(b.buf[b.pos+2])<<8 | uint32(b.buf[b.pos+3])
	b.pos += 4
	return v, nil
}

// PutUint64 writes v at the cursor as 8 big-endian bytes and advances by 8.
func (b *Buffer) PutUint64(v uint64) error {
	if b.Remaining() < 8 {
		return ErrShortBuffer
	}
	for i := 0; i < 8; i++ {
		b.buf[b.pos+i] = byte(v >> uint(56-8*i))
	}
	b.pos += 8
	return nil
}

// GetUint64 reads 8 big-endian bytes at the cursor's current byte offset.
//
// The reference implementation's decode_uint64 reinterprets the buffer
// pointer as a *uint64 and adds the cursor as a pointer offset (scaled by 8),
// which reads from the wrong location on any platform and is almost
// certainly a bug (spec.md §9, Open Question 1). This is a plain byte-offset
// big-endian read, the evidently intended behavior.
func (b *Buffer) GetUint64() (uint64, error) {
	if b.Remaining() < 8 {
		return 0, ErrShortBuffer
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b.buf[b.pos+i])
	}
	b.pos += 8
	return v, nil
}

func (b *Buffer) PutBytes(v []byte) error {
	if b.Remaining() < len(v) {
		return ErrShortBuffer
	}
	copy(b.buf[b.pos:], v)
	b.pos += len(v)
	return nil
}

// GetBytes returns a view of the next n bytes and advances the cursor. The
// returned slice aliases the underlying buffer; callers that retain it past
// the buffer's reuse must copy.
func (b *Buffer) GetBytes(n int) ([]byte, error) {
	if b.Remaining() < n {
		return nil, ErrShortBuffer
	}
	v := b.buf[b.pos : b.pos+n]
	b.pos += n
	return v, nil
}
