package crypto

import (
	"bytes"
	"testing"
	"time"

	"overlink/application"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func testAllTransforms() []application.Transform {
	clock := fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return []application.Transform{
		NullTransform{Clock: clock},
		TwofishTransform{Clock: clock},
		AESTransform{Clock: clock},
		ChaCha20Transform{Clock: clock},
		SpeckTransform{Clock: clock},
	}
}

func TestTransforms_RoundTrip(t *testing.T) {
	plain := []byte("the quick brown fox jumps over the lazy dog, 0123456789")

	for _, tr := range testAllTransforms() {
		t.Run(tr.ID().String(), func(t *testing.T) {
			key := make([]byte, KeySize(tr.ID()))
			if len(key) == 0 {
				key = make([]byte, 16)
			}
			for i := range key {
				key[i] = byte(i*7 + 1)
			}
			ctx, err := tr.Init(key)
			if err != nil {
				t.Fatalf("Init: %v", err)
			}

			out := make([]byte, len(plain)+tr.Overhead())
			n, err := tr.Encode(ctx, plain, out)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			out = out[:n]

			back := make([]byte, len(plain))
			n2, err := tr.Decode(ctx, out, back)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			back = back[:n2]
			if !bytes.Equal(back, plain) {
				t.Fatalf("round trip mismatch: got %q, want %q", back, plain)
			}
		})
	}
}

func TestTransforms_DistinctCiphertextForDistinctPlaintext(t *testing.T) {
	for _, tr := range testAllTransforms() {
		if tr.ID() == application.TransformNull {
			continue // NULL performs no encryption, ciphertext equals plaintext
		}
		t.Run(tr.ID().String(), func(t *testing.T) {
			key := make([]byte, KeySize(tr.ID()))
			for i := range key {
				key[i] = byte(i + 1)
			}
			ctx, err := tr.Init(key)
			if err != nil {
				t.Fatalf("Init: %v", err)
			}
			a := []byte("aaaaaaaaaaaaaaaa")
			b := []byte("bbbbbbbbbbbbbbbb")
			outA := make([]byte, len(a)+tr.Overhead())
			outB := make([]byte, len(b)+tr.Overhead())
			if _, err := tr.Encode(ctx, a, outA); err != nil {
				t.Fatalf("Encode a: %v", err)
			}
			if _, err := tr.Encode(ctx, b, outB); err != nil {
				t.Fatalf("Encode b: %v", err)
			}
			if bytes.Equal(outA[TimestampFieldSize:], outB[TimestampFieldSize:]) {
				t.Fatalf("distinct plaintexts produced identical ciphertext")
			}
		})
	}
}

func TestHeaderCipher_RoundTrip(t *testing.T) {
	key := make([]byte, 16)
	for i := range key {
		key[i] = byte(i * 3)
	}
	hc, err := NewHeaderCipher(key)
	if err != nil {
		t.Fatalf("NewHeaderCipher: %v", err)
	}

	header := make([]byte, HeaderPlainSize)
	for i := range header {
		header[i] = byte(0xC0 + i)
	}

	frame, err := hc.Encrypt(header)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(frame) != hc.EncryptedSize() {
		t.Fatalf("Encrypt produced %d bytes, want %d", len(frame), hc.EncryptedSize())
	}

	got, err := hc.Decrypt(frame)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, header) {
		t.Fatalf("round trip mismatch: got %x, want %x", got, header)
	}
}

func TestHeaderCipher_WrongKeyRejected(t *testing.T) {
	key1 := make([]byte, 16)
	key2 := make([]byte, 16)
	key2[0] = 1

	hc1, _ := NewHeaderCipher(key1)
	hc2, _ := NewHeaderCipher(key2)

	header := make([]byte, HeaderPlainSize)
	frame, err := hc1.Encrypt(header)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := hc2.Decrypt(frame); err != ErrHeaderNotEncrypted {
		t.Fatalf("got err %v, want ErrHeaderNotEncrypted", err)
	}
}
