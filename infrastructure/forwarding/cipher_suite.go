package forwarding

import (
	"fmt"

	"overlink/application"
	"overlink/domain"
	"overlink/infrastructure/crypto"
)

// allTransformIDs enumerates every transform the cipher suite keeps a
// ready-to-use context for, so ingress can decode a PACKET regardless of
// which transform its sender chose (spec.md §4.2: the transform id travels
// on the wire per-packet).
var allTransformIDs = []application.TransformID{
	application.TransformNull,
	application.TransformTwofish,
	application.TransformAES,
	application.TransformChaCha20,
	application.TransformSpeck,
}

// CipherSuite holds one initialized TransformContext per TransformID,
// derived once from the community's shared secret, so the dataplane
// dispatches a single map lookup per packet rather than re-deriving keys or
// branching per byte (spec.md §9 DESIGN NOTES).
type CipherSuite struct {
	set      *crypto.TransformSet
	contexts map[application.TransformID]application.TransformContext
}

// NewCipherSuite derives per-transform keys from encryptionKey (salted by
// community, via crypto.DeriveKey) and initializes every registered
// transform.
func NewCipherSuite(community domain.Community, encryptionKey string, clock application.Clock) (*CipherSuite, error) {
	set := crypto.NewTransformSet(clock)
	cs := &CipherSuite{set: set, contexts: make(map[application.TransformID]application.TransformContext, len(allTransformIDs))}

	for _, id := range allTransformIDs {
		t, err := set.Get(id)
		if err != nil {
			return nil, err
		}
		size := crypto.KeySize(id)
		var key []byte
		if size > 0 {
			key, err = crypto.DeriveKey(community, encryptionKey, size)
			if err != nil {
				return nil, fmt.Errorf("forwarding: derive key for %s: %w", id, err)
			}
		}
		ctx, err := t.Init(key)
		if err != nil {
			return nil, fmt.Errorf("forwarding: init transform %s: %w", id, err)
		}
		cs.contexts[id] = ctx
	}
	return cs, nil
}

// Encode encodes plain into out under transform id.
func (cs *CipherSuite) Encode(id application.TransformID, plain, out []byte) (int, error) {
	t, err := cs.set.Get(id)
	if err != nil {
		return 0, err
	}
	return t.Encode(cs.contexts[id], plain, out)
}

// Decode decodes cipher into out under transform id.
func (cs *CipherSuite) Decode(id application.TransformID, cipher, out []byte) (int, error) {
	t, err := cs.set.Get(id)
	if err != nil {
		return 0, err
	}
	return t.Decode(cs.contexts[id], cipher, out)
}

// Overhead returns the maximum bytes transform id adds beyond plaintext
// length.
func (cs *CipherSuite) Overhead(id application.TransformID) (int, error) {
	t, err := cs.set.Get(id)
	if err != nil {
		return 0, err
	}
	return t.Overhead(), nil
}
