package crypto

import (
	"fmt"

	"overlink/application"
)

// TransformSet resolves a TransformID to its Transform implementation, so
// the dataplane dispatches once per packet rather than branching per byte
// (spec.md §9 DESIGN NOTES).
type TransformSet struct {
	byID map[application.TransformID]application.Transform
}

// NewTransformSet builds the standard transform set, all sharing clock for
// replay-timestamp generation.
func NewTransformSet(clock application.Clock) *TransformSet {
	ts := &TransformSet{byID: make(map[application.TransformID]application.Transform, 5)}
	register := func(t application.Transform) { ts.byID[t.ID()] = t }
	register(NullTransform{Clock: clock})
	register(TwofishTransform{Clock: clock})
	register(AESTransform{Clock: clock})
	register(ChaCha20Transform{Clock: clock})
	register(SpeckTransform{Clock: clock})
	return ts
}

// Get resolves id to its Transform, or an error if id is unknown.
func (ts *TransformSet) Get(id application.TransformID) (application.Transform, error) {
	t, ok := ts.byID[id]
	if !ok {
		return nil, fmt.Errorf("crypto: unknown transform id %d", id)
	}
	return t, nil
}

// KeySize returns the session-key length a transform expects, used when
// deriving keys via DeriveKey.
func KeySize(id application.TransformID) int {
	switch id {
	case application.TransformTwofish:
		return 16
	case application.TransformAES:
		return 16
	case application.TransformChaCha20:
		return 32
	case application.TransformSpeck:
		return 16
	default:
		return 0
	}
}
