package crypto

import (
	"time"

	"overlink/application"
)

// NullTransform implements the NULL transform: no encryption, but still
// frames every packet with a replay timestamp so the replay window applies
// uniformly across transforms (spec.md §4.2).
type NullTransform struct {
	Clock application.Clock
}

type nullContext struct{}

func (NullTransform) ID() application.TransformID { return application.TransformNull }

func (NullTransform) Init(_ []byte) (application.TransformContext, error) {
	return nullContext{}, nil
}

func (n NullTransform) Encode(_ application.TransformContext, plain, out []byte) (int, error) {
	if len(out) < len(plain)+n.Overhead() {
		return 0, ErrShortOutput
	}
	written := putTimestamp(out, n.now())
	written += copy(out[written:], plain)
	return written, nil
}

func (NullTransform) Decode(_ application.TransformContext, cipher, out []byte) (int, error) {
	_, rest, err := getTimestamp(cipher)
	if err != nil {
		return 0, err
	}
	if len(out) < len(rest) {
		return 0, ErrShortOutput
	}
	return copy(out, rest), nil
}

func (NullTransform) Overhead() int { return TimestampFieldSize }

func (n NullTransform) now() time.Time {
	if n.Clock == nil {
		return time.Now()
	}
	return n.Clock.Now()
}
