package errs

import (
	"errors"
	"testing"
)

func TestWrap_ClassifiesUnderCategory(t *testing.T) {
	cause := errors.New("bind: address in use")
	err := Wrap(Transport, "udp socket bind", cause)

	if !errors.Is(err, Transport) {
		t.Fatalf("expected Wrap result to be Transport, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected Wrap result to retain the original cause, got %v", err)
	}
	if errors.Is(err, Protocol) {
		t.Fatalf("did not expect Wrap result to classify as Protocol")
	}
}

func TestWrap_NilCause(t *testing.T) {
	err := Wrap(Config, "missing community name", nil)
	if !errors.Is(err, Config) {
		t.Fatalf("expected Wrap result to be Config, got %v", err)
	}
}
