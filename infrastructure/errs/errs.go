// Package errs defines the error taxonomy of spec.md §7: six categories
// callers switch on with errors.Is/errors.As, each wrapped with
// fmt.Errorf("...: %w", ...) at the point of failure rather than captured
// as a stack trace — a plain-sentinel-plus-wrapping idiom rather than a
// third-party error-hierarchy library.
package errs

import (
	"errors"
	"fmt"
)

// Category sentinels. Use errors.Is(err, errs.Protocol) etc. to classify an
// error returned from anywhere in the module; the concrete failure is
// wrapped onto one of these with fmt.Errorf("...: %w", Category).
var (
	// Config covers a missing required option, a bad address, an unknown
	// cipher/compression selector, or an invalid filter rule. Detected
	// before the event loop starts; the caller prints the message and
	// exits 1.
	Config = errors.New("config error")

	// Transport covers socket create/bind/send/recv failures.
	Transport = errors.New("transport error")

	// Protocol covers decode under-run, version mismatch, unknown packet
	// type, or cookie mismatch. The event loop drops the packet, counts
	// it, and continues.
	Protocol = errors.New("protocol error")

	// Auth covers header decryption failure or replay rejection. Same
	// drop-count-continue handling as Protocol.
	Auth = errors.New("auth error")

	// State covers REGISTER_SUPER_NAK and "no supernode reachable after N
	// rotations". The registration engine rotates supernodes and keeps
	// retrying; it never causes the process to exit.
	State = errors.New("state error")

	// Resource covers TAP open, privilege drop, and capability retention
	// failures. Fatal (exit 1) at startup; logged and ignored at shutdown.
	Resource = errors.New("resource error")
)

// Wrap annotates err with msg and classifies it under category, so that
// errors.Is(result, category) holds for any caller up the stack.
func Wrap(category error, msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", msg, category)
	}
	return fmt.Errorf("%s: %w: %w", msg, err, category)
}
