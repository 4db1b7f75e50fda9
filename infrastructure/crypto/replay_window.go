package crypto

import (
	"errors"
	"sync"
	"time"
)

// ErrReplayRejected is returned when a received timestamp fails any of the
// three acceptance conditions in spec.md §4.2.
var ErrReplayRejected = errors.New("crypto: replay timestamp rejected")

// ReplayWindow enforces per-sender freshness of the replay timestamp carried
// in every cipher frame, per spec.md §4.2: a timestamp is accepted iff it is
// within Frame of local time and, once a timestamp has been accepted,
// strictly later than Jitter before the latest accepted timestamp.
//
// Check and Accept are split: Check must not mutate state because UDP
// decryption can fail after the replay check passes, and a failed decrypt
// must not have consumed the window.
type ReplayWindow struct {
	mu    sync.Mutex
	frame time.Duration
	jitter time.Duration

	hasPrev bool
	prev    time.Time
}

// NewReplayWindow creates a window with the given FRAME and JITTER
// tolerances (spec.md §3, §4.2).
func NewReplayWindow(frame, jitter time.Duration) *ReplayWindow {
	return &ReplayWindow{frame: frame, jitter: jitter}
}

// InitialTimestamp returns the timestamp a sender should use for its first
// frame: now − FRAME, which permits the first frame from a slightly
// clock-skewed peer to still land inside the receiver's FRAME tolerance
// (spec.md §4.2).
func InitialTimestamp(now time.Time, frame time.Duration) time.Time {
	return now.Add(-frame)
}

// Check reports whether ts would be accepted against now and the window's
// current state, without modifying that state.
func (w *ReplayWindow) Check(ts, now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.check(ts, now)
}

func (w *ReplayWindow) check(ts, now time.Time) error {
	drift := ts.Sub(now)
	if drift < 0 {
		drift = -drift
	}
	if drift >= w.frame {
		return ErrReplayRejected
	}
	if w.hasPrev && !ts.After(w.prev.Add(-w.jitter)) {
		return ErrReplayRejected
	}
	return nil
}

// Accept commits ts to the window. Must be called only after Check(ts, now)
// returned nil and the frame's decryption/decompression has succeeded.
func (w *ReplayWindow) Accept(ts time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.hasPrev || ts.After(w.prev) {
		w.prev = ts
		w.hasPrev = true
	}
}

// Validate checks and accepts in one call. Only safe when the caller has no
// failure path between the replay check and the data becoming trusted (e.g.
// the NULL transform, where there is no decryption step that can fail).
func (w *ReplayWindow) Validate(ts, now time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.check(ts, now); err != nil {
		return err
	}
	if !w.hasPrev || ts.After(w.prev) {
		w.prev = ts
		w.hasPrev = true
	}
	return nil
}
