package signal

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// Flag is the "keep_on_running"-style latch the event loop polls once per
// iteration (spec.md §4.7: "honoring a keep_on_running flag"). It starts
// true and is only ever flipped to false, by a goroutine Watch starts.
type Flag struct {
	running atomic.Bool
	stop    chan struct{}
}

// NewFlag builds a Flag in the running state.
func NewFlag() *Flag {
	f := &Flag{stop: make(chan struct{})}
	f.running.Store(true)
	return f
}

// Running reports whether the loop should keep iterating.
func (f *Flag) Running() bool {
	return f.running.Load()
}

// Watch starts a signal-handling goroutine: it subscribes to provider's
// signal set and clears the flag on the first one received. Watch does not
// guard against repeat calls: each call subscribes again and starts another
// goroutine; Close stops all of them.
func (f *Flag) Watch(provider Provider) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, provider.ShutdownSignals()...)
	go func() {
		defer signal.Stop(ch)
		select {
		case <-ch:
			f.running.Store(false)
		case <-f.stop:
		}
	}()
}

// Close stops the watching goroutine without waiting for a signal, for use
// at the end of an orderly shutdown.
func (f *Flag) Close() {
	close(f.stop)
}
