package domain

import "time"

// Supernode is a peer record plus a selection criterion, per spec.md §3. The
// registry keeps a slice of these ordered by Metric (smaller is better); the
// head is the currently preferred supernode.
type Supernode struct {
	Host     string // hostname or literal address, re-resolved periodically
	Socket   Socket
	MAC      MAC
	Metric   uint32
	LastSeen time.Time
	Backoff  int // consecutive registration rounds without an ACK

	// NextResolve governs when Host should be re-resolved via DNS; resolution
	// is expensive and must happen on a maintenance tick, never inline on the
	// event loop's I/O path (spec.md §4.5).
	NextResolve time.Time
}

// IsResolved reports whether Supernode has a usable socket to send to.
func (s Supernode) IsResolved() bool {
	return s.Socket.IsSet()
}
