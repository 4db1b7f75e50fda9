// Package registry implements the edge's peer and supernode bookkeeping
// (C4): MAC-keyed peer tables with a secondary socket index, and a
// metric-ordered supernode list, per spec.md §4.4.
package registry

import (
	"time"

	"overlink/domain"
)

// PeerTable is a MAC-keyed table of peer records with a secondary index by
// socket, supporting the C4 operations. It is not safe for concurrent use:
// the edge's single-threaded event loop owns it exclusively, matching the
// "mutated only by the single event-loop task" ownership rule (spec.md §3).
type PeerTable struct {
	byMAC    map[domain.MAC]*domain.Peer
	bySocket map[domain.Socket]domain.MAC
}

// NewPeerTable builds an empty table.
func NewPeerTable() *PeerTable {
	return &PeerTable{
		byMAC:    make(map[domain.MAC]*domain.Peer),
		bySocket: make(map[domain.Socket]domain.MAC),
	}
}

// FindOrInsert returns the entry for mac, creating one bound to socket if
// absent. If an entry already exists at socket under a different MAC — a
// supernode relay learned before its MAC, per spec.md §4.4 — that stale
// entry is dropped and a new entry for mac takes over the socket.
func (t *PeerTable) FindOrInsert(mac domain.MAC, socket domain.Socket, now time.Time) (peer *domain.Peer, inserted bool) {
	if p, ok := t.byMAC[mac]; ok {
		if p.Socket != socket {
			delete(t.bySocket, p.Socket)
			p.Socket = socket
			t.bySocket[socket] = mac
		}
		return p, false
	}

	if staleMAC, ok := t.bySocket[socket]; ok && staleMAC != mac {
		delete(t.byMAC, staleMAC)
	}

	p := &domain.Peer{MAC: mac, Socket: socket, LastSeen: now, State: domain.PeerPending}
	t.byMAC[mac] = p
	t.bySocket[socket] = mac
	return p, true
}

// Get returns the entry for mac, if present.
func (t *PeerTable) Get(mac domain.MAC) (*domain.Peer, bool) {
	p, ok := t.byMAC[mac]
	return p, ok
}

// GetBySocket returns the entry keyed by socket's MAC, if present.
func (t *PeerTable) GetBySocket(socket domain.Socket) (*domain.Peer, bool) {
	mac, ok := t.bySocket[socket]
	if !ok {
		return nil, false
	}
	return t.Get(mac)
}

// Touch updates mac's last_seen timestamp, if present.
func (t *PeerTable) Touch(mac domain.MAC, now time.Time) {
	if p, ok := t.byMAC[mac]; ok {
		p.Touch(now)
	}
}

// Remove deletes mac's entry from both indexes. Used on UNREGISTER and
// purge.
func (t *PeerTable) Remove(mac domain.MAC) {
	if p, ok := t.byMAC[mac]; ok {
		delete(t.bySocket, p.Socket)
		delete(t.byMAC, mac)
	}
}

// Purge drops every entry whose last_seen is older than now−timeout,
// returning the count removed (spec.md §4.4: aging of known_peers and
// pending_peers). A peer still in active use is kept fresh by Touch, so
// purge never drops an entry the event loop is still hearing from.
func (t *PeerTable) Purge(now time.Time, timeout time.Duration) int {
	cutoff := now.Add(-timeout)
	removed := 0
	for mac, p := range t.byMAC {
		if p.LastSeen.Before(cutoff) {
			delete(t.bySocket, p.Socket)
			delete(t.byMAC, mac)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries currently in the table.
func (t *PeerTable) Len() int { return len(t.byMAC) }

// Range calls fn for every entry, in unspecified order. fn must not mutate
// the table.
func (t *PeerTable) Range(fn func(*domain.Peer)) {
	for _, p := range t.byMAC {
		fn(p)
	}
}
