package registry

import (
	"errors"
	"sort"
	"time"

	"overlink/domain"
)

// ErrEmptySupernodeList is returned by operations that require a current
// supernode when the list is empty, which should never happen while the
// edge is running (spec.md §3 invariant: "list is non-empty while the edge
// is running").
var ErrEmptySupernodeList = errors.New("registry: supernode list is empty")

// SupernodeList is an ordering of configured supernodes by selection metric,
// smaller is better; the head is the current preferred supernode. The
// reference design used a doubly-linked list for O(1) head rotation; a
// slice re-sorted on update is equivalent in practice (N is the count of
// configured supernodes, always small) and is the idiomatic Go shape for
// this data, per spec.md §4.4.
type SupernodeList struct {
	nodes []*domain.Supernode
}

// NewSupernodeList builds a list from initial hostnames seeding unresolved
// entries; resolution happens later (on a maintenance tick, per spec.md
// §4.5) via ResolveSocket.
func NewSupernodeList(hosts []string) *SupernodeList {
	nodes := make([]*domain.Supernode, 0, len(hosts))
	for _, h := range hosts {
		nodes = append(nodes, &domain.Supernode{Host: h})
	}
	return &SupernodeList{nodes: nodes}
}

// Len reports the number of configured supernodes.
func (l *SupernodeList) Len() int { return len(l.nodes) }

// Current returns the head (preferred) supernode.
func (l *SupernodeList) Current() (*domain.Supernode, error) {
	if len(l.nodes) == 0 {
		return nil, ErrEmptySupernodeList
	}
	return l.nodes[0], nil
}

// UpdateMetric sets the metric of the supernode resolved to socket and
// re-sorts the list, smaller-is-better,
// stable on ties so round-robin amongst equal-metric supernodes is
// deterministic across calls (spec.md §4.4: "Selection is refreshed when
// PEER_INFO/REGISTER_SUPER_ACK updates a metric").
func (l *SupernodeList) UpdateMetric(socket domain.Socket, metric uint32) {
	for _, n := range l.nodes {
		if n.Socket == socket {
			n.Metric = metric
			break
		}
	}
	l.resort()
}

func (l *SupernodeList) resort() {
	sort.SliceStable(l.nodes, func(i, j int) bool {
		return l.nodes[i].Metric < l.nodes[j].Metric
	})
}

// RotateToBack moves the current head to the back of the list, so the next
// Current() call returns the next candidate. Used on REGISTER_SUPER_NAK and
// registration timeout (spec.md §4.5).
func (l *SupernodeList) RotateToBack() {
	if len(l.nodes) < 2 {
		return
	}
	head := l.nodes[0]
	l.nodes = append(l.nodes[1:], head)
}

// ResolveSocket sets host's resolved socket, its last-seen time, and the
// time of its next resolution (now+backoff), e.g. after a DNS
// resolution performed off the event-loop's critical path (spec.md §4.5:
// "supernode2sock is expensive and must not block the loop").
func (l *SupernodeList) ResolveSocket(host string, socket domain.Socket, now time.Time, backoff time.Duration) {
	for _, n := range l.nodes {
		if n.Host == host {
			n.Socket = socket
			n.LastSeen = now
			n.NextResolve = now.Add(backoff)
			return
		}
	}
}

// Range calls fn for every entry in current (metric) order.
func (l *SupernodeList) Range(fn func(*domain.Supernode)) {
	for _, n := range l.nodes {
		fn(n)
	}
}
