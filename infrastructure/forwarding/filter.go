package forwarding

import (
	"encoding/binary"
	"net/netip"

	"overlink/domain"
)

// FilterSet evaluates an ordered list of filter rules against a decoded
// Ethernet frame, first match wins, per spec.md §3 ("Filter rule ... action
// accept or drop") and edge.c's filter_rule_match linear list walk. An empty
// set accepts everything.
type FilterSet struct {
	rules []domain.FilterRule
}

// NewFilterSet builds a FilterSet from the CLI/config-parsed rule list, in
// the order they should be evaluated.
func NewFilterSet(rules []domain.FilterRule) *FilterSet {
	return &FilterSet{rules: rules}
}

// Allow reports whether frame, an Ethernet frame carrying an IPv4 payload,
// passes the filter set. A frame that is not IPv4 (ARP, IPv6, etc.) always
// passes: the rule grammar only names IP 4-tuples.
func (fs *FilterSet) Allow(frame []byte) bool {
	if len(fs.rules) == 0 {
		return true
	}
	src, dst, srcPort, dstPort, proto, ok := decodeIPv4Tuple(frame)
	if !ok {
		return true
	}
	for _, r := range fs.rules {
		if r.Matches(src, dst, srcPort, dstPort, proto) {
			return r.Action == domain.FilterAccept
		}
	}
	return true
}

// ethHeaderLen is the length of an untagged Ethernet II header: dst MAC(6) +
// src MAC(6) + ethertype(2).
const ethHeaderLen = 14

const ethTypeIPv4 = 0x0800

// decodeIPv4Tuple extracts the 4-tuple a FilterRule matches against from an
// Ethernet frame carrying an IPv4 packet. ok is false for any other
// ethertype or a frame too short to hold the IPv4 header plus the first
// four bytes after it.
func decodeIPv4Tuple(frame []byte) (src, dst netip.Addr, srcPort, dstPort uint16, proto uint8, ok bool) {
	if len(frame) < ethHeaderLen+20 {
		return
	}
	if binary.BigEndian.Uint16(frame[12:14]) != ethTypeIPv4 {
		return
	}
	ip := frame[ethHeaderLen:]
	ihl := int(ip[0]&0x0F) * 4
	if ihl < 20 || len(ip) < ihl+4 {
		return
	}
	proto = ip[9]
	src = netip.AddrFrom4([4]byte{ip[12], ip[13], ip[14], ip[15]})
	dst = netip.AddrFrom4([4]byte{ip[16], ip[17], ip[18], ip[19]})

	switch proto {
	case 6, 17: // TCP, UDP: source/dest port are the first four bytes of the L4 header
		l4 := ip[ihl:]
		if len(l4) < 4 {
			return src, dst, 0, 0, proto, true
		}
		srcPort = binary.BigEndian.Uint16(l4[0:2])
		dstPort = binary.BigEndian.Uint16(l4[2:4])
	}
	return src, dst, srcPort, dstPort, proto, true
}

// destinationIn reports whether an IPv4 frame's destination address falls
// within subnet. Non-IPv4 frames (ARP, IPv6) are always considered "in
// subnet" — allow_routing only constrains IPv4 traffic, per spec.md §4.6
// step 5.
func destinationIn(frame []byte, subnet netip.Prefix) bool {
	if !subnet.IsValid() {
		return true
	}
	_, dst, _, _, _, ok := decodeIPv4Tuple(frame)
	if !ok {
		return true
	}
	return subnet.Contains(dst)
}
