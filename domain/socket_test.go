package domain

import (
	"net/netip"
	"testing"
)

func TestSocket_RoundTripIPv4(t *testing.T) {
	ap := netip.MustParseAddrPort("10.0.0.5:7654")
	s := SocketFromAddrPort(ap)
	if s.Family != FamilyIPv4 {
		t.Fatalf("expected FamilyIPv4, got %v", s.Family)
	}
	got, err := s.AddrPort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ap {
		t.Fatalf("round-trip mismatch: got %v, want %v", got, ap)
	}
}

func TestSocket_RoundTripIPv6(t *testing.T) {
	ap := netip.MustParseAddrPort("[fd00::1]:7654")
	s := SocketFromAddrPort(ap)
	if s.Family != FamilyIPv6 {
		t.Fatalf("expected FamilyIPv6, got %v", s.Family)
	}
	got, err := s.AddrPort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ap {
		t.Fatalf("round-trip mismatch: got %v, want %v", got, ap)
	}
}

func TestSocket_UnsetErrors(t *testing.T) {
	var s Socket
	if s.IsSet() {
		t.Fatal("zero socket should not be set")
	}
	if _, err := s.AddrPort(); err == nil {
		t.Fatal("expected error for unset socket")
	}
}
