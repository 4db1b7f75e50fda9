package domain

import (
	"net/netip"
	"testing"
)

func TestParseFilterRule(t *testing.T) {
	rule, err := ParseFilterRule("10.0.0.0/24,*,*,80-443,6,drop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Action != FilterDrop {
		t.Fatalf("expected drop action")
	}
	src := netip.MustParseAddr("10.0.0.5")
	dst := netip.MustParseAddr("192.168.1.1")
	if !rule.Matches(src, dst, 12345, 443, 6) {
		t.Fatal("expected rule to match")
	}
	if rule.Matches(src, dst, 12345, 8080, 6) {
		t.Fatal("expected rule not to match out-of-range dst port")
	}
}

func TestParseFilterRule_InvalidAction(t *testing.T) {
	if _, err := ParseFilterRule("*,*,*,*,*,bogus"); err == nil {
		t.Fatal("expected error for invalid action")
	}
}

func TestParseFilterRule_WrongFieldCount(t *testing.T) {
	if _, err := ParseFilterRule("*,*,*"); err == nil {
		t.Fatal("expected error for wrong field count")
	}
}

func TestPortRange_ZeroMatchesAny(t *testing.T) {
	var r PortRange
	if !r.Contains(1) || !r.Contains(65535) {
		t.Fatal("zero PortRange should match any port")
	}
}
