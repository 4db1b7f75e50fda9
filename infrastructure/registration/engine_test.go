package registration

import (
	"net/netip"
	"testing"
	"time"

	"overlink/domain"
	"overlink/infrastructure/registry"
	"overlink/infrastructure/wire"
)

func testMAC(b byte) domain.MAC {
	m, _ := domain.ParseMAC([]byte{b, b, b, b, b, b})
	return m
}

func testSocket(s string) domain.Socket {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		panic(err)
	}
	return domain.SocketFromAddrPort(ap)
}

func newTestEngine() (*Engine, *registry.PeerTable, *registry.SupernodeList) {
	peers := registry.NewPeerTable()
	supernodes := registry.NewSupernodeList([]string{"sn.example"})
	return NewEngine(DefaultConfig(), peers, supernodes), peers, supernodes
}

func TestBeginDirectAttempt_UnknownToPending(t *testing.T) {
	e, _, _ := newTestEngine()
	now := time.Now()
	p, cookie, ok := e.BeginDirectAttempt(testMAC(1), now)
	if !ok {
		t.Fatalf("expected ok=true for first attempt")
	}
	if p.State != domain.PeerPending {
		t.Fatalf("state = %v, want PENDING", p.State)
	}
	if cookie == 0 {
		t.Fatalf("expected non-zero cookie")
	}

	_, _, ok2 := e.BeginDirectAttempt(testMAC(1), now)
	if ok2 {
		t.Fatalf("expected ok=false when already PENDING")
	}
}

func TestOnRegisterAck_PromotesToDirect(t *testing.T) {
	e, _, _ := newTestEngine()
	now := time.Now()
	_, cookie, _ := e.BeginDirectAttempt(testMAC(2), now)

	from := testSocket("10.0.0.5:5000")
	if !e.OnRegisterAck(testMAC(2), cookie, from, now) {
		t.Fatalf("expected OnRegisterAck to succeed")
	}
	p, _ := e.peers.Get(testMAC(2))
	if p.State != domain.PeerDirect || p.Socket != from {
		t.Fatalf("unexpected peer state after ack: %+v", p)
	}
}

func TestOnRegisterAck_WrongCookieRejected(t *testing.T) {
	e, _, _ := newTestEngine()
	now := time.Now()
	e.BeginDirectAttempt(testMAC(3), now)

	if e.OnRegisterAck(testMAC(3), 0xBAD, testSocket("10.0.0.1:1"), now) {
		t.Fatalf("expected rejection for mismatched cookie")
	}
}

func TestTickPingTimeout_FallsBackToViaSupernode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NPing = 2
	peers := registry.NewPeerTable()
	supernodes := registry.NewSupernodeList([]string{"sn.example"})
	e := NewEngine(cfg, peers, supernodes)
	now := time.Now()
	e.BeginDirectAttempt(testMAC(4), now)

	if !e.TickPingTimeout(testMAC(4)) {
		t.Fatalf("expected retry=true on first timeout")
	}
	if e.TickPingTimeout(testMAC(4)) {
		t.Fatalf("expected retry=false once NPing reached")
	}
	p, _ := peers.Get(testMAC(4))
	if p.State != domain.PeerViaSupernode {
		t.Fatalf("state = %v, want VIA_SUPERNODE", p.State)
	}
}

func TestExpireIdleDirectPeers(t *testing.T) {
	e, peers, _ := newTestEngine()
	now := time.Now()
	_, cookie, _ := e.BeginDirectAttempt(testMAC(5), now.Add(-2*time.Hour))
	e.OnRegisterAck(testMAC(5), cookie, testSocket("10.0.0.1:1"), now.Add(-2*time.Hour))

	expired := e.ExpireIdleDirectPeers(now)
	if len(expired) != 1 || expired[0] != testMAC(5) {
		t.Fatalf("expected mac(5) to expire, got %v", expired)
	}
	p, _ := peers.Get(testMAC(5))
	if p.State != domain.PeerUnknown {
		t.Fatalf("state = %v, want UNKNOWN", p.State)
	}
}

func TestSelfRegistration_AckFlow(t *testing.T) {
	e, _, supernodes := newTestEngine()
	now := time.Now()
	supernodes.ResolveSocket("sn.example", testSocket("1.1.1.1:7654"), now, time.Minute)

	cookie, target, err := e.BeginSelfRegistration(now)
	if err != nil {
		t.Fatalf("BeginSelfRegistration: %v", err)
	}
	if target.Host != "sn.example" {
		t.Fatalf("target.Host = %q, want sn.example", target.Host)
	}
	if !e.SnWait() {
		t.Fatalf("expected SnWait() true after beginning registration")
	}

	ack := wire.RegisterSuperAck{Cookie: cookie, Lifetime: 1200, Socket: testSocket("2.2.2.2:1")}
	assigned, ok := e.OnRegisterSuperAck(ack, now)
	if !ok {
		t.Fatalf("expected OnRegisterSuperAck to accept matching cookie")
	}
	if assigned.Lifetime != 1200*time.Second {
		t.Fatalf("Lifetime = %v, want 1200s", assigned.Lifetime)
	}
	if e.SnWait() {
		t.Fatalf("expected SnWait() false after accepted ack")
	}
}

func TestSelfRegistration_NakRotatesSupernode(t *testing.T) {
	e, _, supernodes := newTestEngine()
	supernodes2 := registry.NewSupernodeList([]string{"a.example", "b.example"})
	e2 := NewEngine(DefaultConfig(), registry.NewPeerTable(), supernodes2)
	now := time.Now()

	cookie, _, err := e2.BeginSelfRegistration(now)
	if err != nil {
		t.Fatalf("BeginSelfRegistration: %v", err)
	}
	if !e2.OnRegisterSuperNak(wire.RegisterSuperNak{Cookie: cookie}) {
		t.Fatalf("expected nak to be accepted")
	}
	cur, _ := supernodes2.Current()
	if cur.Host != "b.example" {
		t.Fatalf("Current().Host = %q, want b.example after rotation", cur.Host)
	}
	_ = e
	_ = supernodes
}

func TestCheckSelfRegistrationTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RegisterTimeout = time.Second
	supernodes := registry.NewSupernodeList([]string{"a.example", "b.example"})
	e := NewEngine(cfg, registry.NewPeerTable(), supernodes)
	now := time.Now()

	e.BeginSelfRegistration(now)
	if e.CheckSelfRegistrationTimeout(now) {
		t.Fatalf("should not time out immediately")
	}
	if !e.CheckSelfRegistrationTimeout(now.Add(2 * time.Second)) {
		t.Fatalf("expected timeout after deadline elapsed")
	}
	cur, _ := supernodes.Current()
	if cur.Host != "b.example" {
		t.Fatalf("Current().Host = %q, want b.example after timeout rotation", cur.Host)
	}
}
