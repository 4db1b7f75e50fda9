package eventloop

import (
	"net/netip"
	"testing"
	"time"

	"overlink/application"
	"overlink/domain"
	"overlink/infrastructure/compression"
	"overlink/infrastructure/forwarding"
	"overlink/infrastructure/management"
	"overlink/infrastructure/pal/signal"
	"overlink/infrastructure/registration"
	"overlink/infrastructure/registry"
	"overlink/infrastructure/wire"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeTap struct {
	writes [][]byte
	toRead []byte
}

func (f *fakeTap) Read(frame []byte) (int, error) {
	n := copy(frame, f.toRead)
	return n, nil
}
func (f *fakeTap) Write(frame []byte) (int, error) {
	cp := append([]byte(nil), frame...)
	f.writes = append(f.writes, cp)
	return len(frame), nil
}
func (f *fakeTap) Close() error { return nil }
func (f *fakeTap) Fd() int      { return 0 }

type fakeUDP struct {
	writes []struct {
		bytes []byte
		to    netip.AddrPort
	}
	toRead []byte
	from   netip.AddrPort
}

func (f *fakeUDP) ReadFrom(buf []byte) (int, netip.AddrPort, error) {
	n := copy(buf, f.toRead)
	return n, f.from, nil
}
func (f *fakeUDP) WriteTo(buf []byte, to netip.AddrPort) (int, error) {
	cp := append([]byte(nil), buf...)
	f.writes = append(f.writes, struct {
		bytes []byte
		to    netip.AddrPort
	}{cp, to})
	return len(buf), nil
}
func (f *fakeUDP) Fd() int     { return 0 }
func (f *fakeUDP) Close() error { return nil }

func elMAC(b byte) domain.MAC {
	m, _ := domain.ParseMAC([]byte{b, b, b, b, b, b})
	return m
}

func elAddrPort(s string) netip.AddrPort {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		panic(err)
	}
	return ap
}

func newTestLoop(t *testing.T) (*Loop, *fakeTap, *fakeUDP) {
	t.Helper()
	now := time.Now()
	clock := fixedClock{t: now}

	peers := registry.NewPeerTable()
	supernodes := registry.NewSupernodeList([]string{"sn.example"})
	supernodes.ResolveSocket("sn.example", domain.SocketFromAddrPort(elAddrPort("9.9.9.9:9999")), now, time.Minute)
	engine := registration.NewEngine(registration.DefaultConfig(), peers, supernodes)

	community := domain.Community("acme")
	ciphers, err := forwarding.NewCipherSuite(community, "correct-horse-battery-staple", clock)
	if err != nil {
		t.Fatalf("NewCipherSuite: %v", err)
	}

	cfg := forwarding.Config{
		Community: community,
		SelfMAC:   elMAC(1),
		TTL:       32,
		AllowP2P:  true, AllowRouting: true,
		Transform: application.TransformAES,
	}
	pipeline := forwarding.NewPipeline(
		cfg, peers, supernodes, engine, ciphers,
		compression.NewPolicy(nil), compression.NewSet(nil, nil),
		nil, forwarding.NewFilterSet(nil), clock,
		time.Minute, 5*time.Second, nil,
	)

	tap := &fakeTap{}
	udp := &fakeUDP{}
	mgmt := &fakeUDP{from: elAddrPort("127.0.0.1:4000")}
	mgmtServer := management.NewServer(peers, supernodes, &management.VerbosityLevel{}, community)

	loop := New(tap, udp, mgmt, mgmtServer, pipeline, engine, peers, supernodes, clock, nil, signal.NewFlag(), Timers{
		RegisterSuperInterval: time.Second,
		PurgeInterval:         time.Second,
		PeerPingInterval:      time.Second,
		PollBound:             time.Second,
	}, nil, false)
	return loop, tap, udp
}

func TestLoop_ServiceManagement_RepliesToLocalRequest(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	mgmtFake := loop.mgmt.(*fakeUDP)
	mgmtFake.toRead = []byte("STATS")

	loop.serviceManagement()
	if len(mgmtFake.writes) != 1 {
		t.Fatalf("expected one reply, got %d", len(mgmtFake.writes))
	}
}

func TestLoop_RunMaintenance_PurgesAndRetries(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	future := loop.clock.(fixedClock).t.Add(time.Hour)
	loop.runMaintenance(future)
	// Should not panic and should have advanced the scheduled deadlines.
	if !loop.nextPurge.After(loop.clock.(fixedClock).t) {
		t.Fatalf("expected nextPurge to have advanced")
	}
}

type fakeIfaceSetter struct {
	calls []netip.Prefix
}

func (f *fakeIfaceSetter) SetAddress(cidr netip.Prefix) error {
	f.calls = append(f.calls, cidr)
	return nil
}

func TestLoop_OnRegisterSuperAck_RecordsSelfSocket(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	now := loop.clock.(fixedClock).t
	cookie, _, err := loop.engine.BeginSelfRegistration(now)
	if err != nil {
		t.Fatalf("BeginSelfRegistration: %v", err)
	}

	selfSocket := domain.SocketFromAddrPort(elAddrPort("203.0.113.1:4000"))
	ack := &wire.RegisterSuperAck{Cookie: cookie, Lifetime: 60, Socket: selfSocket}
	loop.onRegisterSuperAck(ack, now)

	frame, err := loop.pipeline.BuildDirectRegisterFrame(elMAC(2), 1, selfSocket)
	if err != nil {
		t.Fatalf("BuildDirectRegisterFrame: %v", err)
	}

	buf := wire.NewBuffer(frame.Bytes)
	header, err := wire.DecodeCommonHeader(buf)
	if err != nil {
		t.Fatalf("DecodeCommonHeader: %v", err)
	}
	if !header.HasSocket() {
		t.Fatal("expected the SOCKET flag to be set once selfSocket is known")
	}
	reg, err := wire.DecodeRegister(buf, header.HasSocket())
	if err != nil {
		t.Fatalf("DecodeRegister: %v", err)
	}
	if reg.Socket != selfSocket {
		t.Fatalf("Register.Socket = %s, want %s", reg.Socket, selfSocket)
	}
}

func TestLoop_OnRegisterSuperAck_AssignsAddressWhenSNAssign(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	iface := &fakeIfaceSetter{}
	loop.ifaceManager = iface
	loop.assignAddress = true

	now := loop.clock.(fixedClock).t
	cookie, _, err := loop.engine.BeginSelfRegistration(now)
	if err != nil {
		t.Fatalf("BeginSelfRegistration: %v", err)
	}

	ack := &wire.RegisterSuperAck{
		Cookie:   cookie,
		Lifetime: 60,
		DevAddr:  wire.DeviceAddr{NetAddr: 0x0A000005, BitLen: 24}, // 10.0.0.5/24
	}
	loop.onRegisterSuperAck(ack, now)

	if len(iface.calls) != 1 {
		t.Fatalf("expected one SetAddress call, got %d", len(iface.calls))
	}
	want := netip.MustParsePrefix("10.0.0.5/24")
	if iface.calls[0] != want {
		t.Fatalf("SetAddress called with %s, want %s", iface.calls[0], want)
	}
}

func TestLoop_OnRegisterSuperAck_SkipsAddressWhenNotSNAssign(t *testing.T) {
	loop, _, _ := newTestLoop(t)
	iface := &fakeIfaceSetter{}
	loop.ifaceManager = iface
	loop.assignAddress = false

	now := loop.clock.(fixedClock).t
	cookie, _, err := loop.engine.BeginSelfRegistration(now)
	if err != nil {
		t.Fatalf("BeginSelfRegistration: %v", err)
	}

	ack := &wire.RegisterSuperAck{
		Cookie:  cookie,
		DevAddr: wire.DeviceAddr{NetAddr: 0x0A000005, BitLen: 24},
	}
	loop.onRegisterSuperAck(ack, now)

	if len(iface.calls) != 0 {
		t.Fatalf("expected no SetAddress calls, got %d", len(iface.calls))
	}
}
