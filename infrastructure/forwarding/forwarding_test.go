package forwarding

import (
	"net/netip"
	"testing"
	"time"

	"overlink/application"
	"overlink/domain"
	"overlink/infrastructure/compression"
	"overlink/infrastructure/crypto"
	"overlink/infrastructure/registration"
	"overlink/infrastructure/registry"
	"overlink/infrastructure/wire"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func fwdMAC(b byte) domain.MAC {
	m, _ := domain.ParseMAC([]byte{b, b, b, b, b, b})
	return m
}

func fwdSocket(s string) domain.Socket {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		panic(err)
	}
	return domain.SocketFromAddrPort(ap)
}

// ethFrame builds a minimal Ethernet II frame with an IPv4 payload carrying
// no L4 data, just enough to exercise the pipeline.
func ethFrame(dst, src domain.MAC) []byte {
	f := make([]byte, ethHeaderLen+20)
	copy(f[0:6], dst[:])
	copy(f[6:12], src[:])
	f[12], f[13] = 0x08, 0x00 // ethertype IPv4
	ip := f[ethHeaderLen:]
	ip[0] = 0x45 // version 4, IHL 5
	ip[9] = 17   // UDP
	copy(ip[12:16], []byte{10, 8, 0, 1})
	copy(ip[16:20], []byte{10, 8, 0, 2})
	return f
}

type testRig struct {
	pipeline   *Pipeline
	peers      *registry.PeerTable
	supernodes *registry.SupernodeList
	engine     *registration.Engine
	clock      fixedClock
}

func newTestRig(t *testing.T, headerEncryption bool) *testRig {
	t.Helper()
	now := time.Now()
	clock := fixedClock{t: now}

	peers := registry.NewPeerTable()
	supernodes := registry.NewSupernodeList([]string{"sn.example"})
	supernodes.ResolveSocket("sn.example", fwdSocket("9.9.9.9:9999"), now, time.Minute)
	engine := registration.NewEngine(registration.DefaultConfig(), peers, supernodes)

	community := domain.Community("acme")
	ciphers, err := NewCipherSuite(community, "correct-horse-battery-staple", clock)
	if err != nil {
		t.Fatalf("NewCipherSuite: %v", err)
	}

	var headerCipher *crypto.HeaderCipher
	if headerEncryption {
		key, err := crypto.DeriveHeaderKey(community, "correct-horse-battery-staple", 16)
		if err != nil {
			t.Fatalf("DeriveHeaderKey: %v", err)
		}
		headerCipher, err = crypto.NewHeaderCipher(key)
		if err != nil {
			t.Fatalf("NewHeaderCipher: %v", err)
		}
	}

	cfg := Config{
		Community:        community,
		SelfMAC:          fwdMAC(1),
		TTL:              32,
		AllowP2P:         true,
		AllowRouting:     true,
		HeaderEncryption: headerEncryption,
		Transform:        application.TransformAES,
	}

	pipeline := NewPipeline(
		cfg,
		peers,
		supernodes,
		engine,
		ciphers,
		compression.NewPolicy(nil),
		compression.NewSet(nil, nil),
		headerCipher,
		NewFilterSet(nil),
		clock,
		time.Minute,
		5*time.Second,
		nil,
	)

	return &testRig{pipeline: pipeline, peers: peers, supernodes: supernodes, engine: engine, clock: clock}
}

func TestEgress_UnknownPeerRoutesViaSupernodeAndTriggersRegister(t *testing.T) {
	rig := newTestRig(t, false)
	dst := fwdMAC(2)
	frame := ethFrame(dst, rig.pipeline.cfg.SelfMAC)

	out, err := rig.pipeline.Egress(frame, rig.clock.Now())
	if err != nil {
		t.Fatalf("Egress: %v", err)
	}
	if out.Dropped {
		t.Fatalf("expected not dropped")
	}
	if out.Packet == nil {
		t.Fatalf("expected a PACKET frame")
	}
	if out.Packet.Target != fwdSocket("9.9.9.9:9999") {
		t.Fatalf("expected target = supernode socket, got %v", out.Packet.Target)
	}
	if out.Register == nil {
		t.Fatalf("expected a REGISTER frame to be triggered for a first-seen dst")
	}
	p, ok := rig.peers.Get(dst)
	if !ok || p.State != domain.PeerPending {
		t.Fatalf("expected dst to become PENDING, got %+v", p)
	}
}

func TestEgress_DirectPeerRoutesDirectly(t *testing.T) {
	rig := newTestRig(t, false)
	dst := fwdMAC(3)
	direct := fwdSocket("5.5.5.5:5555")
	rig.peers.FindOrInsert(dst, direct, rig.clock.Now())
	p, _ := rig.peers.Get(dst)
	p.State = domain.PeerDirect

	frame := ethFrame(dst, rig.pipeline.cfg.SelfMAC)
	out, err := rig.pipeline.Egress(frame, rig.clock.Now())
	if err != nil {
		t.Fatalf("Egress: %v", err)
	}
	if out.Packet.Target != direct {
		t.Fatalf("Target = %v, want %v", out.Packet.Target, direct)
	}
	if out.Register != nil {
		t.Fatalf("expected no REGISTER for an already-DIRECT peer")
	}
	if p.Counters.PacketsOut != 1 || p.Counters.BytesOut != uint64(len(frame)) {
		t.Fatalf("expected egress to count the forwarded frame, got %+v", p.Counters)
	}
}

func TestEgress_MulticastDroppedWhenConfigured(t *testing.T) {
	rig := newTestRig(t, false)
	rig.pipeline.cfg.DropMulticast = true
	frame := ethFrame(domain.BroadcastMAC, rig.pipeline.cfg.SelfMAC)

	out, err := rig.pipeline.Egress(frame, rig.clock.Now())
	if err != nil {
		t.Fatalf("Egress: %v", err)
	}
	if !out.Dropped {
		t.Fatalf("expected broadcast frame to be dropped")
	}
}

func TestEgressIngress_RoundTrip_NoHeaderEncryption(t *testing.T) {
	rig := newTestRig(t, false)
	dst := fwdMAC(4)
	direct := fwdSocket("6.6.6.6:6666")
	rig.peers.FindOrInsert(dst, direct, rig.clock.Now())
	p, _ := rig.peers.Get(dst)
	p.State = domain.PeerDirect

	src := rig.pipeline.cfg.SelfMAC
	frame := ethFrame(dst, src)
	out, err := rig.pipeline.Egress(frame, rig.clock.Now())
	if err != nil {
		t.Fatalf("Egress: %v", err)
	}

	// Simulate dst's pipeline receiving what src sent.
	receiver := newTestRig(t, false)
	receiver.pipeline.cfg.SelfMAC = dst
	in, err := receiver.pipeline.Ingress(out.Packet.Bytes, fwdSocket("7.7.7.7:7777"), rig.clock.Now())
	if err != nil {
		t.Fatalf("Ingress: %v", err)
	}
	if in.Dropped {
		t.Fatalf("expected ingress to accept the frame")
	}
	if in.TAPFrame == nil {
		t.Fatalf("expected a TAP frame")
	}
	if len(in.TAPFrame) != len(frame) {
		t.Fatalf("TAPFrame len = %d, want %d", len(in.TAPFrame), len(frame))
	}
	for i := range frame {
		if in.TAPFrame[i] != frame[i] {
			t.Fatalf("TAPFrame mismatch at byte %d: got %x want %x", i, in.TAPFrame[i], frame[i])
		}
	}

	learned, ok := receiver.peers.Get(src)
	if !ok || learned.Socket != fwdSocket("7.7.7.7:7777") {
		t.Fatalf("expected sender to be learned into known_peers, got %+v", learned)
	}
	if learned.Counters.PacketsIn != 1 || learned.Counters.BytesIn != uint64(len(frame)) {
		t.Fatalf("expected ingress to count the delivered frame, got %+v", learned.Counters)
	}
}

func TestEgressIngress_RoundTrip_HeaderEncryption(t *testing.T) {
	rig := newTestRig(t, true)
	dst := fwdMAC(5)
	direct := fwdSocket("6.6.6.6:6666")
	rig.peers.FindOrInsert(dst, direct, rig.clock.Now())
	p, _ := rig.peers.Get(dst)
	p.State = domain.PeerDirect

	src := rig.pipeline.cfg.SelfMAC
	frame := ethFrame(dst, src)
	out, err := rig.pipeline.Egress(frame, rig.clock.Now())
	if err != nil {
		t.Fatalf("Egress: %v", err)
	}

	receiver := newTestRig(t, true)
	receiver.pipeline.cfg.SelfMAC = dst
	in, err := receiver.pipeline.Ingress(out.Packet.Bytes, fwdSocket("7.7.7.7:7777"), rig.clock.Now())
	if err != nil {
		t.Fatalf("Ingress: %v", err)
	}
	if in.Dropped || in.TAPFrame == nil {
		t.Fatalf("expected ingress to decrypt header and accept the frame, got %+v", in)
	}
}

func TestIngress_WrongCommunityDropped(t *testing.T) {
	rig := newTestRig(t, false)
	header := wire.NewCommonHeader(wire.PacketData, 32, domain.Community("other"))
	buf := wire.NewBuffer(make([]byte, 64))
	header.Encode(buf)
	out, err := rig.pipeline.Ingress(buf.Written(), fwdSocket("1.1.1.1:1"), rig.clock.Now())
	if err != nil {
		t.Fatalf("Ingress: %v", err)
	}
	if !out.Dropped {
		t.Fatalf("expected community mismatch to be dropped")
	}
}

func TestEgress_RelayedRegisterCarriesSelfSocketOnceKnown(t *testing.T) {
	rig := newTestRig(t, false)
	dst := fwdMAC(6)
	frame := ethFrame(dst, rig.pipeline.cfg.SelfMAC)

	out, err := rig.pipeline.Egress(frame, rig.clock.Now())
	if err != nil {
		t.Fatalf("Egress: %v", err)
	}
	if out.Register == nil {
		t.Fatalf("expected a REGISTER frame for a first-seen dst")
	}

	buf := wire.NewBuffer(out.Register.Bytes)
	header, err := wire.DecodeCommonHeader(buf)
	if err != nil {
		t.Fatalf("DecodeCommonHeader: %v", err)
	}
	if header.HasSocket() {
		t.Fatalf("expected no SOCKET flag before selfSocket is known")
	}

	selfSocket := fwdSocket("203.0.113.5:51820")
	rig.pipeline.SetSelfSocket(selfSocket)

	dst2 := fwdMAC(7)
	frame2 := ethFrame(dst2, rig.pipeline.cfg.SelfMAC)
	out2, err := rig.pipeline.Egress(frame2, rig.clock.Now())
	if err != nil {
		t.Fatalf("Egress: %v", err)
	}
	if out2.Register == nil {
		t.Fatalf("expected a REGISTER frame for a first-seen dst")
	}

	buf2 := wire.NewBuffer(out2.Register.Bytes)
	header2, err := wire.DecodeCommonHeader(buf2)
	if err != nil {
		t.Fatalf("DecodeCommonHeader: %v", err)
	}
	if !header2.HasSocket() {
		t.Fatalf("expected the SOCKET flag once selfSocket is known")
	}
	reg, err := wire.DecodeRegister(buf2, header2.HasSocket())
	if err != nil {
		t.Fatalf("DecodeRegister: %v", err)
	}
	if reg.Socket != selfSocket {
		t.Fatalf("Register.Socket = %s, want %s", reg.Socket, selfSocket)
	}
}

func TestIngress_ControlPacketHandedToC5(t *testing.T) {
	rig := newTestRig(t, false)
	body := wire.Register{Cookie: 42, SrcMAC: fwdMAC(9), DstMAC: rig.pipeline.cfg.SelfMAC}
	header := wire.NewCommonHeader(wire.PacketRegister, 32, rig.pipeline.cfg.Community)
	buf := wire.NewBuffer(make([]byte, 128))
	header.Encode(buf)
	body.Encode(buf, false)

	out, err := rig.pipeline.Ingress(buf.Written(), fwdSocket("1.1.1.1:1"), rig.clock.Now())
	if err != nil {
		t.Fatalf("Ingress: %v", err)
	}
	if out.Control == nil || out.Control.Register == nil {
		t.Fatalf("expected a decoded REGISTER control packet, got %+v", out)
	}
	if out.Control.Register.Cookie != 42 {
		t.Fatalf("Cookie = %d, want 42", out.Control.Register.Cookie)
	}
}
