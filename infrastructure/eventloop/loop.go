// Package eventloop implements the single-threaded cooperative loop (C7) of
// spec.md §4.7, multiplexing readiness across the TAP, UDP, and management
// file descriptors with golang.org/x/sys/unix.Poll, substituting poll(2)
// for epoll(2) since this loop watches a fixed set of three descriptors
// rather than a dynamic connection pool.
package eventloop

import (
	"net/netip"
	"time"

	"golang.org/x/sys/unix"

	"overlink/application"
	"overlink/domain"
	"overlink/infrastructure/forwarding"
	"overlink/infrastructure/management"
	"overlink/infrastructure/pal/signal"
	"overlink/infrastructure/registration"
	"overlink/infrastructure/registry"
	"overlink/infrastructure/wire"
)

const maxDatagramSize = 9216 + 128 // overlay MTU headroom plus wire framing overhead

// UDPSocket is the event loop's UDP collaborator, implemented by
// infrastructure/udpsocket.Socket.
type UDPSocket interface {
	ReadFrom(buf []byte) (int, netip.AddrPort, error)
	WriteTo(buf []byte, to netip.AddrPort) (int, error)
	Fd() int
	Close() error
}

// ManagementSocket is the event loop's management-channel collaborator,
// the same shape as UDPSocket since both are plain UDP sockets.
type ManagementSocket = UDPSocket

// TAPAddressSetter reconfigures the TAP device's network address, used when
// a supernode grants an address via sn_assign (spec.md §4.5), implemented
// by infrastructure/pal/route.InterfaceManager.
type TAPAddressSetter interface {
	SetAddress(cidr netip.Prefix) error
}

// Timers bounds how often each maintenance callback of spec.md §4.7 runs.
type Timers struct {
	RegisterSuperInterval time.Duration
	PurgeInterval         time.Duration
	PeerPingInterval      time.Duration
	PollBound             time.Duration // SOCKET_TIMEOUT_INTERVAL_SECS equivalent ceiling
}

// Loop owns every mutable piece of edge state and is the sole caller into
// the registration engine and forwarding pipeline, per spec.md §5.
type Loop struct {
	tap        application.TapDevice
	udp        UDPSocket
	mgmt       ManagementSocket
	mgmtServer *management.Server
	pipeline   *forwarding.Pipeline
	engine     *registration.Engine
	peers      *registry.PeerTable
	supernodes *registry.SupernodeList
	clock      application.Clock
	logger     application.Logger
	flag       *signal.Flag
	timers     Timers

	ifaceManager  TAPAddressSetter
	assignAddress bool // true iff InterfaceMode == settings.AddressSNAssign

	nextRegisterSuper time.Time
	nextPurge         time.Time
	nextPeerPing      time.Time

	tapBuf  [maxDatagramSize]byte
	udpBuf  [maxDatagramSize]byte
	mgmtBuf [2048]byte
}

// New builds a Loop. Sockets and the TAP device must already be open;
// privilege drop, if configured, happens in cmd/edge before New is called.
func New(
	tap application.TapDevice,
	udp UDPSocket,
	mgmt ManagementSocket,
	mgmtServer *management.Server,
	pipeline *forwarding.Pipeline,
	engine *registration.Engine,
	peers *registry.PeerTable,
	supernodes *registry.SupernodeList,
	clock application.Clock,
	logger application.Logger,
	flag *signal.Flag,
	timers Timers,
	ifaceManager TAPAddressSetter,
	assignAddress bool,
) *Loop {
	now := clock.Now()
	return &Loop{
		tap: tap, udp: udp, mgmt: mgmt, mgmtServer: mgmtServer,
		pipeline: pipeline, engine: engine, peers: peers, supernodes: supernodes,
		clock: clock, logger: logger, flag: flag, timers: timers,
		ifaceManager:      ifaceManager,
		assignAddress:     assignAddress,
		nextRegisterSuper: now.Add(timers.RegisterSuperInterval),
		nextPurge:         now.Add(timers.PurgeInterval),
		nextPeerPing:      now.Add(timers.PeerPingInterval),
	}
}

// Run executes the loop until the signal flag clears, then tears down in
// the order spec.md §5 describes.
func (l *Loop) Run() error {
	for l.flag.Running() {
		if err := l.iteration(); err != nil {
			l.logf("eventloop: iteration error: %v", err)
		}
	}
	l.teardown()
	return nil
}

func (l *Loop) iteration() error {
	now := l.clock.Now()
	deadline := l.nextDeadline()
	timeout := deadline.Sub(now)
	if bound := l.timers.PollBound; bound > 0 && timeout > bound {
		timeout = bound
	}
	if timeout < 0 {
		timeout = 0
	}

	fds := []unix.PollFd{
		{Fd: int32(l.mgmt.Fd()), Events: unix.POLLIN},
		{Fd: int32(l.udp.Fd()), Events: unix.POLLIN},
		{Fd: int32(l.tap.Fd()), Events: unix.POLLIN},
	}
	_, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil && err != unix.EINTR {
		return err
	}

	if fds[0].Revents&unix.POLLIN != 0 {
		l.serviceManagement()
	}
	if fds[1].Revents&unix.POLLIN != 0 {
		l.serviceUDP()
	}
	if fds[2].Revents&unix.POLLIN != 0 {
		l.serviceTAP()
	}

	l.runMaintenance(l.clock.Now())
	return nil
}

func (l *Loop) nextDeadline() time.Time {
	d := l.nextRegisterSuper
	if l.nextPurge.Before(d) {
		d = l.nextPurge
	}
	if l.nextPeerPing.Before(d) {
		d = l.nextPeerPing
	}
	return d
}

func (l *Loop) serviceManagement() {
	n, from, err := l.mgmt.ReadFrom(l.mgmtBuf[:])
	if err != nil {
		l.logf("management: read: %v", err)
		return
	}
	if !management.IsLocal(from) {
		return
	}
	reply := l.mgmtServer.Handle(string(l.mgmtBuf[:n]))
	if _, err := l.mgmt.WriteTo([]byte(reply), from); err != nil {
		l.logf("management: write: %v", err)
	}
}

func (l *Loop) serviceUDP() {
	n, from, err := l.udp.ReadFrom(l.udpBuf[:])
	if err != nil {
		l.logf("udp: read: %v", err)
		return
	}
	now := l.clock.Now()
	out, err := l.pipeline.Ingress(l.udpBuf[:n], domain.SocketFromAddrPort(from), now)
	if err != nil {
		l.logf("udp: ingress: %v", err)
		return
	}
	if out.Dropped {
		return
	}
	if out.TAPFrame != nil {
		if _, err := l.tap.Write(out.TAPFrame); err != nil {
			l.logf("tap: write: %v", err)
		}
		return
	}
	if out.Control != nil {
		l.dispatchControl(out.Control, now)
	}
}

func (l *Loop) serviceTAP() {
	n, err := l.tap.Read(l.tapBuf[:])
	if err != nil {
		l.logf("tap: read: %v", err)
		return
	}
	now := l.clock.Now()
	out, err := l.pipeline.Egress(l.tapBuf[:n], now)
	if err != nil {
		l.logf("tap: egress: %v", err)
		return
	}
	if out.Dropped {
		return
	}
	l.send(out.Register)
	l.send(out.Packet)
}

func (l *Loop) send(frame *forwarding.Frame) {
	if frame == nil {
		return
	}
	ap, err := frame.Target.AddrPort()
	if err != nil {
		l.logf("udp: bad target: %v", err)
		return
	}
	if _, err := l.udp.WriteTo(frame.Bytes, ap); err != nil {
		l.logf("udp: write: %v", err)
	}
}

func (l *Loop) runMaintenance(now time.Time) {
	if !now.Before(l.nextRegisterSuper) {
		l.nextRegisterSuper = now.Add(l.timers.RegisterSuperInterval)
		l.maintainSelfRegistration(now)
	}
	if !now.Before(l.nextPurge) {
		l.nextPurge = now.Add(l.timers.PurgeInterval)
		l.peers.Purge(now, l.timers.PurgeInterval)
	}
	if !now.Before(l.nextPeerPing) {
		l.nextPeerPing = now.Add(l.timers.PeerPingInterval)
		l.maintainPendingPeers(now)
	}
	l.engine.CheckSelfRegistrationTimeout(now)
	for _, mac := range l.engine.ExpireIdleDirectPeers(now) {
		l.logf("peer %s expired to UNKNOWN", mac)
	}
}

func (l *Loop) maintainSelfRegistration(now time.Time) {
	if l.engine.SnWait() {
		return
	}
	cookie, target, err := l.engine.BeginSelfRegistration(now)
	if err != nil {
		l.logf("self-registration: %v", err)
		return
	}
	frame, err := l.pipeline.BuildRegisterSuperFrame(cookie, target.Socket)
	if err != nil {
		l.logf("self-registration: encode REGISTER_SUPER: %v", err)
		return
	}
	l.send(frame)
	l.logf("REGISTER_SUPER -> %s (%s)", target.Host, target.Socket)
}

func (l *Loop) maintainPendingPeers(now time.Time) {
	var pending []domain.MAC
	l.peers.Range(func(p *domain.Peer) {
		if p.State == domain.PeerPending {
			pending = append(pending, p.MAC)
		}
	})
	for _, mac := range pending {
		l.engine.TickPingTimeout(mac)
	}
}

func (l *Loop) dispatchControl(ctrl *forwarding.ControlPacket, now time.Time) {
	switch {
	case ctrl.Register != nil:
		l.onRegister(ctrl.Register, ctrl.From, now)
	case ctrl.RegisterAck != nil:
		l.engine.OnRegisterAck(ctrl.RegisterAck.SrcMAC, ctrl.RegisterAck.Cookie, ctrl.From, now)
	case ctrl.RegisterSuperAck != nil:
		l.onRegisterSuperAck(ctrl.RegisterSuperAck, now)
	case ctrl.RegisterSuperNak != nil:
		l.engine.OnRegisterSuperNak(*ctrl.RegisterSuperNak)
	case ctrl.PeerInfo != nil:
		l.onPeerInfo(ctrl.PeerInfo, now)
	case ctrl.QueryPeer != nil:
		// An edge forwards QUERY_PEER replies only as a supernode would;
		// as a plain edge it has nothing more specific to answer with.
	case ctrl.Deregister != nil:
		l.engine.Unregister(ctrl.Deregister.SrcMAC)
	}
}

// onRegister answers an incoming REGISTER hole-punch probe: the sender is
// learned as a directly-reachable peer and a REGISTER_ACK is echoed back to
// confirm, per spec.md §4.5.
func (l *Loop) onRegister(reg *wire.Register, from domain.Socket, now time.Time) {
	target := reg.Socket
	if !target.IsSet() {
		target = from
	}
	p, _ := l.peers.FindOrInsert(reg.SrcMAC, from, now)
	p.State = domain.PeerDirect
	p.Touch(now)

	frame, err := l.pipeline.BuildRegisterAckFrame(reg.Cookie, reg.SrcMAC, target)
	if err != nil {
		l.logf("REGISTER_ACK: encode: %v", err)
		return
	}
	l.send(frame)
}

// onRegisterSuperAck adopts a REGISTER_SUPER_ACK's grants (spec.md §4.5):
// the supernode's view of this edge's public socket is always recorded for
// use in subsequent REGISTER frames, and when the interface address mode is
// sn_assign, the granted dev_addr is applied to the TAP device.
func (l *Loop) onRegisterSuperAck(ack *wire.RegisterSuperAck, now time.Time) {
	assigned, ok := l.engine.OnRegisterSuperAck(*ack, now)
	if !ok {
		return
	}
	if assigned.Socket.IsSet() {
		l.pipeline.SetSelfSocket(assigned.Socket)
	}
	if !l.assignAddress || l.ifaceManager == nil {
		return
	}
	prefix := assigned.DevAddr.Prefix()
	if !prefix.IsValid() {
		return
	}
	l.pipeline.SetOverlaySubnet(prefix)
	if err := l.ifaceManager.SetAddress(prefix); err != nil {
		l.logf("sn_assign: configure TAP address: %v", err)
	}
}

// onPeerInfo begins (or resumes) a direct registration punch toward the
// socket a supernode discovered for a queried peer, per spec.md §4.5: "on
// receipt, initiate REGISTER punch."
func (l *Loop) onPeerInfo(info *wire.PeerInfo, now time.Time) {
	cookie, begin := l.engine.OnPeerInfo(*info, now)
	if !begin {
		return
	}
	frame, err := l.pipeline.BuildDirectRegisterFrame(info.TargetMAC, cookie, info.Socket)
	if err != nil {
		l.logf("REGISTER (direct): encode: %v", err)
		return
	}
	l.send(frame)
}

// teardown performs the orderly shutdown of spec.md §5: best-effort
// DEREGISTER to every supernode and known peer, then close every owned
// resource. Send failures are logged, never fatal — shutdown always runs to
// completion.
func (l *Loop) teardown() {
	l.supernodes.Range(func(sn *domain.Supernode) {
		if frame, err := l.pipeline.BuildDeregisterFrame(sn.Socket); err == nil {
			l.send(frame)
		}
	})
	l.peers.Range(func(p *domain.Peer) {
		if p.State != domain.PeerDirect {
			return
		}
		if frame, err := l.pipeline.BuildDeregisterFrame(p.Socket); err == nil {
			l.send(frame)
		}
	})
	_ = l.udp.Close()
	_ = l.mgmt.Close()
	_ = l.tap.Close()
}

func (l *Loop) logf(format string, v ...any) {
	if l.logger != nil {
		l.logger.Printf(format, v...)
	}
}
