package registration

import (
	"time"

	"overlink/domain"
	"overlink/infrastructure/wire"
)

// BeginSelfRegistration prepares a REGISTER_SUPER to the current supernode,
// per spec.md §4.5 ("Timer: fire every register_interval seconds... Send to
// current supernode"). Returns the cookie to embed and the supernode to
// send it to.
func (e *Engine) BeginSelfRegistration(now time.Time) (cookie uint32, target *domain.Supernode, err error) {
	target, err = e.supernodes.Current()
	if err != nil {
		return 0, nil, err
	}
	e.selfCookie = NewCookie()
	e.selfWait = true
	e.nextSelfDeadline = now.Add(e.cfg.RegisterTimeout)
	return e.selfCookie, target, nil
}

// AssignedAddress is the overlay address information adopted from a
// REGISTER_SUPER_ACK when the edge's IP mode is SN_ASSIGN.
type AssignedAddress struct {
	DevAddr  wire.DeviceAddr
	Lifetime time.Duration
	Socket   domain.Socket // the supernode's view of our public socket
}

// OnRegisterSuperAck validates ack's cookie and, if it matches the
// outstanding self-registration, adopts its granted state and refreshes the
// supernode list's metrics from the embedded federation entries (spec.md
// §4.5). Returns ok=false if the cookie does not match (a stale or forged
// reply).
func (e *Engine) OnRegisterSuperAck(ack wire.RegisterSuperAck, now time.Time) (AssignedAddress, bool) {
	if !e.selfWait || ack.Cookie != e.selfCookie {
		return AssignedAddress{}, false
	}
	e.selfWait = false
	e.nextSelfDeadline = now.Add(time.Duration(ack.Lifetime) * time.Second)

	for _, sn := range ack.Supernodes {
		e.supernodes.UpdateMetric(sn.Socket, sn.Metric)
	}

	return AssignedAddress{
		DevAddr:  ack.DevAddr,
		Lifetime: time.Duration(ack.Lifetime) * time.Second,
		Socket:   ack.Socket,
	}, true
}

// OnRegisterSuperNak rotates to the next supernode candidate, per spec.md
// §4.5 ("On REGISTER_SUPER_NAK: rotate supernode list (try next), increment
// backoff").
func (e *Engine) OnRegisterSuperNak(nak wire.RegisterSuperNak) bool {
	if !e.selfWait || nak.Cookie != e.selfCookie {
		return false
	}
	e.selfWait = false
	e.supernodes.RotateToBack()
	return true
}

// CheckSelfRegistrationTimeout reports whether the outstanding self-
// registration has gone unanswered past its deadline; if so it rotates to
// the next supernode and clears the wait (spec.md §4.5: "No ACK within a
// timeout multiple of register_interval: rotate to next supernode").
func (e *Engine) CheckSelfRegistrationTimeout(now time.Time) (timedOut bool) {
	if !e.selfWait || now.Before(e.nextSelfDeadline) {
		return false
	}
	e.selfWait = false
	e.supernodes.RotateToBack()
	return true
}

// SnWait reports whether a self-registration is currently outstanding.
func (e *Engine) SnWait() bool { return e.selfWait }

// QueryPeerIfUnknown returns whether a QUERY_PEER should be sent to the
// supernode for target, because it is not present in any local table
// (spec.md §4.5: "if target MAC not in tables, send QUERY_PEER to
// supernode").
func (e *Engine) QueryPeerIfUnknown(target domain.MAC) bool {
	_, known := e.peers.Get(target)
	return !known
}

// OnPeerInfo processes a supernode's PEER_INFO reply to a QUERY_PEER,
// beginning a direct registration attempt against the discovered socket
// (spec.md §4.5: "on receipt, initiate REGISTER punch").
func (e *Engine) OnPeerInfo(info wire.PeerInfo, now time.Time) (cookie uint32, begin bool) {
	if !info.Socket.IsSet() {
		return 0, false
	}
	_, cookie, begin = e.BeginDirectAttempt(info.TargetMAC, now)
	return cookie, begin
}
