package application

// PrivilegeDropper drops process privileges to an unprivileged uid/gid after
// sockets and the TAP device are open, per spec.md §5 and §6 (-u/-g flags).
type PrivilegeDropper interface {
	DropTo(uid, gid int) error
}
