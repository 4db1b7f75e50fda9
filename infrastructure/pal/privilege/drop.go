// Package privilege implements application.PrivilegeDropper (A3) on Linux,
// backing the -u/-g flags of spec.md §6: a thin collaborator built on
// golang.org/x/sys/unix, in the same one-struct-one-exported-method shape
// as infrastructure/pal/route.IPRouteManager, errors wrapped with context.
package privilege

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// UnixDropper drops process privileges via setgid(2) then setuid(2), in
// that order — dropping uid first would leave the process without
// permission to call setgid.
type UnixDropper struct{}

// NewUnixDropper builds a UnixDropper.
func NewUnixDropper() *UnixDropper {
	return &UnixDropper{}
}

func (UnixDropper) DropTo(uid, gid int) error {
	if gid >= 0 {
		if err := unix.Setgid(gid); err != nil {
			return fmt.Errorf("privilege: setgid(%d): %w", gid, err)
		}
	}
	if uid >= 0 {
		if err := unix.Setuid(uid); err != nil {
			return fmt.Errorf("privilege: setuid(%d): %w", uid, err)
		}
	}
	return nil
}
