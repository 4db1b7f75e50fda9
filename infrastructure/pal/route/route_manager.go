// Package route implements application.RouteManager (A3) on Linux by
// shelling out to "ip route": a thin struct holding an
// exec_commander.Commander, one method per operation, CombinedOutput's
// error plus output folded into one wrapped error.
package route

import (
	"fmt"

	"overlink/domain"
	"overlink/infrastructure/pal/exec_commander"
)

// IPRouteManager applies and reverses overlay routes via the "ip route"
// command line tool, per spec.md §3 ("Applied to the host routing table on
// startup, reversed on shutdown").
type IPRouteManager struct {
	commander exec_commander.Commander
	device    string
}

// NewIPRouteManager builds an IPRouteManager that routes through the named
// TAP device.
func NewIPRouteManager(commander exec_commander.Commander, device string) *IPRouteManager {
	return &IPRouteManager{commander: commander, device: device}
}

func (m *IPRouteManager) Apply(route domain.Route) error {
	output, err := m.commander.CombinedOutput("ip", "route", "add",
		fmt.Sprintf("%s/%d", route.Network, route.Prefix),
		"via", route.Gateway.String(),
		"dev", m.device)
	if err != nil {
		return fmt.Errorf("failed to apply route %s: %v, output: %s", route, err, output)
	}
	return nil
}

func (m *IPRouteManager) Revert(route domain.Route) error {
	output, err := m.commander.CombinedOutput("ip", "route", "del",
		fmt.Sprintf("%s/%d", route.Network, route.Prefix),
		"via", route.Gateway.String(),
		"dev", m.device)
	if err != nil {
		return fmt.Errorf("failed to revert route %s: %v, output: %s", route, err, output)
	}
	return nil
}
