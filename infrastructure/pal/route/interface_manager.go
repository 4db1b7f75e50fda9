package route

import (
	"fmt"
	"net/netip"

	"overlink/domain"
	"overlink/infrastructure/pal/exec_commander"
)

// InterfaceManager configures the TAP link's address, MTU, and hardware
// address via "ip addr"/"ip link", the same exec-commander pattern as
// IPRouteManager, run once at startup before the edge's privilege drop.
type InterfaceManager struct {
	commander exec_commander.Commander
	device    string
}

// NewInterfaceManager builds an InterfaceManager for the named TAP device.
func NewInterfaceManager(commander exec_commander.Commander, device string) *InterfaceManager {
	return &InterfaceManager{commander: commander, device: device}
}

// SetAddress adds cidr to the device ("ip addr add"); addresses already on
// the device are left in place.
func (m *InterfaceManager) SetAddress(cidr netip.Prefix) error {
	output, err := m.commander.CombinedOutput("ip", "addr", "add", cidr.String(), "dev", m.device)
	if err != nil {
		return fmt.Errorf("failed to set address %s on %s: %v, output: %s", cidr, m.device, err, output)
	}
	return nil
}

// SetMTU sets the link MTU, if mtu is non-zero.
func (m *InterfaceManager) SetMTU(mtu int) error {
	if mtu == 0 {
		return nil
	}
	output, err := m.commander.CombinedOutput("ip", "link", "set", m.device, "mtu", fmt.Sprintf("%d", mtu))
	if err != nil {
		return fmt.Errorf("failed to set MTU %d on %s: %v, output: %s", mtu, m.device, err, output)
	}
	return nil
}

// SetHardwareAddress sets the link's MAC address, if mac is non-zero (the -m
// flag of spec.md §6).
func (m *InterfaceManager) SetHardwareAddress(mac domain.MAC) error {
	if mac.IsZero() {
		return nil
	}
	output, err := m.commander.CombinedOutput("ip", "link", "set", m.device, "address", mac.String())
	if err != nil {
		return fmt.Errorf("failed to set MAC %s on %s: %v, output: %s", mac, m.device, err, output)
	}
	return nil
}

// Up brings the link up, the final step before the edge can exchange
// frames over it.
func (m *InterfaceManager) Up() error {
	output, err := m.commander.CombinedOutput("ip", "link", "set", m.device, "up")
	if err != nil {
		return fmt.Errorf("failed to bring up %s: %v, output: %s", m.device, err, output)
	}
	return nil
}
