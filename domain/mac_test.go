package domain

import "testing"

func TestMAC_IsMultiBroadcast(t *testing.T) {
	tests := []struct {
		name string
		mac  MAC
		want bool
	}{
		{"broadcast", MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, true},
		{"ipv4 multicast", MAC{0x01, 0x00, 0x5E, 0x01, 0x02, 0x03}, true},
		{"ipv6 multicast", MAC{0x33, 0x33, 0x00, 0x00, 0x00, 0x01}, true},
		{"unicast", MAC{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mac.IsMultiBroadcast(); got != tt.want {
				t.Errorf("IsMultiBroadcast() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseMAC_InvalidLength(t *testing.T) {
	if _, err := ParseMAC([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short MAC")
	}
}

func TestMAC_String(t *testing.T) {
	m := MAC{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}
	want := "02:11:22:33:44:55"
	if got := m.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
