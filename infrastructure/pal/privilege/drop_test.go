package privilege

import "testing"

func TestUnixDropper_NegativeValuesAreNoOps(t *testing.T) {
	d := NewUnixDropper()
	// -1/-1 means "do not drop", per settings.Default's DropUID/DropGID.
	// Exercising actual setuid/setgid requires root and is covered by
	// integration testing, not this unit test.
	if err := d.DropTo(-1, -1); err != nil {
		t.Fatalf("DropTo(-1, -1) = %v, want nil", err)
	}
}
