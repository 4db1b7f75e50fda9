package logging

import "testing"

func TestStdLogger_ImplementsLogger(t *testing.T) {
	l := NewStdLogger()
	l.Printf("edge started: %s", "acme") // exercised for side effects only
}
