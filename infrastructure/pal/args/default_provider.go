// Package args provides the edge's argv collaborator (A3): a thin Provider
// wrapping os.Args so infrastructure/pal/config never touches the OS
// package directly and can be driven by a fake Provider in tests.
package args

import "os"

// Provider returns the process's command-line arguments, excluding the
// binary name.
type Provider interface {
	Args() []string
}

// DefaultProvider is the production Provider, backed by os.Args.
type DefaultProvider struct{}

// NewDefaultProvider builds a DefaultProvider.
func NewDefaultProvider() *DefaultProvider {
	return &DefaultProvider{}
}

func (d *DefaultProvider) Args() []string {
	// skip binary name, which is the first argument
	return os.Args[1:]
}
