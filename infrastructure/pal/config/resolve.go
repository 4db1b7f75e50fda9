package config

import (
	"errors"
	"fmt"
	"os"

	"overlink/infrastructure/errs"
	"overlink/infrastructure/pal/args"
	"overlink/infrastructure/settings"
)

// errHelpRequested signals the -h flag was seen; Resolve returns it
// unwrapped so cmd/edge can print usage and exit 0 rather than 1, per
// spec.md §6 ("Exit codes: 0 normal ... -h Help, exit 0").
var errHelpRequested = errors.New("help requested")

// IsHelpRequested reports whether err is the sentinel Resolve returns for
// -h, so callers can distinguish "print usage, exit 0" from every other
// Resolve failure ("print message, exit 1").
func IsHelpRequested(err error) bool {
	return errors.Is(err, errHelpRequested)
}

// Resolve builds a validated settings.Settings from the process's
// environment: an optional config file (found either via a leading
// positional argv path, per spec.md §6) applied first, then CLI flags
// layered on top as overrides, per spec.md §9's "typed config-file record
// first, CLI flags applied on top" design note.
func Resolve(provider args.Provider) (settings.Settings, error) {
	s := settings.Default()

	argv := provider.Args()
	if path, ok := configPathArgument(argv); ok {
		fileTokens, err := newReader(path).read()
		if err != nil {
			return settings.Settings{}, errs.Wrap(errs.Config, "reading config file", err)
		}
		for _, tok := range fileTokens {
			if err := apply(&s, tok); err != nil {
				return settings.Settings{}, errs.Wrap(errs.Config, "config file", err)
			}
		}
		argv = argv[1:]
	}

	cliTokens, err := tokenizeArgs(argv)
	if err != nil {
		return settings.Settings{}, errs.Wrap(errs.Config, "parsing arguments", err)
	}
	for _, tok := range cliTokens {
		if err := apply(&s, tok); err != nil {
			if IsHelpRequested(err) {
				return settings.Settings{}, err
			}
			return settings.Settings{}, errs.Wrap(errs.Config, "parsing arguments", err)
		}
	}

	if key := os.Getenv("N2N_KEY"); s.EncryptionKey == "" && key != "" {
		s.EncryptionKey = key
	}

	if err := s.Validate(); err != nil {
		return settings.Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}
