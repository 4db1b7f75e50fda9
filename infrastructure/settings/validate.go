package settings

import (
	"fmt"

	"overlink/application"
	"overlink/infrastructure/errs"
)

// Validate checks the fields the CLI/config-file layer cannot itself verify
// in isolation (cross-field and required-field checks), per spec.md §7's
// ConfigError category: "missing required option (community, supernode),
// bad address, unknown cipher/compression, invalid rule."
func (s Settings) Validate() error {
	if err := s.Community.Validate(); err != nil {
		return errs.Wrap(errs.Config, "community", err)
	}
	if len(s.Supernodes) == 0 {
		return errs.Wrap(errs.Config, "at least one supernode (-l) is required", nil)
	}
	if s.MTU < MinimumMTU || s.MTU > MaximumMTU {
		return errs.Wrap(errs.Config, fmt.Sprintf("MTU %d out of range [%d,%d]", s.MTU, MinimumMTU, MaximumMTU), nil)
	}
	if s.Transform == 0 {
		return errs.Wrap(errs.Config, "unknown cipher selection", nil)
	}
	if s.Compression == 0 {
		return errs.Wrap(errs.Config, "unknown compression selection", nil)
	}
	if s.EncryptionKey == "" && s.Transform != application.TransformNull {
		return errs.Wrap(errs.Config, "encryption key (-k) required for a non-NULL cipher", nil)
	}
	return nil
}
