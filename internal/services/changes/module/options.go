package module

import (
	"time"

	"ycintel/internal/platform/config"
)

// Options holds configuration for the change module
type Options struct {
	// MirrorEnabled copies committed changes to clickhouse when a CH seam exists
	MirrorEnabled bool
	// MirrorTimeout bounds one mirror batch
	MirrorTimeout time.Duration
}

// FromConfig reads options with the CORE_CHANGES_ prefix
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_CHANGES_")
	return Options{
		MirrorEnabled: c.MayBool("MIRROR", true),
		MirrorTimeout: c.MayDuration("MIRROR_TIMEOUT", 10*time.Second),
	}
}
