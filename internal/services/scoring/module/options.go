package module

import (
	"time"

	"ycintel/internal/platform/config"
	"ycintel/internal/services/scoring/service"
)

// FromConfig reads score engine tuning. Workers and chunk size follow the
// pipeline settings so one knob sizes both passes
func FromConfig(cfg config.Conf) service.Config {
	p := cfg.Prefix("CORE_PIPELINE_")
	s := cfg.Prefix("CORE_SCORING_")
	return service.Config{
		Workers:     s.MayPositiveInt("WORKERS", p.MayPositiveInt("WORKERS", 4)),
		CommitEvery: s.MayPositiveInt("COMMIT_EVERY", p.MayPositiveInt("COMMIT_EVERY", 100)),
		MaxRetries:  s.MayPositiveInt("MAX_RETRIES", 3),
		RetryBase:   s.MayDuration("RETRY_BASE", 250*time.Millisecond),
		DB:          s.MayDuration("CHUNK_TIMEOUT", time.Minute),
	}
}
