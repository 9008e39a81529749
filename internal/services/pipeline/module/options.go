package module

import (
	"time"

	"ycintel/internal/platform/config"
	"ycintel/internal/services/pipeline/service"
)

// FromConfig reads orchestrator options with the CORE_PIPELINE_ prefix
func FromConfig(cfg config.Conf) service.Config {
	c := cfg.Prefix("CORE_PIPELINE_")
	return service.Config{
		Workers:           c.MayPositiveInt("WORKERS", 4),
		CommitEvery:       c.MayPositiveInt("COMMIT_EVERY", 50),
		FetchTimeout:      c.MayDuration("FETCH_TIMEOUT", 15*time.Second),
		RunTimeout:        c.MayDuration("RUN_TIMEOUT", 0),
		ChunkTimeout:      c.MayDuration("CHUNK_TIMEOUT", 5*time.Minute),
		StatementTimeout:  c.MayDuration("STATEMENT_TIMEOUT", 30*time.Second),
		LockTimeout:       c.MayDuration("LOCK_TIMEOUT", 10*time.Second),
		MaxRetries:        c.MayPositiveInt("MAX_RETRIES", 3),
		RetryBase:         c.MayDuration("RETRY_BASE", 500*time.Millisecond),
		FinishTimeout:     c.MayDuration("FINISH_TIMEOUT", 10*time.Second),
		DeactivateMissing: c.MayBool("DEACTIVATE_MISSING", false),
		Lease:             c.MayBool("LEASE", true),
		LeaseName:         c.MayString("LEASE_NAME", "tracker-run"),
	}
}
