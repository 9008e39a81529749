package store

import (
	"time"

	"ycintel/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds the boot ping loop; 0 means 20
	ConnectRetries int
	// PingTimeout caps one boot ping; 0 means 3s
	PingTimeout time.Duration
}

// CHConfig configures the optional clickhouse change mirror
type CHConfig struct {
	Enabled bool
	URL     string

	// ClientRole and ClientTag land in system.query_log via client info
	ClientRole string
	ClientTag  string
}

// ConfigFromEnv reads SERVICE_PGSQL_* and SERVICE_CLICKHOUSE_*.
// minConns is the floor for MaxConns so a worker pool never starves the run bookkeeping
func ConfigFromEnv(cfg config.Conf, role string, minConns int) Config {
	pgc := cfg.Prefix("SERVICE_PGSQL_")
	chc := cfg.Prefix("SERVICE_CLICKHOUSE_")

	maxConns := pgc.MayInt("MAX_CONNS", 0)
	if maxConns < minConns {
		maxConns = minConns
	}

	out := Config{
		AppName: "ycintel-" + role,
		PG: PGConfig{
			Enabled:     true,
			URL:         pgc.MustString("DBURL"),
			MaxConns:    int32(maxConns),
			LogSQL:      pgc.MayBool("LOG_SQL", false),
			SlowQueryMs: pgc.MayInt("SLOW_MS", 500),
		},
		CH: CHConfig{
			Enabled:    chc.MayBool("ENABLED", false),
			ClientRole: role,
			ClientTag:  "ycintel",
		},
	}
	if out.CH.Enabled {
		out.CH.URL = chc.MustString("DBURL")
	}
	return out
}
