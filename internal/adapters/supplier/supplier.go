// Package supplier selects the raw record source for a run from config
package supplier

import (
	"context"
	"time"

	"ycintel/internal/adapters/supplier/ndjson"
	"ycintel/internal/adapters/supplier/ycoss"
	"ycintel/internal/core/record"
	"ycintel/internal/platform/config"
	perr "ycintel/internal/platform/errors"
)

// Supplier yields the raw records of one run
type Supplier interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, key string) (record.Raw, error)
}

// Kinds of supplier
const (
	KindYCOSS  = "ycoss"
	KindNDJSON = "ndjson"
)

// FromConfig builds the supplier named by CORE_SUPPLIER_KIND
func FromConfig(cfg config.Conf) (Supplier, error) {
	c := cfg.Prefix("CORE_SUPPLIER_")
	switch kind := c.MayEnum("KIND", KindYCOSS, KindYCOSS, KindNDJSON); kind {
	case KindNDJSON:
		path := c.MayString("PATH", "")
		if path == "" {
			return nil, perr.WithField(perr.InvalidArgf("ndjson supplier needs a path"), "CORE_SUPPLIER_PATH")
		}
		return ndjson.New(path), nil
	default:
		return ycoss.New(ycoss.NewClient(ycoss.Options{
			URL:        c.MayString("URL", ""),
			UserAgent:  c.MayString("USER_AGENT", ""),
			Timeout:    c.MayDuration("HTTP_TIMEOUT", 30*time.Second),
			MaxRetries: c.MayPositiveInt("HTTP_RETRIES", 3),
			CacheDir:   c.MayString("CACHE_DIR", ""),
		})), nil
	}
}
