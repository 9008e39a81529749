package store

import (
	"ycintel/internal/platform/logger"
)

// Option mutates Store during Open
type Option func(*Store) error

// WithLogger sets the logger used by the pg tracer and the clickhouse client.
// Lines are tagged component=store
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log.With().Str("component", "store").Logger()
		return nil
	}
}
