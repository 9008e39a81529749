// Package raw reads LOG_* and other bootstrap env vars before the logger exists.
// It must not import the logger package
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed view over the process environment
type Conf struct{ prefix string }

// New returns the unprefixed root view
func New() Conf { return Conf{} }

// Prefix returns a child view, LOG_ under API_ reads API_LOG_*
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) lookup(k string) string { return strings.TrimSpace(os.Getenv(c.prefix + k)) }

// Get returns the trimmed value or def when unset or blank
func (c Conf) Get(key, def string) string {
	if v := c.lookup(key); v != "" {
		return v
	}
	return def
}

// GetLower is Get folded to lower case, for enum-like knobs such as LOG_LEVEL
func (c Conf) GetLower(key, def string) string {
	return strings.ToLower(c.Get(key, def))
}

// GetBool accepts 1/true/yes/on and 0/false/no/off. Anything else yields def
func (c Conf) GetBool(key string, def bool) bool {
	switch strings.ToLower(c.lookup(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// GetInt parses a non negative integer. Signs, junk and overflow yield def
func (c Conf) GetInt(key string, def int) int {
	v := c.lookup(key)
	if v == "" || v[0] == '+' || v[0] == '-' {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
