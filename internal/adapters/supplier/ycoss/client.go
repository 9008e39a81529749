// Package ycoss supplies company records from the YC-OSS static API.
// The whole listing is downloaded once per run in List; Fetch serves from it
package ycoss

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/guardrails"
	"ycintel/internal/platform/logger"
)

const (
	defaultURL       = "https://yc-oss.github.io/api/companies/all.json"
	defaultTimeout   = 30 * time.Second
	defaultUA        = "ycintel-tracker"
	defaultMaxRetry  = 3
	defaultRetryBase = 500 * time.Millisecond
	cacheFile        = "all.json"
)

// Options configures the Client
type Options struct {
	URL       string
	UserAgent string
	Timeout   time.Duration

	// Retry config for transport errors and transient 5xx responses
	MaxRetries int
	RetryBase  time.Duration

	// CacheDir keeps the last good listing plus its ETag. Empty disables caching
	CacheDir string
}

// Client downloads the listing with retries and an optional on disk copy
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// cacheMeta is the sidecar written next to the cached listing
type cacheMeta struct {
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.URL == "" {
		o.URL = defaultURL
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.CacheDir != "" {
		_ = os.MkdirAll(o.CacheDir, 0o755)
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		log:  *logger.Named("ycoss"),
	}
}

// Download returns the raw listing bytes. With a cache dir it revalidates the
// cached copy and falls back to it when the upstream is unreachable
func (c *Client) Download(ctx context.Context) ([]byte, error) {
	var body []byte
	err := guardrails.Retry(ctx, guardrails.Backoff{Attempts: c.opts.MaxRetries, Base: c.opts.RetryBase}, func(ctx context.Context) error {
		b, err := c.get(ctx)
		body = b
		return err
	})
	if err == nil {
		return body, nil
	}
	if cached, cerr := c.readCache(); cerr == nil {
		c.log.Warn().Err(err).Msg("ycoss download failed, serving cached listing")
		return cached, nil
	}
	return nil, err
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSupply, "ycoss new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	if m, ok := c.readMeta(); ok {
		if m.ETag != "" {
			req.Header.Set("If-None-Match", m.ETag)
		}
		if m.LastModified != "" {
			req.Header.Set("If-Modified-Since", m.LastModified)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "ycoss get failed")
	}
	defer func() { _ = drainAndClose(resp.Body) }()

	c.log.Debug().
		Str("url", c.opts.URL).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("ycoss http response")

	switch resp.StatusCode {
	case http.StatusOK:
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "ycoss read body")
		}
		c.writeCache(b, resp.Header)
		return b, nil
	case http.StatusNotModified:
		b, err := c.readCache()
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeSupply, "ycoss not modified but cache unreadable")
		}
		return b, nil
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, perr.Newf(perr.ErrorCodeUnavailable, "ycoss transient status %d", resp.StatusCode)
	default:
		tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, perr.Newf(perr.ErrorCodeSupply, "ycoss unexpected status %d body %s", resp.StatusCode, string(tail))
	}
}

func (c *Client) cachePath() string { return filepath.Join(c.opts.CacheDir, cacheFile) }

func (c *Client) readCache() ([]byte, error) {
	if c.opts.CacheDir == "" {
		return nil, os.ErrNotExist
	}
	return os.ReadFile(c.cachePath())
}

func (c *Client) readMeta() (cacheMeta, bool) {
	var m cacheMeta
	if c.opts.CacheDir == "" {
		return m, false
	}
	if _, err := os.Stat(c.cachePath()); err != nil {
		return m, false
	}
	b, err := os.ReadFile(c.cachePath() + ".meta")
	if err != nil || json.Unmarshal(b, &m) != nil {
		return m, false
	}
	return m, true
}

// writeCache saves body and meta atomically, best effort
func (c *Client) writeCache(body []byte, h http.Header) {
	if c.opts.CacheDir == "" {
		return
	}
	if err := writeAtomic(c.cachePath(), body); err != nil {
		c.log.Warn().Err(err).Msg("ycoss cache write failed")
		return
	}
	meta, _ := json.Marshal(cacheMeta{
		ETag:         strings.TrimSpace(h.Get("ETag")),
		LastModified: strings.TrimSpace(h.Get("Last-Modified")),
		FetchedAt:    time.Now().UTC(),
	})
	_ = writeAtomic(c.cachePath()+".meta", meta)
}

func writeAtomic(path string, b []byte) error {
	tmp := path + ".part"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 64<<10))
	return rc.Close()
}
