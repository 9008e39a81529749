// Package ndjson supplies company records from a newline delimited JSON file,
// one record per line, optionally gzip compressed
package ndjson

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"ycintel/internal/core/record"
	perr "ycintel/internal/platform/errors"
	"ycintel/internal/platform/logger"
)

const maxScanTokenSize = 4 * 1024 * 1024

// line is one file record. Active is a pointer so an omitted field reads as
// listed, and so active, like the ycoss listing
type line struct {
	record.Raw
	Active *bool `json:"active"`
}

func (l line) toRecord() record.Raw {
	rec := l.Raw
	rec.Active = l.Active == nil || *l.Active
	return rec
}

// Supplier reads the whole file in List and serves Fetch from memory
type Supplier struct {
	path string

	mu    sync.RWMutex
	byKey map[string]record.Raw
}

// New returns a Supplier over the file at path. A .gz suffix enables gzip
func New(path string) *Supplier {
	return &Supplier{path: path, byKey: map[string]record.Raw{}}
}

// List parses the file and returns keys in file order. Blank lines are
// skipped; a malformed line fails the listing with its line number.
// A later line for the same key replaces the earlier one
func (s *Supplier) List(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeSupply, "open %s", s.path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(s.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeSupply, "gzip %s", s.path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	byKey, keys, err := parse(ctx, r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.byKey = byKey
	s.mu.Unlock()
	logger.Named("ndjson").Info().Str("path", s.path).Int("companies", len(keys)).Msg("ndjson listing loaded")
	return keys, nil
}

func parse(ctx context.Context, r io.Reader) (map[string]record.Raw, []string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxScanTokenSize)

	byKey := map[string]record.Raw{}
	var keys []string
	n := 0
	for sc.Scan() {
		n++
		if n%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		b := sc.Bytes()
		if len(strings.TrimSpace(string(b))) == 0 {
			continue
		}
		var l line
		if err := json.Unmarshal(b, &l); err != nil {
			return nil, nil, perr.Wrapf(err, perr.ErrorCodeSupply, "line %d", n)
		}
		rec := l.toRecord()
		rec.Key = strings.ToLower(strings.TrimSpace(rec.Key))
		if rec.Key == "" {
			return nil, nil, perr.Supplyf("line %d: key is required", n)
		}
		if _, dup := byKey[rec.Key]; !dup {
			keys = append(keys, rec.Key)
		}
		byKey[rec.Key] = rec
	}
	if err := sc.Err(); err != nil {
		return nil, nil, perr.Wrap(err, perr.ErrorCodeSupply, "scan ndjson")
	}
	return byKey, keys, nil
}

// Fetch returns the record for key from the last listing
func (s *Supplier) Fetch(ctx context.Context, key string) (record.Raw, error) {
	if err := ctx.Err(); err != nil {
		return record.Raw{}, err
	}
	s.mu.RLock()
	r, ok := s.byKey[key]
	s.mu.RUnlock()
	if !ok {
		return record.Raw{}, perr.Supplyf("company %q not in %s", key, s.path)
	}
	return r, nil
}
