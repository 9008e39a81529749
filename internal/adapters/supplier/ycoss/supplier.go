package ycoss

import (
	"context"
	"encoding/json"
	"sync"

	"ycintel/internal/core/record"
	perr "ycintel/internal/platform/errors"
)

// Supplier implements the pipeline supplier over the YC-OSS listing
type Supplier struct {
	client *Client

	mu    sync.RWMutex
	byKey map[string]record.Raw
	bad   map[string]error
}

// New returns a Supplier backed by client
func New(client *Client) *Supplier {
	return &Supplier{client: client, byKey: map[string]record.Raw{}}
}

// List downloads the listing once and returns its keys in listing order.
// Only a listing that is not a json array fails. An entry that does not decode
// keeps its key and Fetch reports it as a supply error; entries without a
// slug are dropped
func (s *Supplier) List(ctx context.Context) ([]string, error) {
	body, err := s.client.Download(ctx)
	if err != nil {
		return nil, err
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeSupply, "decode ycoss listing")
	}

	byKey := make(map[string]record.Raw, len(entries))
	bad := map[string]error{}
	keys := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	add := func(k string) {
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for i, raw := range entries {
		var c company
		if err := json.Unmarshal(raw, &c); err != nil {
			k := entryKey(raw)
			s.client.log.Warn().Err(err).Int("entry", i).Str("key", k).Msg("ycoss entry undecodable")
			if k == "" {
				continue
			}
			delete(byKey, k)
			bad[k] = perr.Wrapf(err, perr.ErrorCodeSupply, "decode ycoss entry %q", k)
			add(k)
			continue
		}
		r := c.toRecord()
		if r.Key == "" {
			continue
		}
		delete(bad, r.Key)
		byKey[r.Key] = r
		add(r.Key)
	}

	s.mu.Lock()
	s.byKey, s.bad = byKey, bad
	s.mu.Unlock()
	s.client.log.Info().Int("companies", len(keys)).Int("undecodable", len(bad)).Msg("ycoss listing loaded")
	return keys, nil
}

// Fetch returns the record for key from the last listing
func (s *Supplier) Fetch(ctx context.Context, key string) (record.Raw, error) {
	if err := ctx.Err(); err != nil {
		return record.Raw{}, err
	}
	s.mu.RLock()
	r, ok := s.byKey[key]
	bad := s.bad[key]
	s.mu.RUnlock()
	if bad != nil {
		return record.Raw{}, bad
	}
	if !ok {
		return record.Raw{}, perr.Supplyf("company %q not in the current listing", key)
	}
	return r, nil
}
