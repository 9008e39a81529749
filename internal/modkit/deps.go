// Package modkit provides module wiring and core deps
package modkit

import (
	"ycintel/internal/modkit/repokit"
	"ycintel/internal/platform/config"
	"ycintel/internal/platform/store"
	ptime "ycintel/internal/platform/time"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Cfg   config.Conf
	PG    repokit.TxRunner
	CH    store.Clickhouse
	Clock ptime.Clock
}

// Now returns the clock, falling back to the wall clock
func (d Deps) Now() ptime.Clock { return ptime.OrSystem(d.Clock) }

// FromStore fills the storage seams from an opened store
func FromStore(st *store.Store, cfg config.Conf) Deps {
	d := Deps{Cfg: cfg, Clock: ptime.System{}}
	if st != nil {
		d.PG = st.PG
		d.CH = st.CH
	}
	return d
}
