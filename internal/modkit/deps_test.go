package modkit

import (
	"testing"
	"time"

	"ycintel/internal/platform/config"
	"ycintel/internal/platform/store"
	ptime "ycintel/internal/platform/time"
)

func TestDeps_Now_FallsBackToSystem(t *testing.T) {
	t.Parallel()

	var d Deps
	if _, ok := d.Now().(ptime.System); !ok {
		t.Fatalf("zero Deps should use the system clock")
	}
	fixed := ptime.NewFixed(time.Unix(100, 0))
	d.Clock = fixed
	if !d.Now().Now().Equal(time.Unix(100, 0)) {
		t.Fatalf("injected clock ignored")
	}
}

func TestFromStore(t *testing.T) {
	t.Parallel()

	d := FromStore(nil, config.New())
	if d.PG != nil || d.CH != nil {
		t.Fatalf("nil store should leave seams nil")
	}
	d = FromStore(&store.Store{}, config.New())
	if d.Clock == nil {
		t.Fatalf("clock should default")
	}
}
