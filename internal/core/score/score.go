// Package score holds the pure momentum/stability policy over a change history
package score

import (
	"time"

	perr "ycintel/internal/platform/errors"
)

const (
	day = 24 * time.Hour

	// Baseline is the stability of an entity with no change history
	Baseline = 25

	// momentumFloor keeps entities with only stale history off zero
	momentumFloor = 2

	recentWindow = 90 * day
)

// recency tiers by age, first match wins
var tiers = []struct {
	maxAge time.Duration
	points int
}{
	{30 * day, 10},
	{90 * day, 6},
	{180 * day, 3},
	{365 * day, 1},
}

// Event is one detected change as the scorer sees it
type Event struct {
	Kind Kind
	At   time.Time
}

// Result is a computed score pair, both in [0,100]
type Result struct {
	Momentum  int
	Stability int
}

// Recency returns the tier points for a change detected at at, seen from now.
// Future-dated changes fall in the first tier
func Recency(at, now time.Time) int {
	age := now.Sub(at)
	for _, t := range tiers {
		if age <= t.maxAge {
			return t.points
		}
	}
	return 0
}

// Compute scores history as of now. It is pure: equal inputs give equal results.
// Any event whose kind is outside the enumeration fails the whole computation
// with a scoring error so callers keep the prior score
func Compute(history []Event, now time.Time) (Result, error) {
	if len(history) == 0 {
		return Result{Momentum: 0, Stability: Baseline}, nil
	}

	var (
		momentum int
		recent   int
		perKind  [len(kinds)]int
	)
	for _, ev := range history {
		if !ev.Kind.Valid() {
			return Result{}, perr.Scoringf("change kind %d outside enumeration", ev.Kind)
		}
		momentum += Recency(ev.At, now) + ev.Kind.Weight()
		if now.Sub(ev.At) <= recentWindow {
			recent++
		}
		perKind[ev.Kind]++
	}
	if momentum == 0 {
		momentum = momentumFloor
	}

	var stability int
	switch {
	case recent == 0:
		stability = 20
	case recent <= 2:
		stability = 10
	default:
		stability = -5
	}
	for _, k := range Kinds() {
		if c := kinds[k].churn; c > 0 && perKind[k] >= c {
			stability -= 5
		}
	}

	return Result{Momentum: clamp(momentum), Stability: clamp(stability)}, nil
}

func clamp(v int) int {
	return max(0, min(v, 100))
}
