package service

import (
	"sync"
	"time"

	rundom "ycintel/internal/services/runs/domain"
	runsvc "ycintel/internal/services/runs/service"
)

type outcome uint8

const (
	outcomeFailed outcome = iota
	outcomeNew
	outcomeUpdated
	outcomeUnchanged
)

func (o outcome) String() string {
	switch o {
	case outcomeNew:
		return "new"
	case outcomeUpdated:
		return "updated"
	case outcomeUnchanged:
		return "unchanged"
	}
	return "failed"
}

// accumulator collects run counters from every worker
type accumulator struct {
	mu        sync.Mutex
	total     int
	new       int
	updated   int
	unchanged int
	failed    int
	scored    int
	ok        int
	elapsed   time.Duration
}

func (a *accumulator) setTotal(n int) {
	a.mu.Lock()
	a.total = n
	a.mu.Unlock()
}

func (a *accumulator) setScored(n int) {
	a.mu.Lock()
	a.scored = n
	a.mu.Unlock()
}

// add records one entity. Latency counts only for entities that completed
func (a *accumulator) add(o outcome, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch o {
	case outcomeNew:
		a.new++
	case outcomeUpdated:
		a.updated++
	case outcomeUnchanged:
		a.unchanged++
	default:
		a.failed++
		return
	}
	a.ok++
	a.elapsed += d
}

func (a *accumulator) fail(n int) {
	a.mu.Lock()
	a.failed += n
	a.mu.Unlock()
}

func (a *accumulator) totals(status rundom.Status, errText string) rundom.Totals {
	a.mu.Lock()
	defer a.mu.Unlock()
	return rundom.Totals{
		Status:    status,
		Total:     a.total,
		New:       a.new,
		Updated:   a.updated,
		Unchanged: a.unchanged,
		Failed:    a.failed,
		Scored:    a.scored,
		AvgMS:     runsvc.AvgMS(a.elapsed, a.ok),
		Error:     errText,
	}
}
