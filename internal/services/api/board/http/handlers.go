// Package http provides http transport for the board
package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"ycintel/internal/core/version"
	phttp "ycintel/internal/platform/net/http"
	"ycintel/internal/services/api/board/domain"
	svc "ycintel/internal/services/api/board/service"
)

// Pinger is satisfied by adapters that expose Ping
type Pinger interface {
	Ping(context.Context) error
}

// Health are the readiness dependencies. A nil seam is reported as skipped
type Health struct {
	Service   string
	StartedAt time.Time
	PG        any
	CH        any
}

// Register mounts board endpoints on the given router
func Register(r phttp.Router, s svc.Service, hc Health) {
	h := &handlers{svc: s, health: hc}

	phttp.GetJSON(r, "/healthz", h.healthz)

	r.Route("/v1", func(v1 phttp.Router) {
		phttp.GetJSON(v1, "/leaderboard", h.leaderboard)
		phttp.GetJSON(v1, "/trends", h.trends)
		phttp.GetJSON(v1, "/search", h.search)
		phttp.GetJSON(v1, "/runs", h.runs)
		phttp.GetJSON(v1, "/runs/{id}", h.run)
		phttp.GetJSON(v1, "/companies/{key}", h.company)
		phttp.GetJSON(v1, "/companies/{key}/changes", h.changes)
	})
}

type handlers struct {
	svc    svc.Service
	health Health
}

// Check describes a single dependency check
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"` // ok fail skipped unknown
	Error  string `json:"error,omitempty"`
}

// HealthResponse summarizes liveness, readiness and build
type HealthResponse struct {
	Status string            `json:"status"` // ok degraded fail
	Build  version.BuildInfo `json:"build"`
	Uptime int64             `json:"uptime"`
	Checks []Check           `json:"checks"`
	Now    string            `json:"now"`
}

func (h *handlers) healthz(r *stdhttp.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	check := func(name string, c any) Check {
		if c == nil {
			return Check{Name: name, Status: "skipped"}
		}
		p, ok := c.(Pinger)
		if !ok {
			return Check{Name: name, Status: "unknown"}
		}
		if err := p.Ping(ctx); err != nil {
			return Check{Name: name, Status: "fail", Error: err.Error()}
		}
		return Check{Name: name, Status: "ok"}
	}

	pg := check("pg", h.health.PG)
	ch := check("ch", h.health.CH)

	// ch is optional, only pg decides failure
	overall := "ok"
	switch {
	case pg.Status == "fail":
		overall = "fail"
	case pg.Status != "ok" || ch.Status == "fail":
		overall = "degraded"
	}

	now := time.Now().UTC()
	var uptime int64
	if !h.health.StartedAt.IsZero() {
		uptime = int64(now.Sub(h.health.StartedAt) / time.Second)
	}
	return HealthResponse{
		Status: overall,
		Build:  version.Info(h.health.Service),
		Uptime: uptime,
		Checks: []Check{pg, ch},
		Now:    now.Format(time.RFC3339),
	}, nil
}

func (h *handlers) leaderboard(r *stdhttp.Request) (any, error) {
	q := domain.LeaderboardQuery{Limit: 50, By: "momentum"}
	if err := phttp.BindQuery(r, &q); err != nil {
		return nil, err
	}
	return h.svc.Leaderboard(r.Context(), q)
}

func (h *handlers) trends(r *stdhttp.Request) (any, error) {
	q := domain.TrendsQuery{Limit: 10}
	if err := phttp.BindQuery(r, &q); err != nil {
		return nil, err
	}
	return h.svc.Trends(r.Context(), q)
}

func (h *handlers) search(r *stdhttp.Request) (any, error) {
	q := domain.SearchQuery{Sort: "relevance", Page: 1, Limit: 20}
	if err := phttp.BindQuery(r, &q); err != nil {
		return nil, err
	}
	return h.svc.Search(r.Context(), q)
}

func (h *handlers) runs(r *stdhttp.Request) (any, error) {
	q := domain.PageQuery{Limit: 20}
	if err := phttp.BindQuery(r, &q); err != nil {
		return nil, err
	}
	return h.svc.Runs(r.Context(), q)
}

func (h *handlers) run(r *stdhttp.Request) (any, error) {
	return h.svc.Run(r.Context(), phttp.URLParam(r, "id"))
}

func (h *handlers) company(r *stdhttp.Request) (any, error) {
	return h.svc.Company(r.Context(), phttp.URLParam(r, "key"))
}

func (h *handlers) changes(r *stdhttp.Request) (any, error) {
	q := domain.PageQuery{Limit: 50}
	if err := phttp.BindQuery(r, &q); err != nil {
		return nil, err
	}
	return h.svc.CompanyChanges(r.Context(), phttp.URLParam(r, "key"), q)
}
