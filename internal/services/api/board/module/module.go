// Package module wires the read API into a router using modkit
package module

import (
	"ycintel/internal/modkit"
	phttp "ycintel/internal/platform/net/http"
	boardhttp "ycintel/internal/services/api/board/http"
	boardrepo "ycintel/internal/services/api/board/repo"
	boardsvc "ycintel/internal/services/api/board/service"
	runsmod "ycintel/internal/services/runs/module"
)

// Ports defines the board ports
type Ports struct {
	Board boardsvc.Service
}

// Module implements modkit.Module for the board
type Module struct {
	ports  Ports
	health boardhttp.Health
}

// New constructs the board on deps.PG. The run tracker is built from the same deps
func New(deps modkit.Deps) *Module {
	runs := runsmod.New(deps)
	m := &Module{
		ports: Ports{Board: boardsvc.New(deps.PG, boardrepo.NewPG(), runs.Ports().Tracker)},
		health: boardhttp.Health{
			Service:   "tracker-api",
			StartedAt: deps.Now().Now(),
		},
	}
	if deps.PG != nil {
		m.health.PG = deps.PG
	}
	if deps.CH != nil {
		m.health.CH = deps.CH
	}
	return m
}

// MountRoutes implements modkit.Module
func (m *Module) MountRoutes(r phttp.Router) { boardhttp.Register(r, m.ports.Board, m.health) }

// Name implements modkit.Module
func (m *Module) Name() string { return "board" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }

