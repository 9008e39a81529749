// Package module wires the run tracker
package module

import (
	"ycintel/internal/modkit"
	"ycintel/internal/services/runs/domain"
	"ycintel/internal/services/runs/repo"
	"ycintel/internal/services/runs/service"
)

// Ports defines the run tracker ports
type Ports struct {
	Tracker domain.TrackerPort
}

// Module implements the run tracker module. It mounts no routes
type Module struct {
	ports Ports
}

// New constructs the run tracker on deps.PG
func New(deps modkit.Deps) *Module {
	return &Module{ports: Ports{Tracker: service.New(deps.PG, repo.NewPG(), deps.Now())}}
}

// Name returns the module name
func (m *Module) Name() string { return "runs" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }
