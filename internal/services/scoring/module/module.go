// Package module wires the score engine
package module

import (
	"ycintel/internal/modkit"
	"ycintel/internal/services/scoring/domain"
	"ycintel/internal/services/scoring/repo"
	"ycintel/internal/services/scoring/service"
)

// Ports defines the scoring module ports
type Ports struct {
	Scores domain.ScorePort
}

// Module implements the scoring module. It mounts no routes
type Module struct {
	ports Ports
}

// New constructs the scoring module; deps.PG is required
func New(deps modkit.Deps) *Module {
	svc := service.New(deps.PG, repo.NewPG(), FromConfig(deps.Cfg))
	return &Module{ports: Ports{Scores: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "scoring" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }
