// Package module wires the pipeline orchestrator from the other core modules
package module

import (
	"ycintel/internal/modkit"
	"ycintel/internal/platform/store"
	changesmod "ycintel/internal/services/changes/module"
	"ycintel/internal/services/pipeline/domain"
	"ycintel/internal/services/pipeline/service"
	runsmod "ycintel/internal/services/runs/module"
	scoringmod "ycintel/internal/services/scoring/module"
	snapsmod "ycintel/internal/services/snapshots/module"
)

// Ports defines the pipeline module ports
type Ports struct {
	Runner domain.RunnerPort
}

// Module implements the pipeline module. It mounts no routes
type Module struct {
	ports Ports
}

// New wires snapshots, changes, scoring and runs around sup. deps.PG is required;
// the run lease is taken when deps.PG can hand out advisory locks
func New(deps modkit.Deps, sup domain.Supplier) *Module {
	snaps := snapsmod.New(deps)
	changes := changesmod.New(deps, snaps.Ports().Binder)
	scores := scoringmod.New(deps)
	runs := runsmod.New(deps)

	leaser, _ := deps.PG.(store.Leaser)
	svc := service.New(
		deps.PG,
		leaser,
		sup,
		snaps.Ports().Binder,
		changes.Ports().Binder,
		changes.Ports().Mirror,
		scores.Ports().Scores,
		runs.Ports().Tracker,
		deps.Now(),
		FromConfig(deps.Cfg),
	)
	return &Module{ports: Ports{Runner: svc}}
}

// Name returns the module name
func (m *Module) Name() string { return "pipeline" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }
