// Package module wires the snapshot store
package module

import (
	"ycintel/internal/modkit"
	"ycintel/internal/modkit/repokit"
	"ycintel/internal/services/snapshots/domain"
	"ycintel/internal/services/snapshots/repo"
	"ycintel/internal/services/snapshots/service"
)

// Ports defines the snapshot module ports
type Ports struct {
	// Binder binds the store onto the caller's chunk transaction
	Binder repokit.Binder[domain.StorePort]
}

// Module implements the snapshot module. It mounts no routes
type Module struct {
	ports Ports
}

// New constructs the snapshot module from deps
func New(deps modkit.Deps) *Module {
	return &Module{ports: Ports{Binder: service.NewBinder(repo.NewPG(), deps.Now())}}
}

// Name returns the module name
func (m *Module) Name() string { return "snapshots" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }
