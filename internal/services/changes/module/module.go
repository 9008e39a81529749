// Package module wires the change detector and its optional clickhouse mirror
package module

import (
	"context"

	"ycintel/internal/modkit"
	"ycintel/internal/modkit/repokit"
	"ycintel/internal/platform/logger"
	"ycintel/internal/services/changes/domain"
	"ycintel/internal/services/changes/repo"
	"ycintel/internal/services/changes/service"
	snapdom "ycintel/internal/services/snapshots/domain"
)

// Ports defines the change module ports
type Ports struct {
	// Binder binds the detector onto a caller's transaction
	Binder repokit.Binder[domain.DetectorPort]
	// Mirror copies committed changes, nil when disabled
	Mirror domain.Mirror
}

// Module implements the change module. It mounts no routes
type Module struct {
	ports Ports
}

// New constructs the change module. snaps is the snapshot store binder
func New(deps modkit.Deps, snaps repokit.Binder[snapdom.StorePort]) *Module {
	opts := FromConfig(deps.Cfg)

	reader := repokit.BindFunc[domain.SnapshotReader](func(q repokit.Queryer) domain.SnapshotReader {
		return snaps.Bind(q)
	})
	m := &Module{ports: Ports{
		Binder: service.NewBinder(reader, repo.NewPG(), deps.Now()),
	}}
	if opts.MirrorEnabled && deps.CH != nil {
		m.ports.Mirror = timeoutMirror{inner: repo.NewCH(deps.CH), opts: opts}
	}
	return m
}

// Name returns the module name
func (m *Module) Name() string { return "changes" }

// Ports returns the module ports
func (m *Module) Ports() Ports { return m.ports }

// timeoutMirror bounds each batch and detaches it from the caller's cancellation
type timeoutMirror struct {
	inner domain.Mirror
	opts  Options
}

func (t timeoutMirror) Mirror(ctx context.Context, cs []domain.Change) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.opts.MirrorTimeout)
	defer cancel()
	err := t.inner.Mirror(ctx, cs)
	if err != nil {
		logger.C(ctx).Warn().Err(err).Int("changes", len(cs)).Msg("change mirror failed")
	}
	return err
}
