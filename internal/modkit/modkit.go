package modkit

import (
	"net/http"

	phttp "ycintel/internal/platform/net/http"
)

// Module is the common surface for API modules that mount routes
// keep this tiny so modules stay decoupled
type Module interface {
	// MountRoutes mounts HTTP routes under the provided router seam
	MountRoutes(r phttp.Router)
	// Name returns the module name
	Name() string
}

// Mount attaches m in its own group so per-module middleware stays off
// sibling modules
func Mount(r phttp.Router, m Module, opts ...Option) {
	var c buildCfg
	for _, o := range opts {
		o(&c)
	}
	r.Group(func(sub phttp.Router) {
		if len(c.mw) > 0 {
			sub.Use(c.mw...)
		}
		m.MountRoutes(sub)
	})
}

// Middleware is the handler decorator type modules attach
type Middleware = func(http.Handler) http.Handler
