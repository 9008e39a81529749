package modkit

// Option mutates mount configuration for a module
type Option func(*buildCfg)

type buildCfg struct {
	mw []Middleware
}

// WithMiddlewares attaches per module middleware in order
func WithMiddlewares(mw ...Middleware) Option {
	return func(c *buildCfg) { c.mw = append(c.mw, mw...) }
}
