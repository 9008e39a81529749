package repokit

import "fmt"

// Binder produces a repo of type T scoped to one Queryer, so the same repo code
// runs on the pool, inside a chunk transaction or inside an entity savepoint
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a constructor to Binder
type BindFunc[T any] func(Queryer) T

// Bind calls f
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// RequireQueryer panics on a nil q
func RequireQueryer(q Queryer) Queryer {
	if q == nil {
		panic("repokit: nil Queryer")
	}
	return q
}

// MustBind binds b to q, panicking with the repo type when either is nil
func MustBind[T any](b Binder[T], q Queryer) T {
	if b == nil {
		var zero T
		panic(fmt.Sprintf("repokit: nil Binder[%T]", &zero))
	}
	return b.Bind(RequireQueryer(q))
}
