package generic

import "sync"

// Pool is a typed wrapper around sync.Pool.
type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// NewSlicePool builds a pool of reusable slices with the given initial
// capacity. Callers truncate to zero length before Put.
func NewSlicePool[T any](capacity int) *Pool[[]T] {
	return NewPool(func() []T {
		return make([]T, 0, capacity)
	})
}
