package entity

import "errors"

// Entity and manager errors. These mark caller bugs (lifecycle or factory
// mistakes), not runtime conditions, and callers are expected to fail fast
// on them.
var (
	ErrNilComponent       = errors.New("component is nil")
	ErrDuplicateComponent = errors.New("component kind already present on entity")
	ErrComponentAttached  = errors.New("component is already attached to another entity")
	ErrEntityDestroying   = errors.New("entity is being destroyed")
	ErrDuplicateEntity    = errors.New("entity id already registered")
)
