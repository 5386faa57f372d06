package system

import "errors"

var (
	ErrDuplicateSystem    = errors.New("system name already registered")
	ErrUnknownDependency  = errors.New("system dependency is not registered")
	ErrCircularDependency = errors.New("circular system dependency")
	ErrAlreadyInitialized = errors.New("system manager already initialized")
	ErrNotInitialized     = errors.New("system manager is not initialized")
)
