// Package system orchestrates per-frame logic units. Priority order governs
// frame execution; topological order over declared dependencies governs
// initialization and teardown.
package system

import "time"

// System is a unit of per-frame logic. Priority and Dependencies are
// consumed at registration and initialize time only and must not change
// afterwards.
type System interface {
	// Name is the registration tag other systems reference in their
	// dependency sets.
	Name() string
	// Priority orders per-frame updates; lower runs first. Ties run in
	// registration order.
	Priority() int
	// Dependencies lists the names of systems that must be registered
	// before this one and initialized ahead of it.
	Dependencies() []string

	Initialize() error
	Update(deltaTime float64) error
	Cleanup() error
}

// Metrics captures per-system update statistics.
type Metrics struct {
	UpdateCount     uint64
	TotalUpdateTime time.Duration
	MaxUpdateTime   time.Duration
	ErrorCount      uint64
	LastError       error
}

// Built-in system names and priorities. Physics runs before collision so
// detection sees post-integration positions.
const (
	NamePhysics   = "physics"
	NameCollision = "collision"

	PriorityPhysics   = 100
	PriorityCollision = 200
)
