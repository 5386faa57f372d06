package physics

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMass  = errors.New("body mass must be positive")
	ErrBodyNotFound = errors.New("no physics body registered for entity")
)

// Body holds an entity's physical attributes. Bodies live in the physics
// system's registry keyed by entity id, not in the entity's component set,
// so physics participation can be toggled without touching components.
//
// Force and torque are accumulated between ticks and consumed (then zeroed)
// by the next integration step: applied forces are impulses-per-step, not
// persistent.
type Body struct {
	Mass            float64
	Velocity        Vec2
	AngularVelocity float64
	// Restitution in [0,1]: 1 is perfectly elastic.
	Restitution float64
	// Friction >= 0, carried for future tangential response.
	Friction float64
	// Radius is the body's fallback bounding radius, used when the entity
	// has no registered collision shape.
	Radius float64

	force  Vec2
	torque float64
}

// validate rejects degenerate bodies at registration time; a zero or
// negative mass would turn every later division into NaN that silently
// corrupts velocities.
func (b *Body) validate() error {
	if b == nil {
		return errors.New("body is nil")
	}
	if b.Mass <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidMass, b.Mass)
	}
	if b.Restitution < 0 {
		b.Restitution = 0
	} else if b.Restitution > 1 {
		b.Restitution = 1
	}
	if b.Friction < 0 {
		b.Friction = 0
	}
	return nil
}

func (b *Body) invMass() float64 {
	return 1 / b.Mass
}
