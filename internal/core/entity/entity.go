package entity

import (
	"github.com/google/uuid"
)

// ID uniquely identifies an entity. Random 128-bit ids keep identities
// stable and collision-resistant across managers and network boundaries.
type ID = uuid.UUID

// Entity is an identity plus a collection of components keyed by kind.
// Entities own their components; they never own other entities.
//
// The entity package is not synchronized: per the engine's concurrency
// model, all entity mutation happens on the simulation goroutine.
type Entity struct {
	id         ID
	active     bool
	destroying bool
	components map[Kind]Component
	manager    *Manager
}

// New creates an empty, active entity with a fresh random id.
func New() *Entity {
	return &Entity{
		id:         uuid.New(),
		active:     true,
		components: make(map[Kind]Component, 4),
	}
}

func (e *Entity) ID() ID { return e.id }

// IsActive reports whether the entity participates in updates. Inactive
// entities are skipped during update but remain addressable.
func (e *Entity) IsActive() bool { return e.active }

func (e *Entity) SetActive(active bool) { e.active = active }

// Destroying reports whether Cleanup is in progress; mutation during
// teardown is rejected.
func (e *Entity) Destroying() bool { return e.destroying }

// Manager returns the manager currently owning this entity, if any.
func (e *Entity) Manager() *Manager { return e.manager }

// AddComponent attaches a component. It fails if the entity is mid-destroy,
// the component kind is already present, or the component belongs to a
// different entity. On success the component is initialized and, when the
// entity is registered, the manager's reverse index is updated.
func (e *Entity) AddComponent(c Component) error {
	if c == nil {
		return ErrNilComponent
	}
	if e.destroying {
		return ErrEntityDestroying
	}
	if _, exists := e.components[c.Kind()]; exists {
		return ErrDuplicateComponent
	}
	if err := c.Attach(e); err != nil {
		return err
	}

	e.components[c.Kind()] = c
	c.Init()

	if e.manager != nil {
		e.manager.componentAdded(e, c.Kind())
	}
	return nil
}

// RemoveComponent detaches the component of the given kind. Removing an
// absent kind is a no-op. The manager is notified before the component is
// detached so index maintenance can still read entity state.
func (e *Entity) RemoveComponent(kind Kind) {
	c, exists := e.components[kind]
	if !exists {
		return
	}

	if e.manager != nil {
		e.manager.componentRemoved(e, kind)
	}

	c.Cleanup()
	delete(e.components, kind)
}

func (e *Entity) GetComponent(kind Kind) (Component, bool) {
	c, ok := e.components[kind]
	return c, ok
}

func (e *Entity) HasComponent(kind Kind) bool {
	_, ok := e.components[kind]
	return ok
}

// ComponentKinds returns the kinds currently attached, in no particular
// order.
func (e *Entity) ComponentKinds() []Kind {
	kinds := make([]Kind, 0, len(e.components))
	for k := range e.components {
		kinds = append(kinds, k)
	}
	return kinds
}

// Update forwards the tick to every attached component. Inactive or
// mid-destroy entities are skipped.
func (e *Entity) Update(deltaTime float64) {
	if !e.active || e.destroying {
		return
	}
	for _, c := range e.components {
		c.Update(deltaTime)
	}
}

// Cleanup tears the entity down: every component is removed (with manager
// notification and component cleanup), then the entity detaches from its
// manager so no registry keeps handing out a destroyed entity. Idempotent;
// reentrant mutation is rejected via the destroying guard.
func (e *Entity) Cleanup() {
	if e.destroying {
		return
	}
	e.destroying = true

	for kind, c := range e.components {
		if e.manager != nil {
			e.manager.componentRemoved(e, kind)
		}
		c.Cleanup()
		delete(e.components, kind)
	}
	if e.manager != nil {
		e.manager.detach(e)
	}
	e.active = false
	// destroying stays set: a destroyed entity is never revived.
}
