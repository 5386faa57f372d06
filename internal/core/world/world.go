// Package world assembles the simulation: the entity registry, the
// system pipeline, and the event bus, stepped together at a fixed rate.
package world

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/voidforge/voidforge/internal/core/collision"
	"github.com/voidforge/voidforge/internal/core/entity"
	"github.com/voidforge/voidforge/internal/core/events/bus"
	"github.com/voidforge/voidforge/internal/core/observability/log"
	"github.com/voidforge/voidforge/internal/core/physics"
	"github.com/voidforge/voidforge/internal/core/spatial"
	"github.com/voidforge/voidforge/internal/core/system"
)

// Options describes the simulated space and the broad-phase tuning
// shared by the physics and collision systems.
type Options struct {
	Bounds        spatial.AABB
	Gravity       physics.Vec2
	MaxObjects    int
	MaxLevels     int
	DefaultRadius float64
}

// World is the top-level simulation container. All access is expected
// from the loop goroutine; the world itself is not synchronized.
type World struct {
	logger   log.Log
	entities *entity.Manager
	systems  *system.Manager
	events   bus.EventBus

	physics   *physics.System
	collision *collision.System

	pending   map[entity.ID]struct{}
	frames    uint64
	totalTime float64
}

// New builds a world with the physics and collision systems registered
// and initialized. The collision system's shape registry backs the
// physics broad-phase radii.
func New(opts Options, logger log.Log) (*World, error) {
	entities := entity.NewManager(logger)
	events := bus.NewBus()
	systems := system.NewManager(logger)

	phys := physics.NewSystem(entities, physics.Options{
		WorldBounds:   opts.Bounds,
		Gravity:       opts.Gravity,
		MaxObjects:    opts.MaxObjects,
		MaxLevels:     opts.MaxLevels,
		DefaultRadius: opts.DefaultRadius,
	}, logger)
	coll := collision.NewSystem(entities, events, collision.Options{
		WorldBounds: opts.Bounds,
		MaxObjects:  opts.MaxObjects,
		MaxLevels:   opts.MaxLevels,
	}, logger)
	phys.SetShapeProvider(coll.BoundingRadius)

	if err := systems.Register(phys); err != nil {
		return nil, fmt.Errorf("register physics: %w", err)
	}
	if err := systems.Register(coll); err != nil {
		return nil, fmt.Errorf("register collision: %w", err)
	}
	if err := systems.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize systems: %w", err)
	}

	return &World{
		logger:    logger.With(log.String("module", "world")),
		entities:  entities,
		systems:   systems,
		events:    events,
		physics:   phys,
		collision: coll,
		pending:   make(map[entity.ID]struct{}),
	}, nil
}

func (w *World) Entities() *entity.Manager { return w.entities }
func (w *World) Systems() *system.Manager  { return w.systems }
func (w *World) Events() bus.EventBus      { return w.events }
func (w *World) Physics() *physics.System  { return w.physics }
func (w *World) Collision() *collision.System { return w.collision }

// Frames reports how many steps the world has executed.
func (w *World) Frames() uint64 { return w.frames }

// TotalTime reports accumulated simulation time in seconds.
func (w *World) TotalTime() float64 { return w.totalTime }

// Spawn registers an already-composed entity and announces it on the
// bus. Listener errors are logged and do not fail the spawn.
func (w *World) Spawn(e *entity.Entity) error {
	if err := w.entities.AddEntity(e); err != nil {
		return err
	}
	w.announce(bus.TypeEntitySpawned, e.ID())
	return nil
}

// Destroy tears an entity down: its physics body and collider are
// dropped, its components cleaned up, and its removal announced.
// Destroying an unknown id is a no-op.
func (w *World) Destroy(id entity.ID) {
	if _, ok := w.entities.GetEntity(id); !ok {
		return
	}
	w.physics.RemoveBody(id)
	w.collision.RemoveCollider(id)
	w.entities.RemoveEntity(id)
	w.announce(bus.TypeEntityDestroyed, id)
}

// QueueDestroy marks an entity for destruction at the end of the current
// step. Unlike SetActive(false), which only pauses an entity's updates,
// a queued entity is fully torn down by the next reap.
func (w *World) QueueDestroy(id entity.ID) {
	w.pending[id] = struct{}{}
}

// Step advances the whole simulation by one fixed timestep: systems
// first in priority order, then per-entity component updates, then a
// sweep of entities that deactivated themselves during the step.
func (w *World) Step(dt float64) error {
	w.systems.Update(dt)
	w.entities.Update(dt)
	w.reap()
	w.frames++
	w.totalTime += dt
	return nil
}

// reap destroys entities whose lifetime ended this step: expired
// particles plus anything queued via QueueDestroy. Deactivated entities
// are left alone; the active flag pauses updates, it does not mark
// death.
func (w *World) reap() {
	for _, e := range w.entities.EntitiesByKind(entity.KindParticle) {
		if p, ok := entity.Get[*entity.Particle](e, entity.KindParticle); ok && p.Expired() {
			w.pending[e.ID()] = struct{}{}
		}
	}
	if len(w.pending) == 0 {
		return
	}

	ids := make([]entity.ID, 0, len(w.pending))
	for id := range w.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	for _, id := range ids {
		w.Destroy(id)
	}
	clear(w.pending)
}

// Shutdown cleans systems up in reverse initialization order and drops
// all entities.
func (w *World) Shutdown() error {
	err := w.systems.Cleanup()
	for _, e := range w.entities.QueryEntities(func(*entity.Entity) bool { return true }) {
		w.entities.RemoveEntity(e.ID())
	}
	w.logger.Info("world shut down",
		log.Uint64("frames", w.frames),
		log.Float64("sim_time", w.totalTime))
	return err
}

func (w *World) announce(eventType string, id entity.ID) {
	if err := w.events.Publish(bus.New(eventType, "world", bus.EntityPayload{ID: id})); err != nil {
		w.logger.Warn("event listener failed",
			log.String("type", eventType),
			log.Error(err))
	}
}
