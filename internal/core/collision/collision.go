// Package collision detects overlapping entity pairs and classifies them as
// trigger or physical, publishing the result on the event bus. It never
// mutates velocities: deciding what touches is this system's whole job,
// while the physical response belongs to physics.
package collision

import (
	"bytes"
	"sort"

	"github.com/voidforge/voidforge/internal/core/entity"
	"github.com/voidforge/voidforge/internal/core/events/bus"
	"github.com/voidforge/voidforge/internal/core/observability/log"
	"github.com/voidforge/voidforge/internal/core/spatial"
	"github.com/voidforge/voidforge/internal/core/system"
	"github.com/voidforge/voidforge/pkg/generic"
)

// Options configure the collision broad-phase tree.
type Options struct {
	WorldBounds spatial.AABB
	MaxObjects  int
	MaxLevels   int
}

// System owns the collider registry and its own broad-phase index, separate
// from the physics tree: this system determines what touches, physics
// decides how bodies respond.
type System struct {
	logger   log.Log
	entities *entity.Manager
	events   bus.EventBus
	opts     Options

	colliders map[entity.ID]*Data
	tree      *spatial.Quadtree

	queryBuf *generic.Pool[[]spatial.Item]
	checked  map[uint64]struct{}
}

var _ system.System = (*System)(nil)

func NewSystem(entities *entity.Manager, events bus.EventBus, opts Options, logger log.Log) *System {
	return &System{
		logger:    logger.With(log.String("module", "collision")),
		entities:  entities,
		events:    events,
		opts:      opts,
		colliders: make(map[entity.ID]*Data),
		tree:      spatial.New(opts.WorldBounds, opts.MaxObjects, opts.MaxLevels),
		queryBuf:  generic.NewSlicePool[spatial.Item](64),
		checked:   make(map[uint64]struct{}),
	}
}

func (s *System) Name() string           { return system.NameCollision }
func (s *System) Priority() int          { return system.PriorityCollision }
func (s *System) Dependencies() []string { return []string{system.NamePhysics} }

func (s *System) Initialize() error {
	s.logger.Info("collision system initialized")
	return nil
}

func (s *System) Cleanup() error {
	s.colliders = make(map[entity.ID]*Data)
	s.tree.Clear()
	return nil
}

// AddCollider registers collision data for an entity, applying the
// zero-value layer/mask conventions. An invalid shape is rejected.
func (s *System) AddCollider(id entity.ID, data *Data) error {
	if err := data.Shape.validate(); err != nil {
		return err
	}
	data.normalize()
	s.colliders[id] = data
	return nil
}

// UpdateCollider replaces the registration of a known entity.
func (s *System) UpdateCollider(id entity.ID, data *Data) error {
	if _, ok := s.colliders[id]; !ok {
		return ErrColliderNotFound
	}
	return s.AddCollider(id, data)
}

// RemoveCollider drops an entity's registration; unknown ids are a no-op.
func (s *System) RemoveCollider(id entity.ID) {
	delete(s.colliders, id)
}

func (s *System) HasCollider(id entity.ID) bool {
	_, ok := s.colliders[id]
	return ok
}

func (s *System) Collider(id entity.ID) (*Data, bool) {
	d, ok := s.colliders[id]
	return d, ok
}

func (s *System) ColliderCount() int { return len(s.colliders) }

// BoundingRadius implements the shape provider the physics system consumes
// for its narrow-phase proxy radii.
func (s *System) BoundingRadius(id entity.ID) (float64, bool) {
	d, ok := s.colliders[id]
	if !ok {
		return 0, false
	}
	return d.Shape.BoundingRadius(), true
}

// Update runs one detection pass: rebuild the tree from collider bounds,
// shortlist candidate pairs, then narrow-phase test and publish each
// confirmed overlap. Pairs are processed in canonical id order so the event
// stream is replayable.
func (s *System) Update(deltaTime float64) error {
	s.rebuildTree()

	pairs := s.collectPairs()
	for _, p := range pairs {
		s.testAndEmit(p.a, p.b)
	}
	return nil
}

func (s *System) rebuildTree() {
	s.tree.Clear()
	for _, id := range s.sortedColliderIDs() {
		d := s.colliders[id]
		t, ok := s.transformOf(id)
		if !ok {
			// Cannot compute bounds without a position; skip this entity
			// for the frame and keep going.
			s.logger.Debug("collider has no transform", log.String("entity", id.String()))
			continue
		}
		hw, hh := d.Shape.halfExtents()
		s.tree.Insert(id, spatial.AABB{
			X: t.X - hw, Y: t.Y - hh,
			Width: 2 * hw, Height: 2 * hh,
		})
	}
}

type colliderPair struct {
	a, b entity.ID
}

// collectPairs shortlists unordered candidate pairs: spatial query, self
// exclusion, canonical-key dedup, and the cheap layer/mask early-out before
// any narrow phase runs.
func (s *System) collectPairs() []colliderPair {
	clear(s.checked)
	var pairs []colliderPair

	buf := s.queryBuf.Get()
	defer func() { s.queryBuf.Put(buf[:0]) }()

	for _, id := range s.sortedColliderIDs() {
		d := s.colliders[id]
		t, ok := s.transformOf(id)
		if !ok {
			continue
		}
		hw, hh := d.Shape.halfExtents()
		query := spatial.AABB{X: t.X - hw, Y: t.Y - hh, Width: 2 * hw, Height: 2 * hh}

		buf = s.tree.Retrieve(query, buf[:0])
		for _, item := range buf {
			if item.ID == id {
				continue
			}
			other, ok := s.colliders[item.ID]
			if !ok {
				continue
			}
			key := spatial.PairKey(id, item.ID)
			if _, seen := s.checked[key]; seen {
				continue
			}
			s.checked[key] = struct{}{}

			if !canCollide(d, other) {
				continue
			}
			lo, hi := spatial.OrderPair(id, item.ID)
			pairs = append(pairs, colliderPair{a: lo, b: hi})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if c := bytes.Compare(pairs[i].a[:], pairs[j].a[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(pairs[i].b[:], pairs[j].b[:]) < 0
	})
	return pairs
}

// testAndEmit narrow-phase tests one pair and, on overlap, publishes the
// generic collision event plus the trigger/physical refinement. Zero
// subscribers is fine; handler errors are logged, never propagated into the
// frame.
func (s *System) testAndEmit(aID, bID entity.ID) {
	a, okA := s.colliders[aID]
	b, okB := s.colliders[bID]
	if !okA || !okB {
		return
	}
	ta, ok := s.transformOf(aID)
	if !ok {
		return
	}
	tb, ok := s.transformOf(bID)
	if !ok {
		return
	}

	c, hit := testShapes(a.Shape, ta.X, ta.Y, b.Shape, tb.X, tb.Y)
	if !hit {
		return
	}

	trigger := a.IsTrigger || b.IsTrigger
	payload := bus.CollisionPayload{
		A:       aID,
		B:       bID,
		Trigger: trigger,
		NormalX: c.Normal.X,
		NormalY: c.Normal.Y,
		Depth:   c.Depth,
	}

	refined := bus.TypePhysicalCollision
	if trigger {
		refined = bus.TypeTriggerEnter
	}

	if err := s.events.PublishBatch(
		bus.New(bus.TypeCollision, system.NameCollision, payload),
		bus.New(refined, system.NameCollision, payload),
	); err != nil {
		s.logger.Warn("collision event handler failed", log.Error(err))
	}
}

func (s *System) transformOf(id entity.ID) (*entity.Transform, bool) {
	e, ok := s.entities.GetEntity(id)
	if !ok {
		return nil, false
	}
	return entity.TransformOf(e)
}

func (s *System) sortedColliderIDs() []entity.ID {
	ids := make([]entity.ID, 0, len(s.colliders))
	for id := range s.colliders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}
