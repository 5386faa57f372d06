// Package physics integrates forces into entity transforms each fixed step
// and resolves interpenetrating bodies with sequential impulses. Broad-phase
// candidate pairs come from a quadtree rebuilt every tick.
package physics

import (
	"bytes"
	"sort"

	"github.com/voidforge/voidforge/internal/core/entity"
	"github.com/voidforge/voidforge/internal/core/observability/log"
	"github.com/voidforge/voidforge/internal/core/spatial"
	"github.com/voidforge/voidforge/internal/core/system"
	"github.com/voidforge/voidforge/pkg/generic"
)

// DefaultBodyRadius bounds a body with no registered collision shape and no
// explicit radius of its own.
const DefaultBodyRadius = 16.0

// Positional correction tuning: penetration below the slop is tolerated to
// avoid resting-contact jitter; the remainder is corrected by this fraction
// per step.
const (
	correctionSlop    = 0.01
	correctionPercent = 0.8
)

// Options are the construction-time inputs: the world AABB and subdivision
// thresholds configure the broad-phase tree, gravity is applied to every
// body each tick.
type Options struct {
	WorldBounds   spatial.AABB
	Gravity       Vec2
	MaxObjects    int
	MaxLevels     int
	DefaultRadius float64
}

// RadiusFunc resolves an entity's bounding radius from its registered
// collision shape. The collision system provides the implementation; the
// indirection keeps the two packages decoupled.
type RadiusFunc func(id entity.ID) (float64, bool)

// System owns the physics body registry and the physics broad-phase index.
// Entity resolution is injected via the entity manager at construction.
type System struct {
	logger   log.Log
	entities *entity.Manager
	opts     Options

	bodies   map[entity.ID]*Body
	tree     *spatial.Quadtree
	radiusOf RadiusFunc

	queryBuf *generic.Pool[[]spatial.Item]
	checked  map[uint64]struct{}
}

var _ system.System = (*System)(nil)

func NewSystem(entities *entity.Manager, opts Options, logger log.Log) *System {
	if opts.DefaultRadius <= 0 {
		opts.DefaultRadius = DefaultBodyRadius
	}
	return &System{
		logger:   logger.With(log.String("module", "physics")),
		entities: entities,
		opts:     opts,
		bodies:   make(map[entity.ID]*Body),
		tree:     spatial.New(opts.WorldBounds, opts.MaxObjects, opts.MaxLevels),
		queryBuf: generic.NewSlicePool[spatial.Item](64),
		checked:  make(map[uint64]struct{}),
	}
}

func (s *System) Name() string           { return system.NamePhysics }
func (s *System) Priority() int          { return system.PriorityPhysics }
func (s *System) Dependencies() []string { return nil }

func (s *System) Initialize() error {
	s.logger.Info("physics system initialized",
		log.Float64("gravity_x", s.opts.Gravity.X),
		log.Float64("gravity_y", s.opts.Gravity.Y),
	)
	return nil
}

func (s *System) Cleanup() error {
	s.bodies = make(map[entity.ID]*Body)
	s.tree.Clear()
	return nil
}

// SetShapeProvider wires the collision system's shape registry in as the
// source of narrow-phase radii. Without a provider, bodies fall back to
// their own radius or the configured default.
func (s *System) SetShapeProvider(radiusOf RadiusFunc) {
	s.radiusOf = radiusOf
}

// AddBody registers (or replaces) the body tracked for an entity. Zero or
// negative mass is rejected here so no later step divides by it.
func (s *System) AddBody(id entity.ID, b *Body) error {
	if err := b.validate(); err != nil {
		return err
	}
	s.bodies[id] = b
	return nil
}

// RemoveBody stops tracking an entity; unknown ids are a no-op.
func (s *System) RemoveBody(id entity.ID) {
	delete(s.bodies, id)
}

func (s *System) HasBody(id entity.ID) bool {
	_, ok := s.bodies[id]
	return ok
}

func (s *System) Body(id entity.ID) (*Body, bool) {
	b, ok := s.bodies[id]
	return b, ok
}

func (s *System) BodyCount() int { return len(s.bodies) }

// ApplyForce accumulates into the body's pending force for the current
// step. Velocity changes only at the next Update (semi-implicit Euler).
func (s *System) ApplyForce(id entity.ID, force Vec2) error {
	b, ok := s.bodies[id]
	if !ok {
		return ErrBodyNotFound
	}
	b.force = b.force.Add(force)
	return nil
}

// ApplyTorque accumulates into the body's pending torque.
func (s *System) ApplyTorque(id entity.ID, torque float64) error {
	b, ok := s.bodies[id]
	if !ok {
		return ErrBodyNotFound
	}
	b.torque += torque
	return nil
}

// Update runs one fixed step: integrate velocities and transforms, rebuild
// the broad-phase tree, then resolve confirmed contacts in canonical pair
// order so the step is deterministic.
func (s *System) Update(deltaTime float64) error {
	ids := s.sortedBodyIDs()

	s.integrate(ids, deltaTime)
	s.rebuildTree(ids)

	pairs := s.collectContactPairs(ids)
	for _, p := range pairs {
		s.resolvePair(p.a, p.b)
	}
	return nil
}

// integrate applies accumulated forces plus gravity, then writes the
// resulting translation and rotation into each entity's transform.
func (s *System) integrate(ids []entity.ID, deltaTime float64) {
	for _, id := range ids {
		b := s.bodies[id]

		// Forces are impulses-per-step: consume and reset even for bodies
		// skipped below, so a missing transform cannot bank infinite force.
		force := b.force
		torque := b.torque
		b.force = Vec2{}
		b.torque = 0

		e, ok := s.entities.GetEntity(id)
		if !ok {
			s.logger.Debug("physics body has no entity", log.String("entity", id.String()))
			continue
		}
		t, ok := entity.TransformOf(e)
		if !ok {
			s.logger.Debug("physics body has no transform", log.String("entity", id.String()))
			continue
		}

		gravityScale := 1.0
		if p, ok := entity.Get[*entity.Physics](e, entity.KindPhysics); ok {
			gravityScale = p.GravityScale
		}

		accel := force.Scale(b.invMass()).Add(s.opts.Gravity.Scale(gravityScale))
		b.Velocity = b.Velocity.Add(accel.Scale(deltaTime))
		b.AngularVelocity += torque * b.invMass() * deltaTime

		t.Translate(b.Velocity.X*deltaTime, b.Velocity.Y*deltaTime)
		t.Rotate(b.AngularVelocity * deltaTime)
	}
}

func (s *System) rebuildTree(ids []entity.ID) {
	s.tree.Clear()
	for _, id := range ids {
		t, ok := s.transformOf(id)
		if !ok {
			continue
		}
		r := s.radiusFor(id)
		s.tree.Insert(id, spatial.AABB{
			X: t.X - r, Y: t.Y - r,
			Width: 2 * r, Height: 2 * r,
		})
	}
}

type contactPair struct {
	a, b entity.ID
}

// collectContactPairs queries the tree per body, deduplicates unordered
// pairs via their canonical key, and returns the confirmed-candidate list
// sorted by id tuple. Stable pair ordering is what makes sequential impulse
// resolution replayable.
func (s *System) collectContactPairs(ids []entity.ID) []contactPair {
	clear(s.checked)
	var pairs []contactPair

	buf := s.queryBuf.Get()
	defer func() { s.queryBuf.Put(buf[:0]) }()

	for _, id := range ids {
		t, ok := s.transformOf(id)
		if !ok {
			continue
		}
		r := s.radiusFor(id)
		query := spatial.AABB{X: t.X - r, Y: t.Y - r, Width: 2 * r, Height: 2 * r}

		buf = s.tree.Retrieve(query, buf[:0])
		for _, item := range buf {
			if item.ID == id {
				continue
			}
			if !s.HasBody(item.ID) {
				continue
			}
			key := spatial.PairKey(id, item.ID)
			if _, seen := s.checked[key]; seen {
				continue
			}
			s.checked[key] = struct{}{}

			lo, hi := spatial.OrderPair(id, item.ID)
			pairs = append(pairs, contactPair{a: lo, b: hi})
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

// resolvePair runs the narrow-phase circle test against current positions
// and, on overlap, applies an impulse along the contact normal plus a
// positional correction split inversely by mass.
func (s *System) resolvePair(aID, bID entity.ID) {
	a, okA := s.bodies[aID]
	b, okB := s.bodies[bID]
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

	rA := s.radiusFor(aID)
	rB := s.radiusFor(bID)

	delta := Vec2{X: tb.X - ta.X, Y: tb.Y - ta.Y}
	dist := delta.Length()
	sum := rA + rB
	if dist >= sum {
		return
	}

	var normal Vec2
	var depth float64
	if dist == 0 {
		// Coincident centers: treat as maximum overlap along a fixed axis
		// rather than dividing by zero.
		normal = Vec2{X: 1, Y: 0}
		depth = sum
	} else {
		normal = delta.Scale(1 / dist)
		depth = sum - dist
	}

	rv := b.Velocity.Sub(a.Velocity)
	velAlongNormal := rv.Dot(normal)
	if velAlongNormal > 0 {
		// Already separating.
		return
	}

	e := a.Restitution
	if b.Restitution < e {
		e = b.Restitution
	}
	invA, invB := a.invMass(), b.invMass()

	j := -(1 + e) * velAlongNormal / (invA + invB)
	impulse := normal.Scale(j)
	a.Velocity = a.Velocity.Sub(impulse.Scale(invA))
	b.Velocity = b.Velocity.Add(impulse.Scale(invB))

	if depth > correctionSlop {
		correction := normal.Scale((depth - correctionSlop) / (invA + invB) * correctionPercent)
		ta.Translate(-correction.X*invA, -correction.Y*invA)
		tb.Translate(correction.X*invB, correction.Y*invB)
	}
}

// radiusFor prefers the entity's registered collision shape, then the
// body's own radius, then the configured default.
func (s *System) radiusFor(id entity.ID) float64 {
	if s.radiusOf != nil {
		if r, ok := s.radiusOf(id); ok && r > 0 {
			return r
		}
	}
	if b, ok := s.bodies[id]; ok && b.Radius > 0 {
		return b.Radius
	}
	return s.opts.DefaultRadius
}

func (s *System) transformOf(id entity.ID) (*entity.Transform, bool) {
	e, ok := s.entities.GetEntity(id)
	if !ok {
		return nil, false
	}
	return entity.TransformOf(e)
}

func (s *System) sortedBodyIDs() []entity.ID {
	ids := make([]entity.ID, 0, len(s.bodies))
	for id := range s.bodies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}
