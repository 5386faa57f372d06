package entity

import "math"

const twoPi = 2 * math.Pi

// Component is a unit of typed state owned by exactly one entity. Ownership
// is assigned once at attach time; re-parenting is an error. Lifecycle hooks
// are invoked only by the owning entity, never externally.
type Component interface {
	Kind() Kind
	Owner() *Entity

	// Attach binds the component to its owning entity. A second call with a
	// different owner fails with ErrComponentAttached.
	Attach(owner *Entity) error

	Init()
	Update(deltaTime float64)
	Cleanup()
}

// Base carries the kind tag and owner reference shared by all component
// implementations. Embedders override the lifecycle hooks they need.
type Base struct {
	kind  Kind
	owner *Entity
}

func NewBase(kind Kind) Base {
	return Base{kind: kind}
}

func (b *Base) Kind() Kind     { return b.kind }
func (b *Base) Owner() *Entity { return b.owner }

func (b *Base) Attach(owner *Entity) error {
	if b.owner != nil && b.owner != owner {
		return ErrComponentAttached
	}
	b.owner = owner
	return nil
}

func (b *Base) Init()                    {}
func (b *Base) Update(deltaTime float64) {}
func (b *Base) Cleanup()                 { b.owner = nil }

// Get returns the entity's component of kind k as the concrete type T.
func Get[T Component](e *Entity, k Kind) (T, bool) {
	var zero T
	c, ok := e.GetComponent(k)
	if !ok {
		return zero, false
	}
	t, ok := c.(T)
	return t, ok
}

// Transform is the sole channel through which physics communicates results
// to rendering: a 2D position plus a rotation in radians, wrapped to
// [0, 2pi) on every mutation.
type Transform struct {
	Base
	X, Y     float64
	rotation float64
}

func NewTransform(x, y float64) *Transform {
	return &Transform{Base: NewBase(KindTransform), X: x, Y: y}
}

func (t *Transform) Rotation() float64 { return t.rotation }

func (t *Transform) SetPosition(x, y float64) {
	t.X, t.Y = x, y
}

func (t *Transform) Translate(dx, dy float64) {
	t.X += dx
	t.Y += dy
}

func (t *Transform) SetRotation(radians float64) {
	t.rotation = wrapAngle(radians)
}

func (t *Transform) Rotate(delta float64) {
	t.rotation = wrapAngle(t.rotation + delta)
}

func wrapAngle(radians float64) float64 {
	wrapped := math.Mod(radians, twoPi)
	if wrapped < 0 {
		wrapped += twoPi
	}
	return wrapped
}

// TransformOf is a typed shortcut for the most common component lookup.
func TransformOf(e *Entity) (*Transform, bool) {
	return Get[*Transform](e, KindTransform)
}

// Render marks an entity as drawable. The drawing itself happens outside the
// simulation core; this component only carries the state renderers read.
type Render struct {
	Base
	Sprite  string
	Layer   int
	Visible bool
}

func NewRender(sprite string, layer int) *Render {
	return &Render{Base: NewBase(KindRender), Sprite: sprite, Layer: layer, Visible: true}
}

// Physics marks an entity as a physics participant. The body itself (mass,
// velocity, accumulators) lives in the physics system's registry keyed by
// entity id, so physics can opt in and out without touching the component
// set; GravityScale is the one per-entity knob factories set up front.
type Physics struct {
	Base
	GravityScale float64
}

func NewPhysics() *Physics {
	return &Physics{Base: NewBase(KindPhysics), GravityScale: 1}
}

// Collision mirrors Physics: registration data lives in the collision
// system, this component records participation for factory queries.
type Collision struct {
	Base
}

func NewCollision() *Collision {
	return &Collision{Base: NewBase(KindCollision)}
}

// Input buffers the most recent directional/fire intent for an entity.
type Input struct {
	Base
	MoveX, MoveY float64
	Firing       bool
}

func NewInput() *Input {
	return &Input{Base: NewBase(KindInput)}
}

// Audio names the sound cue an entity triggers on events.
type Audio struct {
	Base
	Cue string
}

func NewAudio(cue string) *Audio {
	return &Audio{Base: NewBase(KindAudio), Cue: cue}
}

// Particle ages an effect and deactivates its entity once the lifetime is
// spent.
type Particle struct {
	Base
	Lifetime float64
	Age      float64
}

func NewParticle(lifetime float64) *Particle {
	return &Particle{Base: NewBase(KindParticle), Lifetime: lifetime}
}

func (p *Particle) Update(deltaTime float64) {
	p.Age += deltaTime
	if p.Age >= p.Lifetime {
		if owner := p.Owner(); owner != nil {
			owner.SetActive(false)
		}
	}
}

func (p *Particle) Expired() bool { return p.Age >= p.Lifetime }

// AI holds the current behavior state tag for enemy entities.
type AI struct {
	Base
	State string
}

func NewAI(state string) *AI {
	return &AI{Base: NewBase(KindAI), State: state}
}

// Weapon tracks fire cadence; Ready reports whether the cooldown elapsed.
type Weapon struct {
	Base
	FireInterval float64
	cooldown     float64
}

func NewWeapon(fireInterval float64) *Weapon {
	return &Weapon{Base: NewBase(KindWeapon), FireInterval: fireInterval}
}

func (w *Weapon) Update(deltaTime float64) {
	if w.cooldown > 0 {
		w.cooldown -= deltaTime
	}
}

func (w *Weapon) Ready() bool { return w.cooldown <= 0 }

func (w *Weapon) Fire() {
	w.cooldown = w.FireInterval
}

// Health tracks hit points.
type Health struct {
	Base
	Current, Max float64
}

func NewHealth(max float64) *Health {
	return &Health{Base: NewBase(KindHealth), Current: max, Max: max}
}

func (h *Health) Damage(amount float64) {
	h.Current -= amount
	if h.Current < 0 {
		h.Current = 0
	}
}

func (h *Health) Heal(amount float64) {
	h.Current += amount
	if h.Current > h.Max {
		h.Current = h.Max
	}
}

func (h *Health) Dead() bool { return h.Current <= 0 }

// Powerup describes a pickup effect and how long it lasts once collected.
type Powerup struct {
	Base
	Effect   string
	Duration float64
}

func NewPowerup(effect string, duration float64) *Powerup {
	return &Powerup{Base: NewBase(KindPowerup), Effect: effect, Duration: duration}
}

// Meteor sizes a debris entity; smaller fragments spawn on destruction.
type Meteor struct {
	Base
	Size int
}

func NewMeteor(size int) *Meteor {
	return &Meteor{Base: NewBase(KindMeteor), Size: size}
}
