package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndRemoveComponent(t *testing.T) {
	e := New()
	require.False(t, e.HasComponent(KindTransform))

	tr := NewTransform(1, 2)
	require.NoError(t, e.AddComponent(tr))
	require.True(t, e.HasComponent(KindTransform))

	got, ok := e.GetComponent(KindTransform)
	require.True(t, ok)
	require.Same(t, Component(tr), got)

	e.RemoveComponent(KindTransform)
	require.False(t, e.HasComponent(KindTransform))

	// Removing twice is safe.
	e.RemoveComponent(KindTransform)
	require.False(t, e.HasComponent(KindTransform))
}

func TestDuplicateKindRejected(t *testing.T) {
	e := New()
	require.NoError(t, e.AddComponent(NewHealth(100)))

	err := e.AddComponent(NewHealth(50))
	require.ErrorIs(t, err, ErrDuplicateComponent)
}

func TestReparentRejected(t *testing.T) {
	a := New()
	b := New()
	w := NewWeapon(0.5)

	require.NoError(t, a.AddComponent(w))
	a.RemoveComponent(KindWeapon)

	// Cleanup cleared the owner, so the component may be reused...
	require.NoError(t, b.AddComponent(w))

	// ...but attaching while still owned is an error.
	tr := NewTransform(0, 0)
	require.NoError(t, a.AddComponent(tr))
	err := b.AddComponent(tr)
	require.ErrorIs(t, err, ErrComponentAttached)
}

func TestUpdateSkipsInactive(t *testing.T) {
	e := New()
	p := NewParticle(10)
	require.NoError(t, e.AddComponent(p))

	e.Update(1)
	require.InDelta(t, 1.0, p.Age, 1e-9)

	e.SetActive(false)
	e.Update(1)
	require.InDelta(t, 1.0, p.Age, 1e-9, "inactive entity must not tick components")
}

func TestParticleDeactivatesOwner(t *testing.T) {
	e := New()
	require.NoError(t, e.AddComponent(NewParticle(0.5)))

	e.Update(0.3)
	require.True(t, e.IsActive())
	e.Update(0.3)
	require.False(t, e.IsActive())
}

func TestCleanupIsIdempotent(t *testing.T) {
	e := New()
	require.NoError(t, e.AddComponent(NewTransform(0, 0)))
	require.NoError(t, e.AddComponent(NewRender("ship", 1)))

	e.Cleanup()
	require.False(t, e.HasComponent(KindTransform))
	require.False(t, e.HasComponent(KindRender))
	require.Nil(t, e.Manager())

	e.Cleanup() // second teardown is a no-op

	// Mutation after destruction is rejected.
	err := e.AddComponent(NewTransform(0, 0))
	require.ErrorIs(t, err, ErrEntityDestroying)
}

func TestTransformRotationWraps(t *testing.T) {
	tests := []struct {
		name string
		set  float64
		want float64
	}{
		{"in range", 1.0, 1.0},
		{"exactly two pi", 2 * math.Pi, 0},
		{"over", 3 * math.Pi, math.Pi},
		{"negative", -math.Pi / 2, 3 * math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransform(0, 0)
			tr.SetRotation(tt.set)
			if diff := math.Abs(tr.Rotation() - tt.want); diff > 1e-9 {
				t.Fatalf("rotation = %v, want %v", tr.Rotation(), tt.want)
			}
		})
	}
}

func TestTransformMutators(t *testing.T) {
	tr := NewTransform(10, 20)
	tr.Translate(5, -5)
	require.Equal(t, 15.0, tr.X)
	require.Equal(t, 15.0, tr.Y)

	tr.Rotate(math.Pi)
	tr.Rotate(math.Pi + 0.25)
	require.InDelta(t, 0.25, tr.Rotation(), 1e-9)
}

func TestTypedGet(t *testing.T) {
	e := New()
	require.NoError(t, e.AddComponent(NewHealth(80)))

	h, ok := Get[*Health](e, KindHealth)
	require.True(t, ok)
	h.Damage(100)
	require.True(t, h.Dead())
	require.Equal(t, 0.0, h.Current)

	_, ok = Get[*Health](e, KindWeapon)
	require.False(t, ok)
}

func TestWeaponCooldown(t *testing.T) {
	w := NewWeapon(1.0)
	require.True(t, w.Ready())
	w.Fire()
	require.False(t, w.Ready())
	w.Update(0.6)
	require.False(t, w.Ready())
	w.Update(0.6)
	require.True(t, w.Ready())
}
