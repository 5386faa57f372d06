package collision

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidShape     = errors.New("collision shape has non-positive dimensions")
	ErrColliderNotFound = errors.New("no collider registered for entity")
)

type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota
	ShapeRectangle
)

func (k ShapeKind) String() string {
	if k == ShapeCircle {
		return "circle"
	}
	return "rectangle"
}

// Shape is a circle (radius) or an axis-aligned rectangle (width, height),
// both centered on the owning entity's transform.
type Shape struct {
	Kind          ShapeKind
	Radius        float64
	Width, Height float64
}

func Circle(radius float64) Shape {
	return Shape{Kind: ShapeCircle, Radius: radius}
}

func Rectangle(width, height float64) Shape {
	return Shape{Kind: ShapeRectangle, Width: width, Height: height}
}

func (s Shape) validate() error {
	switch s.Kind {
	case ShapeCircle:
		if s.Radius <= 0 {
			return fmt.Errorf("%w: circle radius %v", ErrInvalidShape, s.Radius)
		}
	case ShapeRectangle:
		if s.Width <= 0 || s.Height <= 0 {
			return fmt.Errorf("%w: rectangle %vx%v", ErrInvalidShape, s.Width, s.Height)
		}
	}
	return nil
}

// BoundingRadius returns the radius of the smallest circle enclosing the
// shape; the physics narrow-phase proxies bodies with it.
func (s Shape) BoundingRadius() float64 {
	if s.Kind == ShapeCircle {
		return s.Radius
	}
	return math.Hypot(s.Width/2, s.Height/2)
}

// halfExtents returns the shape's AABB half-sizes.
func (s Shape) halfExtents() (hw, hh float64) {
	if s.Kind == ShapeCircle {
		return s.Radius, s.Radius
	}
	return s.Width / 2, s.Height / 2
}

// Data is an entity's collision registration: its shape, whether overlaps
// are trigger-only, and the layer/mask bitmasks gating which pairs are
// tested at all.
type Data struct {
	Shape Shape
	// IsTrigger marks overlap-reporting colliders that never take part in
	// physical resolution.
	IsTrigger bool
	// Layer is the category bitmask this collider belongs to; zero means
	// category 1.
	Layer uint32
	// Mask selects the layers this collider may touch; zero means all.
	Mask uint32
}

// normalize applies the zero-value conventions for Layer and Mask.
func (d *Data) normalize() {
	if d.Layer == 0 {
		d.Layer = 1
	}
	if d.Mask == 0 {
		d.Mask = ^uint32(0)
	}
}

// canCollide is the symmetric layer/mask AND test: each side's layer must
// intersect the other side's mask.
func canCollide(a, b *Data) bool {
	return a.Layer&b.Mask != 0 && b.Layer&a.Mask != 0
}
