package collision

import (
	"math"

	"github.com/voidforge/voidforge/internal/core/physics"
)

// contact describes a confirmed overlap. Normal points from shape A toward
// shape B; Depth is the penetration distance along it.
type contact struct {
	Normal physics.Vec2
	Depth  float64
}

// testShapes dispatches the narrow-phase test for a shape pair positioned at
// the given centers.
func testShapes(a Shape, ax, ay float64, b Shape, bx, by float64) (contact, bool) {
	switch {
	case a.Kind == ShapeCircle && b.Kind == ShapeCircle:
		return circleCircle(ax, ay, a.Radius, bx, by, b.Radius)
	case a.Kind == ShapeRectangle && b.Kind == ShapeRectangle:
		return rectRect(a, ax, ay, b, bx, by)
	case a.Kind == ShapeCircle:
		c, hit := circleRect(ax, ay, a.Radius, b, bx, by)
		return c, hit
	default:
		c, hit := circleRect(bx, by, b.Radius, a, ax, ay)
		// The test computed rect->circle; flip to keep A->B orientation.
		c.Normal = c.Normal.Scale(-1)
		return c, hit
	}
}

// circleCircle overlaps when center distance is under the radius sum.
func circleCircle(ax, ay, ar, bx, by, br float64) (contact, bool) {
	delta := physics.Vec2{X: bx - ax, Y: by - ay}
	dist := delta.Length()
	sum := ar + br
	if dist >= sum {
		return contact{}, false
	}
	if dist == 0 {
		// Coincident centers: maximum overlap along a fixed axis.
		return contact{Normal: physics.Vec2{X: 1}, Depth: sum}, true
	}
	return contact{Normal: delta.Scale(1 / dist), Depth: sum - dist}, true
}

// rectRect is the AABB test: overlap required on both axes; the contact
// normal follows the axis of least penetration.
func rectRect(a Shape, ax, ay float64, b Shape, bx, by float64) (contact, bool) {
	ahw, ahh := a.halfExtents()
	bhw, bhh := b.halfExtents()

	dx := bx - ax
	overlapX := ahw + bhw - math.Abs(dx)
	if overlapX <= 0 {
		return contact{}, false
	}
	dy := by - ay
	overlapY := ahh + bhh - math.Abs(dy)
	if overlapY <= 0 {
		return contact{}, false
	}

	if overlapX < overlapY {
		n := physics.Vec2{X: 1}
		if dx < 0 {
			n.X = -1
		}
		return contact{Normal: n, Depth: overlapX}, true
	}
	n := physics.Vec2{Y: 1}
	if dy < 0 {
		n.Y = -1
	}
	return contact{Normal: n, Depth: overlapY}, true
}

// circleRect clamps the circle center onto the rectangle and compares the
// closest-point distance against the radius. Normal points from the circle
// toward the rectangle.
func circleRect(cx, cy, radius float64, r Shape, rx, ry float64) (contact, bool) {
	hw, hh := r.halfExtents()

	closestX := math.Max(rx-hw, math.Min(cx, rx+hw))
	closestY := math.Max(ry-hh, math.Min(cy, ry+hh))

	delta := physics.Vec2{X: closestX - cx, Y: closestY - cy}
	dist := delta.Length()
	if dist >= radius {
		return contact{}, false
	}
	if dist == 0 {
		// Center inside the rectangle: push out along the shortest axis.
		c, _ := rectRect(Circle(radius), cx, cy, r, rx, ry)
		return c, true
	}
	return contact{Normal: delta.Scale(1 / dist), Depth: radius - dist}, true
}
