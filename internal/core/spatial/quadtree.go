// Package spatial provides the broad-phase index shared by the physics and
// collision systems: a quadtree over axis-aligned bounding boxes, rebuilt
// from scratch every tick and never persisted across frames.
package spatial

import "github.com/voidforge/voidforge/internal/core/entity"

// AABB is an axis-aligned bounding box with its origin at the top-left.
type AABB struct {
	X, Y          float64
	Width, Height float64
}

// Intersects reports whether the two boxes overlap on both axes.
func (a AABB) Intersects(b AABB) bool {
	return a.X < b.X+b.Width && a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height && a.Y+a.Height > b.Y
}

// contains reports whether b lies entirely inside a.
func (a AABB) contains(b AABB) bool {
	return b.X >= a.X && b.X+b.Width <= a.X+a.Width &&
		b.Y >= a.Y && b.Y+b.Height <= a.Y+a.Height
}

// Item pairs an entity id with the bounds it was inserted under.
type Item struct {
	ID     entity.ID
	Bounds AABB
}

// Quadtree is a region tree over AABBs. A node splits into four children
// once it holds more than maxObjects items, down to maxLevels depth; items
// straddling a split line stay at the parent.
type Quadtree struct {
	bounds     AABB
	maxObjects int
	maxLevels  int
	level      int
	items      []Item
	children   [4]*Quadtree
}

const (
	DefaultMaxObjects = 10
	DefaultMaxLevels  = 5
)

func New(bounds AABB, maxObjects, maxLevels int) *Quadtree {
	if maxObjects <= 0 {
		maxObjects = DefaultMaxObjects
	}
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}
	return &Quadtree{
		bounds:     bounds,
		maxObjects: maxObjects,
		maxLevels:  maxLevels,
	}
}

// Clear empties the tree, keeping the root's allocated item capacity so a
// per-tick rebuild does not reallocate.
func (q *Quadtree) Clear() {
	q.items = q.items[:0]
	for i := range q.children {
		q.children[i] = nil
	}
}

// Insert adds an (id, bounds) pair, subdividing as thresholds are crossed.
func (q *Quadtree) Insert(id entity.ID, bounds AABB) {
	if q.children[0] != nil {
		if idx := q.childIndex(bounds); idx >= 0 {
			q.children[idx].Insert(id, bounds)
			return
		}
	}

	q.items = append(q.items, Item{ID: id, Bounds: bounds})

	if len(q.items) > q.maxObjects && q.level < q.maxLevels && q.children[0] == nil {
		q.subdivide()
		kept := q.items[:0]
		for _, it := range q.items {
			if idx := q.childIndex(it.Bounds); idx >= 0 {
				q.children[idx].Insert(it.ID, it.Bounds)
			} else {
				kept = append(kept, it)
			}
		}
		q.items = kept
	}
}

// Retrieve appends to buf every item whose node overlaps the query bounds
// and returns the extended slice. Callers pass a reused buffer to avoid
// per-query allocation; results are candidates, not confirmed overlaps.
func (q *Quadtree) Retrieve(bounds AABB, buf []Item) []Item {
	buf = append(buf, q.items...)
	if q.children[0] != nil {
		for _, child := range q.children {
			if child.bounds.Intersects(bounds) {
				buf = child.Retrieve(bounds, buf)
			}
		}
	}
	return buf
}

// Len reports the total number of items in the tree.
func (q *Quadtree) Len() int {
	n := len(q.items)
	if q.children[0] != nil {
		for _, child := range q.children {
			n += child.Len()
		}
	}
	return n
}

// Depth reports the deepest subdivided level, for diagnostics.
func (q *Quadtree) Depth() int {
	if q.children[0] == nil {
		return q.level
	}
	deepest := q.level
	for _, child := range q.children {
		if d := child.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest
}

func (q *Quadtree) subdivide() {
	halfW := q.bounds.Width / 2
	halfH := q.bounds.Height / 2
	x, y := q.bounds.X, q.bounds.Y

	quadrants := [4]AABB{
		{X: x + halfW, Y: y, Width: halfW, Height: halfH},         // NE
		{X: x, Y: y, Width: halfW, Height: halfH},                 // NW
		{X: x, Y: y + halfH, Width: halfW, Height: halfH},         // SW
		{X: x + halfW, Y: y + halfH, Width: halfW, Height: halfH}, // SE
	}
	for i, b := range quadrants {
		child := New(b, q.maxObjects, q.maxLevels)
		child.level = q.level + 1
		q.children[i] = child
	}
}

// childIndex returns the quadrant fully containing bounds, or -1 when the
// bounds straddle a split line and must stay at this node.
func (q *Quadtree) childIndex(bounds AABB) int {
	if q.children[0] == nil {
		return -1
	}
	for i, child := range q.children {
		if child.bounds.contains(bounds) {
			return i
		}
	}
	return -1
}
