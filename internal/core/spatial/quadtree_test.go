package spatial

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voidforge/voidforge/internal/core/entity"
)

func box(x, y, w, h float64) AABB {
	return AABB{X: x, Y: y, Width: w, Height: h}
}

func TestAABBIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b AABB
		want bool
	}{
		{"overlapping", box(0, 0, 10, 10), box(5, 5, 10, 10), true},
		{"contained", box(0, 0, 10, 10), box(2, 2, 2, 2), true},
		{"touching edges do not overlap", box(0, 0, 10, 10), box(10, 0, 10, 10), false},
		{"disjoint x", box(0, 0, 10, 10), box(20, 0, 5, 5), false},
		{"disjoint y", box(0, 0, 10, 10), box(0, 30, 5, 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Fatalf("Intersects = %v, want %v", got, tt.want)
			}
			if got := tt.b.Intersects(tt.a); got != tt.want {
				t.Fatalf("Intersects not symmetric: %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetrieveFindsNearbyOnly(t *testing.T) {
	q := New(box(0, 0, 1000, 1000), 4, 5)

	near := uuid.New()
	q.Insert(near, box(10, 10, 20, 20))
	// Crowd the far corner so the tree subdivides away from the query.
	for i := 0; i < 20; i++ {
		q.Insert(uuid.New(), box(900+float64(i), 900, 5, 5))
	}

	got := q.Retrieve(box(0, 0, 50, 50), nil)
	ids := make(map[entity.ID]bool, len(got))
	for _, it := range got {
		ids[it.ID] = true
	}
	require.True(t, ids[near], "nearby item missing from candidates")
	require.Less(t, len(got), 21, "query returned the whole far-corner cluster")
}

func TestSubdivisionRespectsMaxLevels(t *testing.T) {
	q := New(box(0, 0, 100, 100), 1, 3)
	for i := 0; i < 200; i++ {
		q.Insert(uuid.New(), box(1, 1, 2, 2))
	}
	require.Equal(t, 200, q.Len())
	require.LessOrEqual(t, q.Depth(), 3)
}

func TestStraddlingItemStaysAtParent(t *testing.T) {
	q := New(box(0, 0, 100, 100), 1, 5)
	q.Insert(uuid.New(), box(10, 10, 5, 5))
	q.Insert(uuid.New(), box(80, 80, 5, 5))
	straddler := uuid.New()
	q.Insert(straddler, box(45, 45, 10, 10)) // spans the center split

	// A query anywhere must still see the straddler.
	got := q.Retrieve(box(0, 0, 10, 10), nil)
	found := false
	for _, it := range got {
		if it.ID == straddler {
			found = true
		}
	}
	require.True(t, found)
}

func TestClearKeepsTreeUsable(t *testing.T) {
	q := New(box(0, 0, 100, 100), 2, 5)
	for i := 0; i < 10; i++ {
		q.Insert(uuid.New(), box(float64(i*9), 1, 2, 2))
	}
	q.Clear()
	require.Equal(t, 0, q.Len())

	id := uuid.New()
	q.Insert(id, box(1, 1, 2, 2))
	got := q.Retrieve(box(0, 0, 100, 100), nil)
	require.Len(t, got, 1)
	require.Equal(t, id, got[0].ID)
}
