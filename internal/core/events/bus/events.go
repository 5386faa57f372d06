package bus

import "github.com/voidforge/voidforge/internal/core/entity"

// Simulation event types. Every confirmed overlap emits TypeCollision plus
// exactly one of the two refinements, so consumers can subscribe at either
// granularity.
const (
	TypeCollision         = "collision"
	TypeTriggerEnter      = "collision.trigger_enter"
	TypePhysicalCollision = "collision.physical"

	TypeEntitySpawned   = "entity.spawned"
	TypeEntityDestroyed = "entity.destroyed"
)

// CollisionPayload carries both entity ids of a detected overlap. Normal
// points from A toward B; Depth is the penetration distance along it.
// The json tags match the frames the spectator relay emits.
type CollisionPayload struct {
	A       entity.ID `json:"a"`
	B       entity.ID `json:"b"`
	Trigger bool      `json:"trigger"`
	NormalX float64   `json:"normal_x"`
	NormalY float64   `json:"normal_y"`
	Depth   float64   `json:"depth"`
}

// EntityPayload accompanies spawn/destroy notifications.
type EntityPayload struct {
	ID entity.ID `json:"id"`
}
