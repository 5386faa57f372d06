package entity

// Kind identifies a component type. An entity holds at most one component
// per kind.
type Kind uint8

const (
	KindTransform Kind = iota
	KindRender
	KindPhysics
	KindCollision
	KindInput
	KindAudio
	KindParticle
	KindAI
	KindWeapon
	KindHealth
	KindPowerup
	KindMeteor

	kindCount
)

var kindNames = [...]string{
	KindTransform: "transform",
	KindRender:    "render",
	KindPhysics:   "physics",
	KindCollision: "collision",
	KindInput:     "input",
	KindAudio:     "audio",
	KindParticle:  "particle",
	KindAI:        "ai",
	KindWeapon:    "weapon",
	KindHealth:    "health",
	KindPowerup:   "powerup",
	KindMeteor:    "meteor",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Kinds returns all known component kinds, used by the manager to seed its
// reverse indices.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
