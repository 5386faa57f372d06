package entity

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/voidforge/voidforge/internal/core/observability/log"
)

// Manager is the authoritative registry of live entities. Alongside the
// primary id map it maintains one reverse index per component kind so
// systems can query "all entities with X" in O(1); indices stay in sync
// through the add/remove notifications entities issue on every component
// mutation.
//
// Invariant: an entity appears in a kind's index iff it is registered here
// and currently holds a component of that kind.
type Manager struct {
	logger   log.Log
	entities map[ID]*Entity
	byKind   map[Kind]map[ID]*Entity
}

func NewManager(logger log.Log) *Manager {
	byKind := make(map[Kind]map[ID]*Entity, int(kindCount))
	for _, k := range Kinds() {
		byKind[k] = make(map[ID]*Entity)
	}
	return &Manager{
		logger:   logger.With(log.String("module", "entity")),
		entities: make(map[ID]*Entity),
		byKind:   byKind,
	}
}

// CreateEntity allocates a fresh entity and registers it.
func (m *Manager) CreateEntity() *Entity {
	e := New()
	// A fresh uuid cannot collide with a registered one.
	if err := m.AddEntity(e); err != nil {
		m.logger.Error("failed to register fresh entity", log.Error(err))
		return nil
	}
	return e
}

// AddEntity registers an entity. A duplicate id is a hard error: it marks a
// factory or lifecycle bug upstream, not a recoverable condition. An entity
// owned by another manager is transferred: removed from the old manager's
// maps, then indexed here. Pre-populated entities have every held kind
// indexed immediately.
func (m *Manager) AddEntity(e *Entity) error {
	if _, exists := m.entities[e.id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateEntity, e.id)
	}

	if old := e.manager; old != nil && old != m {
		old.detach(e)
	}

	e.manager = m
	m.entities[e.id] = e
	for kind := range e.components {
		m.byKind[kind][e.id] = e
	}
	return nil
}

// RemoveEntity unregisters and destroys the entity with the given id.
// Removing an unknown id is a no-op.
func (m *Manager) RemoveEntity(id ID) {
	e, exists := m.entities[id]
	if !exists {
		return
	}
	// Cleanup clears the kind indices per component, then detaches the
	// entity from this manager. The delete covers entities whose Cleanup
	// already ran before registration.
	e.Cleanup()
	delete(m.entities, id)
}

func (m *Manager) GetEntity(id ID) (*Entity, bool) {
	e, ok := m.entities[id]
	return e, ok
}

func (m *Manager) Count() int { return len(m.entities) }

// EntitiesByKind returns a snapshot of the entities currently holding a
// component of the given kind. Callers own the returned slice; the backing
// index is never exposed.
func (m *Manager) EntitiesByKind(kind Kind) []*Entity {
	index := m.byKind[kind]
	out := make([]*Entity, 0, len(index))
	for _, e := range index {
		out = append(out, e)
	}
	return out
}

// CountByKind reports the size of a kind's index without copying it.
func (m *Manager) CountByKind(kind Kind) int {
	return len(m.byKind[kind])
}

// QueryEntities linearly filters all registered entities, for ad hoc
// multi-kind queries the per-kind indices cannot answer alone.
func (m *Manager) QueryEntities(predicate func(*Entity) bool) []*Entity {
	var out []*Entity
	for _, e := range m.entities {
		if predicate(e) {
			out = append(out, e)
		}
	}
	return out
}

// Update ticks every active entity. Ids are visited in byte order each
// frame so per-entity logic runs in a stable, replayable sequence
// regardless of map churn.
func (m *Manager) Update(deltaTime float64) {
	ids := make([]ID, 0, len(m.entities))
	for id := range m.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	for _, id := range ids {
		e, ok := m.entities[id]
		if !ok || !e.active {
			continue
		}
		e.Update(deltaTime)
	}
}

// componentAdded is invoked by an owned entity after a component attach.
func (m *Manager) componentAdded(e *Entity, kind Kind) {
	m.byKind[kind][e.id] = e
}

// componentRemoved is invoked by an owned entity before a component detach.
func (m *Manager) componentRemoved(e *Entity, kind Kind) {
	delete(m.byKind[kind], e.id)
}

// detach strips an entity from all maps without destroying it; used when an
// entity transfers to another manager.
func (m *Manager) detach(e *Entity) {
	for kind := range e.components {
		delete(m.byKind[kind], e.id)
	}
	delete(m.entities, e.id)
	e.manager = nil
}
