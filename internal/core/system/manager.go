package system

import (
	"fmt"
	"sort"
	"time"

	"github.com/voidforge/voidforge/internal/core/observability/log"
)

// Manager owns all registered systems and their lifecycle: Registered ->
// Initialized -> (update cycles) -> Cleaned-up.
//
// Initialization order is a topological sort of the dependency graph so
// every system comes up after the systems it depends on; cleanup runs the
// same order reversed. Frame updates instead follow static ascending
// priority, which is cheap and deterministic.
type Manager struct {
	logger      log.Log
	systems     map[string]System
	order       []string // registration order, breaks priority ties
	initOrder   []string // topological, valid once initialized
	initialized bool
	metrics     map[string]*Metrics
}

func NewManager(logger log.Log) *Manager {
	return &Manager{
		logger:  logger.With(log.String("module", "system")),
		systems: make(map[string]System),
		metrics: make(map[string]*Metrics),
	}
}

// Register adds a system. Dependencies must already be registered:
// requiring dependency-first registration keeps the graph valid
// incrementally instead of deferring every mistake to Initialize.
func (m *Manager) Register(s System) error {
	name := s.Name()
	if _, exists := m.systems[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSystem, name)
	}
	for _, dep := range s.Dependencies() {
		if _, exists := m.systems[dep]; !exists {
			return fmt.Errorf("%w: %s requires %s", ErrUnknownDependency, name, dep)
		}
	}
	m.systems[name] = s
	m.order = append(m.order, name)
	m.metrics[name] = &Metrics{}
	return nil
}

// Get returns a registered system by name.
func (m *Manager) Get(name string) (System, bool) {
	s, ok := m.systems[name]
	return s, ok
}

func (m *Manager) Has(name string) bool {
	_, ok := m.systems[name]
	return ok
}

// Initialize computes the topological order and initializes every system,
// dependencies first. A dependency cycle aborts before any system is
// touched.
func (m *Manager) Initialize() error {
	if m.initialized {
		return ErrAlreadyInitialized
	}
	order, err := m.topologicalOrder()
	if err != nil {
		return err
	}
	for _, name := range order {
		if err := m.systems[name].Initialize(); err != nil {
			return fmt.Errorf("initializing system %s: %w", name, err)
		}
		m.logger.Debug("system initialized", log.String("system", name))
	}
	m.initOrder = order
	m.initialized = true
	return nil
}

// ValidateDependencies checks the dependency graph for cycles without
// initializing anything.
func (m *Manager) ValidateDependencies() error {
	_, err := m.topologicalOrder()
	return err
}

// Update runs one frame: systems sorted by ascending priority, registration
// order breaking ties. A failing system is logged and skipped for this
// frame; per-frame errors never halt the remaining systems.
func (m *Manager) Update(deltaTime float64) {
	for _, name := range m.ExecutionOrder() {
		s := m.systems[name]
		start := time.Now()
		err := s.Update(deltaTime)
		elapsed := time.Since(start)

		stats := m.metrics[name]
		stats.UpdateCount++
		stats.TotalUpdateTime += elapsed
		if elapsed > stats.MaxUpdateTime {
			stats.MaxUpdateTime = elapsed
		}
		if err != nil {
			stats.ErrorCount++
			stats.LastError = err
			m.logger.Warn("system update failed",
				log.String("system", name),
				log.Error(err),
			)
		}
	}
}

// Cleanup tears systems down in reverse topological order, dependents
// before their dependencies. Cleanup errors are logged, not propagated, so
// one failing system cannot leak the rest.
func (m *Manager) Cleanup() error {
	if !m.initialized {
		return ErrNotInitialized
	}
	for i := len(m.initOrder) - 1; i >= 0; i-- {
		name := m.initOrder[i]
		if err := m.systems[name].Cleanup(); err != nil {
			m.logger.Error("system cleanup failed",
				log.String("system", name),
				log.Error(err),
			)
		}
	}
	m.initialized = false
	m.initOrder = nil
	return nil
}

// ExecutionOrder returns the per-frame order: ascending priority, stable
// over registration order.
func (m *Manager) ExecutionOrder() []string {
	order := make([]string, len(m.order))
	copy(order, m.order)
	sort.SliceStable(order, func(i, j int) bool {
		return m.systems[order[i]].Priority() < m.systems[order[j]].Priority()
	})
	return order
}

// InitOrder returns the topological order computed by Initialize.
func (m *Manager) InitOrder() []string {
	order := make([]string, len(m.initOrder))
	copy(order, m.initOrder)
	return order
}

// SystemMetrics returns a snapshot of one system's update statistics.
func (m *Manager) SystemMetrics(name string) (Metrics, bool) {
	stats, ok := m.metrics[name]
	if !ok {
		return Metrics{}, false
	}
	return *stats, true
}

// topologicalOrder sorts systems dependencies-first via depth-first
// traversal. Nodes on the current recursion stack mark a cycle.
func (m *Manager) topologicalOrder() ([]string, error) {
	const (
		unvisited = iota
		inStack
		done
	)
	state := make(map[string]int, len(m.systems))
	order := make([]string, 0, len(m.systems))

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case inStack:
			return fmt.Errorf("%w: involving %s", ErrCircularDependency, name)
		}
		state[name] = inStack
		for _, dep := range m.systems[name].Dependencies() {
			if _, exists := m.systems[dep]; !exists {
				return fmt.Errorf("%w: %s requires %s", ErrUnknownDependency, name, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	// Roots are visited in registration order so the result is stable run
	// to run.
	for _, name := range m.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
