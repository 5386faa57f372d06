package system

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voidforge/voidforge/internal/core/observability/log"
)

// fakeSystem records lifecycle calls into a shared journal so tests can
// assert ordering across systems.
type fakeSystem struct {
	name      string
	priority  int
	deps      []string
	journal   *[]string
	updateErr error
	initErr   error
}

func (f *fakeSystem) Name() string           { return f.name }
func (f *fakeSystem) Priority() int          { return f.priority }
func (f *fakeSystem) Dependencies() []string { return f.deps }

func (f *fakeSystem) Initialize() error {
	*f.journal = append(*f.journal, "init:"+f.name)
	return f.initErr
}

func (f *fakeSystem) Update(deltaTime float64) error {
	*f.journal = append(*f.journal, "update:"+f.name)
	return f.updateErr
}

func (f *fakeSystem) Cleanup() error {
	*f.journal = append(*f.journal, "cleanup:"+f.name)
	return nil
}

func indexOf(journal []string, entry string) int {
	for i, e := range journal {
		if e == entry {
			return i
		}
	}
	return -1
}

func TestRegisterRejectsDuplicatesAndUnknownDeps(t *testing.T) {
	var journal []string
	m := NewManager(log.Nop())

	require.NoError(t, m.Register(&fakeSystem{name: "physics", journal: &journal}))

	err := m.Register(&fakeSystem{name: "physics", journal: &journal})
	require.ErrorIs(t, err, ErrDuplicateSystem)

	err = m.Register(&fakeSystem{name: "collision", deps: []string{"missing"}, journal: &journal})
	require.ErrorIs(t, err, ErrUnknownDependency)
}

func TestInitializeRespectsDependencies(t *testing.T) {
	var journal []string
	m := NewManager(log.Nop())

	// Registered in an order unrelated to the dependency graph's depth.
	require.NoError(t, m.Register(&fakeSystem{name: "a", journal: &journal}))
	require.NoError(t, m.Register(&fakeSystem{name: "b", deps: []string{"a"}, journal: &journal}))
	require.NoError(t, m.Register(&fakeSystem{name: "c", deps: []string{"a"}, journal: &journal}))
	require.NoError(t, m.Register(&fakeSystem{name: "d", deps: []string{"b", "c"}, journal: &journal}))

	require.NoError(t, m.Initialize())

	for _, edge := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}} {
		before := indexOf(journal, "init:"+edge[0])
		after := indexOf(journal, "init:"+edge[1])
		require.GreaterOrEqual(t, before, 0)
		require.Less(t, before, after, "%s must initialize before %s", edge[0], edge[1])
	}

	require.ErrorIs(t, m.Initialize(), ErrAlreadyInitialized)
}

func TestCircularDependencyDetected(t *testing.T) {
	var journal []string
	m := NewManager(log.Nop())

	a := &fakeSystem{name: "a", journal: &journal}
	b := &fakeSystem{name: "b", deps: []string{"a"}, journal: &journal}
	require.NoError(t, m.Register(a))
	require.NoError(t, m.Register(b))

	// Close the cycle after registration; Initialize must still catch it.
	a.deps = []string{"b"}

	require.ErrorIs(t, m.ValidateDependencies(), ErrCircularDependency)
	require.ErrorIs(t, m.Initialize(), ErrCircularDependency)
	require.Empty(t, journal, "no system may initialize when the graph is cyclic")
}

func TestUpdateFollowsPriority(t *testing.T) {
	var journal []string
	m := NewManager(log.Nop())

	require.NoError(t, m.Register(&fakeSystem{name: "render", priority: 300, journal: &journal}))
	require.NoError(t, m.Register(&fakeSystem{name: "physics", priority: 100, journal: &journal}))
	require.NoError(t, m.Register(&fakeSystem{name: "collision", priority: 200, journal: &journal}))

	require.NoError(t, m.Initialize())
	journal = journal[:0]

	m.Update(0.016)
	require.Equal(t, []string{"update:physics", "update:collision", "update:render"}, journal)
}

func TestUpdateContinuesPastFailingSystem(t *testing.T) {
	var journal []string
	m := NewManager(log.Nop())

	boom := errors.New("boom")
	require.NoError(t, m.Register(&fakeSystem{name: "flaky", priority: 1, updateErr: boom, journal: &journal}))
	require.NoError(t, m.Register(&fakeSystem{name: "steady", priority: 2, journal: &journal}))
	require.NoError(t, m.Initialize())
	journal = journal[:0]

	m.Update(0.016)
	require.Equal(t, []string{"update:flaky", "update:steady"}, journal)

	stats, ok := m.SystemMetrics("flaky")
	require.True(t, ok)
	require.Equal(t, uint64(1), stats.ErrorCount)
	require.ErrorIs(t, stats.LastError, boom)
}

func TestCleanupReversesInitOrder(t *testing.T) {
	var journal []string
	m := NewManager(log.Nop())

	require.NoError(t, m.Register(&fakeSystem{name: "base", journal: &journal}))
	require.NoError(t, m.Register(&fakeSystem{name: "mid", deps: []string{"base"}, journal: &journal}))
	require.NoError(t, m.Register(&fakeSystem{name: "top", deps: []string{"mid"}, journal: &journal}))

	require.NoError(t, m.Initialize())
	journal = journal[:0]

	require.NoError(t, m.Cleanup())
	require.Equal(t, []string{"cleanup:top", "cleanup:mid", "cleanup:base"}, journal)

	require.ErrorIs(t, m.Cleanup(), ErrNotInitialized)
}

func TestUpdateMetricsAccumulate(t *testing.T) {
	var journal []string
	m := NewManager(log.Nop())
	require.NoError(t, m.Register(&fakeSystem{name: "physics", journal: &journal}))
	require.NoError(t, m.Initialize())

	m.Update(0.016)
	m.Update(0.016)

	stats, ok := m.SystemMetrics("physics")
	require.True(t, ok)
	require.Equal(t, uint64(2), stats.UpdateCount)
}
