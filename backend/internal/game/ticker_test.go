package game

import (
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type recordingSystem struct {
	name     string
	priority int
	order    *[]string
	mu       *sync.Mutex
	err      error
	panics   bool
	calls    int
}

func (rs *recordingSystem) Update(deltaTime time.Duration) error {
	rs.mu.Lock()
	*rs.order = append(*rs.order, rs.name)
	rs.calls++
	rs.mu.Unlock()

	if rs.panics {
		panic("broken system")
	}
	return rs.err
}

func (rs *recordingSystem) GetName() string  { return rs.name }
func (rs *recordingSystem) GetPriority() int { return rs.priority }

func (rs *recordingSystem) Calls() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.calls
}

func TestGameTicker_SystemsRunInPriorityOrder(t *testing.T) {
	gt := NewGameTicker(60, quietLogger())

	var order []string
	var mu sync.Mutex
	for _, s := range []struct {
		name     string
		priority int
	}{{"network", 100}, {"cloth", 5}, {"telemetry", 200}, {"input", 1}} {
		gt.RegisterSystem(&recordingSystem{name: s.name, priority: s.priority, order: &order, mu: &mu})
	}

	gt.executeTick(time.Now())

	assert.Equal(t, []string{"input", "cloth", "network", "telemetry"}, order)
	assert.Equal(t, uint64(1), gt.GetTickCount())
}

func TestGameTicker_FailingSystemsAreIsolated(t *testing.T) {
	gt := NewGameTicker(60, quietLogger())

	var order []string
	var mu sync.Mutex
	failing := &recordingSystem{name: "failing", priority: 1, order: &order, mu: &mu, err: errors.New("boom")}
	panicking := &recordingSystem{name: "panicking", priority: 2, order: &order, mu: &mu, panics: true}
	healthy := &recordingSystem{name: "healthy", priority: 3, order: &order, mu: &mu}
	gt.RegisterSystem(failing)
	gt.RegisterSystem(panicking)
	gt.RegisterSystem(healthy)

	gt.executeTick(time.Now())
	gt.executeTick(time.Now())

	assert.Equal(t, 2, healthy.Calls())

	m, ok := gt.perfMonitor.Metrics("failing")
	require.True(t, ok)
	assert.Equal(t, uint64(2), m.Errors)
	assert.Equal(t, uint64(2), m.Executions)

	m, ok = gt.perfMonitor.Metrics("panicking")
	require.True(t, ok)
	assert.Equal(t, uint64(2), m.Errors)

	_, ok = gt.perfMonitor.Metrics("missing")
	assert.False(t, ok)
}

func TestGameTicker_StartStop(t *testing.T) {
	gt := NewGameTicker(200, quietLogger())

	var order []string
	var mu sync.Mutex
	sys := &recordingSystem{name: "counter", priority: 1, order: &order, mu: &mu}
	gt.RegisterSystem(sys)

	require.NoError(t, gt.Start())
	require.NoError(t, gt.Start())
	assert.True(t, gt.IsRunning())

	require.Eventually(t, func() bool { return sys.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)

	gt.Stop()
	gt.Stop()
	assert.False(t, gt.IsRunning())

	stopped := sys.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, sys.Calls())

	stats := gt.GetStats()
	assert.Equal(t, 200, stats["target_tps"])
	assert.Equal(t, 1, stats["systems_count"])
	assert.Equal(t, false, stats["is_running"])
	assert.GreaterOrEqual(t, stats["tick_count"].(uint64), uint64(3))
}

func TestGameTicker_PauseResume(t *testing.T) {
	gt := NewGameTicker(200, quietLogger())

	var order []string
	var mu sync.Mutex
	sys := &recordingSystem{name: "counter", priority: 1, order: &order, mu: &mu}
	gt.RegisterSystem(sys)

	require.NoError(t, gt.Start())
	defer gt.Stop()

	require.Eventually(t, func() bool { return sys.Calls() >= 1 }, 2*time.Second, 5*time.Millisecond)

	gt.Pause()
	assert.Equal(t, true, gt.GetStats()["is_paused"])
	time.Sleep(30 * time.Millisecond)
	paused := sys.Calls()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, paused, sys.Calls())

	gt.Resume()
	require.Eventually(t, func() bool { return sys.Calls() > paused }, 2*time.Second, 5*time.Millisecond)
}

func TestPerformanceMonitor_WindowAndBudget(t *testing.T) {
	pm := NewPerformanceMonitor(2, 10*time.Millisecond, 2)
	pm.track("cloth")
	pm.track("cloth")

	assert.False(t, pm.observe("cloth", 2*time.Millisecond))
	assert.False(t, pm.observe("cloth", 4*time.Millisecond))
	assert.True(t, pm.observe("cloth", 6*time.Millisecond))
	assert.False(t, pm.observe("unknown", time.Second))
	pm.fail("cloth")

	m, ok := pm.Metrics("cloth")
	require.True(t, ok)
	assert.Equal(t, 5*time.Millisecond, m.AverageTime)
	assert.Equal(t, 6*time.Millisecond, m.MaxTime)
	assert.Equal(t, uint64(3), m.Executions)
	assert.Equal(t, uint64(1), m.OverBudget)
	assert.Equal(t, uint64(1), m.Errors)
	assert.InDelta(t, 0.5, m.BudgetShare, 1e-9)

	stats := pm.GetSystemsStats()
	require.Contains(t, stats, "cloth")
	assert.Equal(t, 5.0, stats["cloth"].(map[string]interface{})["average_ms"])
}
