package game

import (
	"sync"
	"time"
)

// SystemMetrics метрики системы относительно бюджета кадра
type SystemMetrics struct {
	Name        string
	LastTime    time.Duration
	AverageTime time.Duration
	MaxTime     time.Duration
	Executions  uint64
	Errors      uint64
	OverBudget  uint64  // выполнения дольше порога системы
	BudgetShare float64 // доля бюджета кадра по среднему времени

	window      []time.Duration
	windowSum   time.Duration
	windowNext  int
	windowCount int
}

// PerformanceMonitor считает время систем кадра. Бюджет системы задается
// долей длительности тика; среднее берется по окну последних выполнений.
type PerformanceMonitor struct {
	mu            sync.RWMutex
	systems       map[string]*SystemMetrics
	windowSize    int
	frameBudget   time.Duration
	systemAllowed time.Duration
}

// NewPerformanceMonitor создает монитор для тика длительностью frameBudget.
// Система превышает бюджет, если выполняется дольше frameBudget/systemDivisor.
func NewPerformanceMonitor(windowSize int, frameBudget time.Duration, systemDivisor int) *PerformanceMonitor {
	if windowSize <= 0 {
		windowSize = 1
	}
	if systemDivisor <= 0 {
		systemDivisor = 1
	}
	return &PerformanceMonitor{
		systems:       make(map[string]*SystemMetrics),
		windowSize:    windowSize,
		frameBudget:   frameBudget,
		systemAllowed: frameBudget / time.Duration(systemDivisor),
	}
}

func (pm *PerformanceMonitor) track(name string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.systems[name]; exists {
		return
	}
	pm.systems[name] = &SystemMetrics{
		Name:   name,
		window: make([]time.Duration, pm.windowSize),
	}
}

// observe записывает выполнение и сообщает, превышен ли бюджет системы
func (pm *PerformanceMonitor) observe(name string, elapsed time.Duration) bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	m, exists := pm.systems[name]
	if !exists {
		return false
	}

	m.LastTime = elapsed
	m.Executions++
	if elapsed > m.MaxTime {
		m.MaxTime = elapsed
	}

	// Скользящая сумма: вытесняем самое старое значение окна
	m.windowSum += elapsed - m.window[m.windowNext]
	m.window[m.windowNext] = elapsed
	m.windowNext = (m.windowNext + 1) % len(m.window)
	if m.windowCount < len(m.window) {
		m.windowCount++
	}
	m.AverageTime = m.windowSum / time.Duration(m.windowCount)
	if pm.frameBudget > 0 {
		m.BudgetShare = float64(m.AverageTime) / float64(pm.frameBudget)
	}

	over := pm.systemAllowed > 0 && elapsed > pm.systemAllowed
	if over {
		m.OverBudget++
	}
	return over
}

func (pm *PerformanceMonitor) fail(name string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if m, exists := pm.systems[name]; exists {
		m.Errors++
	}
}

// Metrics возвращает копию метрик системы
func (pm *PerformanceMonitor) Metrics(name string) (SystemMetrics, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	m, exists := pm.systems[name]
	if !exists {
		return SystemMetrics{}, false
	}
	out := *m
	out.window = nil
	return out, true
}

// GetSystemsStats метрики всех систем в виде, пригодном для JSON
func (pm *PerformanceMonitor) GetSystemsStats() map[string]interface{} {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	stats := make(map[string]interface{}, len(pm.systems))
	for name, m := range pm.systems {
		stats[name] = map[string]interface{}{
			"last_ms":      float64(m.LastTime.Microseconds()) / 1000,
			"average_ms":   float64(m.AverageTime.Microseconds()) / 1000,
			"max_ms":       float64(m.MaxTime.Microseconds()) / 1000,
			"executions":   m.Executions,
			"errors":       m.Errors,
			"over_budget":  m.OverBudget,
			"budget_share": m.BudgetShare,
		}
	}
	return stats
}
