package telemetry

import (
	"encoding/json"
	"log"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// FrameTelemetry сводка одного кадра симуляции ткани
type FrameTelemetry struct {
	Timestamp     int64         `json:"timestamp"`      // Время в миллисекундах
	Frame         uint64        `json:"frame"`          // Номер кадра
	Collider      mgl64.Vec3    `json:"collider"`       // Позиция коллайдера
	FanRotation   float64       `json:"fan_rotation"`   // Накопленный угол лопастей
	HeadRotation  float64       `json:"head_rotation"`  // Угол головы вентилятора
	MaxStretch    float64       `json:"max_stretch"`    // Наибольшее относительное растяжение
	LowestY       float64       `json:"lowest_y"`       // Самая низкая точка ткани
	KineticEnergy float64       `json:"kinetic_energy"` // Кинетическая энергия частиц
	FrameTime     time.Duration `json:"frame_time_ns"`  // Время расчета кадра
	ColliderMoved bool          `json:"collider_moved"` // Сдвинулся ли коллайдер в этом кадре
	Diverged      bool          `json:"diverged"`       // В кадре есть NaN или Inf
}

// sanitize заменяет нечисловые значения нулем и помечает запись как разошедшуюся
func (e FrameTelemetry) sanitize() FrameTelemetry {
	clean := func(v *float64) {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
			e.Diverged = true
		}
	}
	for i := range e.Collider {
		clean(&e.Collider[i])
	}
	clean(&e.FanRotation)
	clean(&e.HeadRotation)
	clean(&e.MaxStretch)
	clean(&e.LowestY)
	clean(&e.KineticEnergy)
	return e
}

// TelemetryManager собирает записи о кадрах в кольцевой буфер
type TelemetryManager struct {
	enabled    bool
	data       []FrameTelemetry
	next       int
	full       bool
	mutex      sync.RWMutex
	maxEntries int

	// Счетчики за интервал сводки
	counters      map[string]int
	lastPrint     time.Time
	printInterval time.Duration

	logger *log.Logger
}

// NewTelemetryManager создает менеджер телеметрии
func NewTelemetryManager(maxEntries int, printInterval time.Duration, logger *log.Logger) *TelemetryManager {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	if logger == nil {
		logger = log.Default()
	}

	return &TelemetryManager{
		enabled:       true,
		data:          make([]FrameTelemetry, maxEntries),
		maxEntries:    maxEntries,
		counters:      make(map[string]int),
		lastPrint:     time.Now(),
		printInterval: printInterval,
		logger:        logger,
	}
}

// RecordFrame записывает сводку кадра
func (tm *TelemetryManager) RecordFrame(entry FrameTelemetry) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}

	if entry.Timestamp == 0 {
		entry.Timestamp = time.Now().UnixMilli()
	}

	tm.data[tm.next] = entry
	tm.next = (tm.next + 1) % tm.maxEntries
	if tm.next == 0 {
		tm.full = true
	}

	if entry.sanitize().Diverged {
		tm.counters["diverged"]++
	}
	tm.counters["frames"]++
	if entry.ColliderMoved {
		tm.counters["collider_moves"]++
	}
}

// RecordError учитывает кадр, завершившийся ошибкой
func (tm *TelemetryManager) RecordError() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if tm.enabled {
		tm.counters["errors"]++
	}
}

// Recent возвращает записи от старой к новой
func (tm *TelemetryManager) Recent() []FrameTelemetry {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	return tm.recentLocked()
}

func (tm *TelemetryManager) recentLocked() []FrameTelemetry {
	if !tm.full {
		out := make([]FrameTelemetry, tm.next)
		copy(out, tm.data[:tm.next])
		return out
	}

	out := make([]FrameTelemetry, 0, tm.maxEntries)
	out = append(out, tm.data[tm.next:]...)
	out = append(out, tm.data[:tm.next]...)
	return out
}

// Counters возвращает копию счетчиков текущего интервала
func (tm *TelemetryManager) Counters() map[string]int {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	out := make(map[string]int, len(tm.counters))
	for k, v := range tm.counters {
		out[k] = v
	}
	return out
}

// PrintSummary выводит сводку, если прошел интервал; возвращает true при выводе
func (tm *TelemetryManager) PrintSummary() bool {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return false
	}

	now := time.Now()
	if now.Sub(tm.lastPrint) < tm.printInterval {
		return false
	}

	recent := tm.recentLocked()

	tm.logger.Println("🔬 [Telemetry] ===== ТЕЛЕМЕТРИЯ ТКАНИ =====")
	tm.logger.Printf("📊 [Telemetry] Записей в буфере: %d", len(recent))
	for key, count := range tm.counters {
		tm.logger.Printf("📈 [Telemetry] %s: %d", key, count)
	}

	if len(recent) > 0 {
		last := recent[len(recent)-1]
		peak := 0.0
		for _, e := range recent {
			if e.MaxStretch > peak {
				peak = e.MaxStretch
			}
		}
		tm.logger.Printf("🧵 [Telemetry] Кадр %d:", last.Frame)
		tm.logger.Printf("   📍 Коллайдер: (%.3f, %.3f, %.3f)",
			last.Collider.X(), last.Collider.Y(), last.Collider.Z())
		tm.logger.Printf("   📏 Растяжение: %.4f (пик в буфере %.4f)", last.MaxStretch, peak)
		tm.logger.Printf("   ⬇️  Нижняя точка: %.3f, энергия: %.4f", last.LowestY, last.KineticEnergy)
		tm.logger.Printf("   ⏱️  Время кадра: %v", last.FrameTime)
	}

	tm.counters = make(map[string]int)
	tm.lastPrint = now

	tm.logger.Println("🔬 [Telemetry] ===================================")
	return true
}

// GetTelemetryJSON возвращает буфер в JSON формате.
// Нечисловые значения выводятся нулями с флагом diverged.
func (tm *TelemetryManager) GetTelemetryJSON() (string, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	entries := tm.recentLocked()
	for i := range entries {
		entries[i] = entries[i].sanitize()
	}

	jsonData, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonData), nil
}

// SetEnabled включает/выключает телеметрию
func (tm *TelemetryManager) SetEnabled(enabled bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.enabled = enabled
	tm.logger.Printf("🔬 [Telemetry] Телеметрия %s", map[bool]string{true: "включена", false: "выключена"}[enabled])
}

// Clear очищает буфер и счетчики
func (tm *TelemetryManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.next = 0
	tm.full = false
	tm.counters = make(map[string]int)
	tm.logger.Println("🔬 [Telemetry] Данные телеметрии очищены")
}
