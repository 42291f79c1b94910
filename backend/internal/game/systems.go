package game

import (
	"fmt"
	"log"
	"sync"
	"time"

	"cloth-sim/backend/internal/core/domain/service"
	"cloth-sim/backend/internal/core/port/in/simulation"
	"cloth-sim/backend/internal/telemetry"
)

// FrameSource источник кадров симуляции
type FrameSource interface {
	AdvanceFrame() (simulation.FrameResult, error)
	Inspect(fn func(state *service.SimulationState))
}

// ClothSystem продвигает симуляцию ткани на один кадр за тик.
// Симуляция всегда получает фиксированный dt из параметров, deltaTime тикера
// не используется, а пропущенные тики не догоняются.
type ClothSystem struct {
	name      string
	priority  int
	source    FrameSource
	telemetry *telemetry.TelemetryManager
	logger    *log.Logger

	mu        sync.RWMutex
	lastFrame simulation.FrameResult
	hasFrame  bool
}

// NewClothSystem создает систему симуляции ткани
func NewClothSystem(source FrameSource, tm *telemetry.TelemetryManager, logger *log.Logger) *ClothSystem {
	if logger == nil {
		logger = log.Default()
	}
	return &ClothSystem{
		name:      "ClothSystem",
		priority:  5, // Высокий приоритет - кадр считается первым
		source:    source,
		telemetry: tm,
		logger:    logger,
	}
}

// Update выполняет один кадр
func (cs *ClothSystem) Update(deltaTime time.Duration) error {
	start := time.Now()

	frame, err := cs.source.AdvanceFrame()
	if err != nil {
		if cs.telemetry != nil {
			cs.telemetry.RecordError()
		}
		return fmt.Errorf("advance frame: %w", err)
	}

	cs.mu.Lock()
	moved := cs.hasFrame && cs.lastFrame.Collider != frame.Collider
	cs.lastFrame = frame
	cs.hasFrame = true
	cs.mu.Unlock()

	if cs.telemetry != nil {
		entry := telemetry.FrameTelemetry{
			Frame:         frame.Frame,
			Collider:      frame.Collider,
			FanRotation:   frame.FanRotation,
			HeadRotation:  frame.HeadRotation,
			ColliderMoved: moved,
		}
		cs.source.Inspect(func(state *service.SimulationState) {
			entry.MaxStretch = state.Lattice.MaxStretch()
			entry.LowestY = state.Lattice.LowestPoint()
			entry.KineticEnergy = state.Lattice.KineticEnergy()
		})
		entry.FrameTime = time.Since(start)
		cs.telemetry.RecordFrame(entry)
	}

	return nil
}

// LastFrame возвращает последний рассчитанный кадр
func (cs *ClothSystem) LastFrame() (simulation.FrameResult, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	return cs.lastFrame, cs.hasFrame
}

// GetName возвращает имя системы
func (cs *ClothSystem) GetName() string {
	return cs.name
}

// GetPriority возвращает приоритет системы
func (cs *ClothSystem) GetPriority() int {
	return cs.priority
}

// FrameBroadcaster интерфейс для отправки кадров клиентам
type FrameBroadcaster interface {
	BroadcastFrame(frame simulation.FrameResult) error
}

// NetworkSyncSystem отправляет последний кадр клиентам не чаще broadcastInterval
type NetworkSyncSystem struct {
	name              string
	priority          int
	cloth             *ClothSystem
	broadcaster       FrameBroadcaster
	logger            *log.Logger
	broadcastInterval time.Duration
	lastBroadcast     time.Time
	lastSentFrame     uint64
}

// NewNetworkSyncSystem создает систему сетевой синхронизации.
// Нулевой интервал означает отправку каждого нового кадра.
func NewNetworkSyncSystem(cloth *ClothSystem, broadcaster FrameBroadcaster, broadcastInterval time.Duration, logger *log.Logger) *NetworkSyncSystem {
	if logger == nil {
		logger = log.Default()
	}
	return &NetworkSyncSystem{
		name:              "NetworkSyncSystem",
		priority:          100, // Самый низкий приоритет - отправляем в конце тика
		cloth:             cloth,
		broadcaster:       broadcaster,
		logger:            logger,
		broadcastInterval: broadcastInterval,
	}
}

// Update отправляет кадр, если он новый и прошел интервал
func (nss *NetworkSyncSystem) Update(deltaTime time.Duration) error {
	frame, ok := nss.cloth.LastFrame()
	if !ok || frame.Frame == nss.lastSentFrame {
		return nil
	}

	now := time.Now()
	if nss.broadcastInterval > 0 && now.Sub(nss.lastBroadcast) < nss.broadcastInterval {
		return nil
	}

	if err := nss.broadcaster.BroadcastFrame(frame); err != nil {
		return fmt.Errorf("broadcast frame %d: %w", frame.Frame, err)
	}
	nss.lastBroadcast = now
	nss.lastSentFrame = frame.Frame
	return nil
}

// GetName возвращает имя системы
func (nss *NetworkSyncSystem) GetName() string {
	return nss.name
}

// GetPriority возвращает приоритет системы
func (nss *NetworkSyncSystem) GetPriority() int {
	return nss.priority
}

// TelemetrySystem периодически выводит сводку телеметрии
type TelemetrySystem struct {
	name      string
	priority  int
	telemetry *telemetry.TelemetryManager
}

// NewTelemetrySystem создает систему вывода телеметрии
func NewTelemetrySystem(tm *telemetry.TelemetryManager) *TelemetrySystem {
	return &TelemetrySystem{
		name:      "TelemetrySystem",
		priority:  200,
		telemetry: tm,
	}
}

// Update выводит сводку, если подошло время
func (ts *TelemetrySystem) Update(deltaTime time.Duration) error {
	ts.telemetry.PrintSummary()
	return nil
}

// GetName возвращает имя системы
func (ts *TelemetrySystem) GetName() string {
	return ts.name
}

// GetPriority возвращает приоритет системы
func (ts *TelemetrySystem) GetPriority() int {
	return ts.priority
}
