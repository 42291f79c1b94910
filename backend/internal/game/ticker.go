package game

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// TickSystem интерфейс для всех систем кадра
type TickSystem interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int // Приоритет выполнения (меньше = раньше)
}

// GameTicker планировщик кадров: вызывает системы с фиксированной частотой
type GameTicker struct {
	// Конфигурация
	targetTPS    int           // Целевая частота тиков в секунду
	tickDuration time.Duration // Длительность одного тика
	maxTickTime  time.Duration // Максимальное время на один тик

	// Состояние
	stateMutex   sync.Mutex
	isRunning    bool
	isPaused     atomic.Bool
	tickCount    atomic.Uint64
	startTime    time.Time
	lastTickTime time.Time

	// Системы
	systems      []TickSystem
	systemsMutex sync.RWMutex

	// Мониторинг производительности
	perfMonitor *PerformanceMonitor

	// Управление
	cancel    context.CancelFunc
	done      chan struct{}
	pauseChan chan bool

	// Метрики
	metricsMutex    sync.Mutex
	averageTickTime time.Duration
	maxObservedTick time.Duration
	skippedTicks    uint64

	// Логирование
	logger           *log.Logger
	warningThreshold time.Duration
}

// NewGameTicker создает тикер кадров
func NewGameTicker(targetTPS int, logger *log.Logger) *GameTicker {
	if targetTPS <= 0 {
		targetTPS = 60 // По умолчанию 60 кадров в секунду, как dt = 1/60
	}

	if logger == nil {
		logger = log.Default()
	}

	tickDuration := time.Second / time.Duration(targetTPS)

	return &GameTicker{
		targetTPS:        targetTPS,
		tickDuration:     tickDuration,
		maxTickTime:      tickDuration * 2, // Максимум в 2 раза больше целевого времени
		systems:          make([]TickSystem, 0),
		perfMonitor:      NewPerformanceMonitor(50, tickDuration, 4), // Система получает четверть тика
		pauseChan:        make(chan bool, 1),
		logger:           logger,
		warningThreshold: tickDuration / 2, // Предупреждение при 50% от времени тика
	}
}

// Start запускает цикл кадров
func (gt *GameTicker) Start() error {
	gt.stateMutex.Lock()
	defer gt.stateMutex.Unlock()

	if gt.isRunning {
		return nil // Уже запущен
	}

	ctx, cancel := context.WithCancel(context.Background())
	gt.cancel = cancel
	gt.done = make(chan struct{})
	gt.isRunning = true
	gt.startTime = time.Now()
	gt.lastTickTime = gt.startTime

	gt.logger.Printf("[GameTicker] Запуск цикла кадров: %d TPS (тик каждые %v)",
		gt.targetTPS, gt.tickDuration)

	go gt.gameLoop(ctx, gt.done)

	return nil
}

// Stop останавливает цикл и ждет завершения текущего тика
func (gt *GameTicker) Stop() {
	gt.stateMutex.Lock()
	if !gt.isRunning {
		gt.stateMutex.Unlock()
		return
	}
	gt.isRunning = false
	cancel, done := gt.cancel, gt.done
	gt.stateMutex.Unlock()

	cancel()
	<-done

	gt.logger.Printf("[GameTicker] Остановка цикла кадров (выполнено тиков: %d)", gt.tickCount.Load())
}

// Pause приостанавливает выполнение систем
func (gt *GameTicker) Pause() {
	gt.setPaused(true)
}

// Resume возобновляет выполнение систем
func (gt *GameTicker) Resume() {
	gt.setPaused(false)
}

func (gt *GameTicker) setPaused(pause bool) {
	if gt.isPaused.Swap(pause) == pause {
		return
	}

	// Сбрасываем непрочитанную команду, остается последняя
	select {
	case <-gt.pauseChan:
	default:
	}
	gt.pauseChan <- pause

	gt.logger.Printf("[GameTicker] Пауза: %v", pause)
}

// RegisterSystem добавляет систему в цикл
func (gt *GameTicker) RegisterSystem(system TickSystem) {
	gt.systemsMutex.Lock()
	defer gt.systemsMutex.Unlock()

	gt.systems = append(gt.systems, system)

	// Сортируем по приоритету (меньше = выше приоритет)
	for i := len(gt.systems) - 1; i > 0; i-- {
		if gt.systems[i].GetPriority() < gt.systems[i-1].GetPriority() {
			gt.systems[i], gt.systems[i-1] = gt.systems[i-1], gt.systems[i]
		} else {
			break
		}
	}

	gt.perfMonitor.track(system.GetName())

	gt.logger.Printf("[GameTicker] Зарегистрирована система: %s (приоритет: %d)",
		system.GetName(), system.GetPriority())
}

// gameLoop основной цикл
func (gt *GameTicker) gameLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(gt.tickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case pause := <-gt.pauseChan:
			for pause {
				select {
				case <-ctx.Done():
					return
				case pause = <-gt.pauseChan:
				}
			}
			// После паузы задержка не считается пропуском
			gt.lastTickTime = time.Now()

		case tickTime := <-ticker.C:
			gt.executeTick(tickTime)
		}
	}
}

// executeTick выполняет один тик
func (gt *GameTicker) executeTick(tickTime time.Time) {
	tickStart := time.Now()
	deltaTime := tickTime.Sub(gt.lastTickTime)

	// Пропущенные тики не догоняются: следующий кадр получает тот же фиксированный dt
	if deltaTime > gt.tickDuration*2 {
		gt.logger.Printf("[GameTicker] ПРЕДУПРЕЖДЕНИЕ: Большая задержка между тиками: %v (ожидалось: %v)",
			deltaTime, gt.tickDuration)
		gt.metricsMutex.Lock()
		gt.skippedTicks++
		gt.metricsMutex.Unlock()
	}

	gt.tickCount.Add(1)
	gt.lastTickTime = tickTime

	gt.executeAllSystems(deltaTime)

	totalTickTime := time.Since(tickStart)
	gt.updateTickMetrics(totalTickTime)
	gt.checkPerformance(totalTickTime)
}

// executeAllSystems выполняет все зарегистрированные системы
func (gt *GameTicker) executeAllSystems(deltaTime time.Duration) {
	gt.systemsMutex.RLock()
	systems := make([]TickSystem, len(gt.systems))
	copy(systems, gt.systems)
	gt.systemsMutex.RUnlock()

	for _, system := range systems {
		gt.executeSystem(system, deltaTime)
	}
}

// executeSystem выполняет одну систему с замером времени
func (gt *GameTicker) executeSystem(system TickSystem, deltaTime time.Duration) {
	systemStart := time.Now()
	systemName := system.GetName()

	defer func() {
		if r := recover(); r != nil {
			gt.logger.Printf("[GameTicker] КРИТИЧЕСКАЯ ОШИБКА в системе %s: %v", systemName, r)
			gt.perfMonitor.fail(systemName)
		}
	}()

	err := system.Update(deltaTime)

	elapsed := time.Since(systemStart)
	if gt.perfMonitor.observe(systemName, elapsed) {
		gt.logger.Printf("[GameTicker] Система %s превысила бюджет: %v", systemName, elapsed)
	}

	if err != nil {
		gt.logger.Printf("[GameTicker] Ошибка в системе %s: %v", systemName, err)
		gt.perfMonitor.fail(systemName)
	}
}

// GetStats возвращает статистику цикла
func (gt *GameTicker) GetStats() map[string]interface{} {
	gt.stateMutex.Lock()
	running := gt.isRunning
	startTime := gt.startTime
	gt.stateMutex.Unlock()

	gt.systemsMutex.RLock()
	systemsCount := len(gt.systems)
	gt.systemsMutex.RUnlock()

	gt.metricsMutex.Lock()
	defer gt.metricsMutex.Unlock()

	tickCount := gt.tickCount.Load()
	uptime := time.Since(startTime)
	actualTPS := 0.0
	if !startTime.IsZero() && uptime > 0 {
		actualTPS = float64(tickCount) / uptime.Seconds()
	}

	return map[string]interface{}{
		"target_tps":        gt.targetTPS,
		"actual_tps":        actualTPS,
		"tick_count":        tickCount,
		"uptime_seconds":    uptime.Seconds(),
		"average_tick_time": gt.averageTickTime,
		"max_observed_tick": gt.maxObservedTick,
		"skipped_ticks":     gt.skippedTicks,
		"is_running":        running,
		"is_paused":         gt.isPaused.Load(),
		"systems_count":     systemsCount,
		"systems":           gt.perfMonitor.GetSystemsStats(),
	}
}

// GetTickCount возвращает текущее количество тиков
func (gt *GameTicker) GetTickCount() uint64 {
	return gt.tickCount.Load()
}

// IsRunning сообщает, запущен ли цикл
func (gt *GameTicker) IsRunning() bool {
	gt.stateMutex.Lock()
	defer gt.stateMutex.Unlock()

	return gt.isRunning
}

func (gt *GameTicker) updateTickMetrics(tickTime time.Duration) {
	gt.metricsMutex.Lock()
	defer gt.metricsMutex.Unlock()

	if tickTime > gt.maxObservedTick {
		gt.maxObservedTick = tickTime
	}

	// Простое скользящее среднее
	if gt.averageTickTime == 0 {
		gt.averageTickTime = tickTime
	} else {
		gt.averageTickTime = (gt.averageTickTime*9 + tickTime) / 10
	}
}

func (gt *GameTicker) checkPerformance(tickTime time.Duration) {
	if tickTime > gt.maxTickTime {
		gt.logger.Printf("[GameTicker] КРИТИЧЕСКОЕ ПРЕДУПРЕЖДЕНИЕ: Тик превысил максимальное время! %v > %v (цель: %v)",
			tickTime, gt.maxTickTime, gt.tickDuration)
	} else if tickTime > gt.warningThreshold {
		gt.logger.Printf("[GameTicker] ПРЕДУПРЕЖДЕНИЕ: Медленный тик: %v (цель: %v)",
			tickTime, gt.tickDuration)
	}
}
