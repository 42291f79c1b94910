package service

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sync"

	"cloth-sim/backend/internal/config"
	"cloth-sim/backend/internal/core/port/in/simulation"
	portPhysics "cloth-sim/backend/internal/core/port/out/physics"
)

// FrameResult результат кадра
type FrameResult = simulation.FrameResult

// ErrInvalidFanPower возвращается при нечисловой мощности вентилятора
var ErrInvalidFanPower = errors.New("fan power must be finite")

// FrameDriver оркестрирует покадровый цикл симуляции ткани.
// Все методы сериализуются мьютексом: команды, пришедшие во время кадра,
// вступают в силу со следующего кадра.
type FrameDriver struct {
	mu      sync.Mutex
	factory portPhysics.Factory
	logger  *log.Logger
	state   *SimulationState
}

var _ simulation.SimulationPort = (*FrameDriver)(nil)

// NewFrameDriver создает драйвер и строит начальную симуляцию
func NewFrameDriver(params config.Params, factory portPhysics.Factory, logger *log.Logger) (*FrameDriver, error) {
	if logger == nil {
		logger = log.Default()
	}

	d := &FrameDriver{
		factory: factory,
		logger:  logger,
	}
	if err := d.Configure(params); err != nil {
		return nil, err
	}
	return d, nil
}

// Configure перестраивает решетку, коллайдер, осциллятор и мир с нуля.
// При ошибке текущая симуляция остается нетронутой.
func (d *FrameDriver) Configure(params config.Params) error {
	state, err := d.build(params)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
	return nil
}

// Reconfigure перестраивает симуляцию из параметров, полученных изменением текущих.
// Чтение, изменение и замена выполняются под одной блокировкой, поэтому
// команды других клиентов не теряются между ними.
func (d *FrameDriver) Reconfigure(update func(current config.Params) config.Params) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.build(update(d.state.Params))
	if err != nil {
		return err
	}
	d.state = state
	return nil
}

func (d *FrameDriver) build(params config.Params) (*SimulationState, error) {
	state, err := NewSimulationState(params, d.factory())
	if err != nil {
		d.logger.Printf("[FrameDriver] Ошибка конфигурации: %v", err)
		return nil, fmt.Errorf("configure: %w", err)
	}

	d.logger.Printf("[FrameDriver] Симуляция построена: решетка %dx%d, частиц %d, ограничений %d, dt=%.4f",
		params.Nx, params.Ny, state.Lattice.Len(), len(state.Lattice.Constraints), params.TimeStep)
	return state, nil
}

// AdvanceFrame выполняет один кадр. Возвращаемые вершины отражают состояние
// до интегрирования этого кадра, позиция коллайдера записана в этом кадре.
func (d *FrameDriver) AdvanceFrame() (FrameResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state.advance()
}

// SetFanPower меняет мощность вентилятора
func (d *FrameDriver) SetFanPower(power float64) error {
	if math.IsNaN(power) || math.IsInf(power, 0) {
		return fmt.Errorf("set fan power %v: %w", power, ErrInvalidFanPower)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.Oscillator.FanPower = power
	d.state.Params.FanPower = power
	return nil
}

// SetSwinging включает или выключает качание головы
func (d *FrameDriver) SetSwinging(swinging bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.Oscillator.Swinging = swinging
	d.state.Params.IsSwinging = swinging
}

// SetHelperVisible показывает или скрывает вспомогательную сферу без перестройки
func (d *FrameDriver) SetHelperVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.state.Params.HelperVisible = visible
}

// Params возвращает копию текущих параметров
func (d *FrameDriver) Params() config.Params {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state.Params
}

// Frame возвращает номер последнего выполненного кадра
func (d *FrameDriver) Frame() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state.Frame
}

// Inspect вызывает fn с текущим состоянием под блокировкой.
// fn не должна сохранять ссылки на состояние.
func (d *FrameDriver) Inspect(fn func(state *SimulationState)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fn(d.state)
}
