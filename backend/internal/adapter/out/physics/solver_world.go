package physics

import (
	"fmt"
	"log"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"cloth-sim/backend/internal/core/domain/entity"
	portPhysics "cloth-sim/backend/internal/core/port/out/physics"
	"cloth-sim/backend/internal/physics"
)

// logEverySteps период служебного лога, 30 секунд при 60 шагах в секунду
const logEverySteps = 1800

// SolverWorld физический мир с позиционным решателем ограничений.
// Динамические тела интегрируются полунеявным Эйлером, затем ограничения расстояния
// и столкновения с кинематическими сферами проецируются итеративно, а скорость
// восстанавливается из смещения за шаг.
type SolverWorld struct {
	config *physics.PhysicsConfig
	logger *log.Logger

	bodies      []*entity.Body
	registered  map[*entity.Body]struct{}
	kinematic   []*entity.Body
	constraints []entity.Constraint

	previous []mgl64.Vec3 // позиции до интегрирования, индекс как в bodies
	steps    uint64
}

var _ portPhysics.World = (*SolverWorld)(nil)

// NewSolverWorld создает мир с текущей глобальной конфигурацией физики
func NewSolverWorld(logger *log.Logger) *SolverWorld {
	return NewSolverWorldWithConfig(physics.GetPhysicsConfig(), logger)
}

// NewSolverWorldWithConfig создает мир с явной конфигурацией
func NewSolverWorldWithConfig(config *physics.PhysicsConfig, logger *log.Logger) *SolverWorld {
	if logger == nil {
		logger = log.Default()
	}

	cfg := *config
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1
	}

	return &SolverWorld{
		config:     &cfg,
		logger:     logger,
		registered: make(map[*entity.Body]struct{}),
	}
}

// NewSolverWorldFactory возвращает фабрику миров для перестройки симуляции
func NewSolverWorldFactory(logger *log.Logger) portPhysics.Factory {
	return func() portPhysics.World {
		return NewSolverWorld(logger)
	}
}

// AddBody регистрирует тело в мире
func (w *SolverWorld) AddBody(body *entity.Body) error {
	if body == nil {
		return fmt.Errorf("add body: %w", portPhysics.ErrUnknownBody)
	}
	if _, exists := w.registered[body]; exists {
		return fmt.Errorf("add body: %w", portPhysics.ErrDuplicateBody)
	}

	w.registered[body] = struct{}{}
	w.bodies = append(w.bodies, body)
	w.previous = append(w.previous, body.Position)
	if body.Kind == entity.BodyKinematic {
		w.kinematic = append(w.kinematic, body)
	}
	return nil
}

// AddConstraint регистрирует ограничение расстояния
func (w *SolverWorld) AddConstraint(constraint entity.Constraint) error {
	if err := validateConstraint(w.registered, constraint); err != nil {
		return err
	}
	w.constraints = append(w.constraints, constraint)
	return nil
}

// Step продвигает мир на dt секунд
func (w *SolverWorld) Step(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("step %v: %w", dt, portPhysics.ErrInvalidTimeStep)
	}

	w.integrate(dt)

	for iter := 0; iter < w.config.Iterations; iter++ {
		w.solveConstraints()
		w.solveCollisions()
	}

	w.updateVelocities(dt)

	w.steps++
	if w.steps%logEverySteps == 0 {
		w.logger.Printf("[SolverWorld] Шаг %d: тел %d, ограничений %d, итераций %d",
			w.steps, len(w.bodies), len(w.constraints), w.config.Iterations)
	}
	return nil
}

// Steps возвращает количество выполненных шагов
func (w *SolverWorld) Steps() uint64 {
	return w.steps
}

// Bodies возвращает количество зарегистрированных тел
func (w *SolverWorld) Bodies() int {
	return len(w.bodies)
}

// Constraints возвращает количество зарегистрированных ограничений
func (w *SolverWorld) Constraints() int {
	return len(w.constraints)
}

func (w *SolverWorld) integrate(dt float64) {
	damping := math.Pow(1-w.config.LinearDamping, dt)
	gravityStep := w.config.Gravity.Mul(dt)

	for k, body := range w.bodies {
		w.previous[k] = body.Position
		if body.InverseMass() == 0 {
			continue
		}
		body.Velocity = body.Velocity.Add(gravityStep).Mul(damping)
		body.Position = body.Position.Add(body.Velocity.Mul(dt))
	}
}

func (w *SolverWorld) solveConstraints() {
	for _, c := range w.constraints {
		wA := c.A.InverseMass()
		wB := c.B.InverseMass()
		total := wA + wB
		if total == 0 {
			continue
		}

		delta := c.B.Position.Sub(c.A.Position)
		length := delta.Len()
		if length < w.config.MinConstraintLength {
			continue
		}

		correction := delta.Mul((length - c.RestLength) / (length * total))
		c.A.Position = c.A.Position.Add(correction.Mul(wA))
		c.B.Position = c.B.Position.Sub(correction.Mul(wB))
	}
}

func (w *SolverWorld) solveCollisions() {
	for _, collider := range w.kinematic {
		reach := collider.Radius + w.config.CollisionMargin
		for _, body := range w.bodies {
			if body.Kind != entity.BodyDynamic || body.InverseMass() == 0 {
				continue
			}

			offset := body.Position.Sub(collider.Position)
			distance := offset.Len()
			if distance >= collider.Radius || distance < w.config.MinConstraintLength {
				continue
			}

			body.Position = collider.Position.Add(offset.Mul(reach / distance))
		}
	}
}

func (w *SolverWorld) updateVelocities(dt float64) {
	for k, body := range w.bodies {
		if body.InverseMass() == 0 {
			continue
		}
		body.Velocity = body.Position.Sub(w.previous[k]).Mul(1 / dt)
	}
}

// validateConstraint проверяет, что оба конца существуют в мире и различны
func validateConstraint(registered map[*entity.Body]struct{}, c entity.Constraint) error {
	if c.A == nil || c.B == nil {
		return fmt.Errorf("add constraint: nil endpoint: %w", portPhysics.ErrInvalidConstraint)
	}
	if c.A == c.B {
		return fmt.Errorf("add constraint: endpoints coincide: %w", portPhysics.ErrInvalidConstraint)
	}
	if !(c.RestLength >= 0) {
		return fmt.Errorf("add constraint: rest length %v: %w", c.RestLength, portPhysics.ErrInvalidConstraint)
	}
	if _, ok := registered[c.A]; !ok {
		return fmt.Errorf("add constraint: endpoint A: %w", portPhysics.ErrUnknownBody)
	}
	if _, ok := registered[c.B]; !ok {
		return fmt.Errorf("add constraint: endpoint B: %w", portPhysics.ErrUnknownBody)
	}
	return nil
}
