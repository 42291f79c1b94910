package physics

import (
	"fmt"
	"math"

	"cloth-sim/backend/internal/core/domain/entity"
	portPhysics "cloth-sim/backend/internal/core/port/out/physics"
)

// FrozenWorld детерминированный мир-заглушка: проверяет регистрацию так же, как
// SolverWorld, записывает вызовы Step и никогда не двигает тела.
type FrozenWorld struct {
	Bodies      []*entity.Body
	Constraints []entity.Constraint
	Steps       []float64

	// StepErr, если задана, возвращается из Step вместо выполнения шага
	StepErr error

	registered map[*entity.Body]struct{}
}

var _ portPhysics.World = (*FrozenWorld)(nil)

// NewFrozenWorld создает пустой мир-заглушку
func NewFrozenWorld() *FrozenWorld {
	return &FrozenWorld{
		registered: make(map[*entity.Body]struct{}),
	}
}

// AddBody регистрирует тело
func (w *FrozenWorld) AddBody(body *entity.Body) error {
	if body == nil {
		return fmt.Errorf("add body: %w", portPhysics.ErrUnknownBody)
	}
	if _, exists := w.registered[body]; exists {
		return fmt.Errorf("add body: %w", portPhysics.ErrDuplicateBody)
	}
	w.registered[body] = struct{}{}
	w.Bodies = append(w.Bodies, body)
	return nil
}

// AddConstraint регистрирует ограничение
func (w *FrozenWorld) AddConstraint(constraint entity.Constraint) error {
	if err := validateConstraint(w.registered, constraint); err != nil {
		return err
	}
	w.Constraints = append(w.Constraints, constraint)
	return nil
}

// Step записывает dt и ничего не меняет
func (w *FrozenWorld) Step(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("step %v: %w", dt, portPhysics.ErrInvalidTimeStep)
	}
	if w.StepErr != nil {
		return w.StepErr
	}
	w.Steps = append(w.Steps, dt)
	return nil
}

// Kinematic возвращает зарегистрированные кинематические тела
func (w *FrozenWorld) Kinematic() []*entity.Body {
	var out []*entity.Body
	for _, b := range w.Bodies {
		if b.Kind == entity.BodyKinematic {
			out = append(out, b)
		}
	}
	return out
}
