package physics

import (
	"errors"

	"cloth-sim/backend/internal/core/domain/entity"
)

var (
	// ErrInvalidConstraint ограничение ссылается на одно и то же тело дважды или на nil
	ErrInvalidConstraint = errors.New("invalid constraint")
	// ErrUnknownBody ограничение ссылается на тело, не добавленное в мир
	ErrUnknownBody = errors.New("body is not registered in the world")
	// ErrDuplicateBody тело уже добавлено в мир
	ErrDuplicateBody = errors.New("body already registered")
	// ErrInvalidTimeStep шаг симуляции должен быть положительным и конечным
	ErrInvalidTimeStep = errors.New("time step must be positive and finite")
)

// World определяет контракт физического мира, которым пользуется симуляция ткани.
//
// Step(dt) применяет гравитацию ко всем телам с ненулевой массой, приближает каждое
// ограничение к его длине покоя, выталкивает частицы из кинематических тел и оставляет
// закрепленные (нулевая масса) частицы на месте. Кинематические тела миром не
// интегрируются. Step либо выполняется целиком, либо возвращает ошибку, не изменив состояние.
type World interface {
	// AddBody регистрирует тело; мир получает изменяемую ссылку на время каждого шага
	AddBody(body *entity.Body) error

	// AddConstraint регистрирует ограничение между двумя уже добавленными телами
	AddConstraint(constraint entity.Constraint) error

	// Step продвигает мир на фиксированный шаг dt секунд
	Step(dt float64) error
}

// Factory создает новый пустой мир; используется при каждой перестройке симуляции
type Factory func() World
