package entity

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyKind определяет, как физический мир обращается с телом
type BodyKind int

const (
	// BodyDynamic интегрируется миром: гравитация, ограничения, столкновения
	BodyDynamic BodyKind = iota
	// BodyKinematic позиционируется снаружи каждый кадр и участвует только в столкновениях
	BodyKinematic
)

func (k BodyKind) String() string {
	switch k {
	case BodyDynamic:
		return "dynamic"
	case BodyKinematic:
		return "kinematic"
	default:
		return "unknown"
	}
}

// Body представляет тело в физическом мире.
// Динамическое тело с нулевой массой закреплено и никогда не сдвигается интегратором.
type Body struct {
	Kind     BodyKind
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Mass     float64
	Radius   float64 // Радиус столкновения, 0 для частиц ткани
}

// NewParticleBody создает динамическое точечное тело
func NewParticleBody(position, velocity mgl64.Vec3, mass float64) Body {
	return Body{
		Kind:     BodyDynamic,
		Position: position,
		Velocity: velocity,
		Mass:     mass,
	}
}

// NewKinematicSphere создает кинематическую сферу-коллайдер
func NewKinematicSphere(position mgl64.Vec3, radius float64) *Body {
	return &Body{
		Kind:     BodyKinematic,
		Position: position,
		Radius:   radius,
	}
}

// IsPinned сообщает, что тело закреплено (динамическое с нулевой массой)
func (b *Body) IsPinned() bool {
	return b.Kind == BodyDynamic && b.Mass == 0
}

// InverseMass возвращает обратную массу; 0 для закрепленных и кинематических тел
func (b *Body) InverseMass() float64 {
	if b.Kind != BodyDynamic || b.Mass <= 0 {
		return 0
	}
	return 1.0 / b.Mass
}

// Constraint структурное ограничение расстояния между двумя соседними телами
type Constraint struct {
	A, B       *Body
	RestLength float64
}
