package service

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"cloth-sim/backend/internal/config"
	"cloth-sim/backend/internal/core/domain/entity"
	portPhysics "cloth-sim/backend/internal/core/port/out/physics"
)

// SimulationState все изменяемое состояние одного экземпляра симуляции.
// Решетка, коллайдер и осциллятор принадлежат состоянию; мир получает указатели
// на их тела и изменяет их только внутри Step.
type SimulationState struct {
	Params     config.Params
	Lattice    *entity.Lattice
	Collider   *entity.Body
	Oscillator entity.Oscillator
	Vertices   *entity.VertexGrid
	World      portPhysics.World

	// ProxyPosition позиция видимой сферы, повторяет коллайдер после каждого перемещения
	ProxyPosition mgl64.Vec3

	Frame uint64
}

// NewSimulationState строит решетку, регистрирует тела и ограничения в новом мире.
// При ошибке частично заполненный мир отбрасывается.
func NewSimulationState(params config.Params, world portPhysics.World) (*SimulationState, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	lattice, err := entity.BuildLattice(params.Nx, params.Ny, params.ClothSize, params.Mass)
	if err != nil {
		return nil, fmt.Errorf("build lattice: %w", err)
	}

	state := &SimulationState{
		Params:   params,
		Lattice:  lattice,
		Collider: entity.NewKinematicSphere(mgl64.Vec3{}, params.ColliderRadius()),
		Oscillator: entity.Oscillator{
			FanPower: params.FanPower,
			Swinging: params.IsSwinging,
		},
		Vertices: entity.NewVertexGrid(params.Nx, params.Ny),
		World:    world,
	}

	for k := range lattice.Particles {
		p := &lattice.Particles[k]
		if err := world.AddBody(&p.Body); err != nil {
			return nil, fmt.Errorf("register particle (%d,%d): %w", p.I, p.J, err)
		}
	}
	for k, c := range lattice.Constraints {
		if err := world.AddConstraint(c); err != nil {
			return nil, fmt.Errorf("register constraint %d: %w", k, err)
		}
	}
	if err := world.AddBody(state.Collider); err != nil {
		return nil, fmt.Errorf("register collider: %w", err)
	}

	return state, nil
}

// advance выполняет один кадр в порядке: синхронизация, осциллятор, коллайдер, шаг.
// Вершины снимаются до шага, поэтому отстают от физики на один кадр.
func (s *SimulationState) advance() (FrameResult, error) {
	s.Vertices.Sync(s.Lattice)

	// Неудачный шаг не должен оставлять полупримененный кадр
	oscillator, collider, proxy := s.Oscillator, s.Collider.Position, s.ProxyPosition

	s.Oscillator.Advance()
	if s.Oscillator.Reposition(s.Collider, s.Params.MovementRadius) {
		s.ProxyPosition = s.Collider.Position
	}

	if err := s.World.Step(s.Params.TimeStep); err != nil {
		s.Oscillator, s.Collider.Position, s.ProxyPosition = oscillator, collider, proxy
		return FrameResult{}, fmt.Errorf("frame %d: step: %w", s.Frame+1, err)
	}
	s.Frame++

	return FrameResult{
		Frame:         s.Frame,
		Vertices:      s.Vertices.Snapshot(),
		Collider:      s.Collider.Position,
		FanRotation:   s.Oscillator.FanRotation,
		HeadRotation:  s.Oscillator.HeadRotation,
		ProxyVisible:  s.Params.HelperVisible,
		ProxyPosition: s.ProxyPosition,
	}, nil
}
