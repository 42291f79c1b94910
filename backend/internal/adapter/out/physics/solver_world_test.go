package physics

import (
	"errors"
	"io"
	"log"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloth-sim/backend/internal/core/domain/entity"
	portPhysics "cloth-sim/backend/internal/core/port/out/physics"
	"cloth-sim/backend/internal/physics"
)

const testDt = 1.0 / 60.0

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestWorld(mutate func(cfg *physics.PhysicsConfig)) *SolverWorld {
	cfg := physics.DefaultPhysicsConfig()
	if mutate != nil {
		mutate(cfg)
	}
	return NewSolverWorldWithConfig(cfg, quietLogger())
}

func TestSolverWorld_GravityOnFreeParticle(t *testing.T) {
	w := newTestWorld(func(cfg *physics.PhysicsConfig) { cfg.LinearDamping = 0 })

	body := entity.NewParticleBody(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{}, 1)
	require.NoError(t, w.AddBody(&body))
	require.NoError(t, w.Step(testDt))

	wantVy := -9.82 * testDt
	assert.InDelta(t, wantVy, body.Velocity.Y(), 1e-12)
	assert.InDelta(t, 1+wantVy*testDt, body.Position.Y(), 1e-12)
	assert.Equal(t, uint64(1), w.Steps())
}

func TestSolverWorld_PinnedAndKinematicStayPut(t *testing.T) {
	w := newTestWorld(nil)

	pinned := entity.NewParticleBody(mgl64.Vec3{0, 0.5, 0}, mgl64.Vec3{}, 0)
	free := entity.NewParticleBody(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -0.3}, 1)
	collider := entity.NewKinematicSphere(mgl64.Vec3{2, 2, 2}, 0.26)

	require.NoError(t, w.AddBody(&pinned))
	require.NoError(t, w.AddBody(&free))
	require.NoError(t, w.AddBody(collider))
	require.NoError(t, w.AddConstraint(entity.Constraint{A: &pinned, B: &free, RestLength: 0.5}))

	for i := 0; i < 120; i++ {
		require.NoError(t, w.Step(testDt))
	}

	assert.Equal(t, mgl64.Vec3{0, 0.5, 0}, pinned.Position)
	assert.Equal(t, mgl64.Vec3{}, pinned.Velocity)
	assert.Equal(t, mgl64.Vec3{2, 2, 2}, collider.Position)
	assert.Equal(t, mgl64.Vec3{}, collider.Velocity)
	assert.InDelta(t, 0.5, free.Position.Sub(pinned.Position).Len(), 1e-9)
}

func TestSolverWorld_ConstraintPullsToRestLength(t *testing.T) {
	w := newTestWorld(nil)

	anchor := entity.NewParticleBody(mgl64.Vec3{}, mgl64.Vec3{}, 0)
	bob := entity.NewParticleBody(mgl64.Vec3{0, -2, 0}, mgl64.Vec3{}, 1)
	require.NoError(t, w.AddBody(&anchor))
	require.NoError(t, w.AddBody(&bob))
	require.NoError(t, w.AddConstraint(entity.Constraint{A: &anchor, B: &bob, RestLength: 1}))

	require.NoError(t, w.Step(testDt))

	assert.InDelta(t, 1.0, bob.Position.Len(), 1e-12)
}

func TestSolverWorld_EqualMassesShareCorrection(t *testing.T) {
	w := newTestWorld(func(cfg *physics.PhysicsConfig) {
		cfg.Gravity = mgl64.Vec3{}
		cfg.Iterations = 1
	})

	a := entity.NewParticleBody(mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{}, 1)
	b := entity.NewParticleBody(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{}, 1)
	require.NoError(t, w.AddBody(&a))
	require.NoError(t, w.AddBody(&b))
	require.NoError(t, w.AddConstraint(entity.Constraint{A: &a, B: &b, RestLength: 1}))

	require.NoError(t, w.Step(testDt))

	assert.InDelta(t, -0.5, a.Position.X(), 1e-12)
	assert.InDelta(t, 0.5, b.Position.X(), 1e-12)
}

func TestSolverWorld_CollisionPushesParticleOut(t *testing.T) {
	w := newTestWorld(func(cfg *physics.PhysicsConfig) {
		cfg.Gravity = mgl64.Vec3{}
		cfg.LinearDamping = 0
	})

	collider := entity.NewKinematicSphere(mgl64.Vec3{}, 0.5)
	particle := entity.NewParticleBody(mgl64.Vec3{0.1, 0, 0}, mgl64.Vec3{}, 1)
	require.NoError(t, w.AddBody(collider))
	require.NoError(t, w.AddBody(&particle))

	require.NoError(t, w.Step(testDt))

	reach := 0.5 + physics.DefaultPhysicsConfig().CollisionMargin
	assert.InDelta(t, reach, particle.Position.X(), 1e-12)
	assert.Greater(t, particle.Velocity.X(), 0.0)
	assert.Equal(t, mgl64.Vec3{}, collider.Position)
}

func TestSolverWorld_HangingCloth(t *testing.T) {
	w := newTestWorld(nil)

	l, err := entity.BuildLattice(6, 6, 1.0, 1.0)
	require.NoError(t, err)
	for k := range l.Particles {
		require.NoError(t, w.AddBody(&l.Particles[k].Body))
	}
	for _, c := range l.Constraints {
		require.NoError(t, w.AddConstraint(c))
	}
	collider := entity.NewKinematicSphere(mgl64.Vec3{0, 0, -0.16}, 0.26)
	require.NoError(t, w.AddBody(collider))

	pinnedBefore := make([]mgl64.Vec3, 0, l.Nx+1)
	for i := 0; i <= l.Nx; i++ {
		pinnedBefore = append(pinnedBefore, l.At(i, l.Ny).Position)
	}

	for step := 0; step < 180; step++ {
		require.NoError(t, w.Step(testDt))
	}

	for i := 0; i <= l.Nx; i++ {
		assert.Equal(t, pinnedBefore[i], l.At(i, l.Ny).Position, "pinned particle %d moved", i)
	}
	for _, p := range l.Particles {
		for _, v := range p.Position {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "particle (%d,%d) diverged", p.I, p.J)
		}
		if p.Mass > 0 {
			assert.GreaterOrEqual(t, p.Position.Sub(collider.Position).Len(), collider.Radius-1e-6,
				"particle (%d,%d) inside collider", p.I, p.J)
		}
	}
	assert.Less(t, l.MaxStretch(), 0.5)
	assert.Equal(t, 7*7+1, w.Bodies())
	assert.Equal(t, len(l.Constraints), w.Constraints())
}

func TestSolverWorld_DegenerateConstraintIsSkipped(t *testing.T) {
	w := newTestWorld(func(cfg *physics.PhysicsConfig) { cfg.Gravity = mgl64.Vec3{} })

	a := entity.NewParticleBody(mgl64.Vec3{0.2, 0.2, 0}, mgl64.Vec3{}, 1)
	b := entity.NewParticleBody(mgl64.Vec3{0.2, 0.2, 0}, mgl64.Vec3{}, 1)
	require.NoError(t, w.AddBody(&a))
	require.NoError(t, w.AddBody(&b))
	require.NoError(t, w.AddConstraint(entity.Constraint{A: &a, B: &b, RestLength: 0.1}))

	require.NoError(t, w.Step(testDt))

	assert.Equal(t, mgl64.Vec3{0.2, 0.2, 0}, a.Position)
	assert.Equal(t, mgl64.Vec3{0.2, 0.2, 0}, b.Position)
}

func TestSolverWorld_Errors(t *testing.T) {
	w := newTestWorld(nil)

	a := entity.NewParticleBody(mgl64.Vec3{}, mgl64.Vec3{}, 1)
	b := entity.NewParticleBody(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{}, 1)
	stranger := entity.NewParticleBody(mgl64.Vec3{2, 0, 0}, mgl64.Vec3{}, 1)
	require.NoError(t, w.AddBody(&a))
	require.NoError(t, w.AddBody(&b))

	err := w.AddBody(&a)
	assert.True(t, errors.Is(err, portPhysics.ErrDuplicateBody), "got %v", err)

	err = w.AddBody(nil)
	assert.Error(t, err)

	tests := []struct {
		name string
		c    entity.Constraint
		want error
	}{
		{"same endpoint", entity.Constraint{A: &a, B: &a, RestLength: 1}, portPhysics.ErrInvalidConstraint},
		{"nil endpoint", entity.Constraint{A: &a, B: nil, RestLength: 1}, portPhysics.ErrInvalidConstraint},
		{"negative rest", entity.Constraint{A: &a, B: &b, RestLength: -1}, portPhysics.ErrInvalidConstraint},
		{"unregistered", entity.Constraint{A: &a, B: &stranger, RestLength: 1}, portPhysics.ErrUnknownBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.AddConstraint(tt.c)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
	assert.Zero(t, w.Constraints())

	for _, dt := range []float64{0, -testDt, math.NaN(), math.Inf(1)} {
		err := w.Step(dt)
		assert.True(t, errors.Is(err, portPhysics.ErrInvalidTimeStep), "dt=%v got %v", dt, err)
	}
	assert.Zero(t, w.Steps())
	assert.Equal(t, mgl64.Vec3{1, 0, 0}, b.Position)
}

func TestFrozenWorld_RecordsAndNeverMoves(t *testing.T) {
	w := NewFrozenWorld()

	a := entity.NewParticleBody(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 0, -1}, 1)
	b := entity.NewParticleBody(mgl64.Vec3{0, 2, 0}, mgl64.Vec3{}, 0)
	collider := entity.NewKinematicSphere(mgl64.Vec3{}, 0.3)
	require.NoError(t, w.AddBody(&a))
	require.NoError(t, w.AddBody(&b))
	require.NoError(t, w.AddBody(collider))
	require.NoError(t, w.AddConstraint(entity.Constraint{A: &a, B: &b, RestLength: 1}))

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Step(testDt))
	}

	assert.Equal(t, []float64{testDt, testDt, testDt}, w.Steps)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, a.Position)
	assert.Equal(t, []*entity.Body{collider}, w.Kinematic())

	err := w.AddConstraint(entity.Constraint{A: &a, B: &a})
	assert.True(t, errors.Is(err, portPhysics.ErrInvalidConstraint))

	w.StepErr = errors.New("boom")
	assert.EqualError(t, w.Step(testDt), "boom")
	assert.Len(t, w.Steps, 3)
}
