package entity

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// initialSwayPerRow скорость по Z, добавляемая на каждый ряд удаления от закрепленного края
const initialSwayPerRow = -0.1

// ErrInvalidResolution возвращается при неположительном разрешении решетки
var ErrInvalidResolution = errors.New("lattice resolution must be positive")

// Particle узел решетки ткани с координатами (I, J)
type Particle struct {
	I, J int
	Body
}

// Lattice решетка частиц (Nx+1) x (Ny+1) и ее структурные ограничения.
// Ряд J == Ny закреплен.
type Lattice struct {
	Nx, Ny      int
	Dist        float64
	Particles   []Particle // индекс i*(Ny+1)+j
	Constraints []Constraint
}

// BuildLattice строит решетку частиц и сеть структурных ограничений между соседями по осям
func BuildLattice(nx, ny int, clothSize, mass float64) (*Lattice, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidResolution, nx, ny)
	}

	l := &Lattice{
		Nx:        nx,
		Ny:        ny,
		Dist:      clothSize / float64(nx),
		Particles: make([]Particle, (nx+1)*(ny+1)),
	}

	halfX := float64(nx) * 0.5
	halfY := float64(ny) * 0.5
	for i := 0; i <= nx; i++ {
		for j := 0; j <= ny; j++ {
			particleMass := mass
			if j == ny {
				particleMass = 0
			}
			position := mgl64.Vec3{
				(float64(i) - halfX) * l.Dist,
				(float64(j) - halfY) * l.Dist,
				0,
			}
			velocity := mgl64.Vec3{0, 0, initialSwayPerRow * float64(ny-j)}

			l.Particles[l.index(i, j)] = Particle{
				I:    i,
				J:    j,
				Body: NewParticleBody(position, velocity, particleMass),
			}
		}
	}

	// Ограничения создаются только после того, как все частицы существуют
	l.Constraints = make([]Constraint, 0, nx*(ny+1)+ny*(nx+1))
	for i := 0; i <= nx; i++ {
		for j := 0; j <= ny; j++ {
			if i < nx {
				l.connect(i, j, i+1, j)
			}
			if j < ny {
				l.connect(i, j, i, j+1)
			}
		}
	}

	return l, nil
}

func (l *Lattice) index(i, j int) int {
	return i*(l.Ny+1) + j
}

func (l *Lattice) connect(i1, j1, i2, j2 int) {
	l.Constraints = append(l.Constraints, Constraint{
		A:          &l.At(i1, j1).Body,
		B:          &l.At(i2, j2).Body,
		RestLength: l.Dist,
	})
}

// At возвращает частицу (i, j). Паникует при выходе за пределы решетки.
func (l *Lattice) At(i, j int) *Particle {
	if i < 0 || i > l.Nx || j < 0 || j > l.Ny {
		panic(fmt.Sprintf("lattice: particle (%d, %d) outside %dx%d", i, j, l.Nx, l.Ny))
	}
	return &l.Particles[l.index(i, j)]
}

// Len возвращает количество частиц
func (l *Lattice) Len() int {
	return len(l.Particles)
}

// MaxStretch возвращает наибольшее относительное отклонение длины ограничения от длины покоя
func (l *Lattice) MaxStretch() float64 {
	maxStretch := 0.0
	for _, c := range l.Constraints {
		if c.RestLength == 0 {
			continue
		}
		length := c.B.Position.Sub(c.A.Position).Len()
		stretch := math.Abs(length-c.RestLength) / c.RestLength
		if stretch > maxStretch {
			maxStretch = stretch
		}
	}
	return maxStretch
}

// LowestPoint возвращает минимальную высоту (Y) среди частиц
func (l *Lattice) LowestPoint() float64 {
	lowest := math.Inf(1)
	for k := range l.Particles {
		if y := l.Particles[k].Position.Y(); y < lowest {
			lowest = y
		}
	}
	return lowest
}

// KineticEnergy суммарная кинетическая энергия незакрепленных частиц
func (l *Lattice) KineticEnergy() float64 {
	energy := 0.0
	for k := range l.Particles {
		p := &l.Particles[k]
		if p.Mass <= 0 {
			continue
		}
		energy += 0.5 * p.Mass * p.Velocity.Dot(p.Velocity)
	}
	return energy
}
