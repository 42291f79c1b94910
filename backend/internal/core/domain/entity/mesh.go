package entity

import (
	"github.com/go-gl/mathgl/mgl64"
)

// VertexGrid плоский вершинный буфер поверхности, упорядоченный сверху вниз.
// Значения только для записи со стороны симуляции.
type VertexGrid struct {
	Nx, Ny    int
	Positions []mgl64.Vec3
}

// NewVertexGrid создает буфер на (Nx+1)(Ny+1) вершин
func NewVertexGrid(nx, ny int) *VertexGrid {
	return &VertexGrid{
		Nx:        nx,
		Ny:        ny,
		Positions: make([]mgl64.Vec3, (nx+1)*(ny+1)),
	}
}

// VertexIndex возвращает слот вершины для ячейки (i, j)
func VertexIndex(nx, i, j int) int {
	return j*(nx+1) + i
}

// Sync копирует позицию частицы (i, Ny-j) в слот j*(Nx+1)+i.
// Закрепленный ряд решетки (j == Ny) попадает в верхний ряд вершин.
func (g *VertexGrid) Sync(l *Lattice) {
	for i := 0; i <= l.Nx; i++ {
		for j := 0; j <= l.Ny; j++ {
			g.Positions[VertexIndex(l.Nx, i, j)] = l.At(i, l.Ny-j).Position
		}
	}
}

// Snapshot возвращает копию буфера
func (g *VertexGrid) Snapshot() []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(g.Positions))
	copy(out, g.Positions)
	return out
}

// Flatten раскладывает буфер в x,y,z float32 для передачи рендеру
func Flatten(positions []mgl64.Vec3) []float32 {
	out := make([]float32, 0, len(positions)*3)
	for _, p := range positions {
		out = append(out, float32(p.X()), float32(p.Y()), float32(p.Z()))
	}
	return out
}
