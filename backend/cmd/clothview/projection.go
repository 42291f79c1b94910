package main

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ViewAxis плоскость, на которую проецируется сцена
type ViewAxis int

const (
	ViewFront ViewAxis = iota // плоскость XY, взгляд вдоль -Z
	ViewSide                  // плоскость ZY, взгляд вдоль +X
)

func (a ViewAxis) String() string {
	if a == ViewSide {
		return "side"
	}
	return "front"
}

// Projection ортографическая проекция мировых координат в ячейки терминала.
// Символ терминала примерно вдвое выше своей ширины, поэтому по X шаг вдвое меньше.
type Projection struct {
	Axis   ViewAxis
	Width  int
	Height int
	Extent float64 // половина видимой высоты в мировых единицах
}

// Project возвращает ячейку для точки и признак попадания в экран
func (p Projection) Project(v mgl64.Vec3) (int, int, bool) {
	if p.Width <= 0 || p.Height <= 0 || !(p.Extent > 0) {
		return 0, 0, false
	}

	horizontal := v.X()
	if p.Axis == ViewSide {
		horizontal = v.Z()
	}

	rowsPerUnit := float64(p.Height) / (2 * p.Extent)
	colsPerUnit := rowsPerUnit * 2

	x := int(math.Round(float64(p.Width)/2 + horizontal*colsPerUnit))
	y := int(math.Round(float64(p.Height)/2 - v.Y()*rowsPerUnit))

	if x < 0 || x >= p.Width || y < 0 || y >= p.Height {
		return x, y, false
	}
	return x, y, true
}

// Radius радиус сферы в строках терминала
func (p Projection) Radius(r float64) float64 {
	if !(p.Extent > 0) {
		return 0
	}
	return r * float64(p.Height) / (2 * p.Extent)
}

// shade выбирает символ вершины по глубине, ближние вершины плотнее
func shade(depth float64) rune {
	switch {
	case depth > 0.15:
		return '@'
	case depth > 0.05:
		return 'o'
	case depth > -0.05:
		return '+'
	default:
		return '.'
	}
}
