package entity

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexIndex_Bijection(t *testing.T) {
	for _, res := range [][2]int{{1, 1}, {2, 3}, {15, 15}, {4, 1}} {
		nx, ny := res[0], res[1]
		seen := make(map[int]bool)
		for i := 0; i <= nx; i++ {
			for j := 0; j <= ny; j++ {
				idx := VertexIndex(nx, i, j)
				assert.False(t, seen[idx], "slot %d used twice for %dx%d", idx, nx, ny)
				assert.GreaterOrEqual(t, idx, 0)
				assert.Less(t, idx, (nx+1)*(ny+1))
				seen[idx] = true
			}
		}
		assert.Len(t, seen, (nx+1)*(ny+1))
	}
}

func TestVertexGrid_SyncFlipsRows(t *testing.T) {
	l, err := BuildLattice(3, 2, 1.0, 1.0)
	require.NoError(t, err)

	g := NewVertexGrid(l.Nx, l.Ny)
	g.Sync(l)

	// Закрепленный ряд решетки становится верхним рядом вершин
	for i := 0; i <= l.Nx; i++ {
		assert.Equal(t, l.At(i, l.Ny).Position, g.Positions[i])
		assert.Equal(t, l.At(i, 0).Position, g.Positions[VertexIndex(l.Nx, i, l.Ny)])
	}

	for i := 0; i <= l.Nx; i++ {
		for j := 0; j <= l.Ny; j++ {
			assert.Equal(t, l.At(i, l.Ny-j).Position, g.Positions[VertexIndex(l.Nx, i, j)])
		}
	}
}

func TestVertexGrid_SyncDoesNotMutateLattice(t *testing.T) {
	l, err := BuildLattice(2, 2, 1.0, 1.0)
	require.NoError(t, err)
	before := make([]Particle, len(l.Particles))
	copy(before, l.Particles)

	g := NewVertexGrid(l.Nx, l.Ny)
	g.Sync(l)
	g.Positions[0] = mgl64.Vec3{9, 9, 9}

	assert.Equal(t, before, l.Particles)
}

func TestVertexGrid_SnapshotAndFlatten(t *testing.T) {
	g := NewVertexGrid(1, 1)
	g.Positions[0] = mgl64.Vec3{1, 2, 3}
	g.Positions[3] = mgl64.Vec3{-1, 0.5, 0}

	snap := g.Snapshot()
	g.Positions[0] = mgl64.Vec3{}
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, snap[0])

	flat := Flatten(snap)
	require.Len(t, flat, 12)
	assert.Equal(t, []float32{1, 2, 3}, flat[0:3])
	assert.Equal(t, []float32{-1, 0.5, 0}, flat[9:12])
}
