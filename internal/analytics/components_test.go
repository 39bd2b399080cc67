package analytics

import (
	"context"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

func TestConnectedComponents_PartitionsInput(t *testing.T) {
	e, c := newTestEngine(t)
	cells := append(block(0, 0, 0, 2, 2), cell(0, 10, 10), cell(0, 20, 20), cell(0, 21, 20))

	out, err := e.ConnectedComponents(context.Background(), ComponentsInput{Cellset: inline(cells...)})
	require.NoError(t, err)

	require.Equal(t, 3, out.ComponentCount)
	assert.Equal(t, len(cells), out.TotalCells)
	sizes := []int{out.Components[0].CellCount, out.Components[1].CellCount, out.Components[2].CellCount}
	assert.Equal(t, []int{4, 2, 1}, sizes)

	var union []string
	for i, comp := range out.Components {
		assert.Equal(t, i, comp.ComponentID)
		members, ok := c.Get(comp.CellsetID)
		require.True(t, ok)
		union = append(union, members...)
	}
	slices.Sort(union)
	want := slices.Clone(cells)
	slices.Sort(want)
	assert.Equal(t, want, union, "every member lands in exactly one component")

	big := out.Components[0]
	assert.Equal(t, model.LatLng{Lat: 0.5, Lng: 0.5}, big.Center)
	assert.Equal(t, [4]float64{0, 0, 1, 1}, big.BoundingBox)
	assert.Equal(t, 4.0, big.TotalAreaKm2)
}

func TestConnectedComponents_SingleDiskIsOneComponent(t *testing.T) {
	e, _ := newTestEngine(t)
	disk, err := grid.Ring(cell(6, 3, 3), 1)
	require.NoError(t, err)

	out, err := e.ConnectedComponents(context.Background(), ComponentsInput{Cellset: inline(disk...)})
	require.NoError(t, err)
	require.Equal(t, 1, out.ComponentCount)
	assert.Equal(t, 9, out.Components[0].CellCount)
}

func TestConnectedComponents_MinCellsFilter(t *testing.T) {
	e, _ := newTestEngine(t)
	cells := append(block(2, 0, 0, 3, 1), cell(2, 9, 9))
	out, err := e.ConnectedComponents(context.Background(), ComponentsInput{Cellset: inline(cells...), MinCells: 2})
	require.NoError(t, err)
	require.Equal(t, 1, out.ComponentCount)
	assert.Equal(t, 4, out.TotalCells)

	out, err = e.ConnectedComponents(context.Background(), ComponentsInput{Cellset: inline(cells...), MinCells: 10})
	require.NoError(t, err)
	assert.Zero(t, out.ComponentCount)
	assert.Equal(t, "4 cells, no components after min_cells=10 filter.", out.Summary)
}

func TestConnectedComponents_EqualSizesOrderedDeterministically(t *testing.T) {
	e, _ := newTestEngine(t)
	cells := []string{cell(1, 8, 8), cell(1, 0, 0), cell(1, 4, 4)}
	first, err := e.ConnectedComponents(context.Background(), ComponentsInput{Cellset: inline(cells...)})
	require.NoError(t, err)
	slices.Reverse(cells)
	second, err := e.ConnectedComponents(context.Background(), ComponentsInput{Cellset: inline(cells...)})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConnectedComponents_EmptyAndMixed(t *testing.T) {
	e, _ := newTestEngine(t)
	out, err := e.ConnectedComponents(context.Background(), ComponentsInput{Cellset: inline()})
	require.NoError(t, err)
	assert.Zero(t, out.ComponentCount)
	assert.NotNil(t, out.Components)

	_, err = e.ConnectedComponents(context.Background(), ComponentsInput{Cellset: inline(cell(1, 0, 0), cell(2, 0, 0))})
	require.ErrorIs(t, err, apperr.ErrResolutionMismatch)
}
