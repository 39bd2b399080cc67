package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

func TestKRing_ExpandsAndStores(t *testing.T) {
	e, c := newTestEngine(t)
	out, err := e.KRing(context.Background(), KRingInput{
		Cellset:      inline(cell(0, 0, 0), cell(0, 1, 0)),
		K:            1,
		ListControls: model.ListControls{ReturnMode: model.ReturnCells, MaxItems: intPtr(5), Sample: model.SampleFirst},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.InputCellCount)
	assert.Equal(t, 12, out.RingCellCount)
	assert.InDelta(t, 1.732, out.ApproxRadiusKm, 1e-12)
	assert.Len(t, out.RingCells, 5)

	members, ok := c.Get(out.RingCellsetID)
	require.True(t, ok)
	assert.Len(t, members, 12)
	assert.Equal(t, members[:5], out.RingCells)
}

func TestKRing_RandomSampleIsReproducible(t *testing.T) {
	e, _ := newTestEngine(t)
	in := KRingInput{
		Cellset:      inline(cell(3, 0, 0)),
		K:            3,
		ListControls: model.ListControls{ReturnMode: model.ReturnCells, MaxItems: intPtr(4), Sample: model.SampleRandom},
	}
	a, err := e.KRing(context.Background(), in)
	require.NoError(t, err)
	b, err := e.KRing(context.Background(), in)
	require.NoError(t, err)
	assert.Len(t, a.RingCells, 4)
	assert.Equal(t, a.RingCells, b.RingCells)
}

func TestKRing_Validation(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.KRing(context.Background(), KRingInput{Cellset: inline(cell(0, 0, 0)), K: 0})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	out, err := e.KRing(context.Background(), KRingInput{Cellset: inline(), K: 2})
	require.NoError(t, err)
	assert.Equal(t, "No input cells provided.", out.Summary)
	assert.Equal(t, 2, out.K)
}

func TestChangeResolution(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	finer, err := e.ChangeResolution(ctx, ChangeResolutionInput{Cellset: inline(cell(0, 0, 0)), TargetResolution: 1})
	require.NoError(t, err)
	assert.Equal(t, Finer, finer.Direction)
	assert.Equal(t, 4, finer.OutputCellCount)
	assert.NotEmpty(t, finer.CellsetID)

	coarser, err := e.ChangeResolution(ctx, ChangeResolutionInput{
		Cellset:          inline(block(2, 0, 0, 4, 4)...),
		TargetResolution: 1,
		ListControls:     model.ListControls{ReturnMode: model.ReturnCells},
	})
	require.NoError(t, err)
	assert.Equal(t, Coarser, coarser.Direction)
	assert.Equal(t, 2, coarser.InputResolution)
	assert.Equal(t, 16, coarser.InputCellCount)
	assert.Equal(t, []string{cell(0, 0, 0)}, coarser.Cells, "complete parents are compacted")

	same, err := e.ChangeResolution(ctx, ChangeResolutionInput{Cellset: inline(cell(4, 1, 1)), TargetResolution: 4})
	require.NoError(t, err)
	assert.Equal(t, Coarser, same.Direction)
	assert.Equal(t, 1, same.OutputCellCount)

	_, err = e.ChangeResolution(ctx, ChangeResolutionInput{Cellset: inline(cell(4, 1, 1), cell(3, 0, 0)), TargetResolution: 2})
	require.ErrorIs(t, err, apperr.ErrResolutionMismatch)
}
