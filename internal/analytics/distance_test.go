package analytics

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

func TestDistanceMatrix_NearestWithTieBreak(t *testing.T) {
	e, _ := newTestEngine(t)
	out, err := e.DistanceMatrix(context.Background(), DistanceInput{
		Origins:      labeled("homes", cell(0, 5, 5), cell(0, 0, 0)),
		Destinations: labeled("shops", cell(0, 2, 0), cell(0, 0, 2)),
		ListControls: model.ListControls{ReturnMode: model.ReturnItems},
	})
	require.NoError(t, err)

	want := []DistancePair{
		{Origin: cell(0, 0, 0), NearestDestination: cell(0, 0, 2), DistanceHops: 2},
		{Origin: cell(0, 5, 5), NearestDestination: cell(0, 0, 2), DistanceHops: 5},
	}
	if diff := cmp.Diff(want, out.Pairs); diff != "" {
		t.Fatalf("pairs (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, out.PairCount)
	assert.Equal(t, 3.5, out.AvgDistance)
	assert.Equal(t, 5, out.MaxDistance)
	assert.Zero(t, out.UnreachableCount)
}

func TestDistanceMatrix_CutoffMakesOriginsUnreachable(t *testing.T) {
	e, _ := newTestEngine(t)
	out, err := e.DistanceMatrix(context.Background(), DistanceInput{
		Origins:      labeled("homes", cell(0, 5, 5), cell(0, 0, 0)),
		Destinations: labeled("shops", cell(0, 2, 0)),
		MaxDistance:  intPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.PairCount)
	assert.Equal(t, 1, out.UnreachableCount)
	assert.Equal(t, 2.0, out.AvgDistance)
	assert.Equal(t, 2, out.MaxDistance)
	assert.Nil(t, out.Pairs)
	assert.Equal(t, "Average distance from homes to nearest shops: 2.00 hops. 1 origins unreachable.", out.Summary)
}

func TestDistanceMatrix_EmptySide(t *testing.T) {
	e, _ := newTestEngine(t)
	out, err := e.DistanceMatrix(context.Background(), DistanceInput{
		Origins:      labeled("o", cell(0, 1, 1), cell(0, 2, 2)),
		Destinations: labeled("d"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.UnreachableCount)
	assert.Zero(t, out.PairCount)
	assert.Zero(t, out.AvgDistance)
}

func TestDistanceMatrix_GeometryErrorPropagates(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.DistanceMatrix(context.Background(), DistanceInput{
		Origins:      labeled("o", cell(0, 1, 1)),
		Destinations: labeled("d", "bogus"),
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}
