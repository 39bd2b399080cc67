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

func TestCompare_SplitsAndStoresParts(t *testing.T) {
	e, c := newTestEngine(t)
	out, err := e.Compare(context.Background(), CompareInput{
		SetA:         labeled("parks", "a", "b", "c"),
		SetB:         labeled("flood", "d", "c", "b", "b"),
		IncludeCells: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, out.SetACount)
	assert.Equal(t, 3, out.SetBCount)
	assert.Equal(t, 2, out.OverlapCount)
	assert.InDelta(t, 2.0/3.0, out.OverlapRatioA, 1e-12)
	assert.InDelta(t, 2.0/3.0, out.OverlapRatioB, 1e-12)
	assert.InDelta(t, 0.5, out.JaccardIndex, 1e-12)
	assert.Equal(t, []string{"b", "c"}, out.OverlapCells)
	assert.Equal(t, []string{"a"}, out.OnlyACells)
	assert.Equal(t, []string{"d"}, out.OnlyBCells)
	assert.Equal(t, "2 of 3 parks cells overlap with flood. 1 of 3 flood cells are exclusive.", out.Summary)

	got, ok := c.Get(out.OverlapCellsetID)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "c"}, got)

	// Derived handles are usable as inputs.
	again, err := e.Compare(context.Background(), CompareInput{
		SetA: model.LabeledCellset{Label: "overlap", Cellset: model.CellsetRef{Handle: out.OverlapCellsetID}},
		SetB: labeled("b", "b"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, again.OverlapCount)
	assert.Nil(t, again.OverlapCells)
}

func TestCompare_EmptySetsYieldZeroRatios(t *testing.T) {
	e, _ := newTestEngine(t)
	out, err := e.Compare(context.Background(), CompareInput{
		SetA: labeled("a"),
		SetB: labeled("b"),
	})
	require.NoError(t, err)
	assert.Zero(t, out.OverlapRatioA)
	assert.Zero(t, out.OverlapRatioB)
	assert.Zero(t, out.JaccardIndex)
	assert.Empty(t, out.OverlapCellsetID)
	assert.Empty(t, out.OnlyACellsetID)
	assert.Empty(t, out.OnlyBCellsetID)
}

func TestCompare_UnknownHandle(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Compare(context.Background(), CompareInput{
		SetA: model.LabeledCellset{Label: "a", Cellset: model.CellsetRef{Handle: "cellset_missing"}},
		SetB: labeled("b", "x"),
	})
	require.ErrorIs(t, err, apperr.ErrReferenceNotFound)
}

func TestCompare_JaccardIsSymmetric(t *testing.T) {
	e, _ := newTestEngine(t)
	ab, err := e.Compare(context.Background(), CompareInput{SetA: labeled("a", "1", "2", "3"), SetB: labeled("b", "3", "4")})
	require.NoError(t, err)
	ba, err := e.Compare(context.Background(), CompareInput{SetA: labeled("b", "3", "4"), SetB: labeled("a", "1", "2", "3")})
	require.NoError(t, err)
	assert.Equal(t, ab.JaccardIndex, ba.JaccardIndex)
	assert.NotEqual(t, ab.OverlapRatioA, ba.OverlapRatioA)
}

func TestCompareMany_OverlapRatioIsDirectional(t *testing.T) {
	e, _ := newTestEngine(t)
	out, err := e.CompareMany(context.Background(), CompareManyInput{
		Sets:       []model.LabeledCellset{labeled("big", "a", "b", "c"), labeled("small", "a")},
		Metric:     MetricOverlapRatio,
		ReturnMode: model.ReturnStats,
	})
	require.NoError(t, err)

	assert.InDelta(t, 1.0/3.0, out.OverlapMatrix[0][1], 1e-12)
	assert.InDelta(t, 1.0, out.OverlapMatrix[1][0], 1e-12)
	assert.Equal(t, [][]int{{3, 1}, {1, 1}}, out.OverlapCounts)

	want := []OverlapPair{
		{A: "small", B: "big", OverlapCount: 1, Score: 1},
		{A: "big", B: "small", OverlapCount: 1, Score: 1.0 / 3.0},
	}
	if diff := cmp.Diff(want, out.TopOverlaps); diff != "" {
		t.Fatalf("top overlaps (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Strongest overlap: small vs big (overlap_ratio 1.00).", out.Summary)
}

func TestCompareMany_JaccardMatrixAndDiagonal(t *testing.T) {
	e, _ := newTestEngine(t)
	out, err := e.CompareMany(context.Background(), CompareManyInput{
		Sets: []model.LabeledCellset{
			labeled("x", "a", "b"),
			labeled("y", "b", "c"),
			labeled("none"),
		},
		ReturnMode: model.ReturnStats,
	})
	require.NoError(t, err)

	assert.Equal(t, []SetStats{{"x", 2}, {"y", 2}, {"none", 0}}, out.SetStats)
	assert.Equal(t, 1.0, out.OverlapMatrix[0][0])
	assert.Equal(t, 1.0, out.OverlapMatrix[1][1])
	assert.Equal(t, 0.0, out.OverlapMatrix[2][2])
	assert.InDelta(t, 1.0/3.0, out.OverlapMatrix[0][1], 1e-12)
	assert.Equal(t, out.OverlapMatrix[0][1], out.OverlapMatrix[1][0])
	require.Len(t, out.TopOverlaps, 1)
	assert.Equal(t, OverlapPair{A: "x", B: "y", OverlapCount: 1, Score: 1.0 / 3.0}, out.TopOverlaps[0])
}

func TestCompareMany_SummaryModeOmitsMatrices(t *testing.T) {
	e, _ := newTestEngine(t)
	out, err := e.CompareMany(context.Background(), CompareManyInput{
		Sets: []model.LabeledCellset{labeled("x", "a"), labeled("y", "b")},
	})
	require.NoError(t, err)
	assert.Nil(t, out.OverlapCounts)
	assert.Nil(t, out.OverlapMatrix)
	assert.Empty(t, out.TopOverlaps)
	assert.NotNil(t, out.TopOverlaps)
	assert.Nil(t, out.OverlapCellsets)
	assert.Equal(t, "No overlaps between sets.", out.Summary)
}

func TestCompareMany_RanksByScoreThenCountAndTruncates(t *testing.T) {
	e, c := newTestEngine(t)
	out, err := e.CompareMany(context.Background(), CompareManyInput{
		Sets: []model.LabeledCellset{
			labeled("a", "1", "2", "3", "4"),
			labeled("b", "1", "2", "3", "4"),
			labeled("c", "1", "2"),
			labeled("d", "9"),
		},
		TopK:         intPtr(2),
		IncludeCells: true,
	})
	require.NoError(t, err)

	require.Len(t, out.TopOverlaps, 2)
	assert.Equal(t, "a", out.TopOverlaps[0].A)
	assert.Equal(t, "b", out.TopOverlaps[0].B)
	assert.Equal(t, 1.0, out.TopOverlaps[0].Score)
	assert.Equal(t, 0.5, out.TopOverlaps[1].Score)

	require.Len(t, out.OverlapCellsets, 2)
	members, ok := c.Get(out.OverlapCellsets[0].CellsetID)
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3", "4"}, members)
}

func TestCompareMany_RejectsBadInput(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CompareMany(ctx, CompareManyInput{
		Sets: []model.LabeledCellset{labeled("same", "a"), labeled("same", "b")},
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = e.CompareMany(ctx, CompareManyInput{Sets: []model.LabeledCellset{labeled("only", "a")}})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = e.CompareMany(ctx, CompareManyInput{
		Sets:   []model.LabeledCellset{labeled("x", "a"), labeled("y", "b")},
		Metric: "cosine",
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = e.CompareMany(ctx, CompareManyInput{
		Sets: []model.LabeledCellset{labeled("x", "a"), labeled("y", "b")},
		TopK: intPtr(0),
	})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}
