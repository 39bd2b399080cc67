package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cache/cellcache"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/mapper/mappertest"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/output"
)

var (
	cell = mappertest.Cell
	grid = mappertest.Grid{}
)

func newTestEngine(t *testing.T) (*Engine, *cellcache.Cache) {
	t.Helper()
	c, err := cellcache.New(cellcache.Config{MaxItems: 256})
	require.NoError(t, err)
	e := New(cellset.NewResolver(c), mappertest.Grid{},
		WithCoverer(mappertest.Grid{}),
		WithSampler(output.NewSampler(7)),
		WithHandleLogRate(1),
	)
	return e, c
}

// inline never leaves Cells nil, so inline() is an empty set rather than a
// missing reference.
func inline(cells ...string) model.CellsetRef {
	return model.CellsetRef{Cells: append([]string{}, cells...)}
}

func labeled(label string, cells ...string) model.LabeledCellset {
	return model.LabeledCellset{Label: label, Cellset: inline(cells...)}
}

func block(res, x0, y0, w, h int) []string {
	var out []string
	for x := x0; x < x0+w; x++ {
		for y := y0; y < y0+h; y++ {
			out = append(out, cell(res, x, y))
		}
	}
	return out
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestUniformResolution(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.uniformResolution(nil)
	require.NoError(t, err)
	require.Equal(t, -1, res)

	res, err = e.uniformResolution([]string{cell(4, 0, 0), cell(4, 1, 0)})
	require.NoError(t, err)
	require.Equal(t, 4, res)

	_, err = e.uniformResolution([]string{cell(4, 0, 0), cell(5, 0, 0)})
	require.ErrorIs(t, err, apperr.ErrResolutionMismatch)

	_, err = e.uniformResolution([]string{"not-a-cell"})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)
}
