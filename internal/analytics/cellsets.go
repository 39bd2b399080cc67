package analytics

import (
	"context"
	"time"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/output"
)

type PutCellsetInput struct {
	Cells []string `json:"cells" validate:"required"`
}

type CellsetOutput struct {
	CellsetID string   `json:"cellset_id"`
	CellCount int      `json:"cell_count"`
	Cells     []string `json:"cells"`
}

// PutCellset stores caller-supplied members and returns their handle.
// An empty set is stored like any other.
func (e *Engine) PutCellset(ctx context.Context, in PutCellsetInput) (out CellsetOutput, err error) {
	defer e.observe(ctx, "put_cellset", time.Now(), &err)

	s := cellset.New(in.Cells)
	return CellsetOutput{CellsetID: e.cellsets.Save(s), CellCount: s.Len()}, nil
}

// GetCellset returns the members behind a handle. Members are listed unless
// the return mode is summary or stats.
func (e *Engine) GetCellset(ctx context.Context, handle string, c model.ListControls) (out CellsetOutput, err error) {
	defer e.observe(ctx, "get_cellset", time.Now(), &err)

	s, err := e.cellsets.Resolve(model.CellsetRef{Handle: handle})
	if err != nil {
		return CellsetOutput{}, err
	}
	if c.ReturnMode == "" {
		c.ReturnMode = model.ReturnCells
	}
	return CellsetOutput{
		CellsetID: handle,
		CellCount: s.Len(),
		Cells:     output.List(e.sampler, s.Members(), c, model.ReturnCells),
	}, nil
}
