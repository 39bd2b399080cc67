package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/output"
)

const (
	MaxKRing      = 50
	MaxResolution = 15

	// hexRadiusFactor approximates the centre-to-centre spacing of hexagons
	// in units of edge length (√3).
	hexRadiusFactor = 1.732
)

type KRingInput struct {
	Cellset model.CellsetRef `json:"cellset"`
	K       int              `json:"k" validate:"gte=1,lte=50"`
	model.ListControls
}

type KRingOutput struct {
	InputCellCount int      `json:"input_cell_count"`
	RingCellCount  int      `json:"ring_cell_count"`
	K              int      `json:"k"`
	ApproxRadiusKm float64  `json:"approx_radius_km"`
	RingCellsetID  string   `json:"ring_cellset_id,omitempty"`
	RingCells      []string `json:"ring_cells"`
	Summary        string   `json:"summary"`
}

// KRing expands every member to its radius-K neighbourhood and stores the union.
func (e *Engine) KRing(ctx context.Context, in KRingInput) (out KRingOutput, err error) {
	defer e.observe(ctx, "k_ring", time.Now(), &err)

	if in.K < 1 || in.K > MaxKRing {
		return KRingOutput{}, apperr.Invalid("k must be between 1 and %d, got %d", MaxKRing, in.K)
	}
	s, err := e.cellsets.Resolve(in.Cellset)
	if err != nil {
		return KRingOutput{}, err
	}
	if s.IsEmpty() {
		return KRingOutput{
			K:         in.K,
			RingCells: output.List[string](e.sampler, nil, in.ListControls, model.ReturnCells),
			Summary:   "No input cells provided.",
		}, nil
	}
	res, err := e.uniformResolution(s.Members())
	if err != nil {
		return KRingOutput{}, err
	}

	var expanded []string
	for _, c := range s.All() {
		ring, err := e.geom.Ring(c, in.K)
		if err != nil {
			return KRingOutput{}, geomErr(err)
		}
		expanded = append(expanded, ring...)
	}
	ring := cellset.New(expanded)

	edge, err := e.geom.AvgEdgeLengthKm(res)
	if err != nil {
		return KRingOutput{}, geomErr(err)
	}
	radius := float64(in.K) * edge * hexRadiusFactor

	return KRingOutput{
		InputCellCount: s.Len(),
		RingCellCount:  ring.Len(),
		K:              in.K,
		ApproxRadiusKm: radius,
		RingCellsetID:  e.store(ctx, "k_ring", ring),
		RingCells:      output.List(e.sampler, ring.Members(), in.ListControls, model.ReturnCells),
		Summary: fmt.Sprintf("%d input cells expanded to %d ring cells (k=%d, ~%.2f km radius)",
			s.Len(), ring.Len(), in.K, radius),
	}, nil
}

type Direction string

const (
	Finer   Direction = "finer"
	Coarser Direction = "coarser"
)

type ChangeResolutionInput struct {
	Cellset          model.CellsetRef `json:"cellset"`
	TargetResolution int              `json:"target_resolution" validate:"gte=0,lte=15"`
	model.ListControls
}

type ChangeResolutionOutput struct {
	InputResolution  int       `json:"input_resolution"`
	TargetResolution int       `json:"target_resolution"`
	InputCellCount   int       `json:"input_cell_count"`
	OutputCellCount  int       `json:"output_cell_count"`
	Direction        Direction `json:"direction"`
	CellsetID        string    `json:"cellset_id,omitempty"`
	Cells            []string  `json:"cells"`
	Summary          string    `json:"summary"`
}

// ChangeResolution maps a cellset to TargetResolution. Going finer takes all
// children; going coarser takes parents and compacts them. An unchanged
// resolution is reported as coarser.
func (e *Engine) ChangeResolution(ctx context.Context, in ChangeResolutionInput) (out ChangeResolutionOutput, err error) {
	defer e.observe(ctx, "change_resolution", time.Now(), &err)

	if in.TargetResolution < 0 || in.TargetResolution > MaxResolution {
		return ChangeResolutionOutput{}, apperr.Invalid("target_resolution must be between 0 and %d", MaxResolution)
	}
	s, err := e.cellsets.Resolve(in.Cellset)
	if err != nil {
		return ChangeResolutionOutput{}, err
	}
	if s.IsEmpty() {
		return ChangeResolutionOutput{
			InputResolution:  in.TargetResolution,
			TargetResolution: in.TargetResolution,
			Direction:        Coarser,
			Cells:            output.List[string](e.sampler, nil, in.ListControls, model.ReturnCells),
			Summary:          "No input cells provided.",
		}, nil
	}
	res, err := e.uniformResolution(s.Members())
	if err != nil {
		return ChangeResolutionOutput{}, err
	}

	var converted cellset.Cellset
	dir := Coarser
	switch {
	case in.TargetResolution > res:
		dir = Finer
		converted, err = e.children(s, in.TargetResolution)
	case in.TargetResolution < res:
		converted, err = e.parents(s, in.TargetResolution)
	default:
		converted = s
	}
	if err != nil {
		return ChangeResolutionOutput{}, err
	}

	return ChangeResolutionOutput{
		InputResolution:  res,
		TargetResolution: in.TargetResolution,
		InputCellCount:   s.Len(),
		OutputCellCount:  converted.Len(),
		Direction:        dir,
		CellsetID:        e.store(ctx, "change_resolution", converted),
		Cells:            output.List(e.sampler, converted.Members(), in.ListControls, model.ReturnCells),
		Summary: fmt.Sprintf("%d cells at res %d → %d cells at res %d",
			s.Len(), res, converted.Len(), in.TargetResolution),
	}, nil
}

func (e *Engine) children(s cellset.Cellset, res int) (cellset.Cellset, error) {
	var out []string
	for _, c := range s.All() {
		kids, err := e.geom.ToChildren(c, res)
		if err != nil {
			return cellset.Cellset{}, geomErr(err)
		}
		out = append(out, kids...)
	}
	return cellset.New(out), nil
}

func (e *Engine) parents(s cellset.Cellset, res int) (cellset.Cellset, error) {
	ps := make([]string, 0, s.Len())
	for _, c := range s.All() {
		p, err := e.geom.ToParent(c, res)
		if err != nil {
			return cellset.Cellset{}, geomErr(err)
		}
		ps = append(ps, p)
	}
	compacted, err := e.geom.Compact(cellset.New(ps).Members())
	if err != nil {
		return cellset.Cellset{}, geomErr(err)
	}
	return cellset.New(compacted), nil
}
