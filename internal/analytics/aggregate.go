package analytics

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/output"
)

// Op is a per-field reduction.
type Op string

const (
	OpSum   Op = "sum"
	OpMean  Op = "mean"
	OpMax   Op = "max"
	OpMin   Op = "min"
	OpCount Op = "count"
)

func (o Op) valid() bool {
	switch o {
	case OpSum, OpMean, OpMax, OpMin, OpCount:
		return true
	}
	return false
}

// reduce applies o to vs. Empty inputs reduce to 0 for every op.
func (o Op) reduce(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	switch o {
	case OpSum:
		return floats.Sum(vs)
	case OpMean:
		return floats.Sum(vs) / float64(len(vs))
	case OpMax:
		return floats.Max(vs)
	case OpMin:
		return floats.Min(vs)
	case OpCount:
		return float64(len(vs))
	}
	return 0
}

type CellValues struct {
	CellID string             `json:"cell_id" validate:"required"`
	Values map[string]float64 `json:"values"`
}

// AggregateInput takes values either inline (CellValues) or as a map
// optionally restricted to the members of Cellset.
type AggregateInput struct {
	Cellset          *model.CellsetRef             `json:"cellset,omitempty"`
	CellValues       []CellValues                  `json:"cell_values,omitempty" validate:"omitempty,dive"`
	ValuesByCell     map[string]map[string]float64 `json:"values_by_cell,omitempty"`
	TargetResolution int                           `json:"target_resolution" validate:"gte=0,lte=15"`
	Aggregations     map[string]Op                 `json:"aggregations" validate:"required"`
	model.ListControls
}

type AggregatedParent struct {
	CellID     string             `json:"cell_id"`
	ChildCount int                `json:"child_count"`
	Values     map[string]float64 `json:"aggregated_values"`
}

type AggregateOutput struct {
	InputCellCount  int                `json:"input_cell_count"`
	ParentCellCount int                `json:"parent_cell_count"`
	ParentCellsetID string             `json:"parent_cellset_id,omitempty"`
	ParentCells     []AggregatedParent `json:"parent_cells"`
	Summary         string             `json:"summary"`
}

// Aggregate groups values by their ancestor at TargetResolution and reduces
// each requested field. Parents are returned in id order.
func (e *Engine) Aggregate(ctx context.Context, in AggregateInput) (out AggregateOutput, err error) {
	defer e.observe(ctx, "aggregate", time.Now(), &err)

	for field, op := range in.Aggregations {
		if !op.valid() {
			return AggregateOutput{}, apperr.Invalid("unsupported aggregation op %q for field %q", op, field)
		}
	}
	values, err := selectValues(e.cellsets, in.Cellset, in.CellValues, in.ValuesByCell,
		func(cv CellValues) (string, map[string]float64) { return cv.CellID, cv.Values })
	if err != nil {
		return AggregateOutput{}, err
	}
	if len(values) == 0 {
		return AggregateOutput{
			ParentCells: output.List[AggregatedParent](e.sampler, nil, in.ListControls, model.ReturnItems),
			Summary:     "No values provided for aggregation.",
		}, nil
	}

	cells := slices.Sorted(maps.Keys(values))
	res, err := e.uniformResolution(cells)
	if err != nil {
		return AggregateOutput{}, err
	}
	if in.TargetResolution > res {
		return AggregateOutput{}, apperr.Invalid("cannot aggregate to a finer resolution (%d > %d)", in.TargetResolution, res)
	}

	type group struct {
		children int
		fields   map[string][]float64
	}
	groups := make(map[string]*group)
	for _, c := range cells {
		parent := c
		if in.TargetResolution != res {
			if parent, err = e.geom.ToParent(c, in.TargetResolution); err != nil {
				return AggregateOutput{}, geomErr(err)
			}
		}
		g, ok := groups[parent]
		if !ok {
			g = &group{fields: make(map[string][]float64)}
			groups[parent] = g
		}
		g.children++
		for f, v := range values[c] {
			g.fields[f] = append(g.fields[f], v)
		}
	}

	parentIDs := slices.Sorted(maps.Keys(groups))
	parents := make([]AggregatedParent, 0, len(parentIDs))
	for _, id := range parentIDs {
		g := groups[id]
		agg := make(map[string]float64, len(in.Aggregations))
		for field, op := range in.Aggregations {
			agg[field] = op.reduce(g.fields[field])
		}
		parents = append(parents, AggregatedParent{CellID: id, ChildCount: g.children, Values: agg})
	}

	return AggregateOutput{
		InputCellCount:  len(values),
		ParentCellCount: len(parents),
		ParentCellsetID: e.store(ctx, "aggregate", cellset.New(parentIDs)),
		ParentCells:     output.List(e.sampler, parents, in.ListControls, model.ReturnItems),
		Summary:         fmt.Sprintf("%d cells aggregated to %d parent cells at res %d.", len(values), len(parents), in.TargetResolution),
	}, nil
}

// selectValues picks the value source: inline entries, or the map filtered to
// the members of ref when ref is set. Exactly one source must be present.
func selectValues[E, V any](
	r *cellset.Resolver,
	ref *model.CellsetRef,
	inline []E,
	byCell map[string]V,
	entry func(E) (string, V),
) (map[string]V, error) {
	switch {
	case inline != nil && byCell != nil:
		return nil, apperr.Invalid("provide cell_values or (cellset + values_by_cell), not both")
	case inline != nil:
		out := make(map[string]V, len(inline))
		for _, e := range inline {
			k, v := entry(e)
			out[k] = v
		}
		return out, nil
	case len(byCell) == 0:
		return nil, apperr.Invalid("provide cell_values or values_by_cell")
	case ref == nil:
		return byCell, nil
	}
	allowed, err := r.Resolve(*ref)
	if err != nil {
		return nil, err
	}
	out := make(map[string]V, len(byCell))
	for k, v := range byCell {
		if allowed.Contains(k) {
			out[k] = v
		}
	}
	return out, nil
}
