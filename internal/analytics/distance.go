package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/output"
)

type DistanceInput struct {
	Origins      model.LabeledCellset `json:"origins"`
	Destinations model.LabeledCellset `json:"destinations"`
	MaxDistance  *int                 `json:"max_distance,omitempty" validate:"omitempty,gte=1"`
	model.ListControls
}

type DistancePair struct {
	Origin             string `json:"origin"`
	NearestDestination string `json:"nearest_destination"`
	DistanceHops       int    `json:"distance_hops"`
}

type DistanceOutput struct {
	PairCount        int            `json:"pair_count"`
	AvgDistance      float64        `json:"avg_distance"`
	MaxDistance      int            `json:"max_distance"`
	UnreachableCount int            `json:"unreachable_count"`
	Pairs            []DistancePair `json:"pairs"`
	Summary          string         `json:"summary"`
}

// DistanceMatrix finds the nearest destination for every origin by hop
// distance. Ties go to the destination that comes first in canonical order.
// Origins with nothing within MaxDistance are counted as unreachable.
func (e *Engine) DistanceMatrix(ctx context.Context, in DistanceInput) (out DistanceOutput, err error) {
	defer e.observe(ctx, "distance_matrix", time.Now(), &err)

	origins, err := e.cellsets.Resolve(in.Origins.Cellset)
	if err != nil {
		return DistanceOutput{}, err
	}
	dests, err := e.cellsets.Resolve(in.Destinations.Cellset)
	if err != nil {
		return DistanceOutput{}, err
	}
	if origins.IsEmpty() || dests.IsEmpty() {
		return DistanceOutput{
			UnreachableCount: origins.Len(),
			Pairs:            output.List[DistancePair](e.sampler, nil, in.ListControls, model.ReturnItems),
			Summary:          "No origins or destinations provided.",
		}, nil
	}

	var (
		pairs       []DistancePair
		total       int
		maxHops     int
		unreachable int
	)
	for _, o := range origins.All() {
		best, bestDest := -1, ""
		for _, d := range dests.All() {
			hops, err := e.geom.HopDistance(o, d)
			if err != nil {
				return DistanceOutput{}, geomErr(err)
			}
			if in.MaxDistance != nil && hops > *in.MaxDistance {
				continue
			}
			if best == -1 || hops < best {
				best, bestDest = hops, d
			}
		}
		if best == -1 {
			unreachable++
			continue
		}
		pairs = append(pairs, DistancePair{Origin: o, NearestDestination: bestDest, DistanceHops: best})
		total += best
		maxHops = max(maxHops, best)
	}

	avg := ratio(total, len(pairs))
	return DistanceOutput{
		PairCount:        len(pairs),
		AvgDistance:      avg,
		MaxDistance:      maxHops,
		UnreachableCount: unreachable,
		Pairs:            output.List(e.sampler, pairs, in.ListControls, model.ReturnItems),
		Summary: fmt.Sprintf("Average distance from %s to nearest %s: %.2f hops. %d origins unreachable.",
			in.Origins.Label, in.Destinations.Label, avg, unreachable),
	}, nil
}
