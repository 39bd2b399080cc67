package analytics

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/output"
)

const (
	DefaultHotspotThreshold = 1.5
	MaxHotspotK             = 5
)

type CellValue struct {
	CellID string  `json:"cell_id" validate:"required"`
	Value  float64 `json:"value"`
}

// HotspotsInput takes values the same way as AggregateInput. Threshold
// defaults to DefaultHotspotThreshold when omitted.
type HotspotsInput struct {
	Cellset      *model.CellsetRef  `json:"cellset,omitempty"`
	CellValues   []CellValue        `json:"cell_values,omitempty" validate:"omitempty,dive"`
	ValuesByCell map[string]float64 `json:"values_by_cell,omitempty"`
	K            int                `json:"k" validate:"gte=1,lte=5"`
	Threshold    *float64           `json:"threshold,omitempty" validate:"omitempty,gt=0"`
	model.ListControls
}

type HotspotCell struct {
	CellID string  `json:"cell_id"`
	Value  float64 `json:"value"`
	ZScore float64 `json:"z_score"`
}

type HotspotsOutput struct {
	HotspotCount      int           `json:"hotspot_count"`
	ColdspotCount     int           `json:"coldspot_count"`
	HotspotCellsetID  string        `json:"hotspot_cellset_id,omitempty"`
	ColdspotCellsetID string        `json:"coldspot_cellset_id,omitempty"`
	Hotspots          []HotspotCell `json:"hotspots"`
	Coldspots         []HotspotCell `json:"coldspots"`
	Summary           string        `json:"summary"`
}

// FindHotspots scores each cell against its radius-K neighbourhood (the cell
// included) using the population standard deviation. A cell is a hotspot
// when z >= Threshold and a coldspot when z <= -Threshold; z is 0 when the
// neighbourhood has no spread.
func (e *Engine) FindHotspots(ctx context.Context, in HotspotsInput) (out HotspotsOutput, err error) {
	defer e.observe(ctx, "find_hotspots", time.Now(), &err)

	if in.K < 1 || in.K > MaxHotspotK {
		return HotspotsOutput{}, apperr.Invalid("k must be between 1 and %d, got %d", MaxHotspotK, in.K)
	}
	threshold := DefaultHotspotThreshold
	if in.Threshold != nil {
		threshold = *in.Threshold
	}
	if threshold <= 0 {
		return HotspotsOutput{}, apperr.Invalid("threshold must be > 0, got %g", threshold)
	}

	values, err := selectValues(e.cellsets, in.Cellset, in.CellValues, in.ValuesByCell,
		func(cv CellValue) (string, float64) { return cv.CellID, cv.Value })
	if err != nil {
		return HotspotsOutput{}, err
	}
	if len(values) == 0 {
		return HotspotsOutput{
			Hotspots:  output.List[HotspotCell](e.sampler, nil, in.ListControls, model.ReturnItems),
			Coldspots: output.List[HotspotCell](e.sampler, nil, in.ListControls, model.ReturnItems),
			Summary:   "No values provided for hotspot detection.",
		}, nil
	}

	cells := slices.Sorted(maps.Keys(values))
	if _, err = e.uniformResolution(cells); err != nil {
		return HotspotsOutput{}, err
	}

	var hot, cold []HotspotCell
	var neighbourhood []float64
	for _, c := range cells {
		ring, err := e.geom.Ring(c, in.K)
		if err != nil {
			return HotspotsOutput{}, geomErr(err)
		}
		neighbourhood = neighbourhood[:0]
		for _, n := range ring {
			if v, ok := values[n]; ok {
				neighbourhood = append(neighbourhood, v)
			}
		}
		if len(neighbourhood) == 0 {
			continue
		}
		z := zScore(values[c], neighbourhood)
		switch {
		case z >= threshold:
			hot = append(hot, HotspotCell{CellID: c, Value: values[c], ZScore: z})
		case z <= -threshold:
			cold = append(cold, HotspotCell{CellID: c, Value: values[c], ZScore: z})
		}
	}

	return HotspotsOutput{
		HotspotCount:      len(hot),
		ColdspotCount:     len(cold),
		HotspotCellsetID:  e.store(ctx, "find_hotspots", cellset.New(spotIDs(hot))),
		ColdspotCellsetID: e.store(ctx, "find_hotspots", cellset.New(spotIDs(cold))),
		Hotspots:          output.List(e.sampler, hot, in.ListControls, model.ReturnItems),
		Coldspots:         output.List(e.sampler, cold, in.ListControls, model.ReturnItems),
		Summary:           fmt.Sprintf("Found %d hotspots and %d coldspots at threshold %g.", len(hot), len(cold), threshold),
	}, nil
}

func zScore(v float64, neighbourhood []float64) float64 {
	mean, std := stat.PopMeanStdDev(neighbourhood, nil)
	if std == 0 {
		return 0
	}
	return (v - mean) / std
}

func spotIDs(spots []HotspotCell) []string {
	ids := make([]string, len(spots))
	for i, s := range spots {
		ids[i] = s.CellID
	}
	return ids
}
