package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

type CellStatsInput struct {
	Cellset model.CellsetRef `json:"cellset"`
}

type CellStatsOutput struct {
	CellCount    int          `json:"cell_count"`
	Resolution   int          `json:"resolution"`
	AvgAreaKm2   float64      `json:"avg_area_km2"`
	TotalAreaKm2 float64      `json:"total_area_km2"`
	BoundingBox  [4]float64   `json:"bounding_box"`
	Center       model.LatLng `json:"center"`
	IsContiguous bool         `json:"is_contiguous"`
	Summary      string       `json:"summary"`
}

// CellStats describes the extent of a cellset and whether it is one
// connected piece.
func (e *Engine) CellStats(ctx context.Context, in CellStatsInput) (out CellStatsOutput, err error) {
	defer e.observe(ctx, "cell_stats", time.Now(), &err)

	s, err := e.cellsets.Resolve(in.Cellset)
	if err != nil {
		return CellStatsOutput{}, err
	}
	if s.IsEmpty() {
		return CellStatsOutput{Summary: "No cells provided."}, nil
	}
	cells := s.Members()
	res, err := e.uniformResolution(cells)
	if err != nil {
		return CellStatsOutput{}, err
	}
	center, bbox, err := e.extent(cells)
	if err != nil {
		return CellStatsOutput{}, err
	}
	area, err := e.geom.AreaKm2(cells[0])
	if err != nil {
		return CellStatsOutput{}, geomErr(err)
	}
	contiguous, err := e.contiguous(s)
	if err != nil {
		return CellStatsOutput{}, err
	}
	total := area * float64(len(cells))

	return CellStatsOutput{
		CellCount:    len(cells),
		Resolution:   res,
		AvgAreaKm2:   area,
		TotalAreaKm2: total,
		BoundingBox:  bbox,
		Center:       center,
		IsContiguous: contiguous,
		Summary: fmt.Sprintf("%d cells at res %d, covering ~%.2f km² centered on (%.4f, %.4f)",
			len(cells), res, total, center.Lat, center.Lng),
	}, nil
}

// contiguous reports whether a flood fill from the first member reaches all.
func (e *Engine) contiguous(s cellset.Cellset) (bool, error) {
	index := make(map[string]uint32, s.Len())
	for i, m := range s.All() {
		index[m] = uint32(i)
	}
	visited := roaring.BitmapOf(0)
	queue := []string{s.At(0)}
	for head := 0; head < len(queue); head++ {
		ring, err := e.geom.Ring(queue[head], 1)
		if err != nil {
			return false, geomErr(err)
		}
		for _, n := range ring {
			if j, ok := index[n]; ok && !visited.Contains(j) {
				visited.Add(j)
				queue = append(queue, n)
			}
		}
	}
	return int(visited.GetCardinality()) == s.Len(), nil
}
