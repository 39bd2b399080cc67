package analytics

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

// ComponentsInput drops components with fewer than MinCells members (default 1).
type ComponentsInput struct {
	Cellset  model.CellsetRef `json:"cellset"`
	MinCells int              `json:"min_cells,omitempty" validate:"gte=0"`
}

type Component struct {
	ComponentID  int          `json:"component_id"`
	CellCount    int          `json:"cell_count"`
	Center       model.LatLng `json:"center"`
	BoundingBox  [4]float64   `json:"bounding_box"`
	TotalAreaKm2 float64      `json:"total_area_km2"`
	CellsetID    string       `json:"cellset_id"`
}

type ComponentsOutput struct {
	TotalCells     int         `json:"total_cells"`
	ComponentCount int         `json:"component_count"`
	Components     []Component `json:"components"`
	Summary        string      `json:"summary"`
}

// ConnectedComponents partitions a cellset by radius-1 adjacency. Components
// smaller than MinCells are dropped; the rest are ordered by size, largest
// first, and each is stored as its own cellset.
func (e *Engine) ConnectedComponents(ctx context.Context, in ComponentsInput) (out ComponentsOutput, err error) {
	defer e.observe(ctx, "connected_components", time.Now(), &err)

	s, err := e.cellsets.Resolve(in.Cellset)
	if err != nil {
		return ComponentsOutput{}, err
	}
	if s.IsEmpty() {
		return ComponentsOutput{Components: []Component{}, Summary: "0 cells, no connected components."}, nil
	}
	if _, err = e.uniformResolution(s.Members()); err != nil {
		return ComponentsOutput{}, err
	}
	minCells := max(in.MinCells, 1)

	parts, err := e.partition(s)
	if err != nil {
		return ComponentsOutput{}, err
	}
	parts = slices.DeleteFunc(parts, func(p []string) bool { return len(p) < minCells })
	slices.SortStableFunc(parts, func(a, b []string) int { return len(b) - len(a) })

	out = ComponentsOutput{
		TotalCells:     s.Len(),
		ComponentCount: len(parts),
		Components:     make([]Component, 0, len(parts)),
	}
	for i, p := range parts {
		c, err := e.describeComponent(ctx, i, p)
		if err != nil {
			return ComponentsOutput{}, err
		}
		out.Components = append(out.Components, c)
	}
	out.Summary = componentsSummary(s.Len(), minCells, out.Components)
	return out, nil
}

// partition flood-fills s with an explicit queue. Seeds are taken in member
// order, so the result is deterministic for a given cellset.
func (e *Engine) partition(s cellset.Cellset) ([][]string, error) {
	index := make(map[string]uint32, s.Len())
	for i, m := range s.All() {
		index[m] = uint32(i)
	}
	visited := roaring.New()
	var parts [][]string
	for i, seed := range s.All() {
		if visited.Contains(uint32(i)) {
			continue
		}
		visited.Add(uint32(i))
		queue := []string{seed}
		for head := 0; head < len(queue); head++ {
			ring, err := e.geom.Ring(queue[head], 1)
			if err != nil {
				return nil, geomErr(err)
			}
			for _, n := range ring {
				j, ok := index[n]
				if !ok || visited.Contains(j) {
					continue
				}
				visited.Add(j)
				queue = append(queue, n)
			}
		}
		parts = append(parts, queue)
	}
	return parts, nil
}

func (e *Engine) describeComponent(ctx context.Context, id int, cells []string) (Component, error) {
	center, bbox, err := e.extent(cells)
	if err != nil {
		return Component{}, err
	}
	area, err := e.geom.AreaKm2(cells[0])
	if err != nil {
		return Component{}, geomErr(err)
	}
	return Component{
		ComponentID:  id,
		CellCount:    len(cells),
		Center:       center,
		BoundingBox:  bbox,
		TotalAreaKm2: math.Round(area*float64(len(cells))*100) / 100,
		CellsetID:    e.store(ctx, "connected_components", cellset.New(cells)),
	}, nil
}

// extent returns the mean centroid and the [minLng, minLat, maxLng, maxLat]
// box of cell centroids.
func (e *Engine) extent(cells []string) (model.LatLng, [4]float64, error) {
	var sumLat, sumLng float64
	bbox := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, c := range cells {
		ll, err := e.geom.Centroid(c)
		if err != nil {
			return model.LatLng{}, [4]float64{}, geomErr(err)
		}
		sumLat += ll.Lat
		sumLng += ll.Lng
		bbox[0] = min(bbox[0], ll.Lng)
		bbox[1] = min(bbox[1], ll.Lat)
		bbox[2] = max(bbox[2], ll.Lng)
		bbox[3] = max(bbox[3], ll.Lat)
	}
	n := float64(len(cells))
	return model.LatLng{Lat: sumLat / n, Lng: sumLng / n}, bbox, nil
}

func componentsSummary(total, minCells int, comps []Component) string {
	if len(comps) == 0 {
		return fmt.Sprintf("%d cells, no components after min_cells=%d filter.", total, minCells)
	}
	const shown = 5
	parts := make([]string, 0, shown)
	for _, c := range comps[:min(shown, len(comps))] {
		parts = append(parts, fmt.Sprintf("%d cells centered on (%.4f, %.4f)", c.CellCount, c.Center.Lat, c.Center.Lng))
	}
	detail := strings.Join(parts, ", ")
	if rest := len(comps) - shown; rest > 0 {
		detail += fmt.Sprintf(", ... and %d smaller components", rest)
	}
	return fmt.Sprintf("%d cells split into %d connected components: %s.", total, len(comps), detail)
}
