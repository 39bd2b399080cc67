// Package mapper declares the spatial-index capabilities the engine consumes.
// Implementations own all spatial math; callers treat cell ids as opaque.
package mapper

import (
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

// Interface converts geometries into cells.
type Interface interface {
	CellsForBBox(bb model.BBox, res int) (model.Cells, error)
	CellsForPolygon(poly model.Polygon, res int) (model.Cells, error)
	CellForPoint(pt model.LatLng, res int) (string, error)
	// CellsForLine joins consecutive vertices with grid paths.
	CellsForLine(path []model.LatLng, res int) (model.Cells, error)
}

// Engine is the hierarchy, adjacency and measurement surface over cells.
type Engine interface {
	Resolution(cell string) (int, error)
	ToParent(cell string, parentRes int) (string, error)
	ToChildren(cell string, childRes int) (model.Cells, error)
	// Ring returns every cell within k hops, including the origin.
	Ring(cell string, k int) (model.Cells, error)
	HopDistance(a, b string) (int, error)
	Centroid(cell string) (model.LatLng, error)
	Boundary(cell string) ([]model.LatLng, error)
	AreaKm2(cell string) (float64, error)
	AvgEdgeLengthKm(res int) (float64, error)
	Compact(cells model.Cells) (model.Cells, error)
}
