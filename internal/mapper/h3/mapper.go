package h3mapper

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/mapper"
)

type Mapper struct{}

var (
	_ mapper.Interface = (*Mapper)(nil)
	_ mapper.Engine    = (*Mapper)(nil)
)

func New() *Mapper { return &Mapper{} }

func (m *Mapper) CellsForBBox(bb model.BBox, res int) (model.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	// rectangular loop in degrees, lon/lat from EPSG:4326
	outer := h3.GeoLoop{
		{Lat: bb.Y1, Lng: bb.X1},
		{Lat: bb.Y1, Lng: bb.X2},
		{Lat: bb.Y2, Lng: bb.X2},
		{Lat: bb.Y2, Lng: bb.X1},
	}
	return polyfill([]h3.GeoPolygon{{GeoLoop: outer}}, res)
}

// CellsForPolygon covers a GeoJSON Polygon or MultiPolygon, optionally wrapped
// in a Feature.
func (m *Mapper) CellsForPolygon(poly model.Polygon, res int) (model.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	polys, err := geoPolygons([]byte(poly.GeoJSON))
	if err != nil {
		return nil, err
	}
	return polyfill(polys, res)
}

func (m *Mapper) CellForPoint(pt model.LatLng, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: pt.Lat, Lng: pt.Lng}, res)
	if err != nil {
		return "", fmt.Errorf("h3 point to cell: %w", err)
	}
	return c.String(), nil
}

// CellsForLine returns the sorted union of the grid paths between the cells
// of consecutive vertices. A single vertex yields its own cell.
func (m *Mapper) CellsForLine(path []model.LatLng, res int) (model.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	var out []h3.Cell
	var prev h3.Cell
	for i, pt := range path {
		c, err := h3.LatLngToCell(h3.LatLng{Lat: pt.Lat, Lng: pt.Lng}, res)
		if err != nil {
			return nil, fmt.Errorf("h3 point to cell: %w", err)
		}
		if i == 0 {
			out = append(out, c)
		} else {
			seg, err := h3.GridPath(prev, c)
			if err != nil {
				return nil, fmt.Errorf("h3 grid path %s -> %s: %w", prev, c, err)
			}
			out = append(out, seg...)
		}
		prev = c
	}
	return sortedStrings(out), nil
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometry    *geometry       `json:"geometry"`
}

func geoPolygons(raw []byte) ([]h3.GeoPolygon, error) {
	var g geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	if g.Type == "Feature" {
		if g.Geometry == nil {
			return nil, errors.New("feature has no geometry")
		}
		g = *g.Geometry
	}

	var rings [][][][]float64 // [poly][ring][i][lon,lat]
	switch g.Type {
	case "Polygon":
		var p [][][]float64
		if err := json.Unmarshal(g.Coordinates, &p); err != nil {
			return nil, fmt.Errorf("parse polygon coords: %w", err)
		}
		rings = [][][][]float64{p}
	case "MultiPolygon":
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("parse multipolygon coords: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported GeoJSON type: %s", g.Type)
	}
	if len(rings) == 0 {
		return nil, errors.New("empty geometry")
	}

	out := make([]h3.GeoPolygon, 0, len(rings))
	for pi, p := range rings {
		if len(p) == 0 {
			return nil, fmt.Errorf("polygon %d is empty", pi)
		}
		outer := toLoop(p[0])
		if len(outer) < 3 {
			return nil, fmt.Errorf("polygon %d outer ring has fewer than 3 distinct vertices", pi)
		}
		gp := h3.GeoPolygon{GeoLoop: outer}
		for hi, ring := range p[1:] {
			hole := toLoop(ring)
			if len(hole) < 3 {
				return nil, fmt.Errorf("polygon %d hole %d has fewer than 3 distinct vertices", pi, hi)
			}
			gp.Holes = append(gp.Holes, hole)
		}
		out = append(out, gp)
	}
	return out, nil
}

// toLoop converts a GeoJSON ring [[lon,lat], ...] to degrees and drops an
// explicit closing vertex.
func toLoop(coords [][]float64) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(coords))
	for _, xy := range coords {
		if len(xy) < 2 {
			continue
		}
		loop = append(loop, h3.LatLng{Lat: xy[1], Lng: xy[0]})
	}
	if n := len(loop); n >= 2 && loop[0] == loop[n-1] {
		loop = loop[:n-1]
	}
	return loop
}

// polyfill returns the sorted, de-duplicated union of every polygon's cells.
func polyfill(polys []h3.GeoPolygon, res int) (model.Cells, error) {
	var out []string
	for _, p := range polys {
		idx, err := h3.PolygonToCells(p, res)
		if err != nil {
			return nil, fmt.Errorf("h3 polyfill: %w", err)
		}
		for _, c := range idx {
			out = append(out, c.String())
		}
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
