// Package mappertest provides a square-grid stand-in for mapper.Engine.
//
// Cells are written "r<res>:<x>,<y>". Adjacency is the 8-neighbourhood, so
// hop distance is the Chebyshev distance and a k-ring is a (2k+1)² square.
// Each parent covers a 2x2 block of children one resolution finer.
package mappertest

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/mapper"
)

type Grid struct{}

var (
	_ mapper.Engine    = Grid{}
	_ mapper.Interface = Grid{}
)

// Cell formats a grid cell id.
func Cell(res, x, y int) string {
	return fmt.Sprintf("r%d:%d,%d", res, x, y)
}

type cell struct{ res, x, y int }

func parse(s string) (cell, error) {
	var c cell
	if _, err := fmt.Sscanf(s, "r%d:%d,%d", &c.res, &c.x, &c.y); err != nil {
		return cell{}, fmt.Errorf("parse grid cell %q: %w", s, err)
	}
	if c.res < 0 || c.res > 15 {
		return cell{}, fmt.Errorf("grid cell %q resolution out of range", s)
	}
	return c, nil
}

func (c cell) String() string { return Cell(c.res, c.x, c.y) }

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func (Grid) Resolution(s string) (int, error) {
	c, err := parse(s)
	return c.res, err
}

func (Grid) ToParent(s string, parentRes int) (string, error) {
	c, err := parse(s)
	if err != nil {
		return "", err
	}
	if parentRes > c.res || parentRes < 0 {
		return "", fmt.Errorf("parentRes %d invalid for %s", parentRes, s)
	}
	f := 1 << (c.res - parentRes)
	return Cell(parentRes, floorDiv(c.x, f), floorDiv(c.y, f)), nil
}

func (Grid) ToChildren(s string, childRes int) (model.Cells, error) {
	c, err := parse(s)
	if err != nil {
		return nil, err
	}
	if childRes < c.res || childRes > 15 {
		return nil, fmt.Errorf("childRes %d invalid for %s", childRes, s)
	}
	f := 1 << (childRes - c.res)
	out := make([]string, 0, f*f)
	for dx := range f {
		for dy := range f {
			out = append(out, Cell(childRes, c.x*f+dx, c.y*f+dy))
		}
	}
	slices.Sort(out)
	return out, nil
}

func (Grid) Ring(s string, k int) (model.Cells, error) {
	c, err := parse(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, (2*k+1)*(2*k+1))
	for dx := -k; dx <= k; dx++ {
		for dy := -k; dy <= k; dy++ {
			out = append(out, Cell(c.res, c.x+dx, c.y+dy))
		}
	}
	slices.Sort(out)
	return out, nil
}

func (Grid) HopDistance(a, b string) (int, error) {
	ca, err := parse(a)
	if err != nil {
		return 0, err
	}
	cb, err := parse(b)
	if err != nil {
		return 0, err
	}
	if ca.res != cb.res {
		return 0, fmt.Errorf("cells %s and %s differ in resolution", a, b)
	}
	return max(abs(ca.x-cb.x), abs(ca.y-cb.y)), nil
}

// Centroid places cell (x, y) at lng=x, lat=y in cell units.
func (Grid) Centroid(s string) (model.LatLng, error) {
	c, err := parse(s)
	if err != nil {
		return model.LatLng{}, err
	}
	return model.LatLng{Lat: float64(c.y), Lng: float64(c.x)}, nil
}

// Boundary is the unit square around the centroid.
func (g Grid) Boundary(s string) ([]model.LatLng, error) {
	c, err := g.Centroid(s)
	if err != nil {
		return nil, err
	}
	return []model.LatLng{
		{Lat: c.Lat - 0.5, Lng: c.Lng - 0.5},
		{Lat: c.Lat - 0.5, Lng: c.Lng + 0.5},
		{Lat: c.Lat + 0.5, Lng: c.Lng + 0.5},
		{Lat: c.Lat + 0.5, Lng: c.Lng - 0.5},
	}, nil
}

// AreaKm2 is 1 km² at resolution 0 and quarters per level.
func (Grid) AreaKm2(s string) (float64, error) {
	c, err := parse(s)
	if err != nil {
		return 0, err
	}
	return 1.0 / float64(int(1)<<(2*c.res)), nil
}

func (Grid) AvgEdgeLengthKm(res int) (float64, error) {
	if res < 0 || res > 15 {
		return 0, fmt.Errorf("invalid resolution %d", res)
	}
	return 1.0 / float64(int(1)<<res), nil
}

// Compact repeatedly replaces complete 2x2 sibling blocks with their parent.
func (g Grid) Compact(cells model.Cells) (model.Cells, error) {
	cur := map[string]struct{}{}
	for _, s := range cells {
		if _, err := parse(s); err != nil {
			return nil, err
		}
		cur[s] = struct{}{}
	}
	for changed := true; changed; {
		changed = false
		groups := map[string][]string{}
		for s := range cur {
			c, _ := parse(s)
			if c.res == 0 {
				continue
			}
			p, _ := g.ToParent(s, c.res-1)
			groups[p] = append(groups[p], s)
		}
		for p, kids := range groups {
			if len(kids) == 4 {
				for _, k := range kids {
					delete(cur, k)
				}
				cur[p] = struct{}{}
				changed = true
			}
		}
	}
	out := make([]string, 0, len(cur))
	for s := range cur {
		out = append(out, s)
	}
	slices.Sort(out)
	return out, nil
}

// CellsForBBox returns the cells whose centroid lies inside bb.
func (Grid) CellsForBBox(bb model.BBox, res int) (model.Cells, error) {
	if bb.X2 < bb.X1 || bb.Y2 < bb.Y1 {
		return nil, fmt.Errorf("inverted bbox %s", bb)
	}
	var out []string
	for x := int(math.Ceil(bb.X1)); float64(x) <= bb.X2; x++ {
		for y := int(math.Ceil(bb.Y1)); float64(y) <= bb.Y2; y++ {
			out = append(out, Cell(res, x, y))
		}
	}
	slices.Sort(out)
	return out, nil
}

func (Grid) CellsForPolygon(model.Polygon, int) (model.Cells, error) {
	return nil, errors.New("mappertest: polygons are not supported")
}

// CellForPoint rounds the point to the nearest cell centroid.
func (Grid) CellForPoint(pt model.LatLng, res int) (string, error) {
	if res < 0 || res > 15 {
		return "", fmt.Errorf("invalid resolution %d", res)
	}
	return Cell(res, int(math.Round(pt.Lng)), int(math.Round(pt.Lat))), nil
}

// CellsForLine steps diagonally first, then straight, between consecutive
// vertex cells, so each leg has Chebyshev-distance+1 cells.
func (g Grid) CellsForLine(path []model.LatLng, res int) (model.Cells, error) {
	var out []string
	var prev cell
	for i, pt := range path {
		s, err := g.CellForPoint(pt, res)
		if err != nil {
			return nil, err
		}
		c, _ := parse(s)
		if i == 0 {
			out = append(out, s)
		}
		for i > 0 && prev != c {
			prev.x += sign(c.x - prev.x)
			prev.y += sign(c.y - prev.y)
			out = append(out, prev.String())
		}
		prev = c
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
