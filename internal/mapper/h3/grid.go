package h3mapper

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

func (m *Mapper) Ring(cell string, k int) (model.Cells, error) {
	if k < 0 {
		return nil, fmt.Errorf("k must be >= 0 (got %d)", k)
	}
	c, err := parseCell(cell)
	if err != nil {
		return nil, err
	}
	disk, err := h3.GridDisk(c, k)
	if err != nil {
		return nil, fmt.Errorf("h3 grid disk: %w", err)
	}
	return sortedStrings(disk), nil
}

func (m *Mapper) HopDistance(a, b string) (int, error) {
	ca, err := parseCell(a)
	if err != nil {
		return 0, err
	}
	cb, err := parseCell(b)
	if err != nil {
		return 0, err
	}
	d, err := h3.GridDistance(ca, cb)
	if err != nil {
		return 0, fmt.Errorf("h3 grid distance %s -> %s: %w", a, b, err)
	}
	return d, nil
}

func (m *Mapper) Centroid(cell string) (model.LatLng, error) {
	c, err := parseCell(cell)
	if err != nil {
		return model.LatLng{}, err
	}
	ll, err := h3.CellToLatLng(c)
	if err != nil {
		return model.LatLng{}, fmt.Errorf("h3 cell center: %w", err)
	}
	return model.LatLng{Lat: ll.Lat, Lng: ll.Lng}, nil
}

func (m *Mapper) Boundary(cell string) ([]model.LatLng, error) {
	c, err := parseCell(cell)
	if err != nil {
		return nil, err
	}
	b, err := h3.CellToBoundary(c)
	if err != nil {
		return nil, fmt.Errorf("h3 cell boundary: %w", err)
	}
	out := make([]model.LatLng, 0, len(b))
	for _, ll := range b {
		out = append(out, model.LatLng{Lat: ll.Lat, Lng: ll.Lng})
	}
	return out, nil
}

func (m *Mapper) AreaKm2(cell string) (float64, error) {
	c, err := parseCell(cell)
	if err != nil {
		return 0, err
	}
	a, err := h3.CellAreaKm2(c)
	if err != nil {
		return 0, fmt.Errorf("h3 cell area: %w", err)
	}
	return a, nil
}

func (m *Mapper) AvgEdgeLengthKm(res int) (float64, error) {
	if err := validateRes(res); err != nil {
		return 0, err
	}
	l, err := h3.HexagonEdgeLengthAvgKm(res)
	if err != nil {
		return 0, fmt.Errorf("h3 edge length: %w", err)
	}
	return l, nil
}
