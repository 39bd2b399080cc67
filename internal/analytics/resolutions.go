package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type ResolutionRow struct {
	Resolution      int     `json:"resolution"`
	ApproxAreaKm2   float64 `json:"approx_area_km2"`
	Scale           string  `json:"scale"`
	AvgEdgeLengthKm float64 `json:"avg_edge_length_km"`
}

type ResolutionGuide struct {
	Resolutions []ResolutionRow `json:"resolutions"`
	Pairings    []string        `json:"common_pairings"`
	Text        string          `json:"text"`
}

var resolutionScales = []struct {
	area  string
	value float64
	scale string
}{
	{"4,357,449", 4357449, "Continental scale"},
	{"609,788", 609788, "Large country"},
	{"86,745", 86745, "Country / large region"},
	{"12,393", 12393, "Region / small country"},
	{"1,770", 1770, "Metro area"},
	{"253", 253, "City"},
	{"36", 36, "District"},
	{"5.16", 5.16, "Neighborhood"},
	{"0.74", 0.74, "~6 city blocks"},
	{"0.105", 0.105, "City block"},
	{"0.015", 0.015, "Building footprint"},
	{"0.002", 0.002, "Sub-building"},
	{"0.0003", 0.0003, "Parking space"},
}

var resolutionPairings = []string{
	"Points of interest analysis: res 8-9",
	"Neighborhood comparison: res 6-7",
	"City-wide planning: res 4-5",
	"Regional strategy: res 2-3",
	"k_ring approximations: k=1 at res 9 ≈ 150m radius",
}

// ResolutionGuide is the static reference for picking a resolution, with
// edge lengths taken from the grid.
func (e *Engine) ResolutionGuide(ctx context.Context) (out ResolutionGuide, err error) {
	defer e.observe(ctx, "resolution_guide", time.Now(), &err)

	var b strings.Builder
	b.WriteString("H3 Resolution Reference\n========================\n")
	out.Resolutions = make([]ResolutionRow, 0, len(resolutionScales))
	for res, s := range resolutionScales {
		edge, err := e.geom.AvgEdgeLengthKm(res)
		if err != nil {
			return ResolutionGuide{}, geomErr(err)
		}
		out.Resolutions = append(out.Resolutions, ResolutionRow{
			Resolution:      res,
			ApproxAreaKm2:   s.value,
			Scale:           s.scale,
			AvgEdgeLengthKm: edge,
		})
		fmt.Fprintf(&b, "%-8s%-16s| %s\n", fmt.Sprintf("Res %d:", res), "~"+s.area+" km²", s.scale)
	}
	b.WriteString("\nCommon pairings:\n")
	for _, p := range resolutionPairings {
		b.WriteString("- " + p + "\n")
	}
	out.Pairings = resolutionPairings
	out.Text = b.String()
	return out, nil
}
