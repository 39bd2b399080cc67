package geojson

import "github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"

type PolygonGeometry struct {
	Type        string         `json:"type"`
	Coordinates [][][2]float64 `json:"coordinates"`
}

type PolygonFeature struct {
	Type       string          `json:"type"`
	Properties map[string]any  `json:"properties"`
	Geometry   PolygonGeometry `json:"geometry"`
}

// NewPolygonFeature builds a single-ring polygon from boundary vertices,
// closing the ring. A nil props map is written as {}.
func NewPolygonFeature(boundary []model.LatLng, props map[string]any) PolygonFeature {
	ring := make([][2]float64, 0, len(boundary)+1)
	for _, p := range boundary {
		ring = append(ring, [2]float64{p.Lng, p.Lat})
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	if props == nil {
		props = map[string]any{}
	}
	return PolygonFeature{
		Type:       "Feature",
		Properties: props,
		Geometry:   PolygonGeometry{Type: Polygon, Coordinates: [][][2]float64{ring}},
	}
}
