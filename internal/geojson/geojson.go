// Package geojson reads the feature inputs the service indexes and writes the
// hexagon features it exports. Positions are [lng, lat] on the wire.
package geojson

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

const (
	Point           = "Point"
	MultiPoint      = "MultiPoint"
	LineString      = "LineString"
	MultiLineString = "MultiLineString"
	Polygon         = "Polygon"
	MultiPolygon    = "MultiPolygon"
)

// nesting is the array depth above a single position for each geometry type.
var nesting = map[string]int{
	Point:           0,
	MultiPoint:      1,
	LineString:      1,
	MultiLineString: 2,
	Polygon:         2,
	MultiPolygon:    3,
}

type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Feature is one input feature. Raw is the geometry object as sent.
type Feature struct {
	Index      int
	Geometry   Geometry
	Properties map[string]any
	Raw        json.RawMessage
}

type object struct {
	Type        string            `json:"type"`
	Features    []json.RawMessage `json:"features"`
	Geometry    json.RawMessage   `json:"geometry"`
	Properties  map[string]any    `json:"properties"`
	Coordinates json.RawMessage   `json:"coordinates"`
}

// Features flattens a FeatureCollection or a single Feature. A bare geometry
// is read as one feature without properties.
func Features(raw []byte) ([]Feature, error) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	switch o.Type {
	case "FeatureCollection":
		out := make([]Feature, 0, len(o.Features))
		for i, fr := range o.Features {
			var f object
			if err := json.Unmarshal(fr, &f); err != nil {
				return nil, fmt.Errorf("parse feature %d: %w", i, err)
			}
			if f.Type != "Feature" {
				return nil, fmt.Errorf("feature %d: FeatureCollection contains a non-Feature item", i)
			}
			feat, err := toFeature(i, f)
			if err != nil {
				return nil, err
			}
			out = append(out, feat)
		}
		return out, nil
	case "Feature":
		feat, err := toFeature(0, o)
		if err != nil {
			return nil, err
		}
		return []Feature{feat}, nil
	case "":
		return nil, errors.New("geojson object has no type")
	default:
		return []Feature{{
			Geometry:   Geometry{Type: o.Type, Coordinates: o.Coordinates},
			Properties: map[string]any{},
			Raw:        json.RawMessage(raw),
		}}, nil
	}
}

func toFeature(i int, o object) (Feature, error) {
	if len(o.Geometry) == 0 || string(o.Geometry) == "null" {
		return Feature{}, fmt.Errorf("feature %d has no geometry", i)
	}
	var g Geometry
	if err := json.Unmarshal(o.Geometry, &g); err != nil {
		return Feature{}, fmt.Errorf("parse feature %d geometry: %w", i, err)
	}
	props := o.Properties
	if props == nil {
		props = map[string]any{}
	}
	return Feature{Index: i, Geometry: g, Properties: props, Raw: o.Geometry}, nil
}

// Positions returns every vertex of g in document order.
func (g Geometry) Positions() ([]model.LatLng, error) {
	depth, ok := nesting[g.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported geometry type: %q", g.Type)
	}
	if len(g.Coordinates) == 0 || string(g.Coordinates) == "null" {
		return nil, fmt.Errorf("%s is missing coordinates", g.Type)
	}
	var v any
	if err := json.Unmarshal(g.Coordinates, &v); err != nil {
		return nil, fmt.Errorf("parse %s coordinates: %w", g.Type, err)
	}
	var out []model.LatLng
	if err := walk(v, depth, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", g.Type, err)
	}
	return out, nil
}

func walk(v any, depth int, out *[]model.LatLng) error {
	items, ok := v.([]any)
	if !ok {
		return errors.New("coordinates are not nested arrays")
	}
	if depth > 0 {
		for _, it := range items {
			if err := walk(it, depth-1, out); err != nil {
				return err
			}
		}
		return nil
	}
	if len(items) < 2 {
		return errors.New("position must be [lng, lat]")
	}
	lng, okLng := items[0].(float64)
	lat, okLat := items[1].(float64)
	if !okLng || !okLat {
		return errors.New("position must be numeric [lng, lat]")
	}
	*out = append(*out, model.LatLng{Lat: lat, Lng: lng})
	return nil
}

// Lines returns the vertex runs of a LineString or MultiLineString.
func (g Geometry) Lines() ([][]model.LatLng, error) {
	switch g.Type {
	case LineString:
		pts, err := g.Positions()
		if err != nil {
			return nil, err
		}
		return [][]model.LatLng{pts}, nil
	case MultiLineString:
		var parts []json.RawMessage
		if err := json.Unmarshal(g.Coordinates, &parts); err != nil {
			return nil, fmt.Errorf("parse %s coordinates: %w", g.Type, err)
		}
		lines := make([][]model.LatLng, 0, len(parts))
		for _, p := range parts {
			pts, err := Geometry{Type: LineString, Coordinates: p}.Positions()
			if err != nil {
				return nil, err
			}
			lines = append(lines, pts)
		}
		return lines, nil
	default:
		return nil, fmt.Errorf("not a line geometry: %q", g.Type)
	}
}

// Parts counts a Point as one and anything else by its top-level
// coordinate entries.
func (g Geometry) Parts() (int, error) {
	if g.Type == Point {
		return 1, nil
	}
	var top []json.RawMessage
	if err := json.Unmarshal(g.Coordinates, &top); err != nil {
		return 0, fmt.Errorf("parse %s coordinates: %w", g.Type, err)
	}
	return len(top), nil
}

// BBox is [minLng, minLat, maxLng, maxLat] over every vertex of features.
func BBox(features []Feature) ([4]float64, error) {
	bb := [4]float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, f := range features {
		pts, err := f.Geometry.Positions()
		if err != nil {
			return [4]float64{}, fmt.Errorf("feature %d: %w", f.Index, err)
		}
		for _, p := range pts {
			bb[0] = min(bb[0], p.Lng)
			bb[1] = min(bb[1], p.Lat)
			bb[2] = max(bb[2], p.Lng)
			bb[3] = max(bb[3], p.Lat)
		}
	}
	if math.IsInf(bb[0], 1) {
		return [4]float64{}, errors.New("geojson contains no coordinates")
	}
	return bb, nil
}
