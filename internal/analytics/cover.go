package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/geojson"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/output"
)

// CoverInput takes exactly one of BBox ([minLng, minLat, maxLng, maxLat] in
// EPSG:4326) or GeoJSON. GeoJSON may be a FeatureCollection, a Feature or a
// bare geometry of any point, line or polygon type. CacheCells defaults to
// true.
type CoverInput struct {
	BBox       []float64       `json:"bbox,omitempty" validate:"omitempty,len=4"`
	GeoJSON    json.RawMessage `json:"geojson,omitempty"`
	Resolution int             `json:"resolution" validate:"gte=0,lte=15"`
	CacheCells *bool           `json:"cache_cells,omitempty"`
	model.ListControls
}

// CoveredCell ties a cell back to the features that produced it. Sources are
// only set for GeoJSON input. SourceProperties holds the single feature's
// properties, or a list when several features share the cell.
type CoveredCell struct {
	CellID             string `json:"cell_id"`
	SourceFeatureIndex *int   `json:"source_feature_index,omitempty"`
	SourceProperties   any    `json:"source_properties,omitempty"`
}

type CoverOutput struct {
	CellsetID      string        `json:"cellset_id,omitempty"`
	CellCount      int           `json:"cell_count"`
	Resolution     int           `json:"resolution"`
	FeatureCount   int           `json:"feature_count,omitempty"`
	GeometryCount  int           `json:"geometry_count,omitempty"`
	ApproxCellArea string        `json:"approx_cell_area"`
	BoundingBox    [4]float64    `json:"bounding_box"`
	Cells          []CoveredCell `json:"cells"`
	Summary        string        `json:"summary"`
}

type cellSources struct {
	indices []int
	props   []map[string]any
}

// Cover rasterizes a bbox or GeoJSON features into cells at Resolution.
// The bounding box is taken from the input coordinates.
func (e *Engine) Cover(ctx context.Context, in CoverInput) (out CoverOutput, err error) {
	defer e.observe(ctx, "cover", time.Now(), &err)

	if e.coverer == nil {
		return CoverOutput{}, apperr.Config("no geometry coverer configured")
	}
	if in.Resolution < 0 || in.Resolution > MaxResolution {
		return CoverOutput{}, apperr.Invalid("resolution must be between 0 and %d", MaxResolution)
	}

	var (
		cells   model.Cells
		sources map[string]*cellSources
	)
	switch {
	case in.BBox != nil && len(in.GeoJSON) > 0:
		return CoverOutput{}, apperr.Invalid("provide bbox or geojson, not both")
	case in.BBox != nil:
		if len(in.BBox) != 4 {
			return CoverOutput{}, apperr.Invalid("bbox must have 4 numbers, got %d", len(in.BBox))
		}
		bb := model.BBox{X1: in.BBox[0], Y1: in.BBox[1], X2: in.BBox[2], Y2: in.BBox[3], SRID: "EPSG:4326"}
		e.logger.DebugContext(ctx, "cover bbox", "bbox", bb.String(), "res", in.Resolution)
		if cells, err = e.coverer.CellsForBBox(bb, in.Resolution); err != nil {
			return CoverOutput{}, geomErr(err)
		}
		out.BoundingBox = [4]float64(in.BBox)
	case len(in.GeoJSON) > 0:
		features, err := geojson.Features(in.GeoJSON)
		if err != nil {
			return CoverOutput{}, geomErr(err)
		}
		if out.BoundingBox, err = geojson.BBox(features); err != nil {
			return CoverOutput{}, geomErr(err)
		}
		sources = make(map[string]*cellSources)
		for _, f := range features {
			fc, err := e.featureCells(f, in.Resolution)
			if err != nil {
				return CoverOutput{}, geomErr(fmt.Errorf("feature %d: %w", f.Index, err))
			}
			parts, err := f.Geometry.Parts()
			if err != nil {
				return CoverOutput{}, geomErr(err)
			}
			out.GeometryCount += parts
			for _, c := range fc {
				src := sources[c]
				if src == nil {
					src = &cellSources{}
					sources[c] = src
					cells = append(cells, c)
				}
				src.indices = append(src.indices, f.Index)
				src.props = append(src.props, f.Properties)
			}
		}
		out.FeatureCount = len(features)
	default:
		return CoverOutput{}, apperr.Invalid("provide bbox or geojson")
	}

	s := cellset.New(cells)
	covered := make([]CoveredCell, 0, s.Len())
	for _, c := range s.All() {
		cc := CoveredCell{CellID: c}
		if src := sources[c]; src != nil {
			cc.SourceFeatureIndex = &src.indices[0]
			if len(src.props) == 1 {
				cc.SourceProperties = src.props[0]
			} else {
				cc.SourceProperties = src.props
			}
		}
		covered = append(covered, cc)
	}

	out.CellCount = s.Len()
	out.Resolution = in.Resolution
	out.ApproxCellArea = "0 km² per cell"
	out.Cells = output.List(e.sampler, covered, in.ListControls, model.ReturnCells)
	if !s.IsEmpty() {
		area, err := e.geom.AreaKm2(s.At(0))
		if err != nil {
			return CoverOutput{}, geomErr(err)
		}
		out.ApproxCellArea = fmt.Sprintf("%.3f km² per cell", area)
		if in.CacheCells == nil || *in.CacheCells {
			out.CellsetID = e.store(ctx, "cover", s)
		}
	}
	if sources != nil {
		out.Summary = fmt.Sprintf("%d features indexed to %d unique cells at res %d. %d geometries processed.",
			out.FeatureCount, s.Len(), in.Resolution, out.GeometryCount)
	} else {
		out.Summary = fmt.Sprintf("Covered with %d unique cells at res %d.", s.Len(), in.Resolution)
	}
	return out, nil
}

// featureCells returns the distinct cells of one feature's geometry. Lines
// are joined vertex to vertex with grid paths.
func (e *Engine) featureCells(f geojson.Feature, res int) ([]string, error) {
	var cells []string
	switch f.Geometry.Type {
	case geojson.Point, geojson.MultiPoint:
		pts, err := f.Geometry.Positions()
		if err != nil {
			return nil, err
		}
		for _, p := range pts {
			c, err := e.coverer.CellForPoint(p, res)
			if err != nil {
				return nil, err
			}
			cells = append(cells, c)
		}
	case geojson.LineString, geojson.MultiLineString:
		lines, err := f.Geometry.Lines()
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			lc, err := e.coverer.CellsForLine(l, res)
			if err != nil {
				return nil, err
			}
			cells = append(cells, lc...)
		}
	case geojson.Polygon, geojson.MultiPolygon:
		return e.coverer.CellsForPolygon(model.Polygon{GeoJSON: string(f.Raw)}, res)
	default:
		return nil, fmt.Errorf("unsupported geometry type: %q", f.Geometry.Type)
	}
	slices.Sort(cells)
	return slices.Compact(cells), nil
}
