// Package model defines core domain types shared across the service.
package model

import "fmt"

type BBox struct {
	X1, Y1 float64
	X2, Y2 float64
	SRID   string
}

// String renders minx,miny,maxx,maxy,srid for logs.
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%s", b.X1, b.Y1, b.X2, b.Y2, b.SRID)
}

type Polygon struct {
	GeoJSON string
}

type Cells []string

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CellsetRef points at a cellset either inline or by cache handle.
// Inline cells win when both are present.
type CellsetRef struct {
	Handle string   `json:"cellset_id,omitempty"`
	Cells  []string `json:"cells,omitempty"`
	Label  string   `json:"label,omitempty"`
}

type LabeledCellset struct {
	Label   string     `json:"label" validate:"required"`
	Cellset CellsetRef `json:"cellset"`
}

// Sample selects how a capped list is truncated.
type Sample string

const (
	SampleFirst  Sample = "first"
	SampleRandom Sample = "random"
)

// ReturnMode controls how much of a result is materialized in the response.
type ReturnMode string

const (
	ReturnSummary ReturnMode = "summary"
	ReturnStats   ReturnMode = "stats"
	ReturnItems   ReturnMode = "items"
	ReturnCells   ReturnMode = "cells"
)

// ListControls bounds list-shaped outputs.
type ListControls struct {
	ReturnMode ReturnMode `json:"return_mode,omitempty" validate:"omitempty,oneof=summary stats items cells"`
	MaxItems   *int       `json:"max_items,omitempty" validate:"omitempty,gte=1"`
	Sample     Sample     `json:"sample,omitempty" validate:"omitempty,oneof=first random"`
}

// Wants reports whether the list selected by mode should be returned.
func (c ListControls) Wants(mode ReturnMode) bool {
	return c.ReturnMode == mode
}
