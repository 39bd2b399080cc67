package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/analytics"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cache/cellcache"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/mapper/mappertest"
)

func newTestServer(t *testing.T, maxBody int64) *httptest.Server {
	t.Helper()
	c, err := cellcache.New(cellcache.Config{MaxItems: 64})
	require.NoError(t, err)
	engine := analytics.New(cellset.NewResolver(c), mappertest.Grid{}, analytics.WithCoverer(mappertest.Grid{}))

	r := chi.NewRouter()
	New(engine, slog.New(slog.DiscardHandler), maxBody).Mount(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestCompare_RoundTrip(t *testing.T) {
	srv := newTestServer(t, 0)
	status, out := post(t, srv, "/v1/compare", `{
		"set_a": {"label": "a", "cellset": {"cells": ["x", "y"]}},
		"set_b": {"label": "b", "cellset": {"cells": ["y"]}}
	}`)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, float64(1), out["overlap_count"])
	assert.Equal(t, 0.5, out["jaccard_index"])
	handle, _ := out["overlap_cellset_id"].(string)
	require.NotEmpty(t, handle)

	resp, err := http.Get(srv.URL + "/v1/cellsets/" + handle)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got analytics.CellsetOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"y"}, got.Cells)
}

func TestErrors_MapToStatuses(t *testing.T) {
	srv := newTestServer(t, 0)
	cases := []struct {
		name   string
		path   string
		body   string
		status int
		kind   string
	}{
		{
			name:   "unknown handle",
			path:   "/v1/cell-stats",
			body:   `{"cellset": {"cellset_id": "cellset_missing"}}`,
			status: http.StatusNotFound,
			kind:   apperr.KindReferenceNotFound,
		},
		{
			name:   "missing cells and handle",
			path:   "/v1/cell-stats",
			body:   `{"cellset": {}}`,
			status: http.StatusBadRequest,
			kind:   apperr.KindInvalidInput,
		},
		{
			name:   "unknown field",
			path:   "/v1/cell-stats",
			body:   `{"cellset": {"cells": []}, "bogus": 1}`,
			status: http.StatusBadRequest,
			kind:   apperr.KindInvalidInput,
		},
		{
			name:   "tag validation",
			path:   "/v1/compare-many",
			body:   `{"sets": [{"label": "a", "cellset": {"cells": ["x"]}}]}`,
			status: http.StatusBadRequest,
			kind:   apperr.KindInvalidInput,
		},
		{
			name:   "resolution mismatch",
			path:   "/v1/components",
			body:   `{"cellset": {"cells": ["r1:0,0", "r2:0,0"]}}`,
			status: http.StatusBadRequest,
			kind:   apperr.KindResolutionMismatch,
		},
		{
			name:   "zero hotspot threshold",
			path:   "/v1/hotspots",
			body:   `{"values_by_cell": {"r1:0,0": 1}, "k": 1, "threshold": 0}`,
			status: http.StatusBadRequest,
			kind:   apperr.KindInvalidInput,
		},
		{
			name:   "zero top_k",
			path:   "/v1/compare-many",
			body:   `{"sets": [{"label": "a", "cellset": {"cells": ["x"]}}, {"label": "b", "cellset": {"cells": ["y"]}}], "top_k": 0}`,
			status: http.StatusBadRequest,
			kind:   apperr.KindInvalidInput,
		},
		{
			name:   "empty body",
			path:   "/v1/compare",
			body:   ``,
			status: http.StatusBadRequest,
			kind:   apperr.KindInvalidInput,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, out := post(t, srv, tc.path, tc.body)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, out["error"])
			assert.NotEmpty(t, out["message"])
		})
	}
}

func TestBodyLimit(t *testing.T) {
	srv := newTestServer(t, 32)
	status, out := post(t, srv, "/v1/cellsets", `{"cells": ["aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc"]}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
	assert.Equal(t, "request_too_large", out["error"])
}

func TestGetCellset_QueryControls(t *testing.T) {
	srv := newTestServer(t, 0)
	status, out := post(t, srv, "/v1/cellsets", `{"cells": ["c", "a", "b"]}`)
	require.Equal(t, http.StatusOK, status)
	handle := out["cellset_id"].(string)

	resp, err := http.Get(srv.URL + "/v1/cellsets/" + handle + "?max_items=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	var got analytics.CellsetOutput
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, 3, got.CellCount)
	assert.Equal(t, []string{"a", "b"}, got.Cells)

	bad, err := http.Get(srv.URL + "/v1/cellsets/" + handle + "?max_items=zero")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestGetCellset_MalformedHandle(t *testing.T) {
	srv := newTestServer(t, 0)
	for _, h := range []string{"nope", "cellset_abc", "cellset_" + strings.Repeat("Z", 64)} {
		resp, err := http.Get(srv.URL + "/v1/cellsets/" + h)
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, h)
		assert.Equal(t, apperr.KindInvalidInput, out["error"], h)
	}

	resp, err := http.Get(srv.URL + "/v1/cellsets/cellset_" + strings.Repeat("0", 64))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCoverThenExport(t *testing.T) {
	srv := newTestServer(t, 0)
	status, out := post(t, srv, "/v1/cover", `{
		"geojson": {"type": "Feature", "properties": {"id": 7}, "geometry": {"type": "LineString", "coordinates": [[0, 0], [2, 0]]}},
		"resolution": 2,
		"return_mode": "cells"
	}`)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, float64(3), out["cell_count"])
	cells, _ := out["cells"].([]any)
	require.Len(t, cells, 3)
	first, _ := cells[0].(map[string]any)
	assert.Equal(t, float64(0), first["source_feature_index"])
	assert.Equal(t, map[string]any{"id": float64(7)}, first["source_properties"])
	handle, _ := out["cellset_id"].(string)
	require.NotEmpty(t, handle)

	status, out = post(t, srv, "/v1/export", `{"cellset": {"cellset_id": "`+handle+`"}, "properties": {"layer": "route"}, "max_features": 1}`)
	require.Equal(t, http.StatusOK, status, out)
	assert.Equal(t, "FeatureCollection", out["type"])
	assert.Equal(t, float64(3), out["feature_count"])
	features, _ := out["features"].([]any)
	require.Len(t, features, 1)
	f, _ := features[0].(map[string]any)
	assert.Equal(t, map[string]any{"layer": "route"}, f["properties"])

	status, out = post(t, srv, "/v1/export", `{"cellset": {"cellset_id": "`+handle+`"}, "return_mode": "everything"}`)
	assert.Equal(t, http.StatusBadRequest, status, out)
}

func TestResolutions(t *testing.T) {
	srv := newTestServer(t, 0)
	resp, err := http.Get(srv.URL + "/v1/resolutions")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got analytics.ResolutionGuide
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Len(t, got.Resolutions, 13)
	assert.Contains(t, got.Text, "Common pairings:")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.NotFound("x")))
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperr.Mismatch("x")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(apperr.Config("x")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(io.ErrUnexpectedEOF))
}
