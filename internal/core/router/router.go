// Package router decodes, validates and dispatches analytics requests and
// maps engine failures onto HTTP statuses.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/analytics"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cache/keys"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
	mylog "github.com/mohammed-shakir/h3-cellset-analytics/internal/logger"
)

const DefaultMaxBodyBytes = 8 << 20

type Handlers struct {
	engine  *analytics.Engine
	logger  *slog.Logger
	maxBody int64
}

func New(engine *analytics.Engine, logger *slog.Logger, maxBody int64) *Handlers {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handlers{engine: engine, logger: logger, maxBody: maxBody}
}

// Mount registers the /v1 routes on r.
func (h *Handlers) Mount(r chi.Router) {
	e := h.engine
	r.Route("/v1", func(r chi.Router) {
		r.Post("/cellsets", handle(h, "put_cellset", e.PutCellset))
		r.Get("/cellsets/{handle}", h.getCellset)
		r.Post("/compare", handle(h, "compare", e.Compare))
		r.Post("/compare-many", handle(h, "compare_many", e.CompareMany))
		r.Post("/aggregate", handle(h, "aggregate", e.Aggregate))
		r.Post("/hotspots", handle(h, "find_hotspots", e.FindHotspots))
		r.Post("/distance-matrix", handle(h, "distance_matrix", e.DistanceMatrix))
		r.Post("/components", handle(h, "connected_components", e.ConnectedComponents))
		r.Post("/k-ring", handle(h, "k_ring", e.KRing))
		r.Post("/change-resolution", handle(h, "change_resolution", e.ChangeResolution))
		r.Post("/cell-stats", handle(h, "cell_stats", e.CellStats))
		r.Post("/cover", handle(h, "cover", e.Cover))
		r.Post("/export", handle(h, "cells_to_geojson", e.Export))
		r.Get("/resolutions", h.resolutions)
	})
}

// handle adapts an engine operation to a JSON POST endpoint.
func handle[In, Out any](h *Handlers, op string, fn func(context.Context, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := mylog.WithOperation(r.Context(), op)

		var in In
		if err := h.decode(w, r, &in); err != nil {
			h.writeError(ctx, w, err)
			return
		}
		if err := validateRequest(in); err != nil {
			h.writeError(ctx, w, err)
			return
		}
		out, err := fn(ctx, in)
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *Handlers) getCellset(w http.ResponseWriter, r *http.Request) {
	ctx := mylog.WithOperation(r.Context(), "get_cellset")
	handle := chi.URLParam(r, "handle")
	if !keys.LooksLikeHandle(handle) {
		h.writeError(ctx, w, apperr.Invalid("malformed cellset_id: %q", handle))
		return
	}
	controls, err := parseListControls(r)
	if err == nil {
		err = validateRequest(controls)
	}
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	out, err := h.engine.GetCellset(ctx, handle, controls)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) resolutions(w http.ResponseWriter, r *http.Request) {
	ctx := mylog.WithOperation(r.Context(), "resolution_guide")
	out, err := h.engine.ResolutionGuide(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func parseListControls(r *http.Request) (model.ListControls, error) {
	q := r.URL.Query()
	c := model.ListControls{
		ReturnMode: model.ReturnMode(q.Get("return_mode")),
		Sample:     model.Sample(q.Get("sample")),
	}
	if raw := q.Get("max_items"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return model.ListControls{}, apperr.Invalid("max_items must be an integer: %q", raw)
		}
		c.MaxItems = &n
	}
	return c, nil
}

var errBodyTooLarge = errors.New("request body too large")

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, mbe.Limit)
		case errors.Is(err, io.EOF):
			return apperr.Invalid("request body is empty")
		default:
			return apperr.Invalid("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return apperr.Invalid("request body must contain a single JSON object")
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusFor maps an engine error onto an HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, errBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch apperr.Kind(err) {
	case apperr.KindReferenceNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidInput, apperr.KindResolutionMismatch:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status := StatusFor(err)
	body := errorBody{Error: apperr.Kind(err), Message: err.Error()}
	switch {
	case status == http.StatusRequestEntityTooLarge:
		body.Error = "request_too_large"
	case status >= http.StatusInternalServerError:
		h.logger.ErrorContext(ctx, "request failed", "err", err)
		if body.Error == apperr.KindInternal {
			body.Message = "internal error"
		}
	default:
		h.logger.DebugContext(ctx, "request rejected", "status", status, "err", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
