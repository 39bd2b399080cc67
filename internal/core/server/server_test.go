package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/analytics"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cache/cellcache"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/config"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/router"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/mapper/mappertest"
)

func TestNewRouter_Wiring(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	c, err := cellcache.New(cellcache.Config{MaxItems: 8})
	if err != nil {
		t.Fatal(err)
	}
	c.Put([]string{"a"})
	engine := analytics.New(cellset.NewResolver(c), mappertest.Grid{})
	cfg := config.Config{MetricsPath: "/metrics"}

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	h := NewRouter(cfg, logger, Deps{
		Handlers: router.New(engine, logger, 0),
		Cache:    c,
		Metrics:  metrics,
	})

	cases := []struct {
		method, path, body string
		want               int
		contains           string
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK, "ok"},
		{http.MethodGet, "/readyz", "", http.StatusOK, `"cache_entries":1`},
		{http.MethodGet, "/metrics", "", http.StatusOK, "# metrics"},
		{http.MethodPost, "/v1/k-ring", `{"cellset":{"cells":["r0:0,0"]},"k":1}`, http.StatusOK, `"ring_cell_count":9`},
		{http.MethodGet, "/v1/compare", "", http.StatusMethodNotAllowed, ""},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
		if rr.Code != tc.want {
			t.Fatalf("%s %s: status=%d want %d (%s)", tc.method, tc.path, rr.Code, tc.want, rr.Body.String())
		}
		if !strings.Contains(rr.Body.String(), tc.contains) {
			t.Fatalf("%s %s: body %q missing %q", tc.method, tc.path, rr.Body.String(), tc.contains)
		}
		if rr.Header().Get("X-Request-ID") == "" {
			t.Fatalf("%s %s: missing request id header", tc.method, tc.path)
		}
	}
}
