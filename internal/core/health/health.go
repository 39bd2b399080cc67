// Package health serves liveness and readiness checks.
package health

import (
	"encoding/json"
	"net/http"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// CacheReporter exposes the live entry count of the cellset cache.
type CacheReporter interface {
	Len() int
}

// Readiness reports ready once a cache is wired, along with its entry count.
func Readiness(c CacheReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status  string `json:"status"`
			Entries int    `json:"cache_entries"`
		}
		w.Header().Set("Content-Type", "application/json")
		if c == nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(resp{Status: "not_ready"})
			return
		}
		_ = json.NewEncoder(w).Encode(resp{Status: "ready", Entries: c.Len()})
	}
}
