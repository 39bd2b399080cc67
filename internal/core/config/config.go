package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type CacheCfg struct {
	MaxItems      int
	TTL           time.Duration // 0 disables expiry
	PruneInterval time.Duration
}

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	LogSampleN      int
	LogHandleSample float64
	Cache           CacheCfg
	SampleSeed      uint64
	MaxRequestBytes int64
	MetricsEnabled  bool
	MetricsPath     string
}

func FromEnv() Config {
	return Config{
		Addr:            getenv("ADDR", ":8090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogConsole:      getbool("LOG_CONSOLE", false),
		LogSampleN:      getint("LOG_SAMPLE_N", 0),
		LogHandleSample: getfloat("LOG_HANDLE_SAMPLE", 0.05),
		Cache: CacheCfg{
			MaxItems:      getint("CELLSET_CACHE_MAX_ITEMS", 1024),
			TTL:           getttl("CELLSET_CACHE_TTL", time.Hour),
			PruneInterval: getduration("CELLSET_CACHE_PRUNE_INTERVAL", time.Minute),
		},
		SampleSeed:      getuint64("SAMPLE_SEED", 0),
		MaxRequestBytes: int64(getint("MAX_REQUEST_BYTES", 8<<20)),
		MetricsEnabled:  getbool("METRICS_ENABLED", true),
		MetricsPath:     getenv("METRICS_PATH", "/metrics"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getuint64(k string, def uint64) uint64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getttl is getduration that also accepts "0", "off", "none" and "disabled"
// (no expiry) and a bare number of seconds.
func getttl(k string, def time.Duration) time.Duration {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	switch v {
	case "":
		return def
	case "0", "off", "none", "disabled":
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
