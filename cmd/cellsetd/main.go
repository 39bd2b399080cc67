package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/h3-cellset-analytics/internal/analytics"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cache/cellcache"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/cellset"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/config"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/observability"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/router"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/server"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/logger"
	h3mapper "github.com/mohammed-shakir/h3-cellset-analytics/internal/mapper/h3"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/metrics"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/output"
)

var (
	Version   = "dev"
	Revision  = ""
	BuildDate = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", envOr("ENV_FILE", ".env"), "dotenv file to load before reading config")
	flag.Parse()

	// missing file is fine, the process env still applies
	_ = godotenv.Load(*envFile)

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:   cfg.LogLevel,
		Console: cfg.LogConsole,
		SampleN: cfg.LogSampleN,
		Service: "cellsetd",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		p := metrics.Init(metrics.Config{
			Path: cfg.MetricsPath,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  Revision,
				BuildDate: BuildDate,
			},
		})
		if err := observability.Init(p.Registerer()); err != nil {
			appLog.Error("metrics registration failed", "err", err)
			return 1
		}
		metricsHandler = p.Handler()
	}

	cache, err := cellcache.New(cellcache.Config{
		MaxItems: cfg.Cache.MaxItems,
		TTL:      cfg.Cache.TTL,
	}, cellcache.WithLogger(appLog))
	if err != nil {
		appLog.Error("cellset cache setup failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cache.TTL > 0 && cfg.Cache.PruneInterval > 0 {
		go cache.RunJanitor(ctx, cfg.Cache.PruneInterval)
	}

	geo := h3mapper.New()
	engine := analytics.New(cellset.NewResolver(cache), geo,
		analytics.WithCoverer(geo),
		analytics.WithSampler(output.NewSampler(cfg.SampleSeed)),
		analytics.WithLogger(appLog),
		analytics.WithHandleLogRate(cfg.LogHandleSample),
	)

	handler := server.NewRouter(cfg, appLog, server.Deps{
		Handlers: router.New(engine, appLog, cfg.MaxRequestBytes),
		Cache:    cache,
		Metrics:  metricsHandler,
	})

	appLog.Info("starting cellsetd",
		"addr", cfg.Addr,
		"version", Version,
		"cache_max_items", cfg.Cache.MaxItems,
		"cache_ttl", cfg.Cache.TTL.String(),
		"metrics", cfg.MetricsEnabled)

	if err := server.Run(ctx, cfg, appLog, handler); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
