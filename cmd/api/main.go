// Package main implements the VIN decoder API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/vindecoder/engine/decode"
	"github.com/WessleyAI/vindecoder/engine/registry"
	"github.com/WessleyAI/vindecoder/engine/vpic"
	"github.com/WessleyAI/vindecoder/engine/wmi"
	"github.com/WessleyAI/vindecoder/pkg/metrics"
	"github.com/WessleyAI/vindecoder/pkg/mid"
	"github.com/WessleyAI/vindecoder/pkg/resilience"
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	CORSOrigin  string
	ServiceName string
	WMIFile     string
	Workers     int

	VPICEnabled bool
	VPICURL     string
	RedisURL    string

	Neo4jURL  string
	Neo4jUser string
	Neo4jPass string
	Neo4jDB   string

	RateLimit float64 // requests per second per client
	RateBurst int
}

func loadConfig() Config {
	return Config{
		Port:        envOr("PORT", "8080"),
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),
		ServiceName: envOr("OTEL_SERVICE_NAME", "vindecoder-api"),
		WMIFile:     envOr("WMI_FILE", ""),
		Workers:     envInt("DECODE_WORKERS", decode.DefaultOptions().Workers),
		VPICEnabled: envOr("VPIC_ENABLED", "false") == "true",
		VPICURL:     envOr("VPIC_URL", vpic.DefaultConfig().BaseURL),
		RedisURL:    envOr("REDIS_URL", ""),
		Neo4jURL:    envOr("NEO4J_URL", ""),
		Neo4jUser:   envOr("NEO4J_USER", "neo4j"),
		Neo4jPass:   envOr("NEO4J_PASS", "password"),
		Neo4jDB:     envOr("NEO4J_DATABASE", ""),
		RateLimit:   envFloat("RATE_LIMIT_RPS", 20),
		RateBurst:   envInt("RATE_LIMIT_BURST", 40),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met := metrics.New()
	go met.CollectRuntime(ctx, 15*time.Second)

	// --- WMI table ---
	table, err := wmi.LoadFile(cfg.WMIFile)
	if err != nil {
		return fmt.Errorf("load WMI overrides: %w", err)
	}

	// --- Optional vPIC enrichment ---
	var enricher decode.Enricher
	if cfg.VPICEnabled {
		var cache vpic.Cache = vpic.NewMemoryCache()
		if cfg.RedisURL != "" {
			rc, err := vpic.DialRedis(ctx, cfg.RedisURL)
			if err != nil {
				return err
			}
			defer rc.Close()
			cache = rc
		}
		vcfg := vpic.DefaultConfig()
		vcfg.BaseURL = cfg.VPICURL
		enricher = vpic.Enricher{Client: vpic.NewClient(vcfg, cache, logger)}
		logger.Info("vpic enrichment enabled", "url", cfg.VPICURL, "redis", cfg.RedisURL != "")
	}

	opts := decode.DefaultOptions()
	opts.Workers = cfg.Workers
	svc := decode.New(table, enricher, opts, met, logger)

	// --- Optional registry ---
	var store vehicleStore
	if cfg.Neo4jURL != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURL, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer driver.Close(context.Background())
		if err := driver.VerifyConnectivity(ctx); err != nil {
			return fmt.Errorf("neo4j connect: %w", err)
		}
		store = registry.New(driver, logger, registry.WithDatabase(cfg.Neo4jDB))
	}

	limiter := resilience.NewKeyedLimiter(resilience.LimiterOpts{Rate: cfg.RateLimit, Burst: cfg.RateBurst}, 10*time.Minute)
	mux := routes(svc, table, store, met, logger)
	handler := mid.Chain(mux,
		mid.OTel(cfg.ServiceName),
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.Metrics(met),
		mid.CORS(cfg.CORSOrigin, mux),
		mid.RateLimit(limiter),
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
