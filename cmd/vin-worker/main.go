// Command vin-worker serves VIN decode requests over NATS. Every valid VIN it
// decodes is announced on decode.DecodedSubject and, when Neo4j is
// configured, saved to the vehicle registry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/vindecoder/engine/decode"
	"github.com/WessleyAI/vindecoder/engine/domain"
	"github.com/WessleyAI/vindecoder/engine/registry"
	"github.com/WessleyAI/vindecoder/engine/vpic"
	"github.com/WessleyAI/vindecoder/engine/wmi"
	"github.com/WessleyAI/vindecoder/pkg/metrics"
	"github.com/WessleyAI/vindecoder/pkg/resilience"
)

type config struct {
	natsURL     string
	queue       string
	metricsAddr string
	wmiFile     string
	workers     int

	vpic     bool
	vpicURL  string
	redisURL string

	neo4jURL  string
	neo4jUser string
	neo4jPass string
	neo4jDB   string
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("vin-worker", flag.ContinueOnError)
	fs.StringVar(&cfg.natsURL, "nats", nats.DefaultURL, "NATS server URL")
	fs.StringVar(&cfg.queue, "queue", "vin-workers", "NATS queue group")
	fs.StringVar(&cfg.metricsAddr, "metrics", ":9091", "metrics listen address (empty disables)")
	fs.StringVar(&cfg.wmiFile, "wmi", "", "YAML file with extra WMI codes")
	fs.IntVar(&cfg.workers, "workers", decode.DefaultOptions().Workers, "batch decode concurrency")
	fs.BoolVar(&cfg.vpic, "vpic", false, "enrich valid VINs from NHTSA vPIC")
	fs.StringVar(&cfg.vpicURL, "vpic-url", vpic.DefaultConfig().BaseURL, "vPIC base URL")
	fs.StringVar(&cfg.redisURL, "redis", "", "Redis URL for the vPIC cache (empty uses memory)")
	fs.StringVar(&cfg.neo4jURL, "neo4j", "", "Neo4j bolt URL (empty disables the registry)")
	fs.StringVar(&cfg.neo4jUser, "neo4j-user", "neo4j", "Neo4j username")
	fs.StringVar(&cfg.neo4jPass, "neo4j-pass", "password", "Neo4j password")
	fs.StringVar(&cfg.neo4jDB, "neo4j-db", "", "Neo4j database")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if cfg.workers <= 0 {
		return config{}, fmt.Errorf("workers must be positive, got %d", cfg.workers)
	}
	return cfg, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, logger *slog.Logger) error {
	met := metrics.New()
	go met.CollectRuntime(ctx, 15*time.Second)
	if cfg.metricsAddr != "" {
		go func() {
			if err := met.Serve(ctx, cfg.metricsAddr, logger); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	table, err := wmi.LoadFile(cfg.wmiFile)
	if err != nil {
		return fmt.Errorf("load WMI overrides: %w", err)
	}

	var enricher decode.Enricher
	if cfg.vpic {
		var cache vpic.Cache = vpic.NewMemoryCache()
		if cfg.redisURL != "" {
			rc, err := vpic.DialRedis(ctx, cfg.redisURL)
			if err != nil {
				return err
			}
			defer rc.Close()
			cache = rc
		}
		vcfg := vpic.DefaultConfig()
		vcfg.BaseURL = cfg.vpicURL
		enricher = vpic.Enricher{Client: vpic.NewClient(vcfg, cache, logger)}
	}

	opts := decode.DefaultOptions()
	opts.Workers = cfg.workers
	svc := decode.New(table, enricher, opts, met, logger)

	var store saver
	if cfg.neo4jURL != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.neo4jURL, neo4j.BasicAuth(cfg.neo4jUser, cfg.neo4jPass, ""))
		if err != nil {
			return fmt.Errorf("neo4j driver: %w", err)
		}
		defer driver.Close(context.Background())
		if err := driver.VerifyConnectivity(ctx); err != nil {
			return fmt.Errorf("neo4j connect: %w", err)
		}
		reg := registry.New(driver, logger, registry.WithDatabase(cfg.neo4jDB))
		if err := reg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("neo4j schema: %w", err)
		}
		store = reg
		logger.Info("connected to Neo4j", "url", cfg.neo4jURL)
	}

	nc, err := nats.Connect(cfg.natsURL,
		nats.Name("vin-worker"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	w := newWorker(nc, svc, store, met, logger)
	if err := w.subscribe(cfg.queue); err != nil {
		return err
	}
	logger.Info("vin worker ready", "nats", cfg.natsURL, "queue", cfg.queue,
		"vpic", cfg.vpic, "registry", store != nil)

	<-ctx.Done()
	logger.Info("shutting down")
	if err := nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// breakerOpts guards registry writes. Rejected VINs are the caller's fault
// and do not count as failures.
func breakerOpts(logger *slog.Logger) resilience.BreakerOpts {
	opts := resilience.DefaultBreakerOpts
	opts.IsFailure = func(err error) bool { return !errors.Is(err, domain.ErrInvalidVIN) }
	opts.OnStateChange = func(from, to resilience.State) {
		logger.Warn("registry breaker state changed", "from", from.String(), "to", to.String())
	}
	return opts
}
