// Package decode turns raw VIN candidates into Reports. It runs the local
// decoder as a traced pipeline and optionally enriches valid VINs from an
// external source. Decoding never fails: invalid input yields Valid=false.
package decode

import (
	"context"
	"log/slog"
	"time"

	"github.com/WessleyAI/vindecoder/engine/vin"
	"github.com/WessleyAI/vindecoder/pkg/fn"
	"github.com/WessleyAI/vindecoder/pkg/metrics"
)

// MaxBatch is the largest batch DecodeBatch accepts in one call.
const MaxBatch = 100

// Enricher looks up vehicle attributes the VIN itself does not carry.
type Enricher interface {
	Enrich(ctx context.Context, vin string) (Enrichment, error)
}

// Enrichment is what an Enricher contributes to a Report.
type Enrichment struct {
	Make         string
	Model        string
	Manufacturer string
	ModelYear    int
	Source       string
}

// Options configures the decode service.
type Options struct {
	// Workers bounds DecodeBatch concurrency.
	Workers int
	// EnrichTimeout caps a single enrichment lookup.
	EnrichTimeout time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Workers:       8,
		EnrichTimeout: 5 * time.Second,
	}
}

// Service decodes VINs.
type Service struct {
	resolver vin.Resolver
	enricher Enricher
	opts     Options
	logger   *slog.Logger

	decoded  func(valid bool) *metrics.Counter
	enriched func(outcome string) *metrics.Counter
	duration *metrics.Histogram

	pipeline fn.Stage[string, Report]
}

// New creates a Service. resolver may be nil (default WMI table); enricher may
// be nil (no enrichment); met may be nil (metrics not exported).
func New(resolver vin.Resolver, enricher Enricher, opts Options, met *metrics.Registry, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if met == nil {
		met = metrics.New()
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultOptions().Workers
	}
	if opts.EnrichTimeout <= 0 {
		opts.EnrichTimeout = DefaultOptions().EnrichTimeout
	}
	s := &Service{
		resolver: resolver,
		enricher: enricher,
		opts:     opts,
		logger:   logger,
		decoded: func(valid bool) *metrics.Counter {
			v := "false"
			if valid {
				v = "true"
			}
			return met.Counter(metrics.WithLabels("vin_decoded_total", "valid", v), "VINs decoded")
		},
		enriched: func(outcome string) *metrics.Counter {
			return met.Counter(metrics.WithLabels("vin_enrich_total", "outcome", outcome), "Enrichment lookups")
		},
		duration: met.Histogram("vin_decode_duration_seconds", "Per-VIN decode time", nil),
	}
	s.pipeline = fn.Then(
		fn.Then(
			fn.TracedStage("vin.parse", fn.MapStage(s.parse)),
			fn.TracedStage("vin.describe", fn.MapStage(describe)),
		),
		fn.TracedStage[Report, Report]("vin.enrich", s.enrich),
	)
	return s
}

// Decode decodes a single candidate.
func (s *Service) Decode(ctx context.Context, raw string) Report {
	start := time.Now()
	defer s.duration.Since(start)

	r, err := s.pipeline(ctx, raw).Unwrap()
	if err != nil {
		// Stages only fail on cancellation; fall back to the local result.
		s.logger.Warn("decode pipeline failed", "err", err)
		r = describe(s.parse(raw))
	}
	s.decoded(r.Valid).Inc()
	return r
}

// DecodeBatch decodes raws concurrently, preserving order. At most MaxBatch
// candidates are decoded; the rest are ignored.
func (s *Service) DecodeBatch(ctx context.Context, raws []string) []Report {
	if len(raws) > MaxBatch {
		raws = raws[:MaxBatch]
	}
	return fn.ParMap(raws, s.opts.Workers, func(raw string) Report {
		return s.Decode(ctx, raw)
	})
}

func (s *Service) parse(raw string) *vin.Vin {
	if s.resolver == nil {
		return vin.New(raw)
	}
	return vin.New(raw, vin.WithResolver(s.resolver))
}

// enrich fills in attributes from the Enricher. Lookup failures are logged and
// the local report is kept.
func (s *Service) enrich(ctx context.Context, r Report) fn.Result[Report] {
	if s.enricher == nil || !r.Valid {
		return fn.Ok(r)
	}
	if err := ctx.Err(); err != nil {
		return fn.Err[Report](err)
	}

	ectx, cancel := context.WithTimeout(ctx, s.opts.EnrichTimeout)
	defer cancel()

	e, err := s.enricher.Enrich(ectx, r.VIN)
	if err != nil {
		s.enriched("error").Inc()
		s.logger.Warn("vin enrichment failed, continuing without", "vin", r.VIN, "err", err)
		return fn.Ok(r)
	}
	s.enriched("ok").Inc()
	return fn.Ok(r.merge(e))
}
