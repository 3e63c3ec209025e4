package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WessleyAI/vindecoder/engine/decode"
	"github.com/WessleyAI/vindecoder/engine/registry"
	"github.com/WessleyAI/vindecoder/pkg/metrics"
	"github.com/WessleyAI/vindecoder/pkg/natsutil"
	"github.com/WessleyAI/vindecoder/pkg/resilience"
)

type saver interface {
	Save(ctx context.Context, r decode.Report) (registry.Vehicle, error)
}

type worker struct {
	nc      *nats.Conn
	svc     *decode.Service
	store   saver
	breaker *resilience.Breaker
	logger  *slog.Logger
	now     func() time.Time

	published func(outcome string) *metrics.Counter
	saved     func(outcome string) *metrics.Counter
}

func newWorker(nc *nats.Conn, svc *decode.Service, store saver, met *metrics.Registry, logger *slog.Logger) *worker {
	return &worker{
		nc:      nc,
		svc:     svc,
		store:   store,
		breaker: resilience.NewBreaker(breakerOpts(logger)),
		logger:  logger,
		now:     time.Now,
		published: func(outcome string) *metrics.Counter {
			return met.Counter(metrics.WithLabels("vin_worker_events_total", "outcome", outcome), "Decoded events published")
		},
		saved: func(outcome string) *metrics.Counter {
			return met.Counter(metrics.WithLabels("vin_worker_registry_writes_total", "outcome", outcome), "Registry writes")
		},
	}
}

func (w *worker) subscribe(queue string) error {
	if _, err := natsutil.Handle(w.nc, decode.RequestSubject, queue, w.logger, w.handleDecode); err != nil {
		return fmt.Errorf("subscribe %s: %w", decode.RequestSubject, err)
	}
	if _, err := natsutil.Handle(w.nc, decode.BatchSubject, queue, w.logger, w.handleBatch); err != nil {
		return fmt.Errorf("subscribe %s: %w", decode.BatchSubject, err)
	}
	return nil
}

func (w *worker) handleDecode(ctx context.Context, req decode.Request) (decode.Report, error) {
	r := w.svc.Decode(ctx, req.VIN)
	w.record(ctx, r)
	return r, nil
}

func (w *worker) handleBatch(ctx context.Context, req decode.BatchRequest) ([]decode.Report, error) {
	if len(req.VINs) == 0 {
		return nil, errors.New("vins is required")
	}
	if len(req.VINs) > decode.MaxBatch {
		return nil, fmt.Errorf("at most %d vins per batch, got %d", decode.MaxBatch, len(req.VINs))
	}
	reports := w.svc.DecodeBatch(ctx, req.VINs)
	for _, r := range reports {
		w.record(ctx, r)
	}
	return reports, nil
}

// record announces and stores a valid report. Failures are logged; the
// requester still gets its report.
func (w *worker) record(ctx context.Context, r decode.Report) {
	if !r.Valid {
		return
	}

	if err := natsutil.Publish(ctx, w.nc, decode.DecodedSubject, decode.NewDecodedEvent(r, w.now())); err != nil {
		w.published("error").Inc()
		w.logger.Warn("publish decoded event failed", "vin", r.VIN, "err", err)
	} else {
		w.published("ok").Inc()
	}

	if w.store == nil {
		return
	}
	err := w.breaker.Call(ctx, func(ctx context.Context) error {
		_, err := w.store.Save(ctx, r)
		return err
	})
	if err != nil {
		w.saved("error").Inc()
		w.logger.Warn("registry save failed", "vin", r.VIN, "err", err)
		return
	}
	w.saved("ok").Inc()
}
