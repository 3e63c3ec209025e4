package vpic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/WessleyAI/vindecoder/engine/vin"
	"github.com/WessleyAI/vindecoder/pkg/fn"
	"github.com/WessleyAI/vindecoder/pkg/resilience"
)

var (
	ErrInvalidVIN = errors.New("vpic: invalid VIN")
	ErrNotDecoded = errors.New("vpic: VIN not decoded")
)

// Client calls the vPIC DecodeVinValues endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	cache   Cache
	logger  *slog.Logger
}

// NewClient creates a Client. cache may be nil (no caching).
func NewClient(cfg Config, cache Cache, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = def.Retry
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	bopts := resilience.DefaultBreakerOpts
	bopts.IsFailure = func(err error) bool { return !errors.Is(err, ErrNotDecoded) }
	bopts.OnStateChange = func(from, to resilience.State) {
		logger.Warn("vpic circuit breaker", "from", from.String(), "to", to.String())
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.RateLimit), cfg.Burst),
		breaker: resilience.NewBreaker(bopts),
		cache:   cache,
		logger:  logger,
	}
}

// DecodeVIN returns vPIC's view of v. Only locally valid VINs are sent.
func (c *Client) DecodeVIN(ctx context.Context, v string) (Vehicle, error) {
	parsed := vin.New(v)
	if !parsed.Valid() {
		return Vehicle{}, fmt.Errorf("%w: %q", ErrInvalidVIN, v)
	}
	key := parsed.String()

	if c.cache != nil {
		if veh, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("vpic cache get failed", "vin", key, "err", err)
		} else if ok {
			return veh, nil
		}
	}

	veh, err := resilience.CallResult(c.breaker, ctx, func(ctx context.Context) fn.Result[Vehicle] {
		return fn.Retry(ctx, c.cfg.Retry, func(ctx context.Context) fn.Result[Vehicle] {
			if err := c.limiter.Wait(ctx); err != nil {
				return fn.Err[Vehicle](err)
			}
			return c.fetch(ctx, key)
		})
	}).Unwrap()
	if err != nil {
		return Vehicle{}, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, veh, c.cfg.CacheTTL); err != nil {
			c.logger.Warn("vpic cache set failed", "vin", key, "err", err)
		}
	}
	return veh, nil
}

func (c *Client) fetch(ctx context.Context, v string) fn.Result[Vehicle] {
	u := fmt.Sprintf("%s/DecodeVinValues/%s?format=json", c.cfg.BaseURL, url.PathEscape(v))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fn.Err[Vehicle](err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fn.Err[Vehicle](err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("vpic: unexpected status %d for %s", resp.StatusCode, v)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			err = fn.Permanent(err)
		}
		return fn.Err[Vehicle](err)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fn.Err[Vehicle](err)
	}

	var dr decodeResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return fn.Err[Vehicle](fn.Permanent(fmt.Errorf("vpic: decode response: %w", err)))
	}
	if len(dr.Results) == 0 {
		return fn.Err[Vehicle](fn.Permanent(ErrNotDecoded))
	}
	entry := dr.Results[0]
	if !entry.clean() && entry.Make == "" {
		return fn.Err[Vehicle](fn.Permanent(fmt.Errorf("%w: %s", ErrNotDecoded, entry.ErrorText)))
	}
	c.logger.Debug("vpic decode", "vin", v, "duration", time.Since(start), "error_code", entry.ErrorCode)
	return fn.Ok(entry.vehicle(v))
}
