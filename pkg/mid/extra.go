package mid

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/WessleyAI/vindecoder/pkg/metrics"
	"github.com/WessleyAI/vindecoder/pkg/resilience"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// RequestID ensures every request has an X-Request-ID, generating one when
// the client sent none, and echoes it on the response.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 128 {
				id = uuid.NewString()
				r.Header.Set(RequestIDHeader, id)
			}
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics counts requests by route and status and records their latency.
func Metrics(reg *metrics.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := newRecorder(w)
			next.ServeHTTP(sw, r)
			rt := route(r)
			reg.Counter(metrics.WithLabels("http_requests_total", "route", rt, "code", strconv.Itoa(sw.status)),
				"HTTP requests served").Inc()
			reg.Histogram(metrics.WithLabels("http_request_duration_seconds", "route", rt),
				"HTTP request latency", nil).Since(start)
		})
	}
}

// RateLimit rejects requests with 429 once the client's bucket is empty.
// Clients are keyed by remote IP. Retry-After tells the client when its
// bucket holds a token again.
func RateLimit(l *resilience.KeyedLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientIP(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(int(l.RetryAfter()/time.Second)))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
