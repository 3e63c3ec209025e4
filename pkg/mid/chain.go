// Package mid provides the HTTP middleware the VIN API is served through.
package mid

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain wraps h so that mw[0] sees the request first.
func Chain(h http.Handler, mw ...Middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// recorder remembers the status and body size written through it.
type recorder struct {
	http.ResponseWriter
	status  int
	written int64
	wrote   bool
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (w *recorder) WriteHeader(code int) {
	if !w.wrote {
		w.status = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *recorder) Write(b []byte) (int, error) {
	w.wrote = true
	n, err := w.ResponseWriter.Write(b)
	w.written += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *recorder) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// route returns the mux pattern that served r. ServeMux sets it on the request
// it was handed, so it is only visible to middleware that did not replace r.
func route(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

func requestID(w http.ResponseWriter, r *http.Request) string {
	if id := w.Header().Get(RequestIDHeader); id != "" {
		return id
	}
	return r.Header.Get(RequestIDHeader)
}

// Logger logs each request once it completes. 5xx responses log at Error and
// 4xx at Warn.
func Logger(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}
			log.LogAttrs(r.Context(), level, "request",
				slog.String("method", r.Method),
				slog.String("route", route(r)),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Int64("bytes", rec.written),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", requestID(w, r)),
			)
		})
	}
}

// Recover turns a handler panic into a JSON 500 carrying the request ID. If the
// handler already started the response, the connection is left as is.
func Recover(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newRecorder(w)
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				id := requestID(w, r)
				log.Error("panic recovered",
					"err", fmt.Sprint(v),
					"route", route(r),
					"request_id", id,
					"stack", string(debug.Stack()),
				)
				if rec.wrote {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{
					"error":      "internal server error",
					"request_id": id,
				})
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// corsMethods lists the methods CORS checks a preflight path against.
var corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

// CORS allows cross-origin calls from origins, a comma-separated list or "*".
// Preflight requests are answered from mux: the allowed methods are those
// mux has a route for at the requested path, and a path with no routes gets
// 404.
func CORS(origins string, mux *http.ServeMux) Middleware {
	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	wildcard := slices.Contains(allowed, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(allowed, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			if r.Method != http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			methods := routeMethods(mux, r)
			if len(methods) == 0 {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(append(methods, http.MethodOptions), ", "))
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader+", Retry-After")
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

// routeMethods returns the methods mux routes for r's path.
func routeMethods(mux *http.ServeMux, r *http.Request) []string {
	var out []string
	for _, m := range corsMethods {
		c := r.Clone(r.Context())
		c.Method = m
		if _, pattern := mux.Handler(c); pattern != "" {
			out = append(out, m)
		}
	}
	return out
}

// OTel traces each request. Spans are named after the route that served the
// request, and /metrics scrapes are not traced. It replaces the request, so
// place it outermost.
func OTel(serviceName string) Middleware {
	return func(next http.Handler) http.Handler {
		named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			span := trace.SpanFromContext(r.Context())
			span.SetName(spanName(r))
			span.SetAttributes(attribute.String("http.route", route(r)))
		})
		return otelhttp.NewHandler(named, serviceName,
			otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/metrics" }),
		)
	}
}

func spanName(r *http.Request) string {
	if r.Pattern == "" {
		return r.Method + " unmatched"
	}
	if strings.HasPrefix(r.Pattern, r.Method+" ") {
		return r.Pattern
	}
	return r.Method + " " + r.Pattern
}
