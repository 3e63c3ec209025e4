package mid

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestChainOrder(t *testing.T) {
	var order []int
	mw := func(n int) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, n)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, 0)
	}), mw(1), mw(2), mw(3))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if len(order) != 4 || order[0] != 1 || order[1] != 2 || order[2] != 3 || order[3] != 0 {
		t.Fatalf("expected [1,2,3,0], got %v", order)
	}
}

func TestLoggerLevelsByStatus(t *testing.T) {
	cases := map[int]string{
		http.StatusCreated:             "level=INFO",
		http.StatusNotFound:            "level=WARN",
		http.StatusInternalServerError: "level=ERROR",
	}
	for status, want := range cases {
		var buf bytes.Buffer
		log := slog.New(slog.NewTextHandler(&buf, nil))
		h := Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte("abc"))
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

		if rec.Code != status {
			t.Fatalf("expected %d, got %d", status, rec.Code)
		}
		out := buf.String()
		if !strings.Contains(out, want) || !strings.Contains(out, "bytes=3") {
			t.Fatalf("status %d: unexpected log line %q", status, out)
		}
	}
}

func TestRecoverRespondsJSON(t *testing.T) {
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), Recover(discard), RequestID())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["request_id"] != "req-1" || body["error"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRecoverAfterWriteKeepsResponse(t *testing.T) {
	h := Recover(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusAccepted || rec.Body.Len() != 0 {
		t.Fatalf("response already started, got %d %q", rec.Code, rec.Body)
	}
}

func TestRecoverRepanicsAbort(t *testing.T) {
	h := Recover(discard)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if recover() != http.ErrAbortHandler {
			t.Fatal("ErrAbortHandler must propagate")
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func testMux() *http.ServeMux {
	mux := http.NewServeMux()
	noop := func(w http.ResponseWriter, r *http.Request) {}
	mux.HandleFunc("GET /api/vin/{vin}", noop)
	mux.HandleFunc("POST /api/vin/batch", noop)
	return mux
}

func TestCORSPreflightMethodsFromRoutes(t *testing.T) {
	mux := testMux()
	h := Chain(mux, CORS("*", mux))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/vin/batch", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Fatalf("batch methods = %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS origin header")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/api/vin/1HGCM82633A004352", nil))
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, OPTIONS" {
		t.Fatalf("decode methods = %q", got)
	}
}

func TestCORSPreflightUnknownPath(t *testing.T) {
	mux := testMux()
	rec := httptest.NewRecorder()
	Chain(mux, CORS("*", mux)).ServeHTTP(rec, httptest.NewRequest("OPTIONS", "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCORSOriginList(t *testing.T) {
	mux := testMux()
	h := Chain(mux, CORS("https://a.example, https://b.example", mux))

	for origin, want := range map[string]string{
		"https://b.example":    "https://b.example",
		"https://evil.example": "",
		"":                     "",
	} {
		req := httptest.NewRequest("GET", "/api/vin/X", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected pass-through 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
			t.Fatalf("origin %q: allow-origin = %q, want %q", origin, got, want)
		}
	}
}

func TestLoggerSeesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/vin/{vin}", func(w http.ResponseWriter, r *http.Request) {})

	var seen string
	spy := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			seen = route(r)
		})
	}
	h := Chain(mux, Logger(discard), spy)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/vin/1HGCM82633A004352", nil))

	if seen != "GET /api/vin/{vin}" {
		t.Fatalf("route = %q", seen)
	}
}

func TestRouteUnmatched(t *testing.T) {
	if got := route(httptest.NewRequest("GET", "/", nil)); got != "unmatched" {
		t.Fatalf("got %q", got)
	}
}

func TestSpanName(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/vin/X", nil)
	if got := spanName(r); got != "GET unmatched" {
		t.Fatalf("got %q", got)
	}
	r.Pattern = "GET /api/vin/{vin}"
	if got := spanName(r); got != "GET /api/vin/{vin}" {
		t.Fatalf("got %q", got)
	}
	r.Pattern = "/metrics"
	if got := spanName(r); got != "GET /metrics" {
		t.Fatalf("got %q", got)
	}
}

func TestRecorderFirstStatusWins(t *testing.T) {
	rec := newRecorder(httptest.NewRecorder())
	rec.WriteHeader(http.StatusNotFound)
	rec.WriteHeader(http.StatusInternalServerError)
	if rec.status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.status)
	}
}

func TestRecorderImplicitOKAndBytes(t *testing.T) {
	rec := newRecorder(httptest.NewRecorder())
	rec.Write([]byte("hi"))
	rec.Write([]byte("!"))
	if rec.status != http.StatusOK || !rec.wrote || rec.written != 3 {
		t.Fatalf("unexpected recorder state %+v", rec)
	}
}

func TestOTelNamesSpanAfterRoute(t *testing.T) {
	mux := testMux()
	var pattern string
	mux.HandleFunc("GET /teapot", func(w http.ResponseWriter, r *http.Request) {
		pattern = r.Pattern
		w.WriteHeader(http.StatusTeapot)
	})
	rec := httptest.NewRecorder()
	Chain(mux, OTel("test")).ServeHTTP(rec, httptest.NewRequest("GET", "/teapot", nil))
	if rec.Code != http.StatusTeapot || pattern != "GET /teapot" {
		t.Fatalf("expected 418 via GET /teapot, got %d %q", rec.Code, pattern)
	}
}
