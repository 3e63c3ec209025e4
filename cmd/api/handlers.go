package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/WessleyAI/vindecoder/engine/decode"
	"github.com/WessleyAI/vindecoder/engine/domain"
	"github.com/WessleyAI/vindecoder/engine/registry"
	"github.com/WessleyAI/vindecoder/engine/vin"
	"github.com/WessleyAI/vindecoder/pkg/metrics"
	"github.com/WessleyAI/vindecoder/pkg/repo"
)

const maxBodyBytes = 1 << 20

// vehicleStore is the read side of the registry.
type vehicleStore interface {
	Get(ctx context.Context, vin string) (registry.Vehicle, error)
	List(ctx context.Context, opts repo.ListOpts) ([]registry.Vehicle, error)
	TopManufacturers(ctx context.Context, limit int) ([]registry.ManufacturerCount, error)
}

// decoder is what the handlers need from decode.Service.
type decoder interface {
	Decode(ctx context.Context, raw string) decode.Report
	DecodeBatch(ctx context.Context, raws []string) []decode.Report
}

// routes builds the API mux. resolver backs vehicle validation and may be nil
// for the built-in WMI table.
func routes(svc decoder, resolver vin.Resolver, store vehicleStore, met *metrics.Registry, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/vin/{vin}", handleDecode(svc))
	mux.HandleFunc("POST /api/vin/batch", handleBatch(svc))
	mux.HandleFunc("POST /api/vehicles/validate", handleValidateVehicle(resolver))
	if store != nil {
		mux.HandleFunc("GET /api/vehicles", handleListVehicles(store, logger))
		mux.HandleFunc("GET /api/vehicles/{vin}", handleGetVehicle(store, logger))
		mux.HandleFunc("GET /api/manufacturers/top", handleTopManufacturers(store, logger))
	}
	mux.Handle("GET /metrics", met.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Handlers ---

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDecode always answers 200; the report's valid field carries the verdict.
func handleDecode(svc decoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Decode(r.Context(), r.PathValue("vin")))
	}
}

// BatchResponse is the JSON response for POST /api/vin/batch.
type BatchResponse struct {
	Reports []decode.Report `json:"reports"`
	Valid   int             `json:"valid"`
	Invalid int             `json:"invalid"`
}

func handleBatch(svc decoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req decode.BatchRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.VINs) == 0 {
			writeError(w, http.StatusBadRequest, "vins is required")
			return
		}
		if len(req.VINs) > decode.MaxBatch {
			writeError(w, http.StatusBadRequest, "at most "+strconv.Itoa(decode.MaxBatch)+" vins per batch")
			return
		}

		resp := BatchResponse{Reports: svc.DecodeBatch(r.Context(), req.VINs)}
		for _, rep := range resp.Reports {
			if rep.Valid {
				resp.Valid++
			} else {
				resp.Invalid++
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ValidateResponse is the JSON response for POST /api/vehicles/validate.
type ValidateResponse struct {
	Valid  bool   `json:"valid"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

func handleValidateVehicle(resolver vin.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var v domain.Vehicle
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		err := domain.ValidateVehicleWith(v, resolver)
		if err == nil {
			writeJSON(w, http.StatusOK, ValidateResponse{Valid: true})
			return
		}
		resp := ValidateResponse{Error: err.Error()}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			resp.Field = ve.Field
			resp.Reason = ve.Wrapped.Error()
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	}
}

func handleGetVehicle(store vehicleStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := store.Get(r.Context(), r.PathValue("vin"))
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, v)
		case errors.Is(err, domain.ErrInvalidVIN):
			writeError(w, http.StatusBadRequest, err.Error())
		case registry.IsNotFound(err):
			writeError(w, http.StatusNotFound, "vehicle not found")
		default:
			logger.Error("registry get failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
	}
}

func handleListVehicles(store vehicleStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := repo.ListOpts{
			Offset: queryInt(r, "offset", 0),
			Limit:  queryInt(r, "limit", repo.DefaultListLimit),
		}
		vs, err := store.List(r.Context(), opts)
		if err != nil {
			logger.Error("registry list failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if vs == nil {
			vs = []registry.Vehicle{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"vehicles": vs, "offset": opts.Offset})
	}
}

func handleTopManufacturers(store vehicleStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		top, err := store.TopManufacturers(r.Context(), queryInt(r, "limit", 10))
		if err != nil {
			logger.Error("registry top manufacturers failed", "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if top == nil {
			top = []registry.ManufacturerCount{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"manufacturers": top})
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if n, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && n >= 0 {
		return n
	}
	return fallback
}
