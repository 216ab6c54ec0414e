// Package server exposes the batch-trigger HTTP endpoints. Batch endpoints
// return aggregate counts; partial failures never surface as 5xx, only an
// unreachable store does.
package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"jobportal/ingestion-service/internal/ingest"
	"jobportal/ingestion-service/internal/refine"
)

// Extractor runs one extraction batch.
type Extractor interface {
	ExtractAll(ctx context.Context) (ingest.ExtractStats, error)
}

// Refiner runs one refinement batch.
type Refiner interface {
	RefineAll(ctx context.Context) (refine.Stats, error)
}

// Syncer runs one sync batch.
type Syncer interface {
	SyncAll(ctx context.Context) (ingest.SyncBatchStats, error)
}

// StatsReader reports sync progress over the record table.
type StatsReader interface {
	Stats(ctx context.Context) (ingest.SyncStats, error)
}

// Handler wires the pipeline stages to HTTP routes.
type Handler struct {
	Extract Extractor
	Refine  Refiner
	Sync    Syncer
	Stats   StatsReader
}

func NewHandler(extract Extractor, refiner Refiner, sync Syncer, stats StatsReader) *Handler {
	return &Handler{Extract: extract, Refine: refiner, Sync: sync, Stats: stats}
}

// Register attaches all routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /ingestion/extract", h.handleExtract)
	mux.HandleFunc("POST /ingestion/refine", h.handleRefine)
	mux.HandleFunc("POST /ingestion/sync", h.handleSync)
	mux.HandleFunc("POST /ingestion/run", h.handleRun)
	mux.HandleFunc("GET /ingestion/stats", h.handleStats)
	mux.HandleFunc("GET /health", h.handleHealth)
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Extract.ExtractAll(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonOK(w, stats)
}

func (h *Handler) handleRefine(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Refine.RefineAll(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonOK(w, stats)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Sync.SyncAll(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonOK(w, stats)
}

// handleRun drives the full pipeline. A stage that aborts stops the run;
// stages already completed still report their counts.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{}

	extract, err := h.Extract.ExtractAll(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out["extract"] = extract

	refined, err := h.Refine.RefineAll(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out["refine"] = refined

	synced, err := h.Sync.SyncAll(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out["sync"] = synced

	jsonOK(w, out)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.Stats(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonOK(w, stats)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonOK(w, map[string]string{"status": "ok"})
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[server] encode response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
