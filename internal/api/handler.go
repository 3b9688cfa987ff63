package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/boa/internal/config"
	"github.com/gyaneshwarpardhi/boa/internal/engine"
	"github.com/gyaneshwarpardhi/boa/internal/fitness"
	"github.com/gyaneshwarpardhi/boa/internal/metrics"
	"github.com/gyaneshwarpardhi/boa/internal/store"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng      *engine.Engine
	loader   *config.Loader
	registry *fitness.Registry
	mux      *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(eng *engine.Engine, loader *config.Loader, reg *fitness.Registry) http.Handler {
	h := &Handler{eng: eng, loader: loader, registry: reg, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/runs", h.submitRun)
	h.mux.HandleFunc("GET /v1/runs", h.listRuns)
	h.mux.HandleFunc("GET /v1/runs/{id}", h.getRun)
	h.mux.HandleFunc("GET /v1/fitness", h.listFitness)
	h.mux.HandleFunc("GET /v1/config", h.getConfig)
	h.mux.HandleFunc("POST /v1/config/reload", h.reloadConfig)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/runs: the body holds the run parameters that differ from the
// current defaults. ?wait=true blocks until the run finishes.
func (h *Handler) submitRun(w http.ResponseWriter, r *http.Request) {
	rc := h.eng.Defaults()
	if err := json.NewDecoder(r.Body).Decode(&rc); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		rec, err := h.eng.RunSync(r.Context(), rc)
		if err != nil {
			writeError(w, submitStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rec)
		return
	}

	rec, err := h.eng.Submit(rc)
	if err != nil {
		writeError(w, submitStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":     rec.RunID,
		"status": rec.Status,
	})
}

func submitStatus(err error) int {
	switch {
	case errors.Is(err, engine.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, engine.ErrInvalidRun):
		return http.StatusBadRequest
	case engine.IsCancelled(err):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// GET /v1/runs: all run records, oldest first.
func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	recs, err := h.eng.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  recs,
		"count": len(recs),
	})
}

// GET /v1/runs/{id}
func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	rec, err := h.eng.Get(r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("run %q not found", r.PathValue("id")))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GET /v1/fitness: registered fitness functions.
func (h *Handler) listFitness(w http.ResponseWriter, r *http.Request) {
	out := make([]map[string]string, 0)
	for _, name := range h.registry.Names() {
		f, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		out = append(out, map[string]string{"name": f.Name(), "description": f.Description()})
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /v1/config: the loaded file and the defaults new runs start from.
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":  cfg.Version,
		"path":     h.loader.Path(),
		"defaults": h.eng.Defaults(),
	})
}

// POST /v1/config/reload: re-read the config file and swap the run defaults.
func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := config.Validate(cfg, h.registry.Check); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.eng.SwapDefaults(cfg.Run)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"defaults": cfg.Run,
	})
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the run queue is more than 80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
		"active_runs":       h.eng.Active(),
	})
}
