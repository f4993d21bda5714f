package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/praneshkm/evconv/internal/config"
	"github.com/praneshkm/evconv/internal/convert"
	"github.com/praneshkm/evconv/internal/engine"
	"github.com/praneshkm/evconv/internal/metrics"
	"github.com/praneshkm/evconv/internal/notification"
)

const maxBatchSize = 100

// Handler holds all HTTP handler dependencies.
type Handler struct {
	proc   *engine.Processor
	loader *config.Loader
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(proc *engine.Processor, loader *config.Loader) http.Handler {
	h := &Handler{proc: proc, loader: loader, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/notifications", h.ingestNotification)
	h.mux.HandleFunc("POST /v1/notifications/batch", h.ingestBatch)
	h.mux.HandleFunc("GET /v1/definitions", h.listDefinitions)
	h.mux.HandleFunc("POST /v1/definitions/reload", h.reloadDefinitions)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/notifications — synchronous single-notification conversion.
func (h *Handler) ingestNotification(w http.ResponseWriter, r *http.Request) {
	var body notification.Body
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if body.EventType() == "" {
		writeError(w, http.StatusBadRequest, "event_type is required")
		return
	}
	if body.MessageID() == "" {
		body["message_id"] = uuid.New().String()
	}

	res, err := h.proc.ProcessSync(r.Context(), body)
	if err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	if res.Error != "" {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// POST /v1/notifications/batch — async batch ingestion (up to 100).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var bodies []notification.Body
	if err := json.NewDecoder(r.Body).Decode(&bodies); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(bodies) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one notification")
		return
	}
	if len(bodies) > maxBatchSize {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("batch size %d exceeds max %d", len(bodies), maxBatchSize))
		return
	}

	jobID := uuid.New().String()
	queued := 0
	for _, body := range bodies {
		if body.MessageID() == "" {
			body["message_id"] = uuid.New().String()
		}
		if h.proc.ProcessAsync(body) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   jobID,
		"total":    len(bodies),
		"queued":   queued,
		"rejected": len(bodies) - queued,
	})
}

// GET /v1/definitions — list the loaded event definitions.
func (h *Handler) listDefinitions(w http.ResponseWriter, r *http.Request) {
	cfg := h.loader.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"drop_unmatched": cfg.DropUnmatched,
		"definitions":    cfg.Definitions,
		"rules":          h.proc.RuleCount(),
	})
}

// POST /v1/definitions/reload — hot-reload definitions from disk.
func (h *Handler) reloadDefinitions(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	conv, err := convert.NewEngine(cfg.Definitions, cfg.DropUnmatched)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.proc.SwapEngine(conv)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":    true,
		"definitions": len(cfg.Definitions),
		"rules":       conv.RuleCount(),
	})
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the conversion queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.proc.QueueUtilization()
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
	})
}
