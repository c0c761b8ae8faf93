package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartcheck/heartcheck/internal/application/usecase"
	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/service"
)

const serviceName = "predictor"

// StatusSource reports the prediction engine state.
type StatusSource interface {
	Status() service.EngineStatus
}

// HealthHandler provides the operational HTTP endpoints of the prediction service.
type HealthHandler struct {
	engine    StatusSource
	report    *usecase.GetReport
	metrics   http.Handler
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health check handler. metrics may be nil.
func NewHealthHandler(engine StatusSource, report *usecase.GetReport, metrics http.Handler, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		engine:    engine,
		report:    report,
		metrics:   metrics,
		logger:    logger,
		startTime: time.Now(),
	}
}

// HealthResponse is the JSON response for health checks.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the JSON response for readiness checks.
type ReadinessResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Engine    string `json:"engine"`
	RunID     string `json:"run_id,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// RegisterRoutes registers the endpoints on the provided ServeMux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
	mux.HandleFunc("GET /reports/latest.png", h.LatestReport)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}
}

// Healthz handles liveness probe requests.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: serviceName,
		Uptime:  time.Since(h.startTime).String(),
	})
}

// Readyz reports ready only while an engine is being served.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	st := h.engine.Status()
	resp := ReadinessResponse{
		Status:    "ready",
		Service:   serviceName,
		Engine:    string(st.State),
		LastError: st.LastError,
	}
	code := http.StatusOK
	if st.State != service.EngineReady {
		resp.Status = "not_ready"
		code = http.StatusServiceUnavailable
	} else {
		resp.RunID = st.RunID.String()
	}
	writeJSON(w, code, resp)
}

// LatestReport serves the training report of the deployed run.
func (h *HealthHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	png, err := h.report.Execute(r.Context())
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, "no training report", http.StatusNotFound)
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "failed to read training report", "error", err)
		http.Error(w, "failed to read training report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(png)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
