// Package handler exposes the gateway's REST API and forwards each call to
// the prediction service.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"google.golang.org/grpc/metadata"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/pkg/auth"
	pb "github.com/heartcheck/heartcheck/pkg/heartcheckpb"
)

// Predictor is the subset of the prediction service client the routes use.
type Predictor interface {
	Predict(ctx context.Context, req *pb.PredictRequest) (*pb.Prediction, error)
	PredictBatch(ctx context.Context, req *pb.PredictBatchRequest) (*pb.PredictBatchResponse, error)
	Retrain(ctx context.Context, req *pb.RetrainRequest) (*pb.TrainingRun, error)
	RetrainFromStore(ctx context.Context, req *pb.RetrainFromStoreRequest) (*pb.TrainingRun, error)
	GetTrainingRun(ctx context.Context, req *pb.GetTrainingRunRequest) (*pb.TrainingRun, error)
	GetModelInfo(ctx context.Context) (*pb.ModelInfo, error)
}

// Options configures the routes.
type Options struct {
	// JWT guards the retrain routes when set.
	JWT *auth.JWTService

	MaxUploadBytes int64
	RequestTimeout time.Duration
	RetrainTimeout time.Duration

	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// Handler holds the REST handlers.
type Handler struct {
	predictor Predictor
	opts      Options
	logger    *slog.Logger
}

// New creates the REST handlers.
func New(predictor Predictor, opts Options, logger *slog.Logger) *Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.RetrainTimeout <= 0 {
		opts.RetrainTimeout = 5 * time.Minute
	}
	return &Handler{predictor: predictor, opts: opts, logger: logger}
}

// RegisterRoutes registers all REST API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.healthz)
	mux.HandleFunc("GET /readyz", h.readyz)
	if h.opts.Metrics != nil {
		mux.Handle("GET /metrics", h.opts.Metrics)
	}

	mux.HandleFunc("POST /api/v1/predict", h.predict)
	mux.HandleFunc("POST /api/v1/predict/batch", h.predictBatch)
	mux.HandleFunc("GET /api/v1/training-runs/latest", h.latestTrainingRun)
	mux.HandleFunc("GET /api/v1/training-runs/{id}", h.trainingRun)
	mux.HandleFunc("GET /api/v1/model", h.modelInfo)

	mux.Handle("POST /api/v1/retrain", h.guard(http.HandlerFunc(h.retrain)))
	mux.Handle("POST /api/v1/retrain/from-store", h.guard(http.HandlerFunc(h.retrainFromStore)))
}

// guard requires an admin or operator token and forwards it upstream.
func (h *Handler) guard(next http.Handler) http.Handler {
	if h.opts.JWT == nil {
		return next
	}
	forward := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := metadata.AppendToOutgoingContext(r.Context(), "authorization", r.Header.Get("Authorization"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
	return auth.RequireRoles(h.opts.JWT, auth.RoleAdmin, auth.RoleOperator)(forward)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports ready once the service is serving a trained model.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	info, err := h.predictor.GetModelInfo(ctx)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "reason": err.Error()})
		return
	}
	if info.State != "READY" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready", "engine": info.State})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "engine": info.State, "run_id": info.RunID})
}

// predict accepts the measurements as a flat JSON object.
func (h *Handler) predict(w http.ResponseWriter, r *http.Request) {
	var rec pb.Record
	if err := readJSON(r, &rec); err != nil {
		h.writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	resp, err := h.predictor.Predict(ctx, &pb.PredictRequest{Record: rec})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) predictBatch(w http.ResponseWriter, r *http.Request) {
	var req pb.PredictBatchRequest
	if err := readJSON(r, &req); err != nil {
		h.writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	resp, err := h.predictor.PredictBatch(ctx, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// retrain accepts a multipart upload in field "file". Optional form fields:
// format, model, policy.
func (h *Handler) retrain(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, apperr.InvalidArgument("upload exceeds %d bytes", h.opts.MaxUploadBytes))
			return
		}
		h.writeError(w, r, apperr.InvalidArgument("invalid multipart form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, apperr.InvalidArgument("form field \"file\" is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RetrainTimeout)
	defer cancel()

	resp, err := h.predictor.Retrain(ctx, &pb.RetrainRequest{
		Data:        data,
		Format:      r.FormValue("format"),
		Filename:    filepath.Base(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		ModelKind:   r.FormValue("model"),
		Policy:      r.FormValue("policy"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// retrainFromStore takes an optional JSON body {model_kind, policy}.
func (h *Handler) retrainFromStore(w http.ResponseWriter, r *http.Request) {
	var req pb.RetrainFromStoreRequest
	if r.ContentLength != 0 {
		if err := readJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			h.writeError(w, r, apperr.InvalidArgument("invalid request body: %v", err))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RetrainTimeout)
	defer cancel()

	resp, err := h.predictor.RetrainFromStore(ctx, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) latestTrainingRun(w http.ResponseWriter, r *http.Request) {
	h.getTrainingRun(w, r, "latest")
}

func (h *Handler) trainingRun(w http.ResponseWriter, r *http.Request) {
	h.getTrainingRun(w, r, r.PathValue("id"))
}

func (h *Handler) getTrainingRun(w http.ResponseWriter, r *http.Request, id string) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	resp, err := h.predictor.GetTrainingRun(ctx, &pb.GetTrainingRunRequest{ID: id})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) modelInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()

	resp, err := h.predictor.GetModelInfo(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
