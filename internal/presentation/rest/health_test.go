package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartcheck/heartcheck/internal/application/usecase"
	"github.com/heartcheck/heartcheck/internal/domain/encoding"
	"github.com/heartcheck/heartcheck/internal/domain/model"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/internal/domain/schema"
	"github.com/heartcheck/heartcheck/internal/domain/service"
	"github.com/heartcheck/heartcheck/internal/infrastructure/artifact"
	"github.com/heartcheck/heartcheck/internal/infrastructure/ml"
	"github.com/heartcheck/heartcheck/internal/infrastructure/report"
	"github.com/heartcheck/heartcheck/pkg/observability"
	"github.com/heartcheck/heartcheck/pkg/testutil"
)

type staticStatus struct {
	status service.EngineStatus
}

func (s staticStatus) Status() service.EngineStatus { return s.status }

func newMux(t *testing.T, st service.EngineStatus, store *artifact.Store, metrics http.Handler) *http.ServeMux {
	t.Helper()
	h := NewHealthHandler(staticStatus{status: st}, usecase.NewGetReport(store), metrics, observability.Discard())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func newStore(t *testing.T) *artifact.Store {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir(), ml.NewCodec(), observability.Discard())
	require.NoError(t, err)
	return store
}

func TestHealthz(t *testing.T) {
	mux := newMux(t, service.EngineStatus{State: service.EngineUninitialized}, newStore(t), nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name   string
		status service.EngineStatus
		want   int
		engine string
	}{
		{name: "uninitialized", status: service.EngineStatus{State: service.EngineUninitialized}, want: http.StatusServiceUnavailable, engine: "UNINITIALIZED"},
		{name: "failed", status: service.EngineStatus{State: service.EngineFailed, LastError: "artifact model.bin is corrupt"}, want: http.StatusServiceUnavailable, engine: "FAILED"},
		{name: "ready", status: service.EngineStatus{State: service.EngineReady, RunID: testutil.TestRunID1}, want: http.StatusOK, engine: "READY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newMux(t, tt.status, newStore(t), nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			assert.Equal(t, tt.want, rec.Code)

			var resp ReadinessResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.engine, resp.Engine)
			assert.Equal(t, tt.status.LastError, resp.LastError)
		})
	}
}

func TestLatestReport(t *testing.T) {
	store := newStore(t)
	mux := newMux(t, service.EngineStatus{State: service.EngineReady}, store, nil)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/latest.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	metrics := model.Metrics{Accuracy: 0.8, Precision: 0.75, Recall: 0.7, F1Score: 0.72}
	png, err := report.NewRenderer().RenderMetrics(metrics)
	require.NoError(t, err)
	enc, err := encoding.Fit(testutil.HeartDataset(60, 1))
	require.NoError(t, err)
	require.NoError(t, store.Commit(context.Background(), port.ArtifactBundle{
		RunID:    testutil.TestRunID1,
		Encoders: enc,
		Model:    &ml.LogisticRegression{Weights: make([]float64, schema.Width)},
		Metrics:  metrics,
		Report:   png,
	}))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/latest.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("# metrics")) })
	mux := newMux(t, service.EngineStatus{}, newStore(t), metrics)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, "# metrics", rec.Body.String())
}
