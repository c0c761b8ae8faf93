package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
)

// EngineState is the lifecycle of the served engine.
type EngineState string

const (
	EngineUninitialized EngineState = "UNINITIALIZED"
	EngineReady         EngineState = "READY"
	EngineFailed        EngineState = "FAILED"
)

// EngineLoader builds an engine from whatever artifacts are currently committed.
type EngineLoader func(ctx context.Context) (*Engine, error)

// EngineStatus is a point-in-time view for readiness probes.
type EngineStatus struct {
	State     EngineState
	RunID     uuid.UUID
	LastError string
}

// EngineHolder publishes the current engine to request handlers. Readers
// never block; a reload builds a complete new engine before swapping it in.
type EngineHolder struct {
	current atomic.Pointer[Engine]
	loader  EngineLoader
	logger  *slog.Logger
	group   singleflight.Group

	mu      sync.Mutex
	state   EngineState
	lastErr error
}

// NewEngineHolder creates an empty holder.
func NewEngineHolder(loader EngineLoader, logger *slog.Logger) *EngineHolder {
	return &EngineHolder{loader: loader, logger: logger, state: EngineUninitialized}
}

// Current returns the served engine or ErrEngineNotReady.
func (h *EngineHolder) Current() (*Engine, error) {
	if e := h.current.Load(); e != nil {
		return e, nil
	}
	return nil, apperr.ErrEngineNotReady
}

// Swap installs e as the served engine.
func (h *EngineHolder) Swap(e *Engine) {
	h.current.Store(e)
	h.mu.Lock()
	h.state = EngineReady
	h.lastErr = nil
	h.mu.Unlock()
	h.logger.Info("prediction engine swapped", "run_id", e.RunID(), "model", e.Model().Kind().String())
}

// Reload rebuilds the engine from committed artifacts. Concurrent calls share
// one load. When a previous engine is being served and the load fails, that
// engine stays in place; otherwise the holder moves to FAILED.
func (h *EngineHolder) Reload(ctx context.Context) error {
	_, err, _ := h.group.Do("reload", func() (any, error) {
		e, err := h.loader(ctx)
		if err != nil {
			h.recordFailure(err)
			return nil, err
		}
		if cur := h.current.Load(); cur != nil && cur.RunID() == e.RunID() {
			h.logger.Debug("engine already current", "run_id", e.RunID())
			return nil, nil
		}
		h.Swap(e)
		return nil, nil
	})
	return err
}

func (h *EngineHolder) recordFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastErr = err
	if h.current.Load() != nil {
		h.logger.Error("engine reload failed, keeping current engine", "error", err)
		return
	}
	h.state = EngineFailed
	if errors.Is(err, apperr.ErrNotFound) {
		h.logger.Warn("no trained model artifacts yet; waiting for a retrain")
		return
	}
	h.logger.Error("engine initialization failed", "error", err, "kind", apperr.KindOf(err))
}

// Status reports the holder state.
func (h *EngineHolder) Status() EngineStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	st := EngineStatus{State: h.state}
	if h.lastErr != nil {
		st.LastError = h.lastErr.Error()
	}
	if e := h.current.Load(); e != nil {
		st.RunID = e.RunID()
	}
	return st
}
