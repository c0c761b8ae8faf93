package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartcheck/heartcheck/internal/domain/apperr"
	"github.com/heartcheck/heartcheck/internal/domain/port"
	"github.com/heartcheck/heartcheck/pkg/observability"
	"github.com/heartcheck/heartcheck/pkg/testutil"
)

func TestEngineHolder_NotReadyUntilLoaded(t *testing.T) {
	h := NewEngineHolder(func(context.Context) (*Engine, error) { return nil, apperr.ErrNotFound }, observability.Discard())

	_, err := h.Current()
	assert.ErrorIs(t, err, apperr.ErrEngineNotReady)
	assert.Equal(t, EngineUninitialized, h.Status().State)

	assert.ErrorIs(t, h.Reload(context.Background()), apperr.ErrNotFound)
	assert.Equal(t, EngineFailed, h.Status().State)
}

func TestEngineHolder_ReloadSwapsAndKeepsOnFailure(t *testing.T) {
	good := newTestEngine(t, &fixedModel{prediction: 1})
	var fail atomic.Bool
	h := NewEngineHolder(func(context.Context) (*Engine, error) {
		if fail.Load() {
			return nil, &apperr.ArtifactCorruptError{Artifact: "model.bin", Reason: "checksum mismatch"}
		}
		return good, nil
	}, observability.Discard())

	require.NoError(t, h.Reload(context.Background()))
	st := h.Status()
	assert.Equal(t, EngineReady, st.State)
	assert.Equal(t, testutil.TestRunID1, st.RunID)

	fail.Store(true)
	err := h.Reload(context.Background())
	assert.Equal(t, apperr.KindArtifactCorrupt, apperr.KindOf(err))

	cur, err := h.Current()
	require.NoError(t, err)
	assert.Same(t, good, cur)
	assert.Equal(t, EngineReady, h.Status().State)
	assert.Contains(t, h.Status().LastError, "checksum mismatch")
}

func TestEngineHolder_CorruptAtStartupFails(t *testing.T) {
	h := NewEngineHolder(func(context.Context) (*Engine, error) {
		return NewEngine(port.ArtifactBundle{})
	}, observability.Discard())

	err := h.Reload(context.Background())
	assert.Equal(t, apperr.KindArtifactCorrupt, apperr.KindOf(err))
	assert.Equal(t, EngineFailed, h.Status().State)
	_, err = h.Current()
	assert.True(t, errors.Is(err, apperr.ErrEngineNotReady))
}

func TestEngineHolder_ConcurrentReadsDuringSwap(t *testing.T) {
	a := newTestEngine(t, &fixedModel{prediction: 0})
	b := newTestEngine(t, &fixedModel{prediction: 1})
	h := NewEngineHolder(nil, observability.Discard())
	h.Swap(a)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				e, err := h.Current()
				if assert.NoError(t, err) {
					assert.True(t, e == a || e == b)
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		if j%2 == 0 {
			h.Swap(b)
		} else {
			h.Swap(a)
		}
	}
	wg.Wait()
}
