package ml

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
	"resumatch/internal/errors"
)

// Handle lazily loads a model on first use and caches it for the process.
// Concurrent first callers share one load; a failed load is not cached, so
// the next call tries again.
type Handle struct {
	kind   Kind
	loader Loader
	logger *errors.Logger

	group    singleflight.Group
	loaded   atomic.Pointer[Predictor]
	attempts atomic.Int64
}

// NewHandle creates a handle for a model of the given kind.
func NewHandle(kind Kind, loader Loader, logger *errors.Logger) *Handle {
	return &Handle{kind: kind, loader: loader, logger: logger}
}

func (h *Handle) Kind() Kind {
	return h.kind
}

// Get returns the loaded predictor, loading it if needed.
func (h *Handle) Get(ctx context.Context) (Predictor, error) {
	if h == nil || h.loader == nil {
		return nil, errors.NewBackendUnavailable("ml backend not configured", nil)
	}
	if p := h.loaded.Load(); p != nil {
		return *p, nil
	}

	v, err, _ := h.group.Do("load", func() (any, error) {
		if p := h.loaded.Load(); p != nil {
			return *p, nil
		}
		h.attempts.Add(1)
		pred, err := h.loader.Load(ctx)
		if err != nil {
			return nil, err
		}
		if pred == nil {
			return nil, fmt.Errorf("loader returned no predictor")
		}
		h.loaded.Store(&pred)
		if h.logger != nil {
			h.logger.Info("ML model loaded", "kind", h.kind, "attempt", h.attempts.Load())
		}
		return pred, nil
	})
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("ML model load failed", "kind", h.kind, "error", err.Error())
		}
		return nil, errors.NewBackendUnavailable("failed to load ml model", err).
			WithContext("kind", string(h.kind))
	}
	return v.(Predictor), nil
}

// Loaded reports whether a model is currently cached.
func (h *Handle) Loaded() bool {
	return h != nil && h.loaded.Load() != nil
}

// Stats reports load state for /stats.
func (h *Handle) Stats() map[string]any {
	if h == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"enabled":       h.loader != nil,
		"kind":          h.kind,
		"loaded":        h.Loaded(),
		"load_attempts": h.attempts.Load(),
	}
}
