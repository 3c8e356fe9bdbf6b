package ml

import (
	"context"
	"math"
	"time"

	"resumatch/internal/errors"
)

// Metrics receives inference measurements. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordInference(ctx context.Context, kind string, duration time.Duration, success bool)
}

// Adapter turns model output into a match score in [0,100].
type Adapter struct {
	handle  *Handle
	logger  *errors.Logger
	metrics Metrics
}

// NewAdapter creates an adapter over handle. metrics may be nil.
func NewAdapter(handle *Handle, logger *errors.Logger, metrics Metrics) *Adapter {
	return &Adapter{handle: handle, logger: logger, metrics: metrics}
}

// Label returns the model label used in reports.
func (a *Adapter) Label() string {
	if a == nil || a.handle == nil {
		return KindLSTM.Label()
	}
	return a.handle.Kind().Label()
}

// Score returns the model's overall score and true, or false when the model
// cannot be loaded or inference fails. It never panics on backend errors.
func (a *Adapter) Score(ctx context.Context, resumeText, jobText string) (float64, bool) {
	if a == nil {
		return 0, false
	}
	pred, err := a.handle.Get(ctx)
	if err != nil {
		return 0, false
	}

	start := time.Now()
	raw, err := pred.Predict(ctx, resumeText, jobText)
	ok := err == nil && !math.IsNaN(raw) && !math.IsInf(raw, 0)
	if a.metrics != nil {
		a.metrics.RecordInference(ctx, string(a.handle.Kind()), time.Since(start), ok)
	}
	if !ok {
		if a.logger != nil {
			args := []any{"kind", a.handle.Kind(), "raw", raw}
			if err != nil {
				args = append(args, "error", err.Error())
			}
			a.logger.Warn("ML inference failed", args...)
		}
		return 0, false
	}
	return ClipScore(raw * 100), true
}

// ClipScore clamps v into [0,100].
func ClipScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
