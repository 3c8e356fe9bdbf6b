// Package ml adapts a trained resume/job classifier to the matcher. The model
// only yields an overall compatibility scalar; breakdowns come from the rule
// scorer.
package ml

import (
	"context"
	"strings"
)

// Kind identifies the model family behind the serving endpoint.
type Kind string

const (
	KindLSTM        Kind = "lstm"
	KindTransformer Kind = "transformer"
)

// ParseKind maps a config value to a Kind, defaulting to LSTM.
func ParseKind(s string) Kind {
	if strings.EqualFold(strings.TrimSpace(s), string(KindTransformer)) {
		return KindTransformer
	}
	return KindLSTM
}

// Label is the model name reported in results and history records.
func (k Kind) Label() string {
	if k == KindTransformer {
		return "Transformer Model"
	}
	return "LSTM Model"
}

// Predictor scores a resume against a job. The returned value is the raw
// model output, nominally a fraction in [0,1].
type Predictor interface {
	Predict(ctx context.Context, resumeText, jobText string) (float64, error)
}

// Loader produces a ready Predictor. Load may be slow and may fail; Handle
// calls it at most once concurrently and retries after failures.
type Loader interface {
	Load(ctx context.Context) (Predictor, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Predictor, error)

func (f LoaderFunc) Load(ctx context.Context) (Predictor, error) {
	return f(ctx)
}

// PredictorFunc adapts a function to Predictor.
type PredictorFunc func(ctx context.Context, resumeText, jobText string) (float64, error)

func (f PredictorFunc) Predict(ctx context.Context, resumeText, jobText string) (float64, error) {
	return f(ctx, resumeText, jobText)
}
