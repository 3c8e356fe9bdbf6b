package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"resumatch/internal/ai"
	"resumatch/internal/config"
	"resumatch/internal/types"
)

// Metrics holds all custom metrics for resumatch. The zero value records
// nothing.
type Metrics struct {
	settings config.CustomMetricsConfig

	// Orchestrator
	MatchRequests  metric.Int64Counter
	MatchFallbacks metric.Int64Counter
	MatchDuration  metric.Float64Histogram
	MatchScores    metric.Int64Histogram

	// LLM backend
	LLMDuration   metric.Float64Histogram
	LLMRequests   metric.Int64Counter
	LLMErrors     metric.Int64Counter
	LLMTokenUsage metric.Int64Histogram

	// ML backend
	MLInferenceDuration metric.Float64Histogram
	MLInferences        metric.Int64Counter

	// Infrastructure
	VocabularySize     metric.Int64Gauge
	VocabularyRebuilds metric.Int64Counter
	RateLimitHits      metric.Int64Counter
}

// AllMetrics enables every metric group and option.
func AllMetrics() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		Matching:       config.MatchingMetricsConfig{Enabled: true, TrackScores: true, TrackFallbacks: true},
		Backends:       config.BackendMetricsConfig{Enabled: true, TrackDuration: true, TrackTokenUsage: true},
		Infrastructure: config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true, TrackVocabulary: true},
	}
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter, settings config.CustomMetricsConfig) (*Metrics, error) {
	m := &Metrics{settings: settings}
	var err error

	if m.MatchRequests, err = meter.Int64Counter(
		"resumatch_match_requests_total",
		metric.WithDescription("Total number of match runs"),
	); err != nil {
		return nil, fmt.Errorf("failed to create match requests metric: %w", err)
	}
	if m.MatchFallbacks, err = meter.Int64Counter(
		"resumatch_match_fallbacks_total",
		metric.WithDescription("Match runs answered by the rule-based fallback"),
	); err != nil {
		return nil, fmt.Errorf("failed to create match fallbacks metric: %w", err)
	}
	if m.MatchDuration, err = meter.Float64Histogram(
		"resumatch_match_duration_seconds",
		metric.WithDescription("Time spent producing a match result"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create match duration metric: %w", err)
	}
	if m.MatchScores, err = meter.Int64Histogram(
		"resumatch_match_score",
		metric.WithDescription("Distribution of overall match scores"),
		metric.WithExplicitBucketBoundaries(10, 20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return nil, fmt.Errorf("failed to create match score metric: %w", err)
	}

	if m.LLMDuration, err = meter.Float64Histogram(
		"resumatch_llm_request_duration_seconds",
		metric.WithDescription("Time spent waiting for the LLM backend"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create LLM duration metric: %w", err)
	}
	if m.LLMRequests, err = meter.Int64Counter(
		"resumatch_llm_requests_total",
		metric.WithDescription("Total number of LLM requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create LLM request metric: %w", err)
	}
	if m.LLMErrors, err = meter.Int64Counter(
		"resumatch_llm_errors_total",
		metric.WithDescription("Total number of failed LLM requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create LLM error metric: %w", err)
	}
	if m.LLMTokenUsage, err = meter.Int64Histogram(
		"resumatch_llm_token_usage",
		metric.WithDescription("Token usage for LLM requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return nil, fmt.Errorf("failed to create LLM token usage metric: %w", err)
	}

	if m.MLInferenceDuration, err = meter.Float64Histogram(
		"resumatch_ml_inference_duration_seconds",
		metric.WithDescription("Time spent in model inference"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create ML duration metric: %w", err)
	}
	if m.MLInferences, err = meter.Int64Counter(
		"resumatch_ml_inferences_total",
		metric.WithDescription("Total number of model inferences"),
	); err != nil {
		return nil, fmt.Errorf("failed to create ML inference metric: %w", err)
	}

	if m.VocabularySize, err = meter.Int64Gauge(
		"resumatch_vocabulary_size",
		metric.WithDescription("Number of skills in the active vocabulary"),
	); err != nil {
		return nil, fmt.Errorf("failed to create vocabulary size metric: %w", err)
	}
	if m.VocabularyRebuilds, err = meter.Int64Counter(
		"resumatch_vocabulary_rebuilds_total",
		metric.WithDescription("Total number of vocabulary rebuilds"),
	); err != nil {
		return nil, fmt.Errorf("failed to create vocabulary rebuild metric: %w", err)
	}
	if m.RateLimitHits, err = meter.Int64Counter(
		"resumatch_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// RecordMatch implements matcher.Metrics.
func (m *Metrics) RecordMatch(ctx context.Context, requested, used types.Strategy, fallback bool, duration time.Duration, score int) {
	if m == nil || m.MatchRequests == nil || !m.settings.Matching.Enabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("requested_strategy", string(requested)),
		attribute.String("used_strategy", string(used)),
		attribute.Bool("fallback", fallback),
	)

	m.MatchRequests.Add(ctx, 1, attrs)
	m.MatchDuration.Record(ctx, duration.Seconds(), attrs)
	if fallback && m.settings.Matching.TrackFallbacks {
		m.MatchFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("strategy", string(requested))))
	}
	if m.settings.Matching.TrackScores {
		m.MatchScores.Record(ctx, int64(score), metric.WithAttributes(attribute.String("strategy", string(used))))
	}
}

// RecordLLMCall implements ai.Metrics.
func (m *Metrics) RecordLLMCall(ctx context.Context, model string, duration time.Duration, usage *ai.TokenUsage, success bool) {
	if m == nil || m.LLMRequests == nil || !m.settings.Backends.Enabled {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("model", model),
		attribute.Bool("success", success),
	}

	m.LLMRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
	if !success {
		m.LLMErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if m.settings.Backends.TrackDuration {
		m.LLMDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if usage != nil && m.settings.Backends.TrackTokenUsage {
		m.recordTokenMetrics(ctx, model, usage)
	}
}

func (m *Metrics) recordTokenMetrics(ctx context.Context, model string, usage *ai.TokenUsage) {
	tokenTypes := []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	}
	for _, tt := range tokenTypes {
		m.LLMTokenUsage.Record(ctx, tt.value, metric.WithAttributes(
			attribute.String("model", model),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordInference implements ml.Metrics.
func (m *Metrics) RecordInference(ctx context.Context, kind string, duration time.Duration, success bool) {
	if m == nil || m.MLInferences == nil || !m.settings.Backends.Enabled {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("success", success),
	)
	m.MLInferences.Add(ctx, 1, attrs)
	if m.settings.Backends.TrackDuration {
		m.MLInferenceDuration.Record(ctx, duration.Seconds(), attrs)
	}
}

// RecordVocabulary records the vocabulary size, and a rebuild when rebuilt is
// true.
func (m *Metrics) RecordVocabulary(ctx context.Context, size int, rebuilt bool) {
	if m == nil || m.VocabularySize == nil || !m.infrastructure(m.settings.Infrastructure.TrackVocabulary) {
		return
	}
	m.VocabularySize.Record(ctx, int64(size))
	if rebuilt {
		m.VocabularyRebuilds.Add(ctx, 1)
	}
}

// RecordRateLimitHit counts a rejected request.
func (m *Metrics) RecordRateLimitHit(ctx context.Context, endpoint string) {
	if m == nil || m.RateLimitHits == nil || !m.infrastructure(m.settings.Infrastructure.TrackRateLimits) {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

func (m *Metrics) infrastructure(option bool) bool {
	return m.settings.Infrastructure.Enabled && option
}
