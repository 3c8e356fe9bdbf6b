package ai

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
	"resumatch/internal/breaker"
	"resumatch/internal/config"
	appErrors "resumatch/internal/errors"
)

const modelCheckTimeout = 10 * time.Second

// GeminiProvider implements TextGenerator for Google Gemini
type GeminiProvider struct {
	client       *genai.Client
	config       *config.OperationAIConfig
	breaker      *breaker.Breaker[*genai.GenerateContentResponse]
	modelBreaker *breaker.Breaker[*genai.Model]
	logger       *appErrors.Logger
}

var _ TextGenerator = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini client for the match operation.
func NewGeminiProvider(cfg *config.OperationAIConfig, logger *appErrors.Logger) (*GeminiProvider, error) {
	return newGeminiProvider(cfg, logger, genai.HTTPOptions{})
}

func newGeminiProvider(cfg *config.OperationAIConfig, logger *appErrors.Logger, httpOptions genai.HTTPOptions) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPClient: &http.Client{
			Timeout:   *cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, appErrors.NewBackendUnavailable("failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:       client,
		config:       cfg,
		breaker:      breaker.New[*genai.GenerateContentResponse]("AI-match", cfg.CircuitBreaker, logger),
		modelBreaker: breaker.New[*genai.Model]("AI-match-model", cfg.CircuitBreaker, logger),
		logger:       logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model.
// Transient failures are retried up to maxRetries times.
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	model, err := withRetry(checkCtx, g, "model_check", func() (*genai.Model, error) {
		return g.modelBreaker.Execute(func() (*genai.Model, error) {
			return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
		})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// Generate sends the prompts to Gemini and returns the reply text. It makes
// exactly one GenerateContent call; a failed match falls back instead of
// retrying.
func (g *GeminiProvider) Generate(ctx context.Context, systemPrompt, userPrompt string) (Generation, error) {
	ctx, span := otel.Tracer("resumatch.ai.gemini").Start(ctx, "gemini.match")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.Int("input.prompt_length", len(userPrompt)),
	)

	genaiConfig := g.buildMatchSchema()
	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.breaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return Generation{}, appErrors.NewBackendUnavailable("Gemini request failed", err).
			WithContext("model", g.config.Model)
	}

	gen := Generation{Text: result.Text(), Usage: extractTokenUsage(result)}
	if gen.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", gen.Usage.InputTokens),
			attribute.Int64("ai.tokens.output", gen.Usage.OutputTokens),
			attribute.Int64("ai.tokens.total", gen.Usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return gen, nil
}

// withRetry runs fn with exponential backoff while it fails with a retryable error.
func withRetry[T any](ctx context.Context, g *GeminiProvider, operation string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"error", lastErr.Error())

			select {
			case <-time.After(backoffDelay(attempt)):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", maxRetries+1)

	return zero, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, maxRetries, lastErr)
}

// backoffDelay is 2^(attempt-1) seconds plus up to 10% jitter, capped at 30s.
func backoffDelay(attempt int) time.Duration {
	baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	var jitter time.Duration
	if jitterMax := int64(float64(baseDelay) * 0.1); jitterMax > 0 {
		if n, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			jitter = time.Duration(n.Int64())
		}
	}
	return min(baseDelay+jitter, 30*time.Second)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// Network errors (timeouts, refused connections) are transient.
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return isRetryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return isRetryableStatus(genaiErr.Code)
	}

	return false
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.breaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.breaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements TextGenerator
func (g *GeminiProvider) Close() error {
	return nil
}

// buildMatchSchema asks for the assessment fields as JSON.
func (g *GeminiProvider) buildMatchSchema() *genai.GenerateContentConfig {
	scoreField := &genai.Schema{Type: genai.TypeInteger}
	listField := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"match_score":                scoreField,
				"skill_match_score":          scoreField,
				"experience_match_score":     scoreField,
				"matched_skills":             listField,
				"missing_skills_from_resume": listField,
				"suggestions_for_candidate":  {Type: genai.TypeString},
				"suitability_summary":        {Type: genai.TypeString},
			},
			Required: []string{
				"match_score",
				"skill_match_score",
				"experience_match_score",
				"matched_skills",
				"missing_skills_from_resume",
				"suggestions_for_candidate",
				"suitability_summary",
			},
		},
	}

	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	return cfg
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
