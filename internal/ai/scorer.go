package ai

import (
	"context"
	"strings"
	"time"
	"unicode"

	"resumatch/internal/errors"
	"resumatch/internal/types"
)

const maxLoggedResponse = 512

// Metrics receives LLM call measurements. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordLLMCall(ctx context.Context, model string, duration time.Duration, usage *TokenUsage, success bool)
}

// LLMScorer asks an LLM for a structured assessment of a resume against a
// job and normalizes the reply.
type LLMScorer struct {
	gen     TextGenerator
	prompts Prompts
	model   string
	logger  *errors.Logger
	metrics Metrics
}

// NewLLMScorer creates a scorer. gen may be nil, in which case every call
// reports the backend as unavailable.
func NewLLMScorer(gen TextGenerator, prompts Prompts, model string, logger *errors.Logger) *LLMScorer {
	if logger == nil {
		logger = errors.NewDiscardLogger()
	}
	return &LLMScorer{gen: gen, prompts: prompts, model: model, logger: logger}
}

// WithMetrics attaches a metrics recorder.
func (s *LLMScorer) WithMetrics(m Metrics) *LLMScorer {
	s.metrics = m
	return s
}

// Label is the model name reported in results and history records.
func (s *LLMScorer) Label() string {
	if s == nil {
		return ModelLabel("")
	}
	return ModelLabel(s.model)
}

// Available reports whether a backend is wired.
func (s *LLMScorer) Available() bool {
	return s != nil && s.gen != nil
}

// Score runs one LLM assessment. It never returns an error: transport
// failures become Unavailable and unparseable replies become Malformed.
func (s *LLMScorer) Score(ctx context.Context, resumeText string, job types.JobRecord) types.Outcome {
	if !s.Available() {
		return types.Unavailable("llm backend not configured")
	}

	start := time.Now()
	gen, err := s.gen.Generate(ctx, s.prompts.system(), s.prompts.buildUser(resumeText, job))
	if s.metrics != nil {
		s.metrics.RecordLLMCall(ctx, s.model, time.Since(start), gen.Usage, err == nil)
	}
	if err != nil {
		s.logger.LogError(err, "LLM request failed", "model", s.model, "job_title", job.DisplayTitle())
		return types.Unavailable(err.Error())
	}

	result, err := ParseAssessment(gen.Text)
	if err != nil {
		s.logger.Warn("LLM response could not be parsed",
			"model", s.model,
			"job_title", job.DisplayTitle(),
			"error", err.Error(),
			"raw_response", truncate(gen.Text, maxLoggedResponse))
		out := types.Malformed(gen.Text)
		out.Reason = err.Error()
		return out
	}
	return types.Success(result)
}

// ModelLabel turns a model id such as "gemini-2.0-flash" into a display label
// ("Gemini 2.0 Flash").
func ModelLabel(model string) string {
	model = strings.TrimSpace(model)
	model = strings.TrimPrefix(model, "models/")
	if model == "" {
		return "LLM"
	}
	parts := strings.FieldsFunc(model, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
