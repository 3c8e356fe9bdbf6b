package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"
)

type fakeGenerator struct {
	text   string
	err    error
	system string
	user   string
}

func (f *fakeGenerator) Generate(_ context.Context, systemPrompt, userPrompt string) (Generation, error) {
	f.system, f.user = systemPrompt, userPrompt
	if f.err != nil {
		return Generation{}, f.err
	}
	return Generation{Text: f.text, Usage: &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}, nil
}

func (f *fakeGenerator) GetModelInfo(context.Context) *ModelInfo {
	return &ModelInfo{Name: "fake", Available: true}
}

func (f *fakeGenerator) Close() error { return nil }

var sampleJob = types.JobRecord{
	Title:           "Backend Engineer",
	Company:         "Acme",
	Description:     "Build APIs in Go.",
	ExperienceLevel: "Mid",
	SkillsRequired:  "Go, SQL, Docker",
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{
			name:   "fenced block",
			raw:    "Here you go:\n```json\n{\"match_score\": 80}\n```\nThanks {not this}",
			want:   `{"match_score": 80}`,
			wantOK: true,
		},
		{
			name:   "uppercase fence tag",
			raw:    "```JSON {\"a\": 1} ```",
			want:   `{"a": 1}`,
			wantOK: true,
		},
		{
			name:   "prose around braces",
			raw:    `The result is {"a": {"b": 2}} as requested.`,
			want:   `{"a": {"b": 2}}`,
			wantOK: true,
		},
		{name: "no braces", raw: "I cannot help with that.", wantOK: false},
		{name: "closing before opening", raw: "} oops {", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAssessment(t *testing.T) {
	raw := "```json\n" + `{
  "match_score": 82,
  "skill_match_score": "75",
  "experience_match_score": 90.6,
  "matched_skills": ["Go", "SQL", ""],
  "missing_skills_from_resume": ["Docker"],
  "suggestions_for_candidate": "Containerize a side project.",
  "suitability_summary": "Strong backend profile."
}` + "\n```"

	got, err := ParseAssessment(raw)
	require.NoError(t, err)
	assert.Equal(t, types.MatchResult{
		MatchScore:      82,
		SkillMatch:      75,
		ExperienceMatch: 91,
		MatchedSkills:   []string{"Go", "SQL"},
		MissingSkills:   []string{"Docker"},
		Suggestions:     "Containerize a side project.",
		Detail:          "Strong backend profile.",
	}, got)
}

func TestParseAssessmentAliasesAndClamping(t *testing.T) {
	raw := `Sure! {"match_score": 140, "skill_match": -12, "experience_match": "55%",
		"missing_skills": "Docker, Kubernetes", "suggestions": ["Learn Docker.", "Ship k8s."]}`

	got, err := ParseAssessment(raw)
	require.NoError(t, err)
	assert.Equal(t, 100, got.MatchScore)
	assert.Equal(t, 0, got.SkillMatch)
	assert.Equal(t, 55, got.ExperienceMatch)
	assert.Equal(t, []string{}, got.MatchedSkills)
	assert.Equal(t, []string{"Docker", "Kubernetes"}, got.MissingSkills)
	assert.Equal(t, "Learn Docker. Ship k8s.", got.Suggestions)
}

func TestParseAssessmentMalformed(t *testing.T) {
	for _, raw := range []string{
		`{"match_score": 80, "skill_match_score": {`,
		`{"match_score": 80,,}`,
		"no json here",
		"",
	} {
		_, err := ParseAssessment(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.IsMalformedResponse(err), raw)
	}
}

func TestRenderJob(t *testing.T) {
	got := RenderJob(sampleJob)
	assert.Equal(t, "Job Title: Backend Engineer\nCompany: Acme\nExperience Level: Mid\nSkills Required: Go, SQL, Docker\n\nDescription:\nBuild APIs in Go.", got)

	assert.Equal(t, "Job Title: N/A", RenderJob(types.JobRecord{}))
}

func TestPromptsBuildUser(t *testing.T) {
	user := Prompts{}.buildUser("RESUME TEXT", sampleJob)
	assert.Contains(t, user, "ReactJS")
	assert.Contains(t, user, "RESUME TEXT")
	assert.Contains(t, user, "Job Title: Backend Engineer")
	assert.Less(t, strings.Index(user, "Backend Engineer"), strings.Index(user, "RESUME TEXT"))

	custom := Prompts{User: "Job=%s Resume=%s"}.buildUser("R", sampleJob)
	assert.True(t, strings.HasSuffix(custom, "Resume=R"))

	noVerbs := Prompts{User: "Score 100% honestly."}.buildUser("R", sampleJob)
	assert.True(t, strings.HasPrefix(noVerbs, "Score 100% honestly."))
	assert.Contains(t, noVerbs, "Job Title: Backend Engineer")

	assert.Equal(t, DefaultSystemPrompt, Prompts{}.system())
	assert.Equal(t, "sys", Prompts{System: "sys"}.system())
}

func TestModelLabel(t *testing.T) {
	assert.Equal(t, "Gemini 2.0 Flash", ModelLabel("gemini-2.0-flash"))
	assert.Equal(t, "Gemini Pro", ModelLabel("models/gemini-pro"))
	assert.Equal(t, "LLM", ModelLabel(""))
}

type recordingMetrics struct {
	calls   int
	success bool
	usage   *TokenUsage
}

func (m *recordingMetrics) RecordLLMCall(_ context.Context, _ string, _ time.Duration, usage *TokenUsage, success bool) {
	m.calls++
	m.success = success
	m.usage = usage
}

func TestLLMScorerOutcomes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		gen := &fakeGenerator{text: `{"match_score": 70, "skill_match_score": 60, "experience_match_score": 90}`}
		m := &recordingMetrics{}
		s := NewLLMScorer(gen, Prompts{System: "be strict"}, "gemini-2.0-flash", nil).WithMetrics(m)

		out := s.Score(context.Background(), "resume", sampleJob)
		require.True(t, out.OK())
		assert.Equal(t, 70, out.Result.MatchScore)
		assert.Equal(t, "be strict", gen.system)
		assert.Contains(t, gen.user, "resume")
		assert.Equal(t, 1, m.calls)
		assert.True(t, m.success)
		assert.Equal(t, int64(15), m.usage.TotalTokens)
	})

	t.Run("backend error", func(t *testing.T) {
		gen := &fakeGenerator{err: fmt.Errorf("connection refused")}
		out := NewLLMScorer(gen, Prompts{}, "gemini-pro", errors.NewDiscardLogger()).Score(context.Background(), "resume", sampleJob)
		assert.Equal(t, types.OutcomeUnavailable, out.Kind)
		assert.Contains(t, out.Reason, "connection refused")
	})

	t.Run("malformed reply", func(t *testing.T) {
		gen := &fakeGenerator{text: `{"match_score": 80`}
		out := NewLLMScorer(gen, Prompts{}, "gemini-pro", nil).Score(context.Background(), "resume", sampleJob)
		assert.Equal(t, types.OutcomeMalformed, out.Kind)
		assert.Equal(t, `{"match_score": 80`, out.Raw)
		assert.NotEmpty(t, out.Reason)
	})

	t.Run("no backend", func(t *testing.T) {
		s := NewLLMScorer(nil, Prompts{}, "", nil)
		assert.False(t, s.Available())
		out := s.Score(context.Background(), "resume", sampleJob)
		assert.Equal(t, types.OutcomeUnavailable, out.Kind)
		assert.Equal(t, "LLM", s.Label())
	})
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limited", err: &googleapi.Error{Code: http.StatusTooManyRequests}, want: true},
		{name: "unavailable", err: fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusServiceUnavailable}), want: true},
		{name: "bad request", err: &googleapi.Error{Code: http.StatusBadRequest}, want: false},
		{name: "genai server error", err: genai.APIError{Code: http.StatusInternalServerError}, want: true},
		{name: "genai permission", err: genai.APIError{Code: http.StatusForbidden}, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "plain", err: fmt.Errorf("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	d := backoffDelay(1)
	assert.GreaterOrEqual(t, d, time.Second)
	assert.Less(t, d, 1100*time.Millisecond)

	assert.Equal(t, 30*time.Second, backoffDelay(10))
}

func testProvider(maxRetries int) *GeminiProvider {
	timeout := 5 * time.Second
	temp := float32(0.2)
	useSystem := true
	return &GeminiProvider{
		config: &config.OperationAIConfig{
			Provider:         "gemini",
			Model:            "gemini-2.0-flash",
			Timeout:          &timeout,
			MaxRetries:       &maxRetries,
			Temperature:      &temp,
			UseSystemPrompts: &useSystem,
		},
		logger: errors.NewDiscardLogger(),
	}
}

func TestWithRetryStopsOnPermanentError(t *testing.T) {
	g := testProvider(3)
	calls := 0
	_, err := withRetry(context.Background(), g, "model_check", func() (*genai.Model, error) {
		calls++
		return nil, &googleapi.Error{Code: http.StatusBadRequest}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	g := testProvider(3)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := withRetry(ctx, g, "model_check", func() (*genai.Model, error) {
		calls++
		cancel()
		return nil, &googleapi.Error{Code: http.StatusServiceUnavailable}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

// unavailableGemini answers every request with a 503 and counts the calls.
func unavailableGemini(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"code":503,"message":"model overloaded","status":"UNAVAILABLE"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func geminiAt(t *testing.T, baseURL string, maxRetries int) *GeminiProvider {
	t.Helper()
	cfg := testProvider(maxRetries).config
	cfg.APIKey = "test-key"
	g, err := newGeminiProvider(cfg, errors.NewDiscardLogger(), genai.HTTPOptions{BaseURL: baseURL})
	require.NoError(t, err)
	return g
}

func TestLLMScorerCallsGeminiOnce(t *testing.T) {
	srv, requests := unavailableGemini(t)
	g := geminiAt(t, srv.URL, 1)

	scorer := NewLLMScorer(g, Prompts{}, g.config.Model, errors.NewDiscardLogger())
	outcome := scorer.Score(context.Background(), "Go developer with 5 years of experience", sampleJob)

	assert.Equal(t, types.OutcomeUnavailable, outcome.Kind)
	assert.Equal(t, int32(1), requests.Load())
}

func TestGetModelInfoRetriesTransientFailures(t *testing.T) {
	srv, requests := unavailableGemini(t)
	g := geminiAt(t, srv.URL, 1)

	info := g.GetModelInfo(context.Background())
	assert.False(t, info.Available)
	assert.NotEmpty(t, info.Error)
	assert.Equal(t, int32(2), requests.Load())
}

func TestBuildMatchSchema(t *testing.T) {
	cfg := testProvider(0).buildMatchSchema()
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Len(t, cfg.ResponseSchema.Required, 7)
	assert.Contains(t, cfg.ResponseSchema.Properties, "missing_skills_from_resume")
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.2, *cfg.Temperature, 1e-6)
}

func TestNewGeminiProviderFailsWithoutKey(t *testing.T) {
	timeout := time.Second
	retries := 0
	temp := float32(0)
	useSystem := false
	_, err := NewGenerator(&config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "gemini-2.0-flash",
		Timeout:          &timeout,
		MaxRetries:       &retries,
		Temperature:      &temp,
		UseSystemPrompts: &useSystem,
	}, errors.NewDiscardLogger())
	assert.True(t, errors.IsBackendUnavailable(err))
}
