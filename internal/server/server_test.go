package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"resumatch/internal/config"
	"resumatch/internal/jobs"
	"resumatch/internal/matcher"
	"resumatch/internal/types"
)

const testResume = "Data engineer with 3 years of experience in Python and SQL."

const testJobsYAML = `
- id: job-1
  job_title: Data Engineer
  company_name: Acme
  experience_level: Mid
  skills_required: Python, SQL, AWS
- id: job-2
  job_title: Platform Engineer
  experience_level: Senior
  skills_required: Rust, Terraform
- id: job-3
  job_title: Analyst
  experience_level: Entry
  skills_required: SQL
`

func newTestServer(t *testing.T, cfg ServerConfig) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testJobsYAML), 0o600))

	s := NewServer(&config.Config{}, cfg, Dependencies{
		Matcher:   matcher.New(),
		Jobs:      jobs.NewFileSource(path),
		RankLimit: 10,
	}, nil)
	t.Cleanup(s.cleanupRateLimiter)
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:4321"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMatchInlineJob(t *testing.T) {
	h := newTestServer(t, ServerConfig{}).Handler()

	rec := doJSON(t, h, http.MethodPost, "/match", MatchRequest{
		ResumeText: testResume,
		Job: &types.JobRecord{
			Title:           "Data Engineer",
			ExperienceLevel: "Mid",
			SkillsRequired:  "Python, SQL, AWS",
		},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var report types.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, types.StrategyRuleBased, report.Used)
	assert.Equal(t, 77, report.Result.MatchScore)
	assert.Equal(t, 67, report.Result.SkillMatch)
	assert.Equal(t, 100, report.Result.ExperienceMatch)
	assert.Equal(t, []string{"aws"}, report.Result.MissingSkills)
	assert.Equal(t, "Data Engineer", report.History.JobTitle)
}

func TestMatchByJobID(t *testing.T) {
	h := newTestServer(t, ServerConfig{}).Handler()

	rec := doJSON(t, h, http.MethodPost, "/match", MatchRequest{ResumeText: testResume, JobID: "job-3", Strategy: "rules"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report types.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "job-3", report.JobID)
	assert.Equal(t, 100, report.Result.MatchScore)

	rec = doJSON(t, h, http.MethodPost, "/match", MatchRequest{ResumeText: testResume, JobID: "nope"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMatchUnknownStrategyFallsToRuleBased(t *testing.T) {
	h := newTestServer(t, ServerConfig{}).Handler()

	rec := doJSON(t, h, http.MethodPost, "/match", MatchRequest{ResumeText: testResume, JobID: "job-1", Strategy: "quantum"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report types.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, types.StrategyRuleBased, report.Used)
	assert.Equal(t, types.Strategy("quantum"), report.Requested)
}

func TestMatchValidation(t *testing.T) {
	h := newTestServer(t, ServerConfig{}).Handler()

	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "missing resume", body: MatchRequest{JobID: "job-1"}, want: http.StatusBadRequest},
		{name: "missing job", body: MatchRequest{ResumeText: testResume}, want: http.StatusBadRequest},
		{name: "not an object", body: []int{1, 2}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/match", tt.body, nil)
			assert.Equal(t, tt.want, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}

	t.Run("wrong content type", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/match", MatchRequest{ResumeText: testResume, JobID: "job-1"},
			map[string]string{"Content-Type": "text/plain"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/match", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRequestSizeLimit(t *testing.T) {
	h := newTestServer(t, ServerConfig{MaxRequestSize: 64}).Handler()

	rec := doJSON(t, h, http.MethodPost, "/match", MatchRequest{ResumeText: string(bytes.Repeat([]byte("a"), 200)), JobID: "job-1"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}

func TestRank(t *testing.T) {
	h := newTestServer(t, ServerConfig{}).Handler()

	rec := doJSON(t, h, http.MethodPost, "/rank", RankRequest{ResumeText: testResume, Limit: 2}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report types.RankReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Results, 2)
	assert.Equal(t, "job-3", report.Results[0].JobID)
	assert.Equal(t, "job-1", report.Results[1].JobID)
	assert.Equal(t, 3, report.YearsExperience)
	assert.Equal(t, []string{"python", "sql"}, report.ResumeSkills)

	rec = doJSON(t, h, http.MethodPost, "/rank", RankRequest{ResumeText: testResume, Limit: -1}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVocabularyRebuild(t *testing.T) {
	s := newTestServer(t, ServerConfig{})
	s.Seed = []string{"Go"}
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/vocabulary/rebuild", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var rebuilt VocabularyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rebuilt))
	assert.Equal(t, 6, rebuilt.Size)

	rec = doJSON(t, h, http.MethodGet, "/vocabulary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var listed VocabularyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Equal(t, []string{"aws", "go", "python", "rust", "sql", "terraform"}, listed.Skills)
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(t, ServerConfig{APIKeys: []string{"secret-key-123"}}).Handler()
	body := MatchRequest{ResumeText: testResume, JobID: "job-1"}

	tests := []struct {
		name    string
		headers map[string]string
		want    int
	}{
		{name: "missing key", want: http.StatusUnauthorized},
		{name: "wrong key", headers: map[string]string{"X-API-Key": "nope"}, want: http.StatusUnauthorized},
		{name: "header key", headers: map[string]string{"X-API-Key": "secret-key-123"}, want: http.StatusOK},
		{name: "bearer token", headers: map[string]string{"Authorization": "Bearer secret-key-123"}, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/match", body, tt.headers)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := doJSON(t, h, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, ServerConfig{RateLimit: &config.RateLimitConfig{
		Enabled:        true,
		RequestsPerMin: 1,
		BurstCapacity:  1,
		ByIP:           true,
	}}).Handler()
	body := MatchRequest{ResumeText: testResume, JobID: "job-1"}

	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/match", body, nil).Code)
	limited := doJSON(t, h, http.MethodPost, "/match", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodPost, "/match", body,
		map[string]string{"X-Forwarded-For": "198.51.100.7"}).Code)
}

func TestHealthAndStats(t *testing.T) {
	h := newTestServer(t, ServerConfig{Version: "1.0.0"}).Handler()

	rec := doJSON(t, h, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "file", health["job_source"])

	rec = doJSON(t, h, http.MethodGet, "/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, "1.0.0", stats["version"])
	assert.Contains(t, stats, "matcher")
	assert.Contains(t, stats, "vocabulary")
}

func TestClientHelpers(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))

	assert.Equal(t, "203.0.113.5", parseFirstIP("bogus, 203.0.113.5, 10.0.0.1"))
	assert.Empty(t, parseFirstIP("bogus"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("Authorization", "Bearer key-1")
	assert.Equal(t, "api:key-1", getRateLimitKey(req, true, true))
	assert.Equal(t, "ip:192.0.2.1", getRateLimitKey(req, false, true))
	assert.Empty(t, getRateLimitKey(req, false, false))
}

func TestRateLimiterStatsAndEviction(t *testing.T) {
	rl := NewRateLimiter(60, 1, nil)
	defer rl.Close()

	ok, _ := rl.Allow("ip:a")
	assert.True(t, ok)
	ok, wait := rl.Allow("ip:a")
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	ok, _ = rl.Allow("ip:b")
	assert.True(t, ok)

	stats := rl.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, int64(1), stats["rejected_total"])
	assert.InDelta(t, 60.0, stats["rate_per_minute"], 0.001)

	rl.evictIdle(time.Now().Add(time.Minute))
	assert.Equal(t, 0, rl.GetStats()["active_limiters"])
	rl.Close()
}
