package server

import (
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"resumatch/internal/jobs"
	"resumatch/internal/types"
)

const tracerName = "resumatch.api"

// matchHandler scores one resume against one job.
func (s *Server) matchHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.match")
	defer span.End()

	var req MatchRequest
	if err := parseJSONRequest(r, &req); err != nil {
		validationFailed(span, err)
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.ResumeText) == "" {
		validationFailed(span, fmt.Errorf("missing resume text"))
		writeErrorResponse(w, "Missing resume text", "resumeText field is required", http.StatusBadRequest)
		return
	}

	var job types.JobRecord
	switch {
	case req.Job != nil:
		job = *req.Job
	case strings.TrimSpace(req.JobID) != "":
		found, err := s.Jobs.Get(ctx, req.JobID)
		if err != nil {
			span.RecordError(err)
			if jobs.IsNotFound(err) {
				writeErrorResponse(w, "Job not found", fmt.Sprintf("no job with id %q", req.JobID), http.StatusNotFound)
				return
			}
			s.Logger.LogError(err, "Failed to load job", "job_id", req.JobID)
			writeErrorResponse(w, "Failed to load job", err.Error(), http.StatusBadGateway)
			return
		}
		job = found
	default:
		validationFailed(span, fmt.Errorf("missing job"))
		writeErrorResponse(w, "Missing job", "either job or jobId is required", http.StatusBadRequest)
		return
	}

	strategy := s.strategyFor(req.Strategy)
	span.SetAttributes(
		attribute.Int("request.resume_length", len(req.ResumeText)),
		attribute.String("request.strategy", string(strategy)),
		attribute.String("job.title", job.DisplayTitle()),
	)

	rec := s.Matcher.ParseResume(req.ResumeText)
	report := s.Matcher.MatchWithReport(ctx, rec, job, strategy)

	span.SetAttributes(
		attribute.String("match.used_strategy", string(report.Used)),
		attribute.Bool("match.fallback", report.Fallback),
		attribute.Int("match.score", report.Result.MatchScore),
	)
	writeJSON(w, http.StatusOK, report)
}

// rankHandler scores one resume against every job of the configured source.
func (s *Server) rankHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.rank")
	defer span.End()

	var req RankRequest
	if err := parseJSONRequest(r, &req); err != nil {
		validationFailed(span, err)
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ResumeText) == "" {
		validationFailed(span, fmt.Errorf("missing resume text"))
		writeErrorResponse(w, "Missing resume text", "resumeText field is required", http.StatusBadRequest)
		return
	}
	if req.Limit < 0 {
		validationFailed(span, fmt.Errorf("negative limit"))
		writeErrorResponse(w, "Invalid limit", "limit must not be negative", http.StatusBadRequest)
		return
	}

	postings, err := s.Jobs.List(ctx)
	if err != nil {
		span.RecordError(err)
		s.Logger.LogError(err, "Failed to list jobs", "source", s.Jobs.Name())
		writeErrorResponse(w, "Failed to list jobs", err.Error(), http.StatusBadGateway)
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.RankLimit
	}
	strategy := s.strategyFor(req.Strategy)
	span.SetAttributes(
		attribute.Int("rank.jobs", len(postings)),
		attribute.Int("rank.limit", limit),
		attribute.String("request.strategy", string(strategy)),
	)

	rec := s.Matcher.ParseResume(req.ResumeText)
	writeJSON(w, http.StatusOK, s.Matcher.RankReport(ctx, rec, postings, strategy, limit))
}

// vocabularyHandler lists the active skill vocabulary.
func (s *Server) vocabularyHandler(w http.ResponseWriter, r *http.Request) {
	vocab := s.Matcher.Vocabulary()
	writeJSON(w, http.StatusOK, VocabularyResponse{
		Size:   vocab.Size(),
		Skills: vocab.Load().Sorted(),
		Stats:  vocab.Stats(),
	})
}

// rebuildVocabularyHandler rebuilds the vocabulary from the job source.
func (s *Server) rebuildVocabularyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.Observability.Tracer(tracerName).Start(r.Context(), "api.vocabulary.rebuild")
	defer span.End()

	vocab := s.Matcher.Vocabulary()
	size, err := vocab.Rebuild(ctx, s.Jobs, s.Seed)
	if err != nil {
		span.RecordError(err)
		s.Logger.LogError(err, "Vocabulary rebuild failed", "source", s.Jobs.Name())
		writeErrorResponse(w, "Vocabulary rebuild failed", err.Error(), http.StatusBadGateway)
		return
	}
	s.Observability.GetMetrics().RecordVocabulary(ctx, size, true)
	s.Logger.Info("Vocabulary rebuilt", "size", size, "source", s.Jobs.Name())

	span.SetAttributes(attribute.Int("vocabulary.size", size))
	writeJSON(w, http.StatusOK, VocabularyResponse{Size: size, Stats: vocab.Stats()})
}

// strategyFor resolves the requested strategy. Empty means the configured
// default; unknown names are passed through so the orchestrator can log and
// score them rule-based.
func (s *Server) strategyFor(requested string) types.Strategy {
	if strings.TrimSpace(requested) == "" {
		return s.DefaultStrategy
	}
	if known, ok := types.LookupStrategy(requested); ok {
		return known
	}
	return types.Strategy(requested)
}

func validationFailed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.String("error.type", "validation"))
}
