package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"time"

	"resumatch/internal/ai"
)

// getHealthCheckTimeout returns the configured model check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if s.AppConfig != nil {
		if t := s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout; t > 0 {
			return t
		}
		if t := s.AppConfig.Observability.HealthCheck.Timeout; t > 0 {
			return t
		}
	}
	return 5 * time.Second
}

// healthHandler reports service health including backend status. The rule
// based strategy always works, so a missing LLM or model backend only
// degrades the service when it was configured and cannot be reached.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumatch",
		"version": s.Version,
	}

	llmStatus := s.checkLLMHealth(r.Context())
	response["llm"] = llmStatus
	response["job_source"] = s.Jobs.Name()
	response["vocabulary_size"] = s.Matcher.Vocabulary().Size()

	if llmStatus != nil && !llmStatus.Available {
		response["status"] = "degraded"
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// checkLLMHealth asks the LLM backend for its model metadata. It returns nil
// when no backend is configured.
func (s *Server) checkLLMHealth(ctx context.Context) *ai.ModelInfo {
	if s.Generator == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.getHealthCheckTimeout())
	defer cancel()
	return s.Generator.GetModelInfo(ctx)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumatch",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"matcher":    s.Matcher.Stats(),
		"vocabulary": s.Matcher.Vocabulary().Stats(),
	}

	if cb, ok := s.Generator.(interface{ GetCircuitBreakerStats() map[string]any }); ok {
		response["circuit_breakers"] = cb.GetCircuitBreakerStats()
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
