package server

import (
	"net/http"
)

// route is one API endpoint. Protected routes go through rate limiting,
// authentication and the request size limit.
type route struct {
	pattern     string
	protected   bool
	description string
	handler     func(*Server) http.HandlerFunc
}

var routes = []route{
	{"GET /health", false, "Health check", func(s *Server) http.HandlerFunc { return s.healthHandler }},
	{"GET /stats", false, "Server statistics", func(s *Server) http.HandlerFunc { return s.statsHandler }},
	{"POST /match", true, "Match a resume against one job", func(s *Server) http.HandlerFunc { return s.matchHandler }},
	{"POST /rank", true, "Rank jobs for a resume", func(s *Server) http.HandlerFunc { return s.rankHandler }},
	{"GET /vocabulary", true, "List the skill vocabulary", func(s *Server) http.HandlerFunc { return s.vocabularyHandler }},
	{"POST /vocabulary/rebuild", true, "Rebuild the vocabulary from the job source", func(s *Server) http.HandlerFunc { return s.rebuildVocabularyHandler }},
}

// setupRoutes registers every route with its middleware chain.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware()
	sizeLimit := s.requestSizeLimitMiddleware()
	for _, rt := range routes {
		h := rt.handler(s)
		if rt.protected {
			h = rateLimit(s.authMiddleware(sizeLimit(h)))
		}
		mux.HandleFunc(rt.pattern, h)
	}
	return mux
}

// authMiddleware rejects requests without a configured API key. It is a
// no-op when no keys are configured.
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		switch {
		case apiKey == "":
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
		case !s.APIKeys[apiKey]:
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
		default:
			next(w, r)
		}
	}
}

// requestSizeLimitMiddleware caps request bodies at MaxRequestSize.
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.MaxRequestSize <= 0 {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			next(w, r)
		}
	}
}

// maskAPIKey keeps the first 8 characters of a key for logs.
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
