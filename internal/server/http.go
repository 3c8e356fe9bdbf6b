package server

import (
	"time"

	"resumatch/internal/ai"
	"resumatch/internal/config"
	resumatchErrors "resumatch/internal/errors"
	"resumatch/internal/jobs"
	"resumatch/internal/matcher"
	"resumatch/internal/observability"
	"resumatch/internal/types"
)

// MatchRequest is the body of POST /match. Either Job or JobID must be set.
type MatchRequest struct {
	ResumeText string           `json:"resumeText"`
	Job        *types.JobRecord `json:"job,omitempty"`
	JobID      string           `json:"jobId,omitempty"`
	Strategy   string           `json:"strategy,omitempty"`
}

// RankRequest is the body of POST /rank.
type RankRequest struct {
	ResumeText string `json:"resumeText"`
	Strategy   string `json:"strategy,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// VocabularyResponse is returned by GET /vocabulary and POST /vocabulary/rebuild.
type VocabularyResponse struct {
	Size   int            `json:"size"`
	Skills []string       `json:"skills,omitempty"`
	Stats  map[string]any `json:"stats"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Matching
	Matcher         *matcher.Orchestrator
	Jobs            jobs.Source
	Seed            []string
	Generator       ai.TextGenerator
	DefaultStrategy types.Strategy
	RankLimit       int

	Observability *observability.ObservabilityManager

	// Logger
	Logger *resumatchErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// Dependencies are the matching components a Server exposes.
type Dependencies struct {
	Matcher         *matcher.Orchestrator
	Jobs            jobs.Source
	Seed            []string
	Generator       ai.TextGenerator
	DefaultStrategy types.Strategy
	RankLimit       int
	Observability   *observability.ObservabilityManager
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *resumatchErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	if logger == nil {
		logger = resumatchErrors.NewDiscardLogger()
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	if deps.Matcher == nil {
		deps.Matcher = matcher.New(matcher.WithLogger(logger))
	}
	if deps.Jobs == nil {
		deps.Jobs = jobs.None()
	}
	if deps.DefaultStrategy == "" {
		deps.DefaultStrategy = types.StrategyRuleBased
	}

	return &Server{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Version:         cfg.Version,
		AppConfig:       appCfg,
		TLSConfig:       cfg.TLSConfig,
		APIKeys:         apiKeyMap,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		MaxRequestSize:  cfg.MaxRequestSize,
		RateLimit:       cfg.RateLimit,
		RateLimiter:     rateLimiter,
		Matcher:         deps.Matcher,
		Jobs:            deps.Jobs,
		Seed:            deps.Seed,
		Generator:       deps.Generator,
		DefaultStrategy: deps.DefaultStrategy,
		RankLimit:       deps.RankLimit,
		Observability:   deps.Observability,
		Logger:          logger,
	}
}
